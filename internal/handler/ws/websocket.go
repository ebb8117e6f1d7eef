package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/zhouzirui/mirror/backend/internal/service/chat"
	creatureservice "github.com/zhouzirui/mirror/backend/internal/service/creature"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler WebSocket对话处理器，每条文本消息对应会话上的一轮。
type Handler struct {
	conversations *creatureservice.Conversations
	upgrader      websocket.Upgrader
}

// New 创建WebSocket处理器
func New(conversations *creatureservice.Conversations) *Handler {
	return &Handler{
		conversations: conversations,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TextMessage 文本消息
type TextMessage struct {
	Text string `json:"text"`
}

// OutgoingMessage is every frame the server writes.
type OutgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// conn serializes writes; gorilla allows one concurrent writer.
type conn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (c *conn) send(msg OutgoingMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	msg.Timestamp = time.Now().Unix()
	c.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.WriteJSON(msg)
}

func (c *conn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, p, err := h.conversations.Persona(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	c := &conn{Conn: raw}
	defer c.Close()

	log.Printf("[ws] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c.SetReadDeadline(time.Now().Add(readTimeout))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, c)

	h.sendData(c, "connected", sessionID, map[string]any{
		"persona": p.ID,
		"name":    p.Name,
		"state":   session.State,
	})

	for {
		var msg inboundMessage
		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}
		c.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(c, sessionID, "session mismatch")
			continue
		}

		h.handleMessage(ctx, c, sessionID, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *conn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			h.sendError(c, sessionID, "invalid text payload")
			return
		}
		h.handleText(ctx, c, sessionID, text.Text)
	case "ping":
		h.sendData(c, "pong", sessionID, nil)
	default:
		h.sendError(c, sessionID, "unsupported message type: "+msg.Type)
	}
}

// handleText 执行一轮对话并回推结果；轮次按会话串行。
func (h *Handler) handleText(ctx context.Context, c *conn, sessionID, text string) {
	result, err := h.conversations.Send(ctx, sessionID, text)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("[ws] turn failed session=%s: %v", sessionID, err)
		h.sendError(c, sessionID, err.Error())
		return
	}
	h.sendData(c, "turn", sessionID, result)
}

func (h *Handler) sendData(c *conn, kind, sessionID string, data interface{}) {
	if err := c.send(OutgoingMessage{Type: kind, SessionID: sessionID, Data: data}); err != nil {
		log.Printf("[ws] write %s failed: %v", kind, err)
	}
}

func (h *Handler) sendError(c *conn, sessionID, message string) {
	h.sendData(c, "error", sessionID, map[string]string{"message": message})
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
