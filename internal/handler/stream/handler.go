package stream

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	chatService "github.com/zhouzirui/mirror/backend/internal/service/chat"
	creatureService "github.com/zhouzirui/mirror/backend/internal/service/creature"
	"github.com/zhouzirui/mirror/backend/pkg/utils"
)

// Handler delivers session turns as Server-Sent Events
type Handler struct {
	conversations *creatureService.Conversations
}

// New creates a new stream handler
func New(conversations *creatureService.Conversations) *Handler {
	return &Handler{conversations: conversations}
}

// RegisterRoutes 注册流式路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamResponse represents one SSE payload
type StreamResponse struct {
	SessionID string      `json:"sessionId,omitempty"`
	Content   string      `json:"content,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Finished  bool        `json:"finished,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")

	// 会话与输入在建立流之前校验，以便返回正确的状态码
	_, p, err := h.conversations.Persona(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(userMessage) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	sse, err := utils.NewSSEWriter(w)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.HandleStreamRequest(r.Context(), sse, sessionID, p.Name, userMessage); err != nil {
		log.Printf("[stream] error handling request: %v", err)
	}
}

// HandleStreamRequest runs one turn and emits start, state, message and end.
func (h *Handler) HandleStreamRequest(ctx context.Context, sse *utils.SSEWriter, sessionID, personaName, userMessage string) error {
	h.send(sse, "start", StreamResponse{SessionID: sessionID, Content: personaName})

	result, err := h.conversations.Send(ctx, sessionID, userMessage)
	if err != nil {
		if ctx.Err() == nil {
			h.send(sse, "error", StreamResponse{SessionID: sessionID, Error: err.Error()})
		}
		return err
	}

	turn := result.Turn
	h.send(sse, "state", StreamResponse{
		SessionID: sessionID,
		Data: map[string]any{
			"memoryScore": turn.State.Memory,
			"polarity":    turn.Polarity,
			"sentiment":   turn.Sentiment,
			"regime":      turn.Regime,
			"visual":      turn.Visual,
		},
	})

	h.send(sse, "message", StreamResponse{
		SessionID: sessionID,
		Content:   turn.Reply,
		Data: map[string]any{
			"emotionalState": turn.EmotionalState,
			"messages":       result.Messages,
		},
		Error: turn.Error,
	})

	h.send(sse, "end", StreamResponse{SessionID: sessionID, Finished: true})

	log.Printf("[stream] completed turn for session=%s regime=%s fallback=%t", sessionID, turn.Regime, turn.Fallback())
	return nil
}

func (h *Handler) send(sse *utils.SSEWriter, event string, payload StreamResponse) {
	if err := sse.Send(event, payload); err != nil {
		log.Printf("[stream] failed to send %s: %v", event, err)
	}
}
