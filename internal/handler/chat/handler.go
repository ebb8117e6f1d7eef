package chat

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mirror/backend/internal/model/chat"
	"github.com/zhouzirui/mirror/backend/internal/model/creature"
	chatService "github.com/zhouzirui/mirror/backend/internal/service/chat"
	creatureService "github.com/zhouzirui/mirror/backend/internal/service/creature"
	"github.com/zhouzirui/mirror/backend/pkg/utils"
)

// Handler 会话接口的HTTP处理器，状态保存在服务端。
type Handler struct {
	conversations *creatureService.Conversations
	sessions      *chatService.Service
}

// New 创建会话处理器
func New(conversations *creatureService.Conversations, sessions *chatService.Service) *Handler {
	return &Handler{
		conversations: conversations,
		sessions:      sessions,
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Delete("/session/{sessionID}", h.handleDeleteSession)
	r.Post("/session/{sessionID}/turn", h.handleTurn)
}

// SessionView is a session with its derived regime and visual descriptor.
type SessionView struct {
	Session  chat.Session    `json:"session"`
	Regime   creature.Regime `json:"regime"`
	Visual   creature.Visual `json:"visual"`
	Messages []chat.Message  `json:"messages"`
}

func newSessionView(session chat.Session, messages []chat.Message) SessionView {
	regime := creature.SelectRegime(session.State.Memory)
	return SessionView{
		Session:  session,
		Regime:   regime,
		Visual:   creature.VisualFor(regime),
		Messages: messages,
	}
}

// handleCreateSession 创建会话，personaId 为空时使用默认角色
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
	}

	// 允许空请求体，包括无 Content-Length 的分块请求
	if err := utils.DecodeJSON(w, r, &payload); err != nil && !errors.Is(err, utils.ErrEmptyBody) {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, messages, err := h.conversations.Start(r.Context(), payload.PersonaID)
	if err != nil {
		if errors.Is(err, creatureService.ErrPersonaNotFound) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, newSessionView(session, messages))
}

// handleGetSession 返回会话状态与聊天记录
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	messages, err := h.conversations.Transcript(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, newSessionView(session, messages))
}

// handleDeleteSession 删除会话
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTurn 在会话上执行一轮对话
func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Message string `json:"message"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.conversations.Send(r.Context(), sessionID, payload.Message)
	if err != nil {
		if r.Context().Err() != nil {
			log.Printf("[session] turn cancelled for session=%s: %v", sessionID, err)
			return
		}
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, creatureService.ErrInvalidInput):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, creatureService.ErrPersonaNotFound):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[session] unexpected error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
