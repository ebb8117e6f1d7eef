package creature

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mirror/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/mirror/backend/internal/model/chat"
	creatureModel "github.com/zhouzirui/mirror/backend/internal/model/creature"
	"github.com/zhouzirui/mirror/backend/internal/model/persona"
	creatureService "github.com/zhouzirui/mirror/backend/internal/service/creature"
	"github.com/zhouzirui/mirror/backend/pkg/utils"
)

// Handler 无状态的角色对话接口，状态由客户端携带。
type Handler struct {
	svc      *creatureService.Service
	personas persona.Store
}

// New 创建角色处理器
func New(svc *creatureService.Service, personas persona.Store) *Handler {
	return &Handler{svc: svc, personas: personas}
}

// RegisterRoutes 注册角色相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/creature/chat", h.handleChat)
	r.Get("/creature/visual", h.handleVisual)
}

type historyItem struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type chatRequest struct {
	UserMessage         string        `json:"userMessage"`
	ConversationHistory []historyItem `json:"conversationHistory"`
	MemoryScore         float64       `json:"memoryScore"`
	LastPolarity        float64       `json:"lastPolarity"`
	PersonaID           string        `json:"personaId,omitempty"`
}

type chatResponse struct {
	Response       string               `json:"response"`
	EmotionalState string               `json:"emotionalState"`
	Error          string               `json:"error,omitempty"`
	MemoryScore    float64              `json:"memoryScore"`
	Polarity       float64              `json:"polarity"`
	Sentiment      sentiment.Result     `json:"sentiment"`
	Regime         creatureModel.Regime `json:"regime"`
	Visual         creatureModel.Visual `json:"visual"`
}

// handleChat 处理一轮对话
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := h.personas.Default()
	if req.PersonaID != "" {
		found, ok := h.personas.FindByID(req.PersonaID)
		if !ok {
			utils.RespondError(w, http.StatusBadRequest, "persona not found")
			return
		}
		p = found
	}

	state := creatureModel.State{Memory: req.MemoryScore, LastPolarity: req.LastPolarity}.Normalize()
	turn, err := h.svc.HandleTurn(r.Context(), p, state, toMessages(req.ConversationHistory), req.UserMessage)
	if err != nil {
		if errors.Is(err, creatureService.ErrInvalidInput) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[creature] turn abandoned: %v", err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{
		Response:       turn.Reply,
		EmotionalState: turn.EmotionalState,
		Error:          turn.Error,
		MemoryScore:    turn.State.Memory,
		Polarity:       turn.Polarity,
		Sentiment:      turn.Sentiment,
		Regime:         turn.Regime,
		Visual:         turn.Visual,
	})
}

// handleVisual 返回记忆值对应的情绪区间与视觉参数
func (h *Handler) handleVisual(w http.ResponseWriter, r *http.Request) {
	memory := 0.0
	if raw := r.URL.Query().Get("memory"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "memory must be a number")
			return
		}
		memory = creatureModel.Clamp(parsed)
	}

	regime := creatureModel.SelectRegime(memory)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"memory":    memory,
		"regime":    regime,
		"visual":    creatureModel.VisualFor(regime),
		"reply":     h.personas.Default().Mood(regime).Reply,
		"resonance": creatureModel.Resonance(memory),
	})
}

func toMessages(items []historyItem) []chat.Message {
	messages := make([]chat.Message, 0, len(items))
	for _, item := range items {
		role, ok := chat.ParseRole(item.Role)
		if !ok {
			continue
		}
		messages = append(messages, chat.Message{Role: role, Text: item.Text})
	}
	return messages
}
