package chat

import (
	"time"

	"github.com/zhouzirui/mirror/backend/internal/model/creature"
)

// Session captures a transient anonymous conversation.
type Session struct {
	ID        string         `json:"id"`
	PersonaID string         `json:"personaId"`
	State     creature.State `json:"state"`
	Turns     int            `json:"turns"`
	CreatedAt time.Time      `json:"createdAt"`
}
