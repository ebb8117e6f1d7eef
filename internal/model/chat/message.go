package chat

import "time"

// Role 标识消息的发送方。
type Role string

const (
	RoleUser     Role = "user"
	RoleCreature Role = "creature"
)

// Message is one immutable turn of a conversation.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId,omitempty"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Emotion   string    `json:"emotion,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ParseRole maps wire roles onto Role. "assistant" is accepted as an alias.
func ParseRole(raw string) (Role, bool) {
	switch raw {
	case "user":
		return RoleUser, true
	case "creature", "assistant":
		return RoleCreature, true
	default:
		return "", false
	}
}
