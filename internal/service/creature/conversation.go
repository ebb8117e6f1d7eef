package creature

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zhouzirui/mirror/backend/internal/model/chat"
	"github.com/zhouzirui/mirror/backend/internal/model/creature"
	"github.com/zhouzirui/mirror/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/mirror/backend/internal/service/chat"
)

// ErrPersonaNotFound is returned when a session names an unknown persona.
var ErrPersonaNotFound = errors.New("persona not found")

// SessionTurn is a committed turn on a stored session.
type SessionTurn struct {
	Session  chat.Session   `json:"session"`
	Turn     Turn           `json:"turn"`
	Messages []chat.Message `json:"messages"`
}

// Conversations 将编排器与会话存储绑定，保证状态只在整轮结束后提交。
type Conversations struct {
	creature *Service
	sessions *chatservice.Service
	personas persona.Store
}

// NewConversations wires the orchestrator to session storage and personas.
func NewConversations(svc *Service, sessions *chatservice.Service, personas persona.Store) *Conversations {
	return &Conversations{creature: svc, sessions: sessions, personas: personas}
}

// Start opens a session for personaID, or the default persona when empty.
func (c *Conversations) Start(ctx context.Context, personaID string) (chat.Session, []chat.Message, error) {
	p := c.personas.Default()
	if personaID != "" {
		found, ok := c.personas.FindByID(personaID)
		if !ok {
			return chat.Session{}, nil, ErrPersonaNotFound
		}
		p = found
	}

	session, err := c.sessions.CreateSession(ctx, p.ID, p.OpeningLine)
	if err != nil {
		return chat.Session{}, nil, err
	}
	transcript, err := c.sessions.LoadTranscript(ctx, session.ID)
	if err != nil {
		return chat.Session{}, nil, err
	}
	return session, transcript, nil
}

// Persona resolves the persona bound to a session.
func (c *Conversations) Persona(ctx context.Context, sessionID string) (chat.Session, persona.Persona, error) {
	session, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return chat.Session{}, persona.Persona{}, err
	}

	p, ok := c.personas.FindByID(session.PersonaID)
	if !ok {
		return chat.Session{}, persona.Persona{}, fmt.Errorf("%w: %s", ErrPersonaNotFound, session.PersonaID)
	}
	return session, p, nil
}

// Transcript returns the committed messages of a session.
func (c *Conversations) Transcript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	return c.sessions.LoadTranscript(ctx, sessionID)
}

// Send runs one turn on a stored session.
func (c *Conversations) Send(ctx context.Context, sessionID, userText string) (SessionTurn, error) {
	if strings.TrimSpace(userText) == "" {
		return SessionTurn{}, ErrInvalidInput
	}

	_, p, err := c.Persona(ctx, sessionID)
	if err != nil {
		return SessionTurn{}, err
	}

	var turn Turn
	session, msgs, err := c.sessions.Turn(ctx, sessionID, userText, func(ctx context.Context, state creature.State, history []chat.Message) (creature.State, chat.Message, error) {
		var err error
		turn, err = c.creature.HandleTurn(ctx, p, state, history, userText)
		if err != nil {
			return creature.State{}, chat.Message{}, err
		}
		return turn.State, chat.Message{Text: turn.Reply, Emotion: turn.EmotionalState}, nil
	})
	if err != nil {
		return SessionTurn{}, err
	}

	return SessionTurn{Session: session, Turn: turn, Messages: msgs}, nil
}
