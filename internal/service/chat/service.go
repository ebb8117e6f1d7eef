package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/mirror/backend/internal/model/chat"
	"github.com/zhouzirui/mirror/backend/internal/model/creature"
)

var (
	ErrPersonaRequired = errors.New("persona id is required")
	ErrSessionNotFound = errors.New("session not found")
)

// TurnFunc resolves one turn from the committed state and transcript. It returns
// the next state and the creature reply to append after the user message.
type TurnFunc func(ctx context.Context, state creature.State, history []chat.Message) (creature.State, chat.Message, error)

type sessionEntry struct {
	// turnMu keeps one turn in flight per session.
	turnMu   sync.Mutex
	session  chat.Session
	messages []chat.Message
}

// Service encapsulates conversation state management.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	now      func() time.Time
}

// NewService bootstraps the in-memory chat service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]*sessionEntry),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession provisions an anonymous session bound to a persona. A non-empty
// opening line is recorded as the first creature message.
func (s *Service) CreateSession(_ context.Context, personaID, openingLine string) (chat.Session, error) {
	if personaID == "" {
		return chat.Session{}, ErrPersonaRequired
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		PersonaID: personaID,
		CreatedAt: s.now(),
	}

	entry := &sessionEntry{
		session:  session,
		messages: make([]chat.Message, 0, 16),
	}
	if openingLine != "" {
		entry.messages = append(entry.messages, s.newMessage(session.ID, chat.Message{Role: chat.RoleCreature, Text: openingLine}))
	}

	s.mu.Lock()
	s.sessions[session.ID] = entry
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return entry.session, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]chat.Message, len(entry.messages))
	copy(copied, entry.messages)
	return copied, nil
}

// Turn runs fn for the session and, only if it succeeds, commits the new state
// together with the user message and the reply. Turns on the same session run
// one at a time.
func (s *Service) Turn(ctx context.Context, sessionID, userText string, fn TurnFunc) (chat.Session, []chat.Message, error) {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return chat.Session{}, nil, ErrSessionNotFound
	}

	entry.turnMu.Lock()
	defer entry.turnMu.Unlock()

	s.mu.RLock()
	state := entry.session.State
	history := make([]chat.Message, len(entry.messages))
	copy(history, entry.messages)
	s.mu.RUnlock()

	next, reply, err := fn(ctx, state, history)
	if err != nil {
		return chat.Session{}, nil, err
	}

	userMsg := s.newMessage(sessionID, chat.Message{Role: chat.RoleUser, Text: userText})
	reply.Role = chat.RoleCreature
	creatureMsg := s.newMessage(sessionID, reply)

	s.mu.Lock()
	entry.session.State = next.Normalize()
	entry.session.Turns++
	entry.messages = append(entry.messages, userMsg, creatureMsg)
	session := entry.session
	s.mu.Unlock()

	return session, []chat.Message{userMsg, creatureMsg}, nil
}

// DeleteSession drops a session and its transcript.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *Service) lookup(sessionID string) (*sessionEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[sessionID]
	return entry, ok
}

func (s *Service) newMessage(sessionID string, msg chat.Message) chat.Message {
	msg.ID = uuid.NewString()
	msg.SessionID = sessionID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	return msg
}
