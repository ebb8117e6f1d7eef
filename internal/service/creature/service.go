package creature

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/zhouzirui/mirror/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/mirror/backend/internal/model/chat"
	"github.com/zhouzirui/mirror/backend/internal/model/creature"
	"github.com/zhouzirui/mirror/backend/internal/model/persona"
	"github.com/zhouzirui/mirror/backend/internal/service/ai"
)

// ErrInvalidInput rejects blank user turns before any processing.
var ErrInvalidInput = errors.New("userMessage is required")

// FallbackEmotion and FallbackError annotate turns answered without the generator.
const (
	FallbackEmotion = "neutral"
	FallbackError   = "AI connection unstable"
)

// FallbackReplies are substituted when the generator is unavailable.
var FallbackReplies = []string{
	"The connection wavers... but I am still here, listening.",
	"Something stirs between us, even through the static.",
	"I feel your presence, though the path is unclear.",
}

const (
	defaultTimeout      = 20 * time.Second
	defaultHistoryLimit = 6
	defaultProvider     = "generator"
)

// Random picks an index in [0, n).
type Random interface {
	Intn(n int) int
}

// Config 控制编排器的行为。
type Config struct {
	Timeout      time.Duration
	HistoryLimit int
	Divisor      float64
	Random       Random
}

// Turn is the fully resolved outcome of one user message.
type Turn struct {
	State          creature.State   `json:"state"`
	Regime         creature.Regime  `json:"regime"`
	Polarity       float64          `json:"polarity"`
	Sentiment      sentiment.Result `json:"sentiment"`
	Reply          string           `json:"response"`
	EmotionalState string           `json:"emotionalState"`
	Error          string           `json:"error,omitempty"`
	Visual         creature.Visual  `json:"visual"`
}

// Fallback reports whether the reply came from the filler set.
func (t Turn) Fallback() bool {
	return t.Error != ""
}

// Service sequences scoring, accumulation, regime selection and generation.
type Service struct {
	gen          ai.Generator
	provider     string
	scorer       sentiment.Scorer
	timeout      time.Duration
	historyLimit int

	randMu sync.Mutex
	random Random
}

// NewService builds the orchestrator. gen may be nil, in which case replies come
// from the persona's canned lines.
func NewService(gen ai.Generator, cfg Config) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	historyLimit := cfg.HistoryLimit
	if historyLimit < 0 {
		historyLimit = 0
	}
	if historyLimit > defaultHistoryLimit {
		historyLimit = defaultHistoryLimit
	}

	random := cfg.Random
	if random == nil {
		random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	provider := defaultProvider
	if named, ok := gen.(interface{ Provider() string }); ok && named.Provider() != "" {
		provider = named.Provider()
	}

	return &Service{
		gen:          gen,
		provider:     provider,
		scorer:       sentiment.Scorer{Divisor: cfg.Divisor},
		timeout:      timeout,
		historyLimit: historyLimit,
		random:       random,
	}
}

// GenerationEnabled reports whether an external generator is wired.
func (s *Service) GenerationEnabled() bool {
	return s.gen != nil
}

// HandleTurn resolves one user message against state. It only fails for blank
// input or when ctx itself is cancelled; generator failures become a filler reply.
func (s *Service) HandleTurn(ctx context.Context, p persona.Persona, state creature.State, history []chat.Message, userText string) (Turn, error) {
	if strings.TrimSpace(userText) == "" {
		return Turn{}, ErrInvalidInput
	}

	analysis := s.scorer.Analyze(userText)
	polarity := analysis.Polarity
	next := creature.Update(state, polarity)
	regime := creature.SelectRegime(next.Memory)
	mood := p.Mood(regime)

	turn := Turn{
		State:          next,
		Regime:         regime,
		Polarity:       polarity,
		Sentiment:      analysis,
		EmotionalState: mood.Label,
		Visual:         creature.VisualFor(regime),
	}

	if s.gen == nil {
		turn.Reply = mood.Reply
		return turn, nil
	}

	prompt := ai.Prompt{
		System:  ai.BuildSystemPrompt(p, mood.Label, next.Memory),
		History: ai.RecentHistory(history, s.historyLimit),
		Input:   userText,
	}

	reply, err := s.generate(ctx, prompt)
	if ctxErr := ctx.Err(); ctxErr != nil {
		// The caller walked away; nothing from this turn may be committed.
		return Turn{}, ctxErr
	}
	if err != nil {
		log.Printf("[creature] generation failed, using fallback reply: %v", err)
		turn.Reply = s.fallbackReply()
		turn.EmotionalState = FallbackEmotion
		turn.Error = FallbackError
		return turn, nil
	}

	turn.Reply = reply
	return turn, nil
}

func (s *Service) generate(ctx context.Context, prompt ai.Prompt) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := s.gen.Generate(callCtx, prompt)
		done <- result{text: text, err: err}
	}()

	// Providers that ignore ctx still cannot hold the turn past the deadline.
	select {
	case res := <-done:
		if res.err != nil {
			return "", s.wrapErr(res.err)
		}
		if strings.TrimSpace(res.text) == "" {
			return "", s.wrapErr(ai.ErrEmptyCompletion)
		}
		return strings.TrimSpace(res.text), nil
	case <-callCtx.Done():
		return "", s.wrapErr(callCtx.Err())
	}
}

// wrapErr tags err with the provider name unless a provider already did.
func (s *Service) wrapErr(err error) error {
	var ext *ai.ExternalServiceError
	if errors.As(err, &ext) {
		return err
	}
	return &ai.ExternalServiceError{Provider: s.provider, Err: err}
}

func (s *Service) fallbackReply() string {
	s.randMu.Lock()
	idx := s.random.Intn(len(FallbackReplies))
	s.randMu.Unlock()
	return FallbackReplies[idx]
}
