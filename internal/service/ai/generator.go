package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/zhouzirui/mirror/backend/internal/model/chat"
)

// ErrEmptyCompletion indicates the provider answered with no usable text.
var ErrEmptyCompletion = errors.New("empty completion")

// Prompt is everything a provider needs to produce one creature reply.
type Prompt struct {
	System  string
	History []chat.Message
	Input   string
}

// Generator produces creature text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// ExternalServiceError wraps any failure of the text-generation provider.
type ExternalServiceError struct {
	Provider string
	Err      error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// Service 包装具体的模型提供方，统一错误类型与日志。
type Service struct {
	provider string
	gen      Generator
}

// NewService wraps gen under a provider name used in logs and errors.
func NewService(provider string, gen Generator) *Service {
	return &Service{provider: provider, gen: gen}
}

// Provider returns the provider name.
func (s *Service) Provider() string {
	return s.provider
}

// Generate 调用底层模型。任何失败（包括空回复）都会以 *ExternalServiceError 返回。
func (s *Service) Generate(ctx context.Context, prompt Prompt) (string, error) {
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", &ExternalServiceError{Provider: s.provider, Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ExternalServiceError{Provider: s.provider, Err: ErrEmptyCompletion}
	}

	log.Printf("[ai] generated reply via %s, history=%d, length=%d", s.provider, len(prompt.History), len(text))
	return text, nil
}
