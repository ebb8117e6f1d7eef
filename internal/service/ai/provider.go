package ai

import (
	"context"
	"fmt"

	"github.com/zhouzirui/mirror/backend/internal/config"
)

// NewFromConfig selects and builds the configured provider. It returns a nil
// Service when no provider is configured.
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	provider := cfg.ResolveProvider()

	switch provider {
	case config.ProviderArk:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %w", err)
		}
		gen, err := NewChainGenerator(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		return NewService(provider, gen), nil

	case config.ProviderOpenAI:
		if !cfg.OpenAI.Enabled() {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for provider %s", provider)
		}
		gen := NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.MaxTokens)
		return NewService(provider, gen), nil

	case config.ProviderAnthropic:
		if !cfg.Anthropic.Enabled() {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for provider %s", provider)
		}
		gen := NewAnthropicGenerator(cfg.Anthropic.APIKey, cfg.Anthropic.BaseURL, cfg.Anthropic.Model, cfg.MaxTokens)
		return NewService(provider, gen), nil

	case config.ProviderNone:
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q", provider)
	}
}
