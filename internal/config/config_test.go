package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "AI_PROVIDER", "ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "Model",
		"ARK_TEMPERATURE", "ARK_TOP_P", "OPENAI_API_KEY", "OPENAI_MODEL", "ANTHROPIC_API_KEY",
		"AI_MAX_TOKENS", "AI_TIMEOUT", "AI_HISTORY_LIMIT", "CREATURE_PERSONA_FILE", "SENTIMENT_DIVISOR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.AI.ResolveProvider() != ProviderNone {
		t.Fatalf("expected no provider, got %s", cfg.AI.ResolveProvider())
	}
	if cfg.AI.MaxTokens != 150 {
		t.Fatalf("unexpected max tokens: %d", cfg.AI.MaxTokens)
	}
	if cfg.AI.Timeout != 20*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.AI.Timeout)
	}
	if cfg.AI.HistoryLimit != MaxHistoryLimit {
		t.Fatalf("unexpected history limit: %d", cfg.AI.HistoryLimit)
	}
	if cfg.AI.OpenAI.Model != "gpt-5" {
		t.Fatalf("unexpected openai model: %s", cfg.AI.OpenAI.Model)
	}
	if cfg.Creature.SentimentDivisor != 5 {
		t.Fatalf("unexpected divisor: %v", cfg.Creature.SentimentDivisor)
	}
}

func TestLoadServerAddr(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}

	t.Setenv("PORT", "80 80")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for PORT with spaces")
	}
}

func TestResolveProviderPrefersArk(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARK_API_KEY", "ark-key")
	t.Setenv("Model", "doubao")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if got := cfg.AI.ResolveProvider(); got != ProviderArk {
		t.Fatalf("expected ark, got %s", got)
	}

	t.Setenv("AI_PROVIDER", "OpenAI")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if got := cfg.AI.ResolveProvider(); got != ProviderOpenAI {
		t.Fatalf("expected openai, got %s", got)
	}
}

func TestResolveProviderFallsThrough(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "key")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if got := cfg.AI.ResolveProvider(); got != ProviderAnthropic {
		t.Fatalf("expected anthropic, got %s", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"AI_PROVIDER":       "gemini",
		"AI_TIMEOUT":        "soon",
		"AI_MAX_TOKENS":     "lots",
		"ARK_TEMPERATURE":   "hot",
		"SENTIMENT_DIVISOR": "0",
	}
	for key, value := range cases {
		clearEnv(t)
		t.Setenv(key, value)
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for %s=%s", key, value)
		}
	}
}

func TestHistoryLimitIsCapped(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_HISTORY_LIMIT", "40")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.HistoryLimit != MaxHistoryLimit {
		t.Fatalf("expected cap %d, got %d", MaxHistoryLimit, cfg.AI.HistoryLimit)
	}

	t.Setenv("AI_HISTORY_LIMIT", "-3")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.HistoryLimit != 0 {
		t.Fatalf("expected 0, got %d", cfg.AI.HistoryLimit)
	}
}

func TestTimeoutOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_TIMEOUT", "3")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.AI.Timeout)
	}
}
