package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/mirror/backend/internal/model/chat"
	"github.com/zhouzirui/mirror/backend/internal/model/persona"
)

// BuildSystemPrompt renders the persona directive for the current emotional
// state. memory is the cumulative score in [-1, 1].
func BuildSystemPrompt(p persona.Persona, emotionalState string, memory float64) string {
	identity := strings.TrimSpace(p.Identity)
	if identity == "" {
		identity = fmt.Sprintf("You are %s, speaking through a digital mirror.", p.Name)
	}

	var builder strings.Builder
	builder.WriteString(identity)
	builder.WriteString("\n\n")
	builder.WriteString(fmt.Sprintf("Current emotional state: %s\n", emotionalState))
	builder.WriteString(fmt.Sprintf("Cumulative sentiment score: %.2f (ranges from -1 cold to +1 warm)\n", memory))

	if len(p.Guidelines) > 0 {
		builder.WriteString("\nPersonality guidelines:\n")
		for _, line := range p.Guidelines {
			builder.WriteString("- ")
			builder.WriteString(line)
			builder.WriteString("\n")
		}
	}

	builder.WriteString(fmt.Sprintf("\nNever break character. You ARE %s, speaking through the mirror.", strings.ToLower(firstNonEmpty(p.Name, "the creature"))))
	return builder.String()
}

// RecentHistory returns at most limit trailing messages with non-blank text.
func RecentHistory(messages []chat.Message, limit int) []chat.Message {
	if limit <= 0 || len(messages) == 0 {
		return nil
	}

	out := make([]chat.Message, 0, limit)
	for i := len(messages) - 1; i >= 0 && len(out) < limit; i-- {
		if strings.TrimSpace(messages[i].Text) == "" {
			continue
		}
		out = append(out, messages[i])
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
