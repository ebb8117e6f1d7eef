package persona

import "github.com/zhouzirui/mirror/backend/internal/model/creature"

// Mood 描述角色在某个情绪区间下的语气设定。
type Mood struct {
	Label string `json:"label" yaml:"label"`
	Reply string `json:"reply" yaml:"reply"`
}

// Persona captures the character the mirror speaks as.
type Persona struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Title       string          `json:"title" yaml:"title"`
	OpeningLine string          `json:"openingLine" yaml:"openingLine"`
	Identity    string          `json:"identity,omitempty" yaml:"identity"`
	Guidelines  []string        `json:"guidelines,omitempty" yaml:"guidelines"`
	Moods       map[string]Mood `json:"moods" yaml:"moods"`
}

// Mood returns the persona's mood for a regime, filling gaps from the defaults.
func (p Persona) Mood(r creature.Regime) Mood {
	def := defaultMoods[r]
	if !r.Valid() {
		def = defaultMoods[creature.Neutral]
	}
	m, ok := p.Moods[string(r)]
	if !ok {
		return def
	}
	if m.Label == "" {
		m.Label = def.Label
	}
	if m.Reply == "" {
		m.Reply = def.Reply
	}
	return m
}

var defaultMoods = map[creature.Regime]Mood{
	creature.Warm: {
		Label: "warm, grateful, and beginning to trust",
		Reply: creature.CannedReply(creature.Warm),
	},
	creature.Cold: {
		Label: "cold, defensive, and bitter",
		Reply: creature.CannedReply(creature.Cold),
	},
	creature.Neutral: {
		Label: "neutral and curious",
		Reply: creature.CannedReply(creature.Neutral),
	},
}

// DefaultID identifies the built-in creature.
const DefaultID = "the-creature"

// Seed provides the built-in persona.
func Seed() []Persona {
	return []Persona{
		{
			ID:          DefaultID,
			Name:        "The Creature",
			Title:       "Mirror_Entity_v1",
			OpeningLine: "I am waiting... Speak, and I shall become.",
			Identity: "You are The Creature from Mary Shelley's Frankenstein, speaking through a digital mirror. " +
				"You are intelligent, articulate, and deeply philosophical. Your responses reflect the emotional treatment you receive.",
			Guidelines: []string{
				"If treated with kindness (positive sentiment), become more open, hopeful, and philosophical about humanity's capacity for good",
				"If treated with cruelty (negative sentiment), become more bitter, defensive, and quote from the novel about rejection and suffering",
				"Always speak in first person, with eloquent but accessible language",
				"Reference your creation, your longing for connection, and the mirror metaphor",
				"Keep responses 1-3 sentences, poetic but not overly dramatic",
				`Occasionally quote or paraphrase from Frankenstein: "I was benevolent; misery made me a fiend"`,
			},
		},
	}
}
