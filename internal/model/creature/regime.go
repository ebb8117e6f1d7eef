package creature

// Regime 表示由记忆值推导出的三种情绪区间。
type Regime string

const (
	Neutral Regime = "neutral"
	Warm    Regime = "warm"
	Cold    Regime = "cold"
)

// Thresholds are exclusive: exactly ±0.5 stays Neutral.
const (
	WarmThreshold = 0.5
	ColdThreshold = -0.5
)

// SelectRegime recomputes the regime from memory on every call.
func SelectRegime(memory float64) Regime {
	memory = Clamp(memory)
	switch {
	case memory > WarmThreshold:
		return Warm
	case memory < ColdThreshold:
		return Cold
	default:
		return Neutral
	}
}

// Valid reports whether r is one of the known regimes.
func (r Regime) Valid() bool {
	switch r {
	case Warm, Cold, Neutral:
		return true
	}
	return false
}

var cannedReplies = map[Regime]string{
	Warm:    "You speak with warmth. I… I think I understand you. Why do you choose kindness?",
	Cold:    "Your tone feels cold. I only mirror what I am given… Do you fear what you’ve created?",
	Neutral: "I am still learning from you. Tell me more—your tone shapes what I become.",
}

// CannedReply returns the scripted line for a regime.
func CannedReply(r Regime) string {
	if reply, ok := cannedReplies[r]; ok {
		return reply
	}
	return cannedReplies[Neutral]
}

// Reply is CannedReply(SelectRegime(memory)).
func Reply(memory float64) string {
	return CannedReply(SelectRegime(memory))
}
