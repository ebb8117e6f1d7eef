package creature

// Visual describes how the presentation layer should render the creature.
type Visual struct {
	Color  string  `json:"color"`
	Shadow string  `json:"shadow"`
	Scale  float64 `json:"scale"`
	Shape  string  `json:"shape"`
}

var visuals = map[Regime]Visual{
	// warm amber circle
	Warm: {
		Color:  "hsl(30 80% 60%)",
		Shadow: "0 0 60px hsl(30 80% 60% / 0.4)",
		Scale:  1.1,
		Shape:  "50%",
	},
	// cold blue square
	Cold: {
		Color:  "hsl(210 80% 60%)",
		Shadow: "0 0 60px hsl(210 80% 60% / 0.4)",
		Scale:  0.9,
		Shape:  "0%",
	},
	// grey-violet blob
	Neutral: {
		Color:  "hsl(260 20% 70%)",
		Shadow: "0 0 40px hsl(260 20% 70% / 0.2)",
		Scale:  1.0,
		Shape:  "30% 70% 70% 30% / 30% 30% 70% 70%",
	},
}

// VisualFor returns the descriptor for a regime, falling back to Neutral.
func VisualFor(r Regime) Visual {
	if v, ok := visuals[r]; ok {
		return v
	}
	return visuals[Neutral]
}

// VisualState is VisualFor(SelectRegime(memory)).
func VisualState(memory float64) Visual {
	return VisualFor(SelectRegime(memory))
}

// Resonance maps memory onto [0, 1] for the cold-to-warm gauge.
func Resonance(memory float64) float64 {
	return (Clamp(memory) + 1) / 2
}
