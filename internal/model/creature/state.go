package creature

import "math"

// State is the emotional memory of one conversation.
type State struct {
	Memory       float64 `json:"memory"`
	LastPolarity float64 `json:"lastPolarity"`
}

// Update folds one turn's polarity into the running memory. Memory saturates at
// the bounds instead of decaying, so a long warm streak pins it at +1.
func Update(state State, polarity float64) State {
	polarity = Clamp(polarity)
	return State{
		Memory:       Clamp(Clamp(state.Memory) + polarity),
		LastPolarity: polarity,
	}
}

// Normalize re-clamps externally supplied state.
func (s State) Normalize() State {
	return State{Memory: Clamp(s.Memory), LastPolarity: Clamp(s.LastPolarity)}
}

// Clamp bounds v to [-1, 1]; NaN is treated as neutral.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
