// Package scorer rates how important a user message is.
package scorer

import "math"

// Func scores a message. Implementations must accept any string and have no
// side effects; Clamp bounds whatever they return.
type Func func(text string) float64

// Placeholder is returned for every message until a content-based heuristic
// replaces Score.
const Placeholder = 0.5

func Score(text string) float64 {
	return Placeholder
}

// Clamp maps v into [0, 1]. NaN becomes 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
