package series

import "math"

// ForwardFill replaces every NaN with the last defined value before it.
// A NaN prefix (nothing defined yet) stays NaN.
func ForwardFill(xs []float64) []float64 {
	out := make([]float64, len(xs))
	last := math.NaN()
	for i, x := range xs {
		if !math.IsNaN(x) {
			last = x
		}
		out[i] = last
	}
	return out
}

// FillNaN replaces every remaining NaN with v.
func FillNaN(xs []float64, v float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) {
			out[i] = v
		} else {
			out[i] = x
		}
	}
	return out
}

// Fallback is the two-pass oscillator cleanup: carry the last defined value
// forward, then seed the still-undefined prefix with neutral.
func Fallback(xs []float64, neutral float64) []float64 {
	return FillNaN(ForwardFill(xs), neutral)
}
