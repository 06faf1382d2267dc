package series

import "math"

// EMA calculates the exponential moving average of xs with smoothing factor
// α = 2/(span+1), seeded by the first value (no SMA warm-up, no bias
// correction). The output has the same length as xs and is defined from
// index 0.
//
//	y[0] = x[0]
//	y[i] = y[i-1] + α·(x[i] - y[i-1])
//
// A NaN input carries the previous average forward unchanged; a leading NaN
// delays the seed to the first defined value.
func EMA(xs []float64, span int) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / float64(span+1)

	current := math.NaN()
	for i, x := range xs {
		switch {
		case math.IsNaN(x):
			// keep current
		case math.IsNaN(current):
			current = x
		default:
			current += alpha * (x - current)
		}
		out[i] = current
	}
	return out
}
