package series

import "math"

// RollingMean returns the trailing simple mean over window values.
// Indices before window-1 are NaN, as is any index whose window holds a NaN.
// Each window is summed afresh: a running sum leaves rounding residue after
// values leave the window, and callers compare means against exact zero.
func RollingMean(xs []float64, window int) []float64 {
	out := NaNs(len(xs))
	if window < 1 || len(xs) < window {
		return out
	}

	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		ok := true
		for _, v := range xs[i-window+1 : i+1] {
			if math.IsNaN(v) {
				ok = false
				break
			}
			sum += v
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingMin returns the trailing minimum over window values.
func RollingMin(xs []float64, window int) []float64 {
	return rollingExtreme(xs, window, func(a, b float64) bool { return a < b })
}

// RollingMax returns the trailing maximum over window values.
func RollingMax(xs []float64, window int) []float64 {
	return rollingExtreme(xs, window, func(a, b float64) bool { return a > b })
}

// rollingExtreme scans each window directly. Windows here are small
// (indicator periods), so the O(n·w) scan is cheaper than a monotonic deque.
func rollingExtreme(xs []float64, window int, better func(a, b float64) bool) []float64 {
	out := NaNs(len(xs))
	if window < 1 || len(xs) < window {
		return out
	}

	for i := window - 1; i < len(xs); i++ {
		best := xs[i-window+1]
		ok := !math.IsNaN(best)
		for j := i - window + 2; ok && j <= i; j++ {
			v := xs[j]
			if math.IsNaN(v) {
				ok = false
				break
			}
			if better(v, best) {
				best = v
			}
		}
		if ok {
			out[i] = best
		}
	}
	return out
}
