// Package series provides whole-slice moving-window primitives over float64
// sequences. Undefined values are represented as NaN: a primitive that cannot
// produce a value at an index (window not yet full, zero denominator) writes
// NaN there instead of returning an error.
package series

import "math"

// Div returns num/den, or NaN when den is zero or either operand is NaN.
// Never returns ±Inf.
func Div(num, den float64) float64 {
	if den == 0 || math.IsNaN(num) || math.IsNaN(den) {
		return math.NaN()
	}
	return num / den
}

// Diff returns the first difference of xs. d[0] is NaN.
func Diff(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	out[0] = math.NaN()
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i] - xs[i-1]
	}
	return out
}

// Sub returns a[i] - b[i] element-wise. The shorter length wins.
func Sub(a, b []float64) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] - b[i]
	}
	return out
}

// NaNs returns a slice of n NaN values.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
