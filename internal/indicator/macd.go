package indicator

import "alert-systemv1/internal/series"

// MACD calculates the MACD line, signal line and histogram.
//
//	line   = EMA(close, fast) - EMA(close, slow)
//	signal = EMA(line, signalSpan)
//	hist   = line - signal
//
// All three are defined from index 0 because the EMAs are seeded by the
// first value.
func MACD(closes []float64, fast, slow, signalSpan int) (line, signal, hist []float64) {
	line = series.Sub(series.EMA(closes, fast), series.EMA(closes, slow))
	signal = series.EMA(line, signalSpan)
	hist = series.Sub(line, signal)
	return line, signal, hist
}
