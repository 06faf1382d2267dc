package indicator

import "alert-systemv1/internal/series"

// StochRSI applies the stochastic oscillator to an RSI series.
//
//	stoch = (rsi - min(rsi,period)) / (max(rsi,period) - min(rsi,period)) × 100
//	K     = mean(stoch, kSmooth)
//	D     = mean(K, dSmooth)
//
// stoch is undefined where the rolling range is zero. K is forward-filled and
// seeded with Neutral before D is smoothed from it; D gets the same cleanup.
func StochRSI(rsi []float64, period, kSmooth, dSmooth int) (k, d []float64) {
	lo := series.RollingMin(rsi, period)
	hi := series.RollingMax(rsi, period)

	stoch := make([]float64, len(rsi))
	for i := range rsi {
		stoch[i] = series.Div(rsi[i]-lo[i], hi[i]-lo[i]) * 100
	}

	k = series.Fallback(series.RollingMean(stoch, kSmooth), Neutral)
	d = series.Fallback(series.RollingMean(k, dSmooth), Neutral)
	return k, d
}
