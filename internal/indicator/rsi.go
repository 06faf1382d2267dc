package indicator

import (
	"alert-systemv1/internal/series"
)

// RSI calculates the Relative Strength Index from simple trailing averages of
// gains and losses over period deltas (not Wilder smoothing).
//
//	avgUp = mean(max(Δ,0)),  avgDn = mean(max(-Δ,0))
//	RS    = avgUp / avgDn
//	RSI   = 100 - 100/(1+RS)
//
// The first index has no delta and counts as zero gain and zero loss.
// When avgDn is zero the ratio is undefined; if there were gains the value is
// taken at its limit (100), a window with neither gains nor losses stays
// undefined. Undefined values are forward-filled, and the leading prefix is
// seeded with Neutral.
func RSI(closes []float64, period int) []float64 {
	deltas := series.Diff(closes)
	gains := make([]float64, len(deltas))
	losses := make([]float64, len(deltas))
	for i, d := range deltas {
		switch {
		case d > 0:
			gains[i] = d
		case d < 0:
			losses[i] = -d
		}
	}

	avgUp := series.RollingMean(gains, period)
	avgDn := series.RollingMean(losses, period)

	raw := series.NaNs(len(closes))
	for i := range raw {
		up, dn := avgUp[i], avgDn[i]
		if dn == 0 && up > 0 {
			raw[i] = 100
			continue
		}
		rs := series.Div(up, dn)
		raw[i] = 100 - 100/(1+rs) // NaN in, NaN out
	}

	return series.Fallback(raw, Neutral)
}
