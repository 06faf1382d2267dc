package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert-systemv1/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func wave(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = 100 + 8*math.Sin(float64(i)/5) + 3*math.Cos(float64(i)/2)
	}
	return xs
}

func seriesOf(closes []float64) model.Series {
	s := make(model.Series, len(closes))
	for i, c := range closes {
		s[i] = model.Candle{TS: int64(i+1) * 60_000, Open: c, High: c, Low: c, Close: c}
	}
	return s
}

func assertInRange(t *testing.T, label string, xs []float64, lo, hi float64) {
	t.Helper()
	for i, v := range xs {
		if math.IsNaN(v) || v < lo || v > hi {
			t.Fatalf("%s[%d] = %v, want within [%v, %v]", label, i, v, lo, hi)
		}
	}
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period2(t *testing.T) {
	// deltas: -, +1, -1, +1
	// avgUp(2): NaN, .5, .5, .5   avgDn(2): NaN, 0, .5, .5
	// idx1: no losses, some gains → 100; idx2/3: RS=1 → 50; idx0 → neutral
	got := RSI([]float64{1, 2, 1, 2}, 2)
	assert.Equal(t, []float64{50, 100, 50, 50}, got)
}

func TestRSI_BoundedAndDefined(t *testing.T) {
	assertInRange(t, "rsi", RSI(wave(300), 14), 0, 100)
}

func TestRSI_RisingSeriesReaches100(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := RSI(closes, 14)

	for i := 0; i < 13; i++ {
		assert.Equal(t, Neutral, rsi[i], "prefix index %d", i)
	}
	for i := 13; i < len(rsi); i++ {
		assert.Equal(t, 100.0, rsi[i], "index %d", i)
	}
}

func TestRSI_FallingSeriesIsZero(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	rsi := RSI(closes, 14)
	assert.Equal(t, 0.0, rsi[len(rsi)-1])
}

func TestRSI_FlatSeriesIsNeutral(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 42
	}
	for _, v := range RSI(closes, 14) {
		assert.Equal(t, Neutral, v)
	}
}

func TestRSI_ForwardFillsAfterFlatStretch(t *testing.T) {
	// deltas: -, +1, -1, 0, 0, 0 (period 2)
	// idx3: avgUp 0, avgDn .5 → 0
	// idx4, idx5: no gains or losses → undefined → carries 0
	got := RSI([]float64{1, 2, 1, 1, 1, 1}, 2)
	assert.Equal(t, []float64{50, 100, 50, 0, 0, 0}, got)
}

func TestRSI_GainsOnlyWindowAfterDecline(t *testing.T) {
	// 20 falling bars then 20 rising ones. Once the window holds only gains
	// the value is 100, not the last mixed-window reading carried forward.
	closes := make([]float64, 0, 40)
	for i := 0; i < 20; i++ {
		closes = append(closes, 200-float64(i))
	}
	for i := 0; i < 20; i++ {
		closes = append(closes, 182+float64(i))
	}
	rsi := RSI(closes, 14)

	assert.Equal(t, 0.0, rsi[19])
	assert.InDelta(t, 100.0*5/14, rsi[24], 1e-9)
	assert.InDelta(t, 100.0*13/14, rsi[32], 1e-9)
	for i := 33; i < len(rsi); i++ {
		assert.Equal(t, 100.0, rsi[i], "index %d", i)
	}
}

// ────────────────────────────────────────────────────────────
// MACD
// ────────────────────────────────────────────────────────────

func TestMACD_ConstantSeriesIsZero(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 250
	}
	line, sig, hist := MACD(closes, 12, 26, 9)
	require.Len(t, line, 60)
	for i := range closes {
		assert.Equal(t, 0.0, line[i])
		assert.Equal(t, 0.0, sig[i])
		assert.Equal(t, 0.0, hist[i])
	}
}

func TestMACD_Correctness_SmallSpans(t *testing.T) {
	// fast span 1 (α=1) tracks price; slow span 3 (α=.5)
	// closes 10, 14, 12
	// slow: 10, 12, 12
	// line: 0, 2, 0
	// signal span 3: 0, 1, .5
	line, sig, hist := MACD([]float64{10, 14, 12}, 1, 3, 3)
	assert.Equal(t, []float64{0, 2, 0}, line)
	assert.Equal(t, []float64{0, 1, 0.5}, sig)
	assert.Equal(t, []float64{0, 1, -0.5}, hist)
}

func TestMACD_RisingSeriesLineAboveZero(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	line, _, _ := MACD(closes, 12, 26, 9)
	assert.Greater(t, line[len(line)-1], 0.0)
}

// ────────────────────────────────────────────────────────────
// Stochastic-RSI
// ────────────────────────────────────────────────────────────

func TestStochRSI_Correctness(t *testing.T) {
	// period 3 over rsi 10,20,30,20,10:
	//   stoch: NaN, NaN, 100, 0, 0
	// kSmooth 2: NaN, NaN, NaN, 50, 0 → filled 50, 50, 50, 50, 0
	// dSmooth 2 over filled K: NaN, 50, 50, 50, 25 → filled 50, 50, 50, 50, 25
	k, d := StochRSI([]float64{10, 20, 30, 20, 10}, 3, 2, 2)
	assert.Equal(t, []float64{50, 50, 50, 50, 0}, k)
	assert.Equal(t, []float64{50, 50, 50, 50, 25}, d)
}

func TestStochRSI_NoSmoothing(t *testing.T) {
	k, d := StochRSI([]float64{10, 20, 30, 20, 10}, 3, 1, 1)
	assert.Equal(t, []float64{50, 50, 100, 0, 0}, k)
	assert.Equal(t, k, d)
}

func TestStochRSI_ZeroRangeFallsBack(t *testing.T) {
	rsi := make([]float64, 40)
	for i := range rsi {
		rsi[i] = 63
	}
	k, d := StochRSI(rsi, 14, 3, 3)
	for i := range rsi {
		assert.Equal(t, Neutral, k[i])
		assert.Equal(t, Neutral, d[i])
	}
}

func TestStochRSI_Bounded(t *testing.T) {
	k, d := StochRSI(RSI(wave(400), 14), 14, 3, 3)
	assertInRange(t, "k", k, 0, 100)
	assertInRange(t, "d", d, 0, 100)
}

// ────────────────────────────────────────────────────────────
// Engine
// ────────────────────────────────────────────────────────────

func TestEngine_OneRowPerCandle(t *testing.T) {
	e := NewEngine(DefaultParams())
	s := seriesOf(wave(120))

	f := e.Compute(s)
	require.Equal(t, s.Len(), f.Len())
	for i, r := range f.Rows {
		for _, v := range []float64{r.RSI, r.MACD, r.MACDSignal, r.MACDHist, r.StochK, r.StochD} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("row %d has undefined value: %+v", i, r)
			}
		}
		assert.InDelta(t, r.MACD-r.MACDSignal, r.MACDHist, 1e-12)
	}

	prev, curr, ok := f.Last2()
	require.True(t, ok)
	assert.Equal(t, f.Rows[len(f.Rows)-2], prev)
	assert.Equal(t, f.Rows[len(f.Rows)-1], curr)
}

func TestEngine_EmptySeries(t *testing.T) {
	f := NewEngine(DefaultParams()).Compute(model.Series{})
	assert.Equal(t, 0, f.Len())
	_, _, ok := f.Last2()
	assert.False(t, ok)
}

// ────────────────────────────────────────────────────────────
// Params
// ────────────────────────────────────────────────────────────

func TestParams_MinBars(t *testing.T) {
	assert.Equal(t, 31, DefaultParams().MinBars())

	p := DefaultParams()
	p.RSIPeriod = 40
	assert.Equal(t, 45, p.MinBars())
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	p := DefaultParams()
	p.StochKSmooth = 0
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.MACDFast = 30
	assert.Error(t, p.Validate())
}
