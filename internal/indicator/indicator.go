// Package indicator derives the oscillators used for signal detection from a
// closing-price series: RSI, MACD (line, signal, histogram) and
// Stochastic-RSI (K/D).
//
// Every function works on the whole series at once and returns one value per
// input index. Oscillator outputs go through series.Fallback, so no NaN ever
// reaches the detector.
package indicator

import (
	"errors"
	"fmt"
)

// Neutral is the fallback value seeded into undefined oscillator prefixes.
const Neutral = 50.0

// Params holds the indicator periods.
type Params struct {
	RSIPeriod int `json:"rsi_period"`

	MACDFast   int `json:"macd_fast"`
	MACDSlow   int `json:"macd_slow"`
	MACDSignal int `json:"macd_signal"`

	StochPeriod  int `json:"stoch_period"`
	StochKSmooth int `json:"stoch_k_smooth"`
	StochDSmooth int `json:"stoch_d_smooth"`
}

// DefaultParams returns RSI(14), MACD(12,26,9), StochRSI(14,3,3).
func DefaultParams() Params {
	return Params{
		RSIPeriod:    14,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		StochPeriod:  14,
		StochKSmooth: 3,
		StochDSmooth: 3,
	}
}

// MinBars is the shortest series the detector will evaluate:
// max(MACD slow, RSI period) + 5.
func (p Params) MinBars() int {
	n := p.MACDSlow
	if p.RSIPeriod > n {
		n = p.RSIPeriod
	}
	return n + 5
}

// Validate checks that every period is positive and fast < slow.
func (p Params) Validate() error {
	periods := []struct {
		name string
		v    int
	}{
		{"rsi_period", p.RSIPeriod},
		{"macd_fast", p.MACDFast},
		{"macd_slow", p.MACDSlow},
		{"macd_signal", p.MACDSignal},
		{"stoch_period", p.StochPeriod},
		{"stoch_k_smooth", p.StochKSmooth},
		{"stoch_d_smooth", p.StochDSmooth},
	}
	for _, pp := range periods {
		if pp.v <= 0 {
			return fmt.Errorf("indicator: %s must be positive, got %d", pp.name, pp.v)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return errors.New("indicator: macd_fast must be smaller than macd_slow")
	}
	return nil
}

// Row is the indicator state at one candle index.
type Row struct {
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`
	StochK     float64 `json:"stoch_k"`
	StochD     float64 `json:"stoch_d"`
}

// Frame holds one Row per input candle, aligned by index.
type Frame struct {
	Rows []Row
}

// Len returns the number of rows.
func (f Frame) Len() int { return len(f.Rows) }

// Last2 returns the two most recent rows. ok is false with fewer than two.
func (f Frame) Last2() (prev, curr Row, ok bool) {
	n := len(f.Rows)
	if n < 2 {
		return Row{}, Row{}, false
	}
	return f.Rows[n-2], f.Rows[n-1], true
}
