// Package signal classifies the most recent candle as a LONG, SHORT or no
// signal from MACD and Stochastic-RSI crossovers, filtered by RSI.
//
// A crossover compares the two most recent indicator rows: the previous row
// must be at or past the line (≤ / ≥), the current row strictly past it
// (> / <). A cross therefore fires exactly on the bar where it completes, and
// a current bar sitting at exact parity is not a cross.
package signal

import (
	"alert-systemv1/internal/indicator"
	"alert-systemv1/internal/model"
)

// Thresholds are the fixed oscillator levels used by the rules.
type Thresholds struct {
	RSIFilter  float64 `json:"rsi_filter"`
	Oversold   float64 `json:"oversold"`
	Overbought float64 `json:"overbought"`
}

// DefaultThresholds returns RSI filter 50, oversold K < 20, overbought K > 80.
func DefaultThresholds() Thresholds {
	return Thresholds{RSIFilter: 50, Oversold: 20, Overbought: 80}
}

// Crosses holds every rule evaluated on one prev/curr pair.
type Crosses struct {
	MACDUp         bool `json:"macd_up"`
	MACDDown       bool `json:"macd_down"`
	KUp            bool `json:"k_up"`
	KDown          bool `json:"k_down"`
	FromOversold   bool `json:"from_oversold"`
	FromOverbought bool `json:"from_overbought"`
}

// EvaluateCrosses computes the crossover and zone rules for prev → curr.
func EvaluateCrosses(prev, curr indicator.Row, th Thresholds) Crosses {
	return Crosses{
		MACDUp:         prev.MACD <= prev.MACDSignal && curr.MACD > curr.MACDSignal,
		MACDDown:       prev.MACD >= prev.MACDSignal && curr.MACD < curr.MACDSignal,
		KUp:            prev.StochK <= prev.StochD && curr.StochK > curr.StochD,
		KDown:          prev.StochK >= prev.StochD && curr.StochK < curr.StochD,
		FromOversold:   prev.StochK < th.Oversold,
		FromOverbought: prev.StochK > th.Overbought,
	}
}

// Classify turns the rules into a Direction. LONG is checked first.
func Classify(c Crosses, curr indicator.Row, th Thresholds) Direction {
	if c.MACDUp && c.KUp && c.FromOversold && curr.RSI >= th.RSIFilter {
		return Long
	}
	if c.MACDDown && c.KDown && c.FromOverbought && curr.RSI <= th.RSIFilter {
		return Short
	}
	return None
}

// Info is the payload describing the most recent candle, produced whether or
// not a signal fired.
type Info struct {
	TS         int64   `json:"ts"`
	Price      float64 `json:"price"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	StochK     float64 `json:"stoch_k"`
	StochD     float64 `json:"stoch_d"`
	RSI        float64 `json:"rsi"`
}

// Evaluation is the detector result for a series with enough history.
type Evaluation struct {
	Direction Direction `json:"direction"`
	Info      Info      `json:"info"`
	Crosses   Crosses   `json:"crosses"`
}

// Detector evaluates the last two rows of an indicator Frame.
type Detector struct {
	engine *indicator.Engine
	th     Thresholds
}

// NewDetector creates a detector backed by engine.
func NewDetector(engine *indicator.Engine, th Thresholds) *Detector {
	return &Detector{engine: engine, th: th}
}

// Thresholds returns the detector's thresholds.
func (d *Detector) Thresholds() Thresholds { return d.th }

// MinBars is the shortest series Detect will evaluate.
func (d *Detector) MinBars() int { return d.engine.Params().MinBars() }

// Sufficient reports whether s has enough history to be evaluated.
func (d *Detector) Sufficient(s model.Series) bool {
	return len(s) > 0 && len(s) >= d.MinBars()
}

// Detect computes the indicator frame for s and evaluates it.
// ok is false when s is too short; the Evaluation is then empty and carries
// no info payload.
func (d *Detector) Detect(s model.Series) (Evaluation, bool) {
	if !d.Sufficient(s) {
		return Evaluation{}, false
	}
	return d.Evaluate(s, d.engine.Compute(s))
}

// Evaluate classifies the last candle of s using a frame already computed
// for s. Rows must align with s by index.
func (d *Detector) Evaluate(s model.Series, f indicator.Frame) (Evaluation, bool) {
	if !d.Sufficient(s) || f.Len() != len(s) {
		return Evaluation{}, false
	}
	prev, curr, ok := f.Last2()
	if !ok {
		return Evaluation{}, false
	}
	last, _ := s.Last()

	c := EvaluateCrosses(prev, curr, d.th)
	return Evaluation{
		Direction: Classify(c, curr, d.th),
		Crosses:   c,
		Info: Info{
			TS:         last.TS,
			Price:      last.Close,
			MACD:       curr.MACD,
			MACDSignal: curr.MACDSignal,
			StochK:     curr.StochK,
			StochD:     curr.StochD,
			RSI:        curr.RSI,
		},
	}, true
}
