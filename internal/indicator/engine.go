package indicator

import (
	"alert-systemv1/internal/model"
)

// Engine composes RSI, MACD and Stochastic-RSI into one Frame per series.
// It holds no per-series state, so one Engine can be reused across cycles.
type Engine struct {
	params Params
}

// NewEngine creates an indicator engine with the given periods.
func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

// Params returns the engine's indicator periods.
func (e *Engine) Params() Params { return e.params }

// Compute derives one Row per candle from the close series.
// An empty series yields an empty Frame.
func (e *Engine) Compute(s model.Series) Frame {
	closes := s.Closes()
	if len(closes) == 0 {
		return Frame{}
	}

	p := e.params
	rsi := RSI(closes, p.RSIPeriod)
	line, sig, hist := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	k, d := StochRSI(rsi, p.StochPeriod, p.StochKSmooth, p.StochDSmooth)

	rows := make([]Row, len(closes))
	for i := range rows {
		rows[i] = Row{
			RSI:        rsi[i],
			MACD:       line[i],
			MACDSignal: sig[i],
			MACDHist:   hist[i],
			StochK:     k[i],
			StochD:     d[i],
		}
	}
	return Frame{Rows: rows}
}
