package signal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is an alertable signal for one candle. It is built once per polling
// cycle and never mutated afterwards.
type Event struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Timeframe  string    `json:"timeframe"`
	Direction  Direction `json:"direction"`
	Info       Info      `json:"info"`
	DetectedAt time.Time `json:"detected_at"`
}

// NewEvent wraps a LONG/SHORT evaluation. ok is false for None.
func NewEvent(symbol, timeframe string, ev Evaluation, now time.Time) (Event, bool) {
	if !ev.Direction.IsSignal() {
		return Event{}, false
	}
	return Event{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Timeframe:  timeframe,
		Direction:  ev.Direction,
		Info:       ev.Info,
		DetectedAt: now.UTC(),
	}, true
}

// CandleTime returns the candle open time of the event.
func (e Event) CandleTime() time.Time {
	return time.UnixMilli(e.Info.TS)
}

// JSON returns the JSON-encoded event (ignoring errors for hot-path usage).
func (e Event) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}
