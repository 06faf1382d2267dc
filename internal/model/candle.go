package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Candle represents one OHLCV bucket as returned by the market-data endpoint.
// TS is the bucket open time in Unix milliseconds.
type Candle struct {
	TS     int64   `json:"ts"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Time returns the candle open time as a time.Time in UTC.
func (c *Candle) Time() time.Time {
	return time.UnixMilli(c.TS).UTC()
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Series is a time-ordered run of candles: ascending by TS, no duplicate TS.
type Series []Candle

// Len returns the number of candles.
func (s Series) Len() int { return len(s) }

// Closes extracts the closing price of every candle, in order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Last returns the most recent candle. ok is false for an empty series.
func (s Series) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}

// Validate checks the ordering invariant.
func (s Series) Validate() error {
	for i := 1; i < len(s); i++ {
		if s[i].TS == s[i-1].TS {
			return fmt.Errorf("series: duplicate timestamp %d at index %d", s[i].TS, i)
		}
		if s[i].TS < s[i-1].TS {
			return fmt.Errorf("series: timestamp %d at index %d precedes %d", s[i].TS, i, s[i-1].TS)
		}
	}
	return nil
}

// Normalize sorts rows ascending by TS and drops duplicate timestamps.
// When a timestamp repeats, the row that appeared last in the input wins.
func Normalize(rows []Candle) Series {
	if len(rows) == 0 {
		return Series{}
	}
	sorted := make([]Candle, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TS < sorted[j].TS })

	out := make(Series, 0, len(sorted))
	for _, c := range sorted {
		if n := len(out); n > 0 && out[n-1].TS == c.TS {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}
