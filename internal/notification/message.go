package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"alert-systemv1/internal/signal"
)

// TimeLayout is the human timestamp format of alert messages.
const TimeLayout = "2006-01-02 15:04:05 MST"

// FormatSignal renders an alertable event:
//
//	[LONG signal] BTCUSD 5m
//	- Price: 65000.5
//	- MACD: 12.3457 vs 10.0000
//	- StochRSI K/D: 15.2/12.1
//	- RSI(14): 55.3
//	- Time: 2024-01-15 19:30:00 KST
//
// Prices print in their shortest exact decimal form, so a whole price has no
// fractional part ("65000"). The candle time is shown in loc (UTC when nil). rsiPeriod labels the RSI
// line.
func FormatSignal(ev signal.Event, rsiPeriod int, loc *time.Location) Alert {
	if loc == nil {
		loc = time.UTC
	}
	info := ev.Info

	var b strings.Builder
	fmt.Fprintf(&b, "- Price: %s\n", decimal.NewFromFloat(info.Price).String())
	fmt.Fprintf(&b, "- MACD: %.4f vs %.4f\n", info.MACD, info.MACDSignal)
	fmt.Fprintf(&b, "- StochRSI K/D: %.1f/%.1f\n", info.StochK, info.StochD)
	fmt.Fprintf(&b, "- RSI(%d): %.1f\n", rsiPeriod, info.RSI)
	fmt.Fprintf(&b, "- Time: %s", ev.CandleTime().In(loc).Format(TimeLayout))

	return Alert{
		Level:   AlertInfo,
		Title:   fmt.Sprintf("[%s signal] %s %s", ev.Direction, ev.Symbol, ev.Timeframe),
		Message: b.String(),
		Data:    ev,
	}
}
