package edgex

import (
	"fmt"
	"sort"
	"time"
)

type timeframe struct {
	kline    string
	duration time.Duration
}

var timeframes = map[string]timeframe{
	"1m":  {"MINUTE_1", time.Minute},
	"3m":  {"MINUTE_3", 3 * time.Minute},
	"5m":  {"MINUTE_5", 5 * time.Minute},
	"15m": {"MINUTE_15", 15 * time.Minute},
	"30m": {"MINUTE_30", 30 * time.Minute},
	"1h":  {"HOUR_1", time.Hour},
	"2h":  {"HOUR_2", 2 * time.Hour},
	"4h":  {"HOUR_4", 4 * time.Hour},
	"6h":  {"HOUR_6", 6 * time.Hour},
	"8h":  {"HOUR_8", 8 * time.Hour},
	"12h": {"HOUR_12", 12 * time.Hour},
	"1d":  {"DAY_1", 24 * time.Hour},
}

// KlineType maps a timeframe label ("5m", "1h", …) to the EdgeX klineType.
func KlineType(tf string) (string, error) {
	t, ok := timeframes[tf]
	if !ok {
		return "", fmt.Errorf("edgex: unsupported timeframe %q (want one of %v)", tf, Timeframes())
	}
	return t.kline, nil
}

// Duration returns the bar length of a timeframe label.
func Duration(tf string) (time.Duration, error) {
	t, ok := timeframes[tf]
	if !ok {
		return 0, fmt.Errorf("edgex: unsupported timeframe %q", tf)
	}
	return t.duration, nil
}

// Timeframes lists the supported labels, shortest first.
func Timeframes() []string {
	out := make([]string, 0, len(timeframes))
	for k := range timeframes {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return timeframes[out[i]].duration < timeframes[out[j]].duration
	})
	return out
}
