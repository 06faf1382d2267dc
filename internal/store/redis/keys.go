package redis

import "time"

// Channel and key layout. Symbol and timeframe are the configured ones,
// e.g. pub:signal:BTCUSD:5m.
const (
	signalChannelPrefix = "pub:signal:"
	infoChannelPrefix   = "pub:ind:"
	infoLatestPrefix    = "ind:latest:"

	defaultLatestTTL = 30 * time.Minute
)

// SignalChannel is the pub/sub channel carrying alerted events.
func SignalChannel(symbol, tf string) string {
	return signalChannelPrefix + symbol + ":" + tf
}

// InfoChannel is the pub/sub channel carrying the per-cycle indicator info.
func InfoChannel(symbol, tf string) string {
	return infoChannelPrefix + symbol + ":" + tf
}

// InfoLatestKey holds the most recent info payload with a TTL.
func InfoLatestKey(symbol, tf string) string {
	return infoLatestPrefix + symbol + ":" + tf
}
