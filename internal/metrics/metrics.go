// Package metrics exposes Prometheus metrics and the health endpoint of the
// alert service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the alert loop.
type Metrics struct {
	CyclesTotal *prometheus.CounterVec // labels: outcome

	// Market data
	FetchErrors      prometheus.Counter
	FetchDur         prometheus.Histogram
	LastCandleTS     prometheus.Gauge
	CandlesPerSeries prometheus.Gauge

	// Indicator engine
	IndicatorComputeDur prometheus.Histogram
	IndicatorsTotal     prometheus.Counter

	// Signals and delivery
	SignalsTotal *prometheus.CounterVec // labels: direction
	NotifyErrors prometheus.Counter
	NotifyDur    prometheus.Histogram
	DedupSize    prometheus.Gauge

	// Redis fan-out
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
	RedisPublishErrors       prometheus.Counter

	// Websocket clients
	WSClients prometheus.Gauge
}

// NewMetrics creates all metrics and registers them on reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertbot_cycles_total",
			Help: "Polling cycles by outcome",
		}, []string{"outcome"}),

		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertbot_fetch_errors_total",
			Help: "Market-data fetches that failed (transport, status or decode)",
		}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alertbot_fetch_duration_seconds",
			Help:    "Market-data fetch latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		LastCandleTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alertbot_last_candle_timestamp_seconds",
			Help: "Open time of the most recent fetched candle (unix seconds)",
		}),
		CandlesPerSeries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alertbot_series_candles",
			Help: "Number of candles in the last fetched series",
		}),

		IndicatorComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alertbot_indicator_compute_duration_seconds",
			Help:    "Indicator frame compute latency per cycle",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		IndicatorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertbot_indicator_computations_total",
			Help: "Indicator frames computed",
		}),

		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alertbot_signals_total",
			Help: "Alerted signals by direction",
		}, []string{"direction"}),
		NotifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertbot_notify_errors_total",
			Help: "Alert deliveries that failed",
		}),
		NotifyDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alertbot_notify_duration_seconds",
			Help:    "Alert delivery latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		DedupSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alertbot_dedup_size",
			Help: "Candle timestamps remembered by the dedup set",
		}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alertbot_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertbot_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
		RedisPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alertbot_redis_publish_errors_total",
			Help: "Redis publishes that failed or were rejected by the breaker",
		}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "alertbot_ws_clients",
			Help: "Connected websocket clients",
		}),
	}

	reg.MustRegister(
		m.CyclesTotal,
		m.FetchErrors,
		m.FetchDur,
		m.LastCandleTS,
		m.CandlesPerSeries,
		m.IndicatorComputeDur,
		m.IndicatorsTotal,
		m.SignalsTotal,
		m.NotifyErrors,
		m.NotifyDur,
		m.DedupSize,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.RedisPublishErrors,
		m.WSClients,
	)

	return m
}
