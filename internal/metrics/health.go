package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// HealthStatus tracks liveness of the polling loop and its dependencies.
type HealthStatus struct {
	mu sync.RWMutex

	PollInterval time.Duration

	LastCycleAt  time.Time
	LastOutcome  string
	LastFetchOK  time.Time
	LastCandleTS time.Time
	LastAlertAt  time.Time

	// Optional dependencies; nil means not configured.
	RedisConnected *bool
	SQLiteOK       *bool

	RedisLatencyMs  float64
	SQLiteLatencyMs float64
	LastCheckAt     time.Time
	StartedAt       time.Time

	now func() time.Time
}

// NewHealthStatus returns a health status for a loop polling every interval.
func NewHealthStatus(pollInterval time.Duration) *HealthStatus {
	return &HealthStatus{
		PollInterval: pollInterval,
		StartedAt:    time.Now(),
		now:          time.Now,
	}
}

// RecordCycle stores the outcome of a finished cycle.
func (h *HealthStatus) RecordCycle(outcome string) {
	h.mu.Lock()
	h.LastCycleAt = h.now()
	h.LastOutcome = outcome
	h.mu.Unlock()
}

// RecordFetch marks a successful fetch whose newest candle opened at candleTS.
func (h *HealthStatus) RecordFetch(candleTS time.Time) {
	h.mu.Lock()
	h.LastFetchOK = h.now()
	h.LastCandleTS = candleTS
	h.mu.Unlock()
}

// RecordAlert marks a delivered alert.
func (h *HealthStatus) RecordAlert() {
	h.mu.Lock()
	h.LastAlertAt = h.now()
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	ok := err == nil
	h.mu.Lock()
	h.RedisConnected = &ok
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = h.now()
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	ok := err == nil
	h.mu.Lock()
	h.SQLiteOK = &ok
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = h.now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. Nil dependencies are
// skipped.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// staleAfter is how long the loop may go without a cycle or a successful
// fetch before it is reported unhealthy / degraded.
func (h *HealthStatus) staleAfter() time.Duration {
	d := 3 * h.PollInterval
	if d < 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

// ServeHTTP handles the /healthz endpoint.
//
//	healthy   - cycles running, last fetch fresh, dependencies up
//	degraded  - cycles running but fetches failing or a dependency down (503)
//	unhealthy - no cycle recently (503)
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.now()
	stale := h.staleAfter()

	overallStatus := "healthy"
	httpCode := http.StatusOK

	cycling := !h.LastCycleAt.IsZero() && now.Sub(h.LastCycleAt) <= stale
	fetching := !h.LastFetchOK.IsZero() && now.Sub(h.LastFetchOK) <= stale
	depsOK := (h.RedisConnected == nil || *h.RedisConnected) && (h.SQLiteOK == nil || *h.SQLiteOK)

	switch {
	case h.LastCycleAt.IsZero() && now.Sub(h.StartedAt) <= stale:
		overallStatus = "starting"
	case !cycling:
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	case !fetching || !depsOK:
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		LastCycleAt     string  `json:"last_cycle_at,omitempty"`
		LastOutcome     string  `json:"last_outcome,omitempty"`
		LastFetchOK     string  `json:"last_fetch_ok,omitempty"`
		LastCandle      string  `json:"last_candle,omitempty"`
		LastAlertAt     string  `json:"last_alert_at,omitempty"`
		RedisConnected  *bool   `json:"redis_connected,omitempty"`
		RedisLatencyMs  float64 `json:"redis_latency_ms,omitempty"`
		SQLiteOK        *bool   `json:"sqlite_ok,omitempty"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms,omitempty"`
		LastCheckAt     string  `json:"last_check_at,omitempty"`
	}{
		Status:          overallStatus,
		Uptime:          now.Sub(h.StartedAt).Round(time.Second).String(),
		LastCycleAt:     formatTime(h.LastCycleAt),
		LastOutcome:     h.LastOutcome,
		LastFetchOK:     formatTime(h.LastFetchOK),
		LastCandle:      formatTime(h.LastCandleTS),
		LastAlertAt:     formatTime(h.LastAlertAt),
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     formatTime(h.LastCheckAt),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
