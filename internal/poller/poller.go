// Package poller runs the alert loop: fetch candles, evaluate the last bar,
// deliver each new signal once, then sleep for the poll interval.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"alert-systemv1/internal/dedup"
	"alert-systemv1/internal/logger"
	"alert-systemv1/internal/metrics"
	"alert-systemv1/internal/model"
	"alert-systemv1/internal/notification"
	"alert-systemv1/internal/signal"
)

const publishTimeout = 2 * time.Second

// Source returns the latest candle series, ascending by time.
type Source interface {
	FetchCandles(ctx context.Context) (model.Series, error)
}

// Publisher receives every cycle's info payload and every alerted event
// (the Redis fan-out).
type Publisher interface {
	PublishInfo(ctx context.Context, info signal.Info) error
	PublishSignal(ctx context.Context, ev signal.Event) error
}

// Broadcaster pushes the same payloads to live clients (the websocket hub).
type Broadcaster interface {
	BroadcastInfo(info signal.Info)
	BroadcastSignal(ev signal.Event)
}

// Recorder persists fetched series off the alert path.
type Recorder interface {
	Record(s model.Series)
}

// Config holds the loop settings.
type Config struct {
	Symbol        string
	Timeframe     string
	PollInterval  time.Duration
	FetchTimeout  time.Duration
	NotifyTimeout time.Duration

	// RSIPeriod labels the RSI line of the alert text.
	RSIPeriod int
	// Location renders candle times in alerts; nil means UTC.
	Location *time.Location
}

// Service owns the dedup set and runs one cycle at a time.
type Service struct {
	cfg      Config
	source   Source
	detector *signal.Detector
	notifier notification.Notifier
	seen     *dedup.Set
	prom     *metrics.Metrics
	log      *slog.Logger

	// Optional side channels; nil disables them.
	Publisher   Publisher
	Broadcaster Broadcaster
	Recorder    Recorder
	Health      *metrics.HealthStatus

	now func() time.Time
}

// New creates a polling service. A nil seen set starts an unbounded one and
// nil metrics register on a private registry.
func New(cfg Config, src Source, det *signal.Detector, n notification.Notifier, seen *dedup.Set, prom *metrics.Metrics, log *slog.Logger) *Service {
	if seen == nil {
		seen = dedup.New()
	}
	if prom == nil {
		prom = metrics.NewMetrics(prometheus.NewRegistry())
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		source:   src,
		detector: det,
		notifier: n,
		seen:     seen,
		prom:     prom,
		log:      log.With("symbol", cfg.Symbol, "tf", cfg.Timeframe),
		now:      time.Now,
	}
}

// Seen exposes the dedup set (read-only use).
func (s *Service) Seen() *dedup.Set { return s.seen }

// Run executes a cycle immediately, then one cycle per poll interval, until
// ctx is cancelled. Cycles never overlap.
func (s *Service) Run(ctx context.Context) {
	s.log.Info("polling loop started", "interval", s.cfg.PollInterval.String())
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("polling loop stopped")
			return
		case <-timer.C:
		}
		s.RunCycle(ctx)
		timer.Reset(s.cfg.PollInterval)
	}
}

// RunCycle performs one fetch → evaluate → notify pass and records its
// outcome. Panics are recovered and reported as OutcomePanicked.
func (s *Service) RunCycle(ctx context.Context) Outcome {
	ctx = logger.WithTraceID(ctx, logger.NewTraceID())
	log := logger.FromContext(ctx, s.log)

	start := time.Now()
	out := s.cycle(ctx, log)

	s.prom.CyclesTotal.WithLabelValues(out.String()).Inc()
	if s.Health != nil {
		s.Health.RecordCycle(out.String())
	}
	log.Debug("cycle done", "outcome", out.String(), "took", time.Since(start).String())
	return out
}

func (s *Service) cycle(ctx context.Context, log *slog.Logger) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("cycle panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			out = OutcomePanicked
		}
	}()

	series, err := s.fetch(ctx)
	if err != nil {
		s.prom.FetchErrors.Inc()
		log.Warn("fetch failed", "error", err)
		return OutcomeFetchFailed
	}
	last, ok := series.Last()
	if !ok {
		log.Warn("fetch returned no candles")
		return OutcomeEmpty
	}

	s.prom.LastCandleTS.Set(float64(last.TS) / 1000)
	s.prom.CandlesPerSeries.Set(float64(len(series)))
	if s.Health != nil {
		s.Health.RecordFetch(last.Time())
	}
	if s.Recorder != nil {
		s.Recorder.Record(series)
	}

	if !s.detector.Sufficient(series) {
		log.Debug("insufficient history", "candles", len(series), "need", s.detector.MinBars())
		return OutcomeInsufficient
	}

	computeStart := time.Now()
	eval, ok := s.detector.Detect(series)
	s.prom.IndicatorComputeDur.Observe(time.Since(computeStart).Seconds())
	s.prom.IndicatorsTotal.Inc()
	if !ok {
		return OutcomeInsufficient
	}

	s.publishInfo(ctx, log, eval.Info)

	if !eval.Direction.IsSignal() {
		return OutcomeNoSignal
	}
	ts := eval.Info.TS
	if s.seen.Seen(ts) {
		log.Debug("signal already alerted", "direction", eval.Direction.String(), "candle_ts", ts)
		return OutcomeDuplicate
	}

	ev, _ := signal.NewEvent(s.cfg.Symbol, s.cfg.Timeframe, eval, s.now())
	alert := notification.FormatSignal(ev, s.cfg.RSIPeriod, s.cfg.Location)
	log.Info("alert",
		"event_id", ev.ID,
		"direction", ev.Direction.String(),
		"price", ev.Info.Price,
		"candle_ts", ts,
		"text", alert.OneLine(),
	)

	// Marked before delivery so a failing or panicking notifier gets one
	// attempt per candle.
	s.seen.Mark(ts)
	s.prom.DedupSize.Set(float64(s.seen.Len()))
	s.prom.SignalsTotal.WithLabelValues(ev.Direction.String()).Inc()

	sendErr := s.send(ctx, alert)

	s.publishSignal(ctx, log, ev)

	if sendErr != nil {
		s.prom.NotifyErrors.Inc()
		log.Error("notify failed", "event_id", ev.ID, "error", sendErr)
		return OutcomeNotifyFailed
	}
	if s.Health != nil {
		s.Health.RecordAlert()
	}
	return OutcomeAlerted
}

func (s *Service) fetch(ctx context.Context) (model.Series, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	series, err := s.source.FetchCandles(ctx)
	s.prom.FetchDur.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return series, nil
}

// send reports a notifier panic as an error.
func (s *Service) send(ctx context.Context, alert notification.Alert) (err error) {
	ctx, cancel := withTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		s.prom.NotifyDur.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	return s.notifier.Send(ctx, alert)
}

func (s *Service) publishInfo(ctx context.Context, log *slog.Logger, info signal.Info) {
	if s.Broadcaster != nil {
		s.Broadcaster.BroadcastInfo(info)
	}
	if s.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.Publisher.PublishInfo(ctx, info); err != nil {
		s.prom.RedisPublishErrors.Inc()
		log.Debug("publish info failed", "error", err)
	}
}

func (s *Service) publishSignal(ctx context.Context, log *slog.Logger, ev signal.Event) {
	if s.Broadcaster != nil {
		s.Broadcaster.BroadcastSignal(ev)
	}
	if s.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.Publisher.PublishSignal(ctx, ev); err != nil {
		s.prom.RedisPublishErrors.Inc()
		log.Warn("publish signal failed", "event_id", ev.ID, "error", err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
