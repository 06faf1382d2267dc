// Package redis fans signals and indicator snapshots out over Redis pub/sub.
// Nothing here is on the alerting path: publish failures are returned for
// logging and never affect dedup or notification.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"alert-systemv1/internal/signal"
)

const defaultMaxPending = 256

// Config configures the Redis publisher.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes events and info payloads for one symbol/timeframe.
type Publisher struct {
	client *goredis.Client
	cb     *CircuitBreaker

	signalCh  string
	infoCh    string
	latestKey string

	// Signals rejected by an open breaker are kept and replayed after the
	// next successful call. Info payloads are superseded every cycle and are
	// simply dropped.
	mu         sync.Mutex
	pending    []signal.Event
	maxPending int

	// OnFlush is called after buffered signals are replayed (for metrics).
	OnFlush func(count int)
}

// New connects to Redis, pings it and returns a publisher guarded by cb.
func New(cfg Config, symbol, tf string, cb *CircuitBreaker) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return NewWithClient(client, symbol, tf, cb), nil
}

// NewWithClient wraps an existing client. A nil cb gets 5 failures / 10s.
func NewWithClient(client *goredis.Client, symbol, tf string, cb *CircuitBreaker) *Publisher {
	if cb == nil {
		cb = NewCircuitBreaker(5, 10*time.Second)
	}
	return &Publisher{
		client:     client,
		cb:         cb,
		signalCh:   SignalChannel(symbol, tf),
		infoCh:     InfoChannel(symbol, tf),
		latestKey:  InfoLatestKey(symbol, tf),
		maxPending: defaultMaxPending,
	}
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// Breaker returns the circuit breaker guarding this publisher.
func (p *Publisher) Breaker() *CircuitBreaker { return p.cb }

// PublishSignal publishes an alerted event on the signal channel. When the
// breaker is open the event is buffered and ErrCircuitOpen is returned.
func (p *Publisher) PublishSignal(ctx context.Context, ev signal.Event) error {
	err := p.cb.Execute(func() error {
		return p.client.Publish(ctx, p.signalCh, string(ev.JSON())).Err()
	})
	if errors.Is(err, ErrCircuitOpen) {
		p.buffer(ev)
		return err
	}
	if err != nil {
		return fmt.Errorf("redis: publish signal: %w", err)
	}
	p.flush(ctx)
	return nil
}

// PublishInfo publishes the cycle's info payload and refreshes the latest
// key in one pipeline.
func (p *Publisher) PublishInfo(ctx context.Context, info signal.Info) error {
	b, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("redis: marshal info: %w", err)
	}
	data := string(b)

	err = p.cb.Execute(func() error {
		pipe := p.client.Pipeline()
		pipe.Publish(ctx, p.infoCh, data)
		pipe.Set(ctx, p.latestKey, data, defaultLatestTTL)
		_, err := pipe.Exec(ctx)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return err
		}
		return fmt.Errorf("redis: publish info: %w", err)
	}
	p.flush(ctx)
	return nil
}

// PendingCount returns the number of buffered signals.
func (p *Publisher) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Publisher) buffer(ev signal.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) >= p.maxPending {
		p.pending = p.pending[1:]
	}
	p.pending = append(p.pending, ev)
}

// flush replays buffered signals in order. Anything that fails again stays
// buffered for the next attempt.
func (p *Publisher) flush(ctx context.Context) {
	p.mu.Lock()
	if len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}
	toFlush := p.pending
	p.pending = nil
	p.mu.Unlock()

	flushed := 0
	for i, ev := range toFlush {
		err := p.cb.Execute(func() error {
			return p.client.Publish(ctx, p.signalCh, string(ev.JSON())).Err()
		})
		if err != nil {
			p.mu.Lock()
			p.pending = append(toFlush[i:len(toFlush):len(toFlush)], p.pending...)
			p.mu.Unlock()
			slog.Warn("[redis] replay of buffered signals interrupted",
				slog.Int("flushed", flushed), slog.Any("error", err))
			break
		}
		flushed++
	}

	if flushed > 0 && p.OnFlush != nil {
		p.OnFlush(flushed)
	}
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
