package sqlite

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"alert-systemv1/internal/model"
)

const writeTimeout = 5 * time.Second

// Recorder persists fetched series off the polling goroutine. Record never
// blocks: when the writer falls behind, only the newest series is kept,
// which is enough because every fetch covers the previous one.
type Recorder struct {
	w      *Writer
	symbol string
	tf     string
	ch     chan model.Series

	written atomic.Uint64
	dropped atomic.Uint64
}

// NewRecorder creates a recorder for one symbol/timeframe.
func NewRecorder(w *Writer, symbol, tf string) *Recorder {
	return &Recorder{w: w, symbol: symbol, tf: tf, ch: make(chan model.Series, 1)}
}

// Record queues s for writing, replacing any series still waiting.
func (r *Recorder) Record(s model.Series) {
	for {
		select {
		case r.ch <- s:
			return
		default:
		}
		select {
		case <-r.ch:
			r.dropped.Add(1)
		default:
		}
	}
}

// Run writes queued series until ctx is cancelled, then flushes what is left.
// Writes are not tied to ctx so shutdown never aborts a transaction midway.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			select {
			case s := <-r.ch:
				r.write(s)
			default:
			}
			return
		case s := <-r.ch:
			r.write(s)
		}
	}
}

// Start runs the recorder in its own goroutine. The returned stop cancels it
// and waits for the final flush, so the writer can be closed right after.
func (r *Recorder) Start() (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (r *Recorder) write(s model.Series) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	start := time.Now()
	if err := r.w.UpsertCandles(ctx, r.symbol, r.tf, s); err != nil {
		slog.Warn("[sqlite] record candles failed", slog.Any("error", err))
		return
	}
	r.written.Add(uint64(len(s)))
	slog.Debug("[sqlite] recorded candles",
		slog.Int("count", len(s)),
		slog.Duration("took", time.Since(start)),
	)
}

// Written returns the number of candle rows upserted so far.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Dropped returns how many queued series were superseded before writing.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }
