package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert-systemv1/internal/model"
)

func testSeries(n int, startTS int64) model.Series {
	s := make(model.Series, n)
	for i := range s {
		px := 100 + float64(i)
		s[i] = model.Candle{TS: startTS + int64(i)*300_000, Open: px, High: px + 1, Low: px - 1, Close: px + 0.5, Volume: float64(i)}
	}
	return s
}

func openPair(t *testing.T) (*Writer, *Reader) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.db")

	w, err := New(WriterConfig{DBPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	r, err := NewReader(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return w, r
}

func TestUpsertAndLatest(t *testing.T) {
	w, r := openPair(t)
	ctx := context.Background()
	s := testSeries(10, 1705314600000)

	require.NoError(t, w.UpsertCandles(ctx, "BTCUSD", "5m", s))

	got, err := r.LatestCandles(ctx, "BTCUSD", "5m", 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	require.NoError(t, got.Validate())
	assert.Equal(t, s[6:], got)

	last, err := w.LastTimestamp(ctx, "BTCUSD", "5m")
	require.NoError(t, err)
	assert.Equal(t, s[9].TS, last)
}

func TestUpsertReplacesFormingCandle(t *testing.T) {
	w, r := openPair(t)
	ctx := context.Background()
	s := testSeries(3, 1000)
	require.NoError(t, w.UpsertCandles(ctx, "BTCUSD", "5m", s))

	updated := s[2]
	updated.Close = 999
	require.NoError(t, w.UpsertCandles(ctx, "BTCUSD", "5m", model.Series{updated}))

	got, err := r.LatestCandles(ctx, "BTCUSD", "5m", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 999.0, got[2].Close)
}

func TestLatestCandles_EmptyAndIsolated(t *testing.T) {
	w, r := openPair(t)
	ctx := context.Background()
	require.NoError(t, w.UpsertCandles(ctx, "ETHUSD", "5m", testSeries(5, 1000)))
	require.NoError(t, w.UpsertCandles(ctx, "BTCUSD", "5m", nil))

	got, err := r.LatestCandles(ctx, "BTCUSD", "5m", 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	last, err := w.LastTimestamp(ctx, "BTCUSD", "1h")
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestSource_FetchCandles(t *testing.T) {
	w, r := openPair(t)
	ctx := context.Background()
	require.NoError(t, w.UpsertCandles(ctx, "BTCUSD", "5m", testSeries(50, 1000)))

	src := Source{Reader: r, Symbol: "BTCUSD", TF: "5m", Limit: 40}
	got, err := src.FetchCandles(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 40)
	assert.Equal(t, int64(1000+49*300_000), got[39].TS)
}

func TestRecorder_WritesLatest(t *testing.T) {
	w, r := openPair(t)
	rec := NewRecorder(w, "BTCUSD", "5m")

	// queue two before the loop starts: the first is superseded
	rec.Record(testSeries(3, 1000))
	rec.Record(testSeries(5, 1000))
	assert.Equal(t, uint64(1), rec.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rec.Written() == 5 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	got, err := r.LatestCandles(context.Background(), "BTCUSD", "5m", 100)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestRecorder_FlushesOnShutdown(t *testing.T) {
	w, r := openPair(t)
	rec := NewRecorder(w, "BTCUSD", "5m")
	rec.Record(testSeries(4, 1000))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	got, err := r.LatestCandles(context.Background(), "BTCUSD", "5m", 100)
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestRecorder_StopWaitsForFlush(t *testing.T) {
	w, r := openPair(t)
	rec := NewRecorder(w, "BTCUSD", "5m")
	stop := rec.Start()

	rec.Record(testSeries(6, 1000))
	stop()
	require.NoError(t, w.Close())

	assert.Equal(t, uint64(6), rec.Written())
	got, err := r.LatestCandles(context.Background(), "BTCUSD", "5m", 100)
	require.NoError(t, err)
	assert.Len(t, got, 6)
}
