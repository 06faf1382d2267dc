package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert-systemv1/internal/signal"
)

func testEvent(id string) signal.Event {
	return signal.Event{
		ID:         id,
		Symbol:     "BTCUSD",
		Timeframe:  "5m",
		Direction:  signal.Long,
		Info:       signal.Info{TS: 1705314600000, Price: 65000.5, RSI: 55},
		DetectedAt: time.Date(2024, 1, 15, 10, 31, 0, 0, time.UTC),
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "pub:signal:BTCUSD:5m", SignalChannel("BTCUSD", "5m"))
	assert.Equal(t, "pub:ind:BTCUSD:5m", InfoChannel("BTCUSD", "5m"))
	assert.Equal(t, "ind:latest:BTCUSD:5m", InfoLatestKey("BTCUSD", "5m"))
}

func TestPublisher_PublishSignal(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewWithClient(db, "BTCUSD", "5m", nil)
	ev := testEvent("e1")

	mock.ExpectPublish("pub:signal:BTCUSD:5m", string(ev.JSON())).SetVal(1)

	require.NoError(t, p.PublishSignal(context.Background(), ev))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisher_PublishInfo(t *testing.T) {
	db, mock := redismock.NewClientMock()
	p := NewWithClient(db, "BTCUSD", "5m", nil)
	info := signal.Info{TS: 1705314600000, Price: 65000.5, MACD: 1, MACDSignal: 0.5, StochK: 30, StochD: 20, RSI: 52}
	b, _ := json.Marshal(info)

	mock.ExpectPublish("pub:ind:BTCUSD:5m", string(b)).SetVal(0)
	mock.ExpectSet("ind:latest:BTCUSD:5m", string(b), 30*time.Minute).SetVal("OK")

	require.NoError(t, p.PublishInfo(context.Background(), info))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisher_ErrorsTripBreakerAndBuffer(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cb, clk := newTestBreaker(2, 10*time.Second)
	p := NewWithClient(db, "BTCUSD", "5m", cb)
	ctx := context.Background()

	down := errors.New("connection refused")
	e1, e2, e3 := testEvent("e1"), testEvent("e2"), testEvent("e3")

	mock.ExpectPublish("pub:signal:BTCUSD:5m", string(e1.JSON())).SetErr(down)
	mock.ExpectPublish("pub:signal:BTCUSD:5m", string(e2.JSON())).SetErr(down)

	err := p.PublishSignal(ctx, e1)
	require.Error(t, err)
	assert.ErrorIs(t, err, down)
	require.Error(t, p.PublishSignal(ctx, e2))
	require.Equal(t, StateOpen, cb.CurrentState())

	// rejected without touching redis, buffered for replay
	assert.ErrorIs(t, p.PublishSignal(ctx, e3), ErrCircuitOpen)
	assert.Equal(t, 1, p.PendingCount())

	flushed := 0
	p.OnFlush = func(n int) { flushed = n }

	clk.advance(10 * time.Second)
	e4 := testEvent("e4")
	mock.ExpectPublish("pub:signal:BTCUSD:5m", string(e4.JSON())).SetVal(1)
	mock.ExpectPublish("pub:signal:BTCUSD:5m", string(e3.JSON())).SetVal(1)

	require.NoError(t, p.PublishSignal(ctx, e4))
	assert.Equal(t, StateClosed, cb.CurrentState())
	assert.Zero(t, p.PendingCount())
	assert.Equal(t, 1, flushed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisher_InfoNotBufferedWhenOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cb, _ := newTestBreaker(1, time.Minute)
	p := NewWithClient(db, "BTCUSD", "5m", cb)
	trip(cb, 1)

	err := p.PublishInfo(context.Background(), signal.Info{TS: 1})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, p.PendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisher_BufferDropsOldest(t *testing.T) {
	db, _ := redismock.NewClientMock()
	cb, _ := newTestBreaker(1, time.Minute)
	p := NewWithClient(db, "BTCUSD", "5m", cb)
	p.maxPending = 2
	trip(cb, 1)

	for _, id := range []string{"a", "b", "c"} {
		_ = p.PublishSignal(context.Background(), testEvent(id))
	}
	require.Equal(t, 2, p.PendingCount())
	assert.Equal(t, "b", p.pending[0].ID)
	assert.Equal(t, "c", p.pending[1].ID)
}

func TestDecodeEvent(t *testing.T) {
	ev := testEvent("e1")
	got, err := decodeEvent(string(ev.JSON()))
	require.NoError(t, err)
	assert.Equal(t, ev, got)

	_, err = decodeEvent(`{"id":"x","direction":"NONE"}`)
	assert.Error(t, err)
	_, err = decodeEvent(`not json`)
	assert.Error(t, err)
}
