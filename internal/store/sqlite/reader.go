package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"alert-systemv1/internal/model"
)

// Reader provides read-only access to recorded candles.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// LatestCandles returns up to limit of the newest candles for symbol/tf,
// ascending by timestamp.
func (r *Reader) LatestCandles(ctx context.Context, symbol, tf string, limit int) (model.Series, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND tf = ?
		ORDER BY ts DESC
		LIMIT ?
	`, symbol, tf, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	s := model.Series{}
	for rows.Next() {
		var c model.Candle
		if err := rows.Scan(&c.TS, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan candles: %w", err)
		}
		s = append(s, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return s, nil
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// Source adapts a Reader to the poller's market-data source, replaying a
// recorded database instead of calling the exchange.
type Source struct {
	Reader *Reader
	Symbol string
	TF     string
	Limit  int
}

// FetchCandles returns the newest Limit recorded candles.
func (s Source) FetchCandles(ctx context.Context) (model.Series, error) {
	return s.Reader.LatestCandles(ctx, s.Symbol, s.TF, s.Limit)
}
