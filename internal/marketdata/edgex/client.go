// Package edgex fetches OHLCV candles from the EdgeX public quote API.
package edgex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"alert-systemv1/internal/model"
)

const (
	DefaultBaseURL   = "https://pro.edgex.exchange"
	DefaultPriceType = "LAST_PRICE"
	DefaultSize      = 400

	klinePath    = "/api/v1/public/quote/getKline"
	maxBodyBytes = 8 << 20
)

// ErrAPI is returned when the API answers with a non-success code.
var ErrAPI = errors.New("edgex: api error")

// Config selects the contract and kline stream to poll.
type Config struct {
	BaseURL    string
	ContractID string
	Timeframe  string // "5m", "1h", …
	PriceType  string
	Size       int
}

// Client is a market-data source backed by the getKline endpoint.
type Client struct {
	cfg        Config
	klineType  string
	httpClient *http.Client
}

// New validates cfg and returns a client. A nil httpClient gets a 15s
// timeout.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.ContractID == "" {
		return nil, errors.New("edgex: contract id is required")
	}
	kt, err := KlineType(cfg.Timeframe)
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PriceType == "" {
		cfg.PriceType = DefaultPriceType
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{cfg: cfg, klineType: kt, httpClient: httpClient}, nil
}

// FetchCandles returns the most recent candles, ascending by timestamp with
// unique timestamps. An empty list from the API yields an empty Series and
// no error. Rows with unparsable fields are dropped.
func (c *Client) FetchCandles(ctx context.Context) (model.Series, error) {
	params := url.Values{}
	params.Set("contractId", c.cfg.ContractID)
	params.Set("priceType", c.cfg.PriceType)
	params.Set("klineType", c.klineType)
	params.Set("size", strconv.Itoa(c.cfg.Size))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+klinePath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("edgex: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edgex: get kline: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("edgex: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("edgex: unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	var kr klineResponse
	if err := json.Unmarshal(body, &kr); err != nil {
		return nil, fmt.Errorf("edgex: decode kline: %w", err)
	}
	if kr.Code != "" && kr.Code != codeSuccess {
		return nil, fmt.Errorf("%w: code=%s msg=%s", ErrAPI, kr.Code, kr.Msg)
	}
	if kr.Data == nil || len(kr.Data.DataList) == 0 {
		return model.Series{}, nil
	}

	rows := make([]model.Candle, 0, len(kr.Data.DataList))
	dropped := 0
	for _, dto := range kr.Data.DataList {
		candle, err := dto.candle()
		if err != nil {
			dropped++
			continue
		}
		rows = append(rows, candle)
	}
	if dropped > 0 {
		slog.Warn("[edgex] dropped unparsable kline rows",
			slog.Int("dropped", dropped),
			slog.Int("total", len(kr.Data.DataList)),
		)
	}
	return model.Normalize(rows), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
