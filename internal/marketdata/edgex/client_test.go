package edgex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:    srv.URL,
		ContractID: "10000001",
		Timeframe:  "5m",
	}, srv.Client())
	require.NoError(t, err)
	return c
}

func TestFetchCandles_RequestAndDecode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/public/quote/getKline", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "10000001", q.Get("contractId"))
		assert.Equal(t, "LAST_PRICE", q.Get("priceType"))
		assert.Equal(t, "MINUTE_5", q.Get("klineType"))
		assert.Equal(t, "400", q.Get("size"))

		w.Header().Set("Content-Type", "application/json")
		// newest first, mixed string/number encodings
		_, _ = w.Write([]byte(`{
			"code": "SUCCESS",
			"data": {"dataList": [
				{"klineTime": "1705314900000", "open": "65010.5", "high": "65100", "low": "64990.1", "close": "65050.25", "size": "12.5"},
				{"klineTime": 1705314600000, "open": 65000, "high": 65020.5, "low": 64950, "close": 65010.5, "size": 3}
			]}
		}`))
	})

	s, err := c.FetchCandles(context.Background())
	require.NoError(t, err)
	require.Len(t, s, 2)
	require.NoError(t, s.Validate())

	assert.Equal(t, int64(1705314600000), s[0].TS)
	assert.Equal(t, 65010.5, s[0].Close)
	assert.Equal(t, 3.0, s[0].Volume)

	assert.Equal(t, int64(1705314900000), s[1].TS)
	assert.Equal(t, 65050.25, s[1].Close)
	assert.Equal(t, 64990.1, s[1].Low)
	assert.Equal(t, 12.5, s[1].Volume)
}

func TestFetchCandles_DuplicateTimestampsLastWins(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"SUCCESS","data":{"dataList":[
			{"klineTime":"1000","open":"1","high":"1","low":"1","close":"1","size":"0"},
			{"klineTime":"1000","open":"2","high":"2","low":"2","close":"2","size":"0"}
		]}}`))
	})

	s, err := c.FetchCandles(context.Background())
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, 2.0, s[0].Close)
}

func TestFetchCandles_DropsUnparsableRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"SUCCESS","data":{"dataList":[
			{"klineTime":"1000","open":"1","high":"1","low":"1","close":"1.5","size":"2"},
			{"klineTime":"2000","open":"1","high":"1","low":"1","close":"n/a","size":"2"},
			{"klineTime":"","open":"1","high":"1","low":"1","close":"1","size":"2"},
			{"klineTime":"3000","open":"1","high":"1","low":"1","close":null},
			{"klineTime":"4000","open":"1","high":"1","low":"1","close":"2.5"}
		]}}`))
	})

	s, err := c.FetchCandles(context.Background())
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, []float64{1.5, 2.5}, s.Closes())
	assert.Zero(t, s[1].Volume, "missing size counts as zero volume")
}

func TestFetchCandles_EmptyList(t *testing.T) {
	for name, body := range map[string]string{
		"empty list":   `{"code":"SUCCESS","data":{"dataList":[]}}`,
		"null data":    `{"code":"SUCCESS","data":null}`,
		"missing list": `{"code":"SUCCESS","data":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			s, err := c.FetchCandles(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, s)
			assert.Empty(t, s)
		})
	}
}

func TestFetchCandles_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantAPI bool
	}{
		{"http 500", http.StatusInternalServerError, `oops`, false},
		{"bad json", http.StatusOK, `{"code":`, false},
		{"api error code", http.StatusOK, `{"code":"INVALID_CONTRACT","msg":"contract not found"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			s, err := c.FetchCandles(context.Background())
			require.Error(t, err)
			assert.Nil(t, s)
			if tt.wantAPI {
				assert.ErrorIs(t, err, ErrAPI)
				assert.Contains(t, err.Error(), "INVALID_CONTRACT")
			}
		})
	}
}

func TestFetchCandles_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchCandles(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Timeframe: "5m"}, nil)
	assert.Error(t, err, "contract id required")

	_, err = New(Config{ContractID: "1", Timeframe: "7m"}, nil)
	assert.Error(t, err)

	c, err := New(Config{ContractID: "1", Timeframe: "1h", BaseURL: "https://example.test/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test", c.cfg.BaseURL)
	assert.Equal(t, DefaultPriceType, c.cfg.PriceType)
	assert.Equal(t, DefaultSize, c.cfg.Size)
	assert.Equal(t, "HOUR_1", c.klineType)
	assert.Equal(t, 15*time.Second, c.httpClient.Timeout)
}

func TestKlineType(t *testing.T) {
	tests := map[string]string{
		"1m": "MINUTE_1", "3m": "MINUTE_3", "5m": "MINUTE_5", "15m": "MINUTE_15",
		"30m": "MINUTE_30", "1h": "HOUR_1", "2h": "HOUR_2", "4h": "HOUR_4",
		"6h": "HOUR_6", "8h": "HOUR_8", "12h": "HOUR_12", "1d": "DAY_1",
	}
	for tf, want := range tests {
		got, err := KlineType(tf)
		require.NoError(t, err, tf)
		assert.Equal(t, want, got)
	}
	_, err := KlineType("1w")
	assert.Error(t, err)

	d, err := Duration("15m")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	tfs := Timeframes()
	require.Len(t, tfs, 12)
	assert.Equal(t, "1m", tfs[0])
	assert.Equal(t, "1d", tfs[len(tfs)-1])
}
