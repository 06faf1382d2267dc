// Package config loads the alert service configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"alert-systemv1/internal/indicator"
	"alert-systemv1/internal/logger"
	"alert-systemv1/internal/marketdata/edgex"
	"alert-systemv1/internal/signal"
)

// Notifier backends.
const (
	NotifierTelegram = "telegram"
	NotifierLog      = "log"
)

// Market-data sources.
const (
	SourceEdgeX  = "edgex"
	SourceSQLite = "sqlite"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Telegram
	BotToken string
	ChatID   string

	// Instrument
	Symbol     string
	ContractID string
	Timeframe  string

	// Polling
	PollInterval  time.Duration
	KlineSize     int
	PriceType     string
	EdgeXBaseURL  string
	FetchTimeout  time.Duration
	NotifyTimeout time.Duration

	// Indicators and rules
	Indicator  indicator.Params
	Thresholds signal.Thresholds

	// Delivery
	AlertLocation *time.Location
	Notifier      string
	WebhookURL    string
	DedupCapacity int

	// Infrastructure
	MarketSource  string
	SQLitePath    string
	RecordCandles bool
	RedisAddr     string
	RedisPassword string
	HTTPAddr      string
	LogLevel      slog.Level
}

// Load reads envFile (if it exists) into the process environment without
// overriding variables that are already set, then parses and validates the
// configuration. Every problem found is reported in the returned error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: load %s: %w", envFile, err)
			}
			log.Printf("[config] %s not found, using environment variables", envFile)
		}
	}

	var e env
	cfg := &Config{
		BotToken: strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		ChatID:   strings.TrimSpace(os.Getenv("CHAT_ID")),

		Symbol:     e.str("SYMBOL", "BTCUSD"),
		ContractID: e.str("CONTRACT_ID", "10000001"),
		Timeframe:  e.str("TIMEFRAME", "5m"),

		PollInterval:  e.seconds("POLL_SEC", 5),
		KlineSize:     e.int("KLINE_SIZE", edgex.DefaultSize),
		PriceType:     e.str("PRICE_TYPE", edgex.DefaultPriceType),
		EdgeXBaseURL:  e.str("EDGEX_BASE_URL", edgex.DefaultBaseURL),
		FetchTimeout:  e.seconds("FETCH_TIMEOUT_SEC", 15),
		NotifyTimeout: e.seconds("NOTIFY_TIMEOUT_SEC", 10),

		Indicator: indicator.Params{
			RSIPeriod:    e.int("RSI_PERIOD", 14),
			MACDFast:     e.int("MACD_FAST", 12),
			MACDSlow:     e.int("MACD_SLOW", 26),
			MACDSignal:   e.int("MACD_SIGNAL", 9),
			StochPeriod:  e.int("STOCH_RSI_PERIOD", 14),
			StochKSmooth: e.int("STOCH_K_SMOOTH", 3),
			StochDSmooth: e.int("STOCH_D_SMOOTH", 3),
		},
		Thresholds: signal.Thresholds{
			RSIFilter:  e.float("RSI_FILTER", 50),
			Oversold:   e.float("K_OVERSOLD", 20),
			Overbought: e.float("K_OVERBOUGHT", 80),
		},

		Notifier:      strings.ToLower(e.str("NOTIFIER", NotifierTelegram)),
		WebhookURL:    e.str("WEBHOOK_URL", ""),
		DedupCapacity: e.int("DEDUP_CAPACITY", 0),

		MarketSource:  strings.ToLower(e.str("MARKET_SOURCE", SourceEdgeX)),
		SQLitePath:    e.str("SQLITE_PATH", "data/candles.db"),
		RecordCandles: e.bool("RECORD_CANDLES", false),
		RedisAddr:     e.str("REDIS_ADDR", ""),
		RedisPassword: e.str("REDIS_PASSWORD", ""),
		HTTPAddr:      e.str("HTTP_ADDR", ":9095"),
	}

	cfg.AlertLocation = e.location("ALERT_TIMEZONE", "Local")
	cfg.LogLevel = e.level("LOG_LEVEL", "info")

	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field rules. The service refuses to start when it
// cannot deliver alerts.
func (c *Config) Validate() error {
	var errs []error

	switch c.Notifier {
	case NotifierTelegram:
		var missing []string
		if c.BotToken == "" {
			missing = append(missing, "BOT_TOKEN")
		}
		if c.ChatID == "" {
			missing = append(missing, "CHAT_ID")
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Errorf("config: required env var(s) not set: %s", strings.Join(missing, ", ")))
		}
	case NotifierLog:
	default:
		errs = append(errs, fmt.Errorf("config: NOTIFIER must be %q or %q, got %q", NotifierTelegram, NotifierLog, c.Notifier))
	}

	if c.Symbol == "" {
		errs = append(errs, errors.New("config: SYMBOL must not be empty"))
	}
	if _, err := edgex.KlineType(c.Timeframe); err != nil {
		errs = append(errs, fmt.Errorf("config: TIMEFRAME: %w", err))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("config: POLL_SEC must be positive"))
	}
	if c.FetchTimeout <= 0 || c.NotifyTimeout <= 0 {
		errs = append(errs, errors.New("config: timeouts must be positive"))
	}
	if c.KlineSize < c.Indicator.MinBars() {
		errs = append(errs, fmt.Errorf("config: KLINE_SIZE %d is below the %d bars the indicators need", c.KlineSize, c.Indicator.MinBars()))
	}
	if err := c.Indicator.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}

	th := c.Thresholds
	if th.Oversold < 0 || th.Overbought > 100 || th.Oversold >= th.Overbought {
		errs = append(errs, fmt.Errorf("config: need 0 <= K_OVERSOLD < K_OVERBOUGHT <= 100, got %v/%v", th.Oversold, th.Overbought))
	}
	if th.RSIFilter < 0 || th.RSIFilter > 100 {
		errs = append(errs, fmt.Errorf("config: RSI_FILTER must be within [0,100], got %v", th.RSIFilter))
	}

	switch c.MarketSource {
	case SourceEdgeX:
		if c.ContractID == "" {
			errs = append(errs, errors.New("config: CONTRACT_ID must not be empty"))
		}
	case SourceSQLite:
	default:
		errs = append(errs, fmt.Errorf("config: MARKET_SOURCE must be %q or %q, got %q", SourceEdgeX, SourceSQLite, c.MarketSource))
	}
	if (c.MarketSource == SourceSQLite || c.RecordCandles) && c.SQLitePath == "" {
		errs = append(errs, errors.New("config: SQLITE_PATH is required for sqlite source or recording"))
	}
	if c.DedupCapacity < 0 {
		errs = append(errs, errors.New("config: DEDUP_CAPACITY must not be negative"))
	}

	return errors.Join(errs...)
}

// PrintSummary logs the effective configuration with secrets masked.
func (c *Config) PrintSummary() {
	log.Printf("[config] %s %s (contract %s) via %s, poll every %s",
		c.Symbol, c.Timeframe, c.ContractID, c.MarketSource, c.PollInterval)
	log.Printf("[config] MACD(%d,%d,%d) RSI(%d) StochRSI(%d,%d,%d) filter=%.1f zones=%.1f/%.1f",
		c.Indicator.MACDFast, c.Indicator.MACDSlow, c.Indicator.MACDSignal, c.Indicator.RSIPeriod,
		c.Indicator.StochPeriod, c.Indicator.StochKSmooth, c.Indicator.StochDSmooth,
		c.Thresholds.RSIFilter, c.Thresholds.Oversold, c.Thresholds.Overbought)
	log.Printf("[config] notifier=%s token=%s chat=%s webhook=%t tz=%s",
		c.Notifier, mask(c.BotToken), c.ChatID, c.WebhookURL != "", c.AlertLocation)
	log.Printf("[config] redis=%q sqlite=%q record=%t http=%s",
		c.RedisAddr, c.SQLitePath, c.RecordCandles, c.HTTPAddr)
}

func mask(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// env reads typed variables and collects parse errors instead of silently
// falling back to defaults.
type env struct {
	errs []error
}

func (e *env) str(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (e *env) int(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %q is not an integer", key, v))
		return fallback
	}
	return n
}

func (e *env) float(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %q is not a number", key, v))
		return fallback
	}
	return f
}

func (e *env) bool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %q is not a boolean", key, v))
		return fallback
	}
	return b
}

// seconds accepts a plain number of seconds ("5", "0.5") or a Go duration
// ("1m30s").
func (e *env) seconds(key string, fallback float64) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return time.Duration(fallback * float64(time.Second))
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %q is not a duration", key, v))
		return time.Duration(fallback * float64(time.Second))
	}
	return d
}

func (e *env) location(key, fallback string) *time.Location {
	name := e.str(key, fallback)
	if strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
		return time.Local
	}
	return loc
}

func (e *env) level(key, fallback string) slog.Level {
	lvl, err := logger.ParseLevel(e.str(key, fallback))
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("config: %s: %w", key, err))
	}
	return lvl
}
