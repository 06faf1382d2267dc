// Command alertbot polls EdgeX klines, evaluates MACD + Stochastic-RSI
// crossovers on the latest candle and sends each new signal once.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"alert-systemv1/config"
	"alert-systemv1/internal/dedup"
	"alert-systemv1/internal/gateway"
	"alert-systemv1/internal/httpclient"
	"alert-systemv1/internal/indicator"
	"alert-systemv1/internal/logger"
	"alert-systemv1/internal/marketdata/edgex"
	"alert-systemv1/internal/metrics"
	"alert-systemv1/internal/notification"
	"alert-systemv1/internal/poller"
	alertsignal "alert-systemv1/internal/signal"
	redisstore "alert-systemv1/internal/store/redis"
	sqlitestore "alert-systemv1/internal/store/sqlite"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code once every deferred close has run.
func run() int {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	envFile := flag.String("env", ".env", "path to the .env file (missing file is ignored)")
	once := flag.Bool("once", false, "run a single polling cycle and exit")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("[alertbot] %v", err)
	}
	cfg.PrintSummary()

	lg := logger.Init("alertbot", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		lg.Info("shutdown signal received")
		cancel()
	}()

	// ---- Metrics & health ----
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus(cfg.PollInterval)

	// ---- Market data ----
	src, closeSrc := buildSource(cfg)
	defer closeSrc()

	// ---- Notification ----
	notifier := buildNotifier(cfg, lg)

	// ---- Detector ----
	engine := indicator.NewEngine(cfg.Indicator)
	detector := alertsignal.NewDetector(engine, cfg.Thresholds)

	seen := dedup.New()
	if cfg.DedupCapacity > 0 {
		seen = dedup.NewBounded(cfg.DedupCapacity)
	}

	svc := poller.New(poller.Config{
		Symbol:        cfg.Symbol,
		Timeframe:     cfg.Timeframe,
		PollInterval:  cfg.PollInterval,
		FetchTimeout:  cfg.FetchTimeout,
		NotifyTimeout: cfg.NotifyTimeout,
		RSIPeriod:     cfg.Indicator.RSIPeriod,
		Location:      cfg.AlertLocation,
	}, src, detector, notifier, seen, prom, lg)
	svc.Health = health

	// ---- Redis fan-out (optional) ----
	var pub *redisstore.Publisher
	if cfg.RedisAddr != "" {
		pub = setupRedis(cfg, prom, health)
		if pub != nil {
			defer pub.Close()
			svc.Publisher = pub
		}
	}

	// ---- Candle recording (optional) ----
	var sqlWriter *sqlitestore.Writer
	if cfg.RecordCandles && cfg.MarketSource == config.SourceEdgeX {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			log.Fatalf("[alertbot] sqlite dir: %v", err)
		}
		sqlWriter, err = sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			log.Fatalf("[alertbot] sqlite init failed: %v", err)
		}
		defer sqlWriter.Close()
		ok := true
		health.SQLiteOK = &ok

		// Deferred after Close, so the last series is flushed first.
		rec := sqlitestore.NewRecorder(sqlWriter, cfg.Symbol, cfg.Timeframe)
		defer rec.Start()()
		svc.Recorder = rec
	}

	if *once {
		out := svc.RunCycle(ctx)
		lg.Info("single cycle finished", "outcome", out.String())
		switch out {
		case poller.OutcomeFetchFailed, poller.OutcomeNotifyFailed, poller.OutcomePanicked:
			return 1
		}
		return 0
	}

	// ---- Websocket hub + HTTP ----
	hub := gateway.NewHub(0)
	hub.OnClientCount = func(n int) { prom.WSClients.Set(float64(n)) }
	svc.Broadcaster = hub

	srv := metrics.NewServer(cfg.HTTPAddr, health, reg)
	gateway.RegisterRoutes(srv, hub)
	srv.Start()

	var rdb *goredis.Client
	if pub != nil {
		rdb = pub.Client()
	}
	var db *sql.DB
	if sqlWriter != nil {
		db = sqlWriter.DB()
	}
	health.StartLivenessChecker(ctx, rdb, db, 10*time.Second)

	lg.Info("alertbot running",
		"symbol", cfg.Symbol,
		"tf", cfg.Timeframe,
		"source", cfg.MarketSource,
		"notifier", cfg.Notifier,
		"http", cfg.HTTPAddr,
	)

	svc.Run(ctx)

	// ---- Graceful shutdown ----
	hub.Close()
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := srv.Stop(shutCtx); err != nil {
		lg.Warn("http shutdown", "error", err)
	}
	lg.Info("shutdown complete")
	return 0
}

func buildSource(cfg *config.Config) (poller.Source, func()) {
	switch cfg.MarketSource {
	case config.SourceSQLite:
		reader, err := sqlitestore.NewReader(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("[alertbot] sqlite reader: %v", err)
		}
		return sqlitestore.Source{
			Reader: reader,
			Symbol: cfg.Symbol,
			TF:     cfg.Timeframe,
			Limit:  cfg.KlineSize,
		}, func() { reader.Close() }
	default:
		client, err := edgex.New(edgex.Config{
			BaseURL:    cfg.EdgeXBaseURL,
			ContractID: cfg.ContractID,
			Timeframe:  cfg.Timeframe,
			PriceType:  cfg.PriceType,
			Size:       cfg.KlineSize,
		}, httpclient.New(cfg.FetchTimeout))
		if err != nil {
			log.Fatalf("[alertbot] edgex client: %v", err)
		}
		return client, func() {}
	}
}

func buildNotifier(cfg *config.Config, lg *slog.Logger) notification.Notifier {
	var primary notification.Notifier
	switch cfg.Notifier {
	case config.NotifierLog:
		primary = notification.NewLogNotifier(lg)
	default:
		primary = notification.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, httpclient.New(cfg.NotifyTimeout))
	}
	if cfg.WebhookURL == "" {
		return primary
	}
	return notification.Multi{
		primary,
		notification.NewWebhookNotifier(cfg.WebhookURL, httpclient.New(cfg.NotifyTimeout)),
	}
}

// setupRedis connects the signal fan-out. Failure is logged and the service
// runs without it.
func setupRedis(cfg *config.Config, prom *metrics.Metrics, health *metrics.HealthStatus) *redisstore.Publisher {
	cb := redisstore.NewCircuitBreaker(5, 10*time.Second)
	cb.OnStateChange = func(from, to redisstore.State) {
		prom.RedisCircuitBreakerState.Set(float64(to))
		if to == redisstore.StateOpen {
			prom.RedisCircuitBreakerTrips.Inc()
		}
		log.Printf("[redis] circuit breaker: %s → %s", from, to)
	}

	pub, err := redisstore.New(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, cfg.Symbol, cfg.Timeframe, cb)
	connected := err == nil
	health.RedisConnected = &connected
	if err != nil {
		log.Printf("[alertbot] WARNING: redis init failed: %v (continuing without redis)", err)
		return nil
	}
	pub.OnFlush = func(n int) {
		log.Printf("[redis] replayed %d buffered signals", n)
	}
	return pub
}
