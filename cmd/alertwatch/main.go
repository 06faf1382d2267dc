// Command alertwatch tails the signals alertbot publishes to Redis and prints
// them as alert text.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"alert-systemv1/internal/logger"
	"alert-systemv1/internal/notification"
	alertsignal "alert-systemv1/internal/signal"
	redisstore "alert-systemv1/internal/store/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	envFile := flag.String("env", ".env", "path to the .env file (missing file is ignored)")
	addr := flag.String("redis", "", "redis address (default $REDIS_ADDR or localhost:6379)")
	symbol := flag.String("symbol", "*", `symbol to follow, "*" for all`)
	tf := flag.String("tf", "5m", "timeframe (ignored with -symbol '*')")
	tz := flag.String("tz", "Local", "timezone for printed candle times")
	flag.Parse()

	_ = godotenv.Load(*envFile)
	if *addr == "" {
		*addr = os.Getenv("REDIS_ADDR")
	}
	if *addr == "" {
		*addr = "localhost:6379"
	}

	loc := time.Local
	if *tz != "Local" {
		l, err := time.LoadLocation(*tz)
		if err != nil {
			log.Fatalf("[alertwatch] timezone: %v", err)
		}
		loc = l
	}

	lg := logger.Init("alertwatch", slog.LevelInfo)
	printer := notification.NewLogNotifier(lg)

	sub, err := redisstore.NewSubscriber(redisstore.Config{
		Addr:     *addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err != nil {
		log.Fatalf("[alertwatch] %v", err)
	}
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	events := make(chan alertsignal.Event, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- sub.SubscribeSignals(ctx, *symbol, *tf, events)
	}()

	log.Printf("[alertwatch] following %s %s on %s", *symbol, *tf, *addr)
	for {
		select {
		case ev := <-events:
			// RSI period is not part of the event; 14 is the service default.
			_ = printer.Send(ctx, notification.FormatSignal(ev, 14, loc))
		case err := <-errCh:
			if err != nil {
				log.Fatalf("[alertwatch] %v", err)
			}
			return
		}
	}
}
