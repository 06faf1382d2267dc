package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"alert-systemv1/internal/signal"
)

// Subscriber consumes events published by a Publisher.
type Subscriber struct {
	client *goredis.Client
}

// NewSubscriber connects to Redis and pings the server.
func NewSubscriber(cfg Config) (*Subscriber, error) {
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

	log.Printf("[redis-subscriber] connected to %s", cfg.Addr)
	return &Subscriber{client: client}, nil
}

// SubscribeSignals forwards events from the signal channel of symbol/tf (or
// every channel when symbol is "*") into out until ctx is cancelled.
// Malformed payloads are skipped. Sends to out block, so a slow consumer
// slows the subscription rather than losing alerts.
func (s *Subscriber) SubscribeSignals(ctx context.Context, symbol, tf string, out chan<- signal.Event) error {
	var pubsub *goredis.PubSub
	if symbol == "*" {
		pubsub = s.client.PSubscribe(ctx, signalChannelPrefix+"*")
	} else {
		pubsub = s.client.Subscribe(ctx, SignalChannel(symbol, tf))
	}
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis: subscribe: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := decodeEvent(msg.Payload)
			if err != nil {
				log.Printf("[redis-subscriber] skip malformed payload on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func decodeEvent(payload string) (signal.Event, error) {
	var ev signal.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return signal.Event{}, err
	}
	if !ev.Direction.IsSignal() {
		return signal.Event{}, fmt.Errorf("event %q has no direction", ev.ID)
	}
	return ev, nil
}

// Close closes the Redis client.
func (s *Subscriber) Close() error {
	return s.client.Close()
}
