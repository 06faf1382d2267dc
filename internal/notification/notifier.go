// Package notification delivers alerts to external channels (Telegram,
// generic webhooks, the process log).
package notification

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// AlertLevel is the severity carried by an alert. Signal alerts are INFO.
type AlertLevel string

const AlertInfo AlertLevel = "INFO"

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`

	// Data is an optional machine-readable payload (webhooks only).
	Data any `json:"data,omitempty"`
}

// Text renders the alert as plain text: the title on the first line, then
// the message.
func (a Alert) Text() string {
	if a.Message == "" {
		return a.Title
	}
	return a.Title + "\n" + a.Message
}

// OneLine renders Text with newlines replaced by " | ", for console echoes.
func (a Alert) OneLine() string {
	return strings.ReplaceAll(a.Text(), "\n", " | ")
}

// Notifier delivers an alert to one channel. Implementations honour ctx
// cancellation and report delivery failures as errors.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to a structured logger. Used when no external
// channel is configured, and as the console echo next to real channels.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a log-based notifier. A nil logger uses slog.Default.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	n.log.InfoContext(ctx, "[ALERT] "+alert.OneLine(), slog.String("level", string(alert.Level)))
	return nil
}

// Multi fans an alert out to every notifier. All notifiers are attempted;
// the returned error joins every failure.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
