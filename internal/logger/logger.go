// Package logger provides structured logging on log/slog: a JSON handler
// with service-level context, and trace ID propagation through
// context.Context so every line of one polling cycle can be correlated.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

// Init builds the process logger (JSON on stdout) and makes it the slog
// default, so package-level slog calls share the service attribute.
func Init(service string, level slog.Level) *slog.Logger {
	l := New(os.Stdout, service, level)
	slog.SetDefault(l)
	return l
}

// New builds a JSON logger on w tagged with service.
func New(w io.Writer, service string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return slog.New(slog.NewJSONHandler(w, opts)).With("service", service)
}

// ParseLevel maps debug|info|warn|warning|error (case-insensitive) to a
// slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", s)
	}
}

// WithTraceID returns a copy of ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID is the trace ID stored in ctx, or "".
func TraceID(ctx context.Context) string {
	tid, _ := ctx.Value(traceIDKey).(string)
	return tid
}

// NewTraceID returns a random trace ID for one polling cycle.
func NewTraceID() string {
	return uuid.NewString()
}

// LogWithTrace returns the trace ID of ctx as slog arguments, or nil.
//
//	slog.Info("msg", logger.LogWithTrace(ctx)...)
func LogWithTrace(ctx context.Context) []any {
	if tid := TraceID(ctx); tid != "" {
		return []any{slog.String("trace_id", tid)}
	}
	return nil
}

// FromContext returns l annotated with the trace ID of ctx, if any.
func FromContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	if attrs := LogWithTrace(ctx); attrs != nil {
		return l.With(attrs...)
	}
	return l
}
