package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type ctxKey int

const (
	evaluationIDKey ctxKey = iota
	appIDKey
	surfaceKey
)

// WithEvaluationID returns a context with the evaluation ID set.
func WithEvaluationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, evaluationIDKey, id)
}

// WithAppID returns a context with the app ID set.
func WithAppID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, appIDKey, id)
}

// WithSurface returns a context naming the surface (cli, mcp) that started
// the evaluation.
func WithSurface(ctx context.Context, surface string) context.Context {
	return context.WithValue(ctx, surfaceKey, surface)
}

// EvaluationID extracts the evaluation ID from the context, or "" if absent.
func EvaluationID(ctx context.Context) string {
	v, _ := ctx.Value(evaluationIDKey).(string)
	return v
}

// AppID extracts the app ID from the context, or 0 if absent.
func AppID(ctx context.Context) int64 {
	v, _ := ctx.Value(appIDKey).(int64)
	return v
}

// Surface extracts the surface name from the context, or "" if absent.
func Surface(ctx context.Context) string {
	v, _ := ctx.Value(surfaceKey).(string)
	return v
}

func attrs(ctx context.Context) []slog.Attr {
	var out []slog.Attr
	if v := EvaluationID(ctx); v != "" {
		out = append(out, slog.String("evaluation_id", v))
	}
	if v := AppID(ctx); v != 0 {
		out = append(out, slog.Int64("app_id", v))
	}
	if v := Surface(ctx); v != "" {
		out = append(out, slog.String("surface", v))
	}
	return out
}

// LogWith returns a logger enriched with correlation IDs from the context.
// Only non-empty values are added as attributes. Operators log without a
// context, so evaluation loggers are built this way.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	for _, a := range attrs(ctx) {
		logger = logger.With(a)
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation IDs from the context into every log record.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation ID injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(attrs(ctx)...)
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}

// ParseLevel accepts debug, info, warn/warning and error.
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
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New builds a correlation-aware logger writing text (or JSON) records to w.
func New(w io.Writer, level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var inner slog.Handler = slog.NewTextHandler(w, opts)
	if json {
		inner = slog.NewJSONHandler(w, opts)
	}
	return slog.New(NewCorrelationHandler(inner))
}
