package logging

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	bookIDKey contextKey = "book_id"
)

// WithRunID tags ctx with a batch run ID.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithBookID tags ctx with the identifier being extracted.
func WithBookID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, bookIDKey, id)
}

// RunID returns the run ID carried by ctx, if any.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// FromContext returns base with the fields carried by ctx attached.
func FromContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	logger := base
	if id, ok := ctx.Value(runIDKey).(string); ok && id != "" {
		logger = logger.With(zap.String("run_id", id))
	}
	if id, ok := ctx.Value(bookIDKey).(string); ok && id != "" {
		logger = logger.With(zap.String("book_id", id))
	}
	return logger
}
