// Package contextutil carries request- and run-scoped values through context.
package contextutil

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// LoggerFromContext returns the logger stored in ctx, or slog.Default() when
// ctx is nil or carries none.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// WithAttrs derives a logger from the one in ctx with args added, and
// returns it along with a ctx carrying it.
func WithAttrs(ctx context.Context, args ...any) (context.Context, *slog.Logger) {
	logger := LoggerFromContext(ctx).With(args...)
	return WithLogger(ctx, logger), logger
}
