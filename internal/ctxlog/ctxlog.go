// Package ctxlog passes a slog.Logger through context.Context so that every
// component of a node logs with the node and session attributes already
// attached.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is an unexported type to prevent collisions with context keys from
// other packages.
type key struct{}

var loggerKey = key{}

// With returns a new context with the provided logger embedded.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// From extracts the logger from ctx, falling back to slog.Default so that
// components remain usable outside an assembled node.
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
