// Package logctx threads a *slog.Logger through context.Context so
// deeply nested pipeline steps can log with request-scoped fields
// (the current step name, the release id being processed) without
// passing a logger parameter through every call.
package logctx

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// With returns a context carrying logger, retrievable with From.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// From returns the logger stored in ctx, or slog.Default() if none
// was set.
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithStep returns a child context whose logger has a "step"
// attribute set, for the orchestrator to call before running each
// pipeline step.
func WithStep(ctx context.Context, step string) context.Context {
	return With(ctx, From(ctx).With("step", step))
}
