// Package logger carries a slog JSON logger through contexts and Gin
// requests. The tracking pipeline logs exclusively via From(ctx), so every
// caller that wants request-scoped attributes must install them with With.
package logger

import (
	"context"
	"log/slog"
	"os"
)

// New returns the process logger. Local and dev environments log at debug;
// everything else at info.
func New(appEnv string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("env", appEnv)
}

type ctxKey struct{}

// With stores a logger in the context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From returns the context logger, or slog.Default() when none was installed.
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
