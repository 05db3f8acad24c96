package logger

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const (
	// loggerKey is the context key for the logger.
	loggerKey contextKey = "bindplan.logger"
	// passIDKey is the context key for the bind pass id.
	passIDKey contextKey = "bindplan.pass_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// NewPassID returns a new sortable bind pass id.
func NewPassID() string {
	return ulid.Make().String()
}

// WithPassID adds a bind pass id to the context.
func WithPassID(ctx context.Context, passID string) context.Context {
	return context.WithValue(ctx, passIDKey, passID)
}

// PassIDFromContext extracts the bind pass id from context.
func PassIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(passIDKey).(string); ok {
		return id
	}
	return ""
}

// L is a shorthand for FromContext that also enriches the logger
// with the bind pass id from the context.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if id := PassIDFromContext(ctx); id != "" {
		l = l.With("pass_id", id)
	}
	return l
}
