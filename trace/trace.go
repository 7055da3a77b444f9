// Package trace provides request correlation for outbound HTTP calls:
// context helpers for carrying a correlation ID across call boundaries
// and a generator for the per-attempt header value.
package trace

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// correlationIDKey is the context key for correlation ID values
	correlationIDKey contextKey = "correlation_id"
	// HeaderXRequestID is the standard header name for request correlation
	HeaderXRequestID = "X-Request-ID"
)

// NewID generates a fresh correlation ID. Every wire request gets its
// own value; retries of the same logical call are distinct wire requests.
func NewID() string {
	return uuid.New().String()
}

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// IDFromContext returns the correlation ID from ctx if present.
func IDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(correlationIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureID returns an existing correlation ID from ctx or generates one.
func EnsureID(ctx context.Context) string {
	if id, ok := IDFromContext(ctx); ok {
		return id
	}
	return NewID()
}
