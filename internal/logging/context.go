// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// NewCorrelationID creates a short unique correlation ID. Eight characters of
// a UUID keeps log lines readable while staying unique within a session.
func NewCorrelationID() string {
	return uuid.New().String()[:8]
}

// WithCorrelationID returns a context carrying the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID retrieves the correlation ID from the context, or "" when
// absent.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns a logger that includes the context's correlation ID when one is
// set. Use it for anything serving a single request or poll cycle.
func Ctx(ctx context.Context) zerolog.Logger {
	l := Logger()
	if id := CorrelationID(ctx); id != "" {
		l = l.With().Str("correlation_id", id).Logger()
	}
	return l
}
