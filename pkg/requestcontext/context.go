// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services read them without
// importing net/http.
package requestcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type (
	actorIDKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// WithActorID records the authenticated actor for this request.
func WithActorID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, actorIDKey{}, id)
}

// ActorID returns the authenticated actor, or uuid.Nil when unauthenticated.
func ActorID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(actorIDKey{}).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// WithRequestID records the correlation ID for this request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation ID, or empty when none was set.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithTime pins the request time. Tests use this to make timestamps
// deterministic.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the pinned request time, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
