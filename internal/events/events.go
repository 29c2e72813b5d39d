// Package events publishes workflow domain events for downstream
// notification and observability consumers. Events are transport-agnostic so
// sinks can fan out.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cedrus/internal/domain"
)

// Action names a domain event type.
type Action string

const (
	// ActionAuditStatusChanged fires once per successful transition, after
	// the state change and trail entry have committed.
	ActionAuditStatusChanged Action = "audit_status_changed"
)

// Event is the payload delivered to sinks. Consumers receive it after the
// fact; nothing downstream can veto a transition.
type Event struct {
	ID        uuid.UUID          `json:"id"`
	Action    Action             `json:"action"`
	Timestamp time.Time          `json:"timestamp"`
	AuditID   uuid.UUID          `json:"audit_id"`
	From      domain.AuditStatus `json:"from_status"`
	To        domain.AuditStatus `json:"to_status"`
	ActorID   uuid.UUID          `json:"actor_id"`
	Notes     string             `json:"notes"`
	// IndependenceOverridden flags CB-admin decisions that bypassed the
	// independence check, so compliance consumers can review them.
	IndependenceOverridden bool `json:"independence_overridden,omitempty"`
}

// Sink receives published events. Delivery is fire-and-forget from the
// workflow's point of view; a failing sink must not fail the transition.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// Publisher stamps events and hands them to its sink.
type Publisher struct {
	sink Sink
}

func NewPublisher(sink Sink) *Publisher {
	return &Publisher{sink: sink}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.sink.Deliver(ctx, event)
}
