package events

import (
	"context"
	"log/slog"
)

// LogSink writes every event to the structured log. It is always wired so
// transitions remain observable even without Kafka.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit status changed",
		"event_id", event.ID,
		"audit_id", event.AuditID,
		"from_status", event.From,
		"to_status", event.To,
		"actor_id", event.ActorID,
		"independence_overridden", event.IndependenceOverridden,
	)
	return nil
}
