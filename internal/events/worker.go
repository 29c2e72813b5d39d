package events

import (
	"context"
	"log/slog"
)

// Worker drains a buffered event channel into one or more sinks, keeping
// event delivery off the transition's critical path. A sink failure is
// logged and skipped: delivery is best-effort by contract.
type Worker struct {
	inbox  <-chan Event
	sinks  []Sink
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	return &Worker{inbox: inbox, sinks: sinks, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Deliver(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "event delivery failed",
						"event_id", event.ID,
						"action", event.Action,
						"audit_id", event.AuditID,
						"error", err,
					)
				}
			}
		}
	}
}

// ChannelSink feeds a worker's inbox. Emit never blocks: if the buffer is
// full the event is dropped and counted against the logger, because a slow
// consumer must not stall transitions.
type ChannelSink struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewChannelSink(inbox chan<- Event, logger *slog.Logger) *ChannelSink {
	return &ChannelSink{inbox: inbox, logger: logger}
}

func (s *ChannelSink) Deliver(ctx context.Context, event Event) error {
	select {
	case s.inbox <- event:
		return nil
	default:
		s.logger.WarnContext(ctx, "event buffer full, dropping event",
			"event_id", event.ID,
			"action", event.Action,
			"audit_id", event.AuditID,
		)
		return nil
	}
}
