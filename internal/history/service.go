// Package history records the append-only status-change trail. It uses the
// storage layer for persistence so tests can swap sinks easily.
package history

import (
	"context"

	"github.com/google/uuid"

	"cedrus/internal/domain"
	"cedrus/internal/storage"
	"cedrus/pkg/requestcontext"
)

type Service struct {
	store storage.StatusLogStore
}

func NewService(store storage.StatusLogStore) *Service {
	return &Service{store: store}
}

// Record appends one trail entry for a completed transition. The entry gets
// its identity and timestamp here so callers only describe what happened.
func (s *Service) Record(ctx context.Context, entry domain.StatusLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = requestcontext.Now(ctx)
	}
	return s.store.Append(ctx, entry)
}

// ListByAudit returns the trail for an audit in append order.
func (s *Service) ListByAudit(ctx context.Context, auditID uuid.UUID) ([]domain.StatusLogEntry, error) {
	return s.store.ListByAudit(ctx, auditID)
}
