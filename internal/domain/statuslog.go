package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatusLogEntry is the append-only audit trail record written exactly once
// per successful transition. Entries are never mutated or deleted.
type StatusLogEntry struct {
	ID         uuid.UUID
	AuditID    uuid.UUID
	FromStatus AuditStatus
	ToStatus   AuditStatus
	ActorID    uuid.UUID
	Notes      string
	// IndependenceOverridden marks decisions where a CB admin closed the
	// audit despite failing the decision-independence check. The override is
	// legal but must leave a visible trace.
	IndependenceOverridden bool
	CreatedAt              time.Time
}
