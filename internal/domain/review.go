package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus tracks the mandatory independent technical review gate
// (ISO 17021-1 Clause 9.5).
type ReviewStatus string

const (
	ReviewPending               ReviewStatus = "pending"
	ReviewApproved              ReviewStatus = "approved"
	ReviewRequiresClarification ReviewStatus = "requires_clarification"
	ReviewRejected              ReviewStatus = "rejected"
)

// Label returns the human-readable name for a review status.
func (s ReviewStatus) Label() string {
	switch s {
	case ReviewPending:
		return "Pending"
	case ReviewApproved:
		return "Approved"
	case ReviewRequiresClarification:
		return "Requires Clarification"
	case ReviewRejected:
		return "Rejected"
	}
	return string(s)
}

// TechnicalReview is the one-per-audit review record read by the
// technical_review gate guard. Absence is modeled as a nil pointer, never as
// a zero value.
type TechnicalReview struct {
	ID         uuid.UUID
	AuditID    uuid.UUID
	ReviewerID uuid.UUID
	Status     ReviewStatus
	Comments   string
	ReviewedAt time.Time
}
