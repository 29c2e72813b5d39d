package storage

import (
	"context"

	"github.com/google/uuid"

	"cedrus/internal/domain"
)

// Stores are interface-driven to keep the workflow logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code. Absence is reported with sentinel.ErrNotFound, never a zero value.

type AuditStore interface {
	Save(ctx context.Context, audit *domain.Audit) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Audit, error)
	// UpdateStatus writes the new status only if the stored version still
	// matches expectedVersion, bumping the version on success. A concurrent
	// transition that committed first surfaces as sentinel.ErrConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, to domain.AuditStatus, expectedVersion int64) error
	// ExistsCompletedStage1 reports whether the organization has a stage1
	// audit in closed (or legacy decided) status, excluding the given audit.
	ExistsCompletedStage1(ctx context.Context, organizationID, excludeAuditID uuid.UUID) (bool, error)
}

type FindingStore interface {
	Save(ctx context.Context, finding *domain.Finding) error
	CountByAudit(ctx context.Context, auditID uuid.UUID) (int, error)
	ListNonconformities(ctx context.Context, auditID uuid.UUID) ([]domain.Finding, error)
}

type TechnicalReviewStore interface {
	Save(ctx context.Context, review *domain.TechnicalReview) error
	FindByAudit(ctx context.Context, auditID uuid.UUID) (*domain.TechnicalReview, error)
}

type CertificationStore interface {
	Save(ctx context.Context, certification *domain.Certification) error
	ListByAudit(ctx context.Context, auditID uuid.UUID) ([]domain.Certification, error)
}

type StatusLogStore interface {
	Append(ctx context.Context, entry domain.StatusLogEntry) error
	ListByAudit(ctx context.Context, auditID uuid.UUID) ([]domain.StatusLogEntry, error)
	CountByAudit(ctx context.Context, auditID uuid.UUID) (int, error)
}
