package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cedrus/internal/domain"
	"cedrus/pkg/platform/sentinel"
)

// TechnicalReviewStore persists the one-per-audit technical review record.
type TechnicalReviewStore struct {
	db *sql.DB
}

func NewTechnicalReviewStore(db *sql.DB) *TechnicalReviewStore {
	return &TechnicalReviewStore{db: db}
}

func (s *TechnicalReviewStore) Save(ctx context.Context, review *domain.TechnicalReview) error {
	query := `
		INSERT INTO technical_reviews (id, audit_id, reviewer_id, status, comments, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (audit_id) DO UPDATE SET
			reviewer_id = EXCLUDED.reviewer_id,
			status      = EXCLUDED.status,
			comments    = EXCLUDED.comments,
			reviewed_at = EXCLUDED.reviewed_at
	`
	_, err := execer(ctx, s.db).ExecContext(ctx, query,
		review.ID,
		review.AuditID,
		review.ReviewerID,
		string(review.Status),
		review.Comments,
		review.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("save technical review: %w", err)
	}
	return nil
}

func (s *TechnicalReviewStore) FindByAudit(ctx context.Context, auditID uuid.UUID) (*domain.TechnicalReview, error) {
	query := `
		SELECT id, audit_id, reviewer_id, status, comments, reviewed_at
		FROM technical_reviews
		WHERE audit_id = $1
	`
	var (
		review domain.TechnicalReview
		status string
	)
	err := execer(ctx, s.db).QueryRowContext(ctx, query, auditID).Scan(
		&review.ID,
		&review.AuditID,
		&review.ReviewerID,
		&status,
		&review.Comments,
		&review.ReviewedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find technical review: %w", err)
	}
	review.Status = domain.ReviewStatus(status)
	return &review, nil
}
