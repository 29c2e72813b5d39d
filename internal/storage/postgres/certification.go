package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"cedrus/internal/domain"
)

// CertificationStore persists certifications linked to audits.
type CertificationStore struct {
	db *sql.DB
}

func NewCertificationStore(db *sql.DB) *CertificationStore {
	return &CertificationStore{db: db}
}

func (s *CertificationStore) Save(ctx context.Context, certification *domain.Certification) error {
	query := `
		INSERT INTO certifications (id, audit_id, standard, certificate_status, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			certificate_status = EXCLUDED.certificate_status,
			issued_at          = EXCLUDED.issued_at,
			expires_at         = EXCLUDED.expires_at
	`
	_, err := execer(ctx, s.db).ExecContext(ctx, query,
		certification.ID,
		certification.AuditID,
		certification.Standard,
		string(certification.CertificateStatus),
		certification.IssuedAt,
		certification.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save certification: %w", err)
	}
	return nil
}

func (s *CertificationStore) ListByAudit(ctx context.Context, auditID uuid.UUID) ([]domain.Certification, error) {
	query := `
		SELECT id, audit_id, standard, certificate_status, issued_at, expires_at
		FROM certifications
		WHERE audit_id = $1
		ORDER BY standard
	`
	rows, err := execer(ctx, s.db).QueryContext(ctx, query, auditID)
	if err != nil {
		return nil, fmt.Errorf("list certifications: %w", err)
	}
	defer rows.Close()

	var certifications []domain.Certification
	for rows.Next() {
		var (
			c      domain.Certification
			status string
		)
		if err := rows.Scan(&c.ID, &c.AuditID, &c.Standard, &status, &c.IssuedAt, &c.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan certification: %w", err)
		}
		c.CertificateStatus = domain.CertificateStatus(status)
		certifications = append(certifications, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certifications: %w", err)
	}
	return certifications, nil
}
