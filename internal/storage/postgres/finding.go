package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"cedrus/internal/domain"
)

// FindingStore persists findings. The workflow engine only reads from it;
// writes come from the finding management surface.
type FindingStore struct {
	db *sql.DB
}

func NewFindingStore(db *sql.DB) *FindingStore {
	return &FindingStore{db: db}
}

func (s *FindingStore) Save(ctx context.Context, finding *domain.Finding) error {
	query := `
		INSERT INTO findings (
			id, audit_id, finding_type, category, clause, description,
			verification_status, client_root_cause, client_corrective_action, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			category                 = EXCLUDED.category,
			clause                   = EXCLUDED.clause,
			description              = EXCLUDED.description,
			verification_status      = EXCLUDED.verification_status,
			client_root_cause        = EXCLUDED.client_root_cause,
			client_corrective_action = EXCLUDED.client_corrective_action
	`
	_, err := execer(ctx, s.db).ExecContext(ctx, query,
		finding.ID,
		finding.AuditID,
		string(finding.Type),
		string(finding.Category),
		finding.Clause,
		finding.Description,
		string(finding.Verification),
		finding.ClientRootCause,
		finding.ClientCorrectiveAction,
		finding.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save finding: %w", err)
	}
	return nil
}

func (s *FindingStore) CountByAudit(ctx context.Context, auditID uuid.UUID) (int, error) {
	var count int
	err := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM findings WHERE audit_id = $1`, auditID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count findings: %w", err)
	}
	return count, nil
}

func (s *FindingStore) ListNonconformities(ctx context.Context, auditID uuid.UUID) ([]domain.Finding, error) {
	query := `
		SELECT id, audit_id, finding_type, category, clause, description,
			   verification_status, client_root_cause, client_corrective_action, created_at
		FROM findings
		WHERE audit_id = $1 AND finding_type = $2
		ORDER BY created_at
	`
	rows, err := execer(ctx, s.db).QueryContext(ctx, query, auditID, string(domain.FindingNonconformity))
	if err != nil {
		return nil, fmt.Errorf("list nonconformities: %w", err)
	}
	defer rows.Close()

	var findings []domain.Finding
	for rows.Next() {
		var (
			f            domain.Finding
			findingType  string
			category     string
			verification string
		)
		err := rows.Scan(
			&f.ID,
			&f.AuditID,
			&findingType,
			&category,
			&f.Clause,
			&f.Description,
			&verification,
			&f.ClientRootCause,
			&f.ClientCorrectiveAction,
			&f.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		f.Type = domain.FindingType(findingType)
		f.Category = domain.FindingCategory(category)
		f.Verification = domain.VerificationStatus(verification)
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate findings: %w", err)
	}
	return findings, nil
}
