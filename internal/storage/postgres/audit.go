package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"cedrus/internal/domain"
	"cedrus/pkg/platform/sentinel"
)

// AuditStore persists audits in PostgreSQL with optimistic locking on the
// version column.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Save(ctx context.Context, audit *domain.Audit) error {
	query := `
		INSERT INTO audits (
			id, organization_id, audit_type, status, lead_auditor_id,
			team_member_ids, site_ids, start_date, end_date, version,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			audit_type      = EXCLUDED.audit_type,
			status          = EXCLUDED.status,
			lead_auditor_id = EXCLUDED.lead_auditor_id,
			team_member_ids = EXCLUDED.team_member_ids,
			site_ids        = EXCLUDED.site_ids,
			start_date      = EXCLUDED.start_date,
			end_date        = EXCLUDED.end_date,
			version         = EXCLUDED.version,
			updated_at      = EXCLUDED.updated_at
	`
	_, err := execer(ctx, s.db).ExecContext(ctx, query,
		audit.ID,
		audit.OrganizationID,
		string(audit.Type),
		string(audit.Status),
		audit.LeadAuditorID,
		pq.Array(uuidStrings(audit.TeamMemberIDs)),
		pq.Array(uuidStrings(audit.SiteIDs)),
		audit.StartDate,
		audit.EndDate,
		audit.Version,
		audit.CreatedAt,
		audit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save audit: %w", err)
	}
	return nil
}

func (s *AuditStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Audit, error) {
	query := `
		SELECT id, organization_id, audit_type, status, lead_auditor_id,
			   team_member_ids, site_ids, start_date, end_date, version,
			   created_at, updated_at
		FROM audits
		WHERE id = $1
	`
	row := execer(ctx, s.db).QueryRowContext(ctx, query, id)

	var (
		audit       domain.Audit
		auditType   string
		status      string
		teamMembers pq.StringArray
		sites       pq.StringArray
	)
	err := row.Scan(
		&audit.ID,
		&audit.OrganizationID,
		&auditType,
		&status,
		&audit.LeadAuditorID,
		&teamMembers,
		&sites,
		&audit.StartDate,
		&audit.EndDate,
		&audit.Version,
		&audit.CreatedAt,
		&audit.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find audit: %w", err)
	}

	audit.Type = domain.AuditType(auditType)
	audit.Status = domain.AuditStatus(status)
	if audit.TeamMemberIDs, err = parseUUIDs(teamMembers); err != nil {
		return nil, fmt.Errorf("parse team member ids: %w", err)
	}
	if audit.SiteIDs, err = parseUUIDs(sites); err != nil {
		return nil, fmt.Errorf("parse site ids: %w", err)
	}
	return &audit, nil
}

// UpdateStatus performs the optimistic-locking write. Zero rows affected on
// an existing audit means another transition committed first.
func (s *AuditStore) UpdateStatus(ctx context.Context, id uuid.UUID, to domain.AuditStatus, expectedVersion int64) error {
	query := `
		UPDATE audits
		SET status = $2, version = version + 1, updated_at = $3
		WHERE id = $1 AND version = $4
	`
	res, err := execer(ctx, s.db).ExecContext(ctx, query, id, string(to), time.Now(), expectedVersion)
	if err != nil {
		return fmt.Errorf("update audit status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update audit status: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	err = execer(ctx, s.db).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM audits WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("update audit status: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *AuditStore) ExistsCompletedStage1(ctx context.Context, organizationID, excludeAuditID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM audits
			WHERE organization_id = $1
			  AND id <> $2
			  AND audit_type = $3
			  AND status IN ($4, $5)
		)
	`
	var exists bool
	err := execer(ctx, s.db).QueryRowContext(ctx, query,
		organizationID,
		excludeAuditID,
		string(domain.AuditTypeStage1),
		string(domain.StatusClosed),
		string(domain.StatusDecided),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check completed stage1: %w", err)
	}
	return exists, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
