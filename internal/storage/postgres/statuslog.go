package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"cedrus/internal/domain"
)

// StatusLogStore appends immutable status-change records. There is no update
// or delete path: the table is the audit trail.
type StatusLogStore struct {
	db *sql.DB
}

func NewStatusLogStore(db *sql.DB) *StatusLogStore {
	return &StatusLogStore{db: db}
}

func (s *StatusLogStore) Append(ctx context.Context, entry domain.StatusLogEntry) error {
	query := `
		INSERT INTO audit_status_log (
			id, audit_id, from_status, to_status, actor_id, notes,
			independence_overridden, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := execer(ctx, s.db).ExecContext(ctx, query,
		entry.ID,
		entry.AuditID,
		string(entry.FromStatus),
		string(entry.ToStatus),
		entry.ActorID,
		entry.Notes,
		entry.IndependenceOverridden,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append status log entry: %w", err)
	}
	return nil
}

func (s *StatusLogStore) ListByAudit(ctx context.Context, auditID uuid.UUID) ([]domain.StatusLogEntry, error) {
	query := `
		SELECT id, audit_id, from_status, to_status, actor_id, notes,
			   independence_overridden, created_at
		FROM audit_status_log
		WHERE audit_id = $1
		ORDER BY created_at
	`
	rows, err := execer(ctx, s.db).QueryContext(ctx, query, auditID)
	if err != nil {
		return nil, fmt.Errorf("list status log: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *StatusLogStore) CountByAudit(ctx context.Context, auditID uuid.UUID) (int, error) {
	var count int
	err := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_status_log WHERE audit_id = $1`, auditID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count status log: %w", err)
	}
	return count, nil
}

func scanEntries(rows *sql.Rows) ([]domain.StatusLogEntry, error) {
	var entries []domain.StatusLogEntry
	for rows.Next() {
		var (
			entry domain.StatusLogEntry
			from  string
			to    string
		)
		err := rows.Scan(
			&entry.ID,
			&entry.AuditID,
			&from,
			&to,
			&entry.ActorID,
			&entry.Notes,
			&entry.IndependenceOverridden,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan status log entry: %w", err)
		}
		entry.FromStatus = domain.AuditStatus(from)
		entry.ToStatus = domain.AuditStatus(to)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status log: %w", err)
	}
	return entries, nil
}
