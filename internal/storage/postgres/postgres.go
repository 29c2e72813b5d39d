// Package postgres provides lib/pq backed implementations of the storage
// interfaces. Writes pick up an open transaction from context so a status
// change and its log entry share one atomic unit.
package postgres

import (
	"context"
	"database/sql"

	txcontext "cedrus/pkg/platform/tx"

	// Registers the postgres driver.
	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// execer prefers the transaction stored in context over the raw pool.
func execer(ctx context.Context, db *sql.DB) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}
