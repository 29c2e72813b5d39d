package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "cedrus/pkg/domain-errors"
)

const defaultTimeout = 5 * time.Second

// Runner executes a function inside a single atomic unit. Stores that read
// the transaction from context participate in the same unit, so a status
// write and its log append commit or roll back together.
type Runner interface {
	Within(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLRunner wraps *sql.DB transactions and places the open transaction in
// context for stores to pick up via From.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// NopRunner runs the function directly. In-memory stores are individually
// synchronized, so tests and the memory-backed server need no transaction.
type NopRunner struct{}

func (NopRunner) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
