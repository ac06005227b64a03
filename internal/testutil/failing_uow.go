package testutil

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/alexanderramin/takeoff/internal/db"
)

// FailOnNthExecUoW wraps a real SQLite unit of work and makes the FailOn-th
// write inside each transaction return Err. Reads are not counted.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	inner := db.NewSQLiteUnitOfWork(u.DB)
	return inner.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &injectingTx{DBTX: tx, failOn: u.FailOn, err: u.Err})
	})
}

type injectingTx struct {
	db.DBTX
	writes atomic.Int32
	failOn int32
	err    error
}

func (t *injectingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if t.writes.Add(1) == t.failOn {
		return nil, t.err
	}
	return t.DBTX.ExecContext(ctx, query, args...)
}
