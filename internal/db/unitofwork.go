package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// UnitOfWork runs a group of event and settings writes atomically.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLiteUnitOfWork serializes transactions against one database handle.
// SQLite allows a single writer; plan applications read the current event
// set before writing, so concurrent deferred transactions would otherwise
// fail with SQLITE_BUSY when upgrading to a write lock.
type SQLiteUnitOfWork struct {
	db *sql.DB
	mu sync.Mutex
}

func NewSQLiteUnitOfWork(conn *sql.DB) *SQLiteUnitOfWork {
	return &SQLiteUnitOfWork{db: conn}
}

// WithinTx commits when fn returns nil and rolls back on error or panic.
func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) (err error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
