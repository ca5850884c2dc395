// Package repository implements the MySQL persistence layer. The
// booking engine sees it through the booking.Store interface; handler
// read models (listings, catalog) live in dedicated repos alongside.
// All timestamp columns are stored in UTC.
package repository

import (
	"context"
	"database/sql"

	"github.com/mgarsanz/unisport/internal/booking"
)

// execer is the intersection of *sql.DB and *sql.Tx used by the query
// methods, so the same code serves both transactional and plain calls.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// queries carries every booking.Tx method. Bound to the pool for
// plain reads and to a transaction inside ExecTx.
type queries struct {
	db execer
}

// Store implements booking.Store on MySQL.
type Store struct {
	queries
	db *sql.DB
}

// NewStore returns a Store bound to the given database pool.
func NewStore(db *sql.DB) *Store {
	return &Store{queries: queries{db: db}, db: db}
}

// DB exposes the underlying pool for repos constructed alongside.
func (s *Store) DB() *sql.DB { return s.db }

// ExecTx runs fn within a transaction, committing when fn returns nil
// and rolling back otherwise. Sentinel errors from the booking engine
// pass through untouched so callers can match them with errors.Is.
func (s *Store) ExecTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
