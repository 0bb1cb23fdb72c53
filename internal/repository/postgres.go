package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pickline/platform/internal/domain"
)

// Postgres is the pgx-backed TxManager.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a pgx pool as a TxManager.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Reader returns an auto-commit store over the pool.
func (p *Postgres) Reader() Store {
	return &pgStore{db: p.pool}
}

// WithinRun executes fn inside a single transaction.
func (p *Postgres) WithinRun(ctx context.Context, fn func(Store) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgStore{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run tx: %w", err)
	}
	return nil
}

// pgStore implements Store over a pool or transaction.
type pgStore struct {
	db DBTX
}

const pgUniqueViolation = "23505"

// IsDuplicate reports whether err is a unique-constraint violation. Seeding
// uses check-then-insert; the database resolves concurrent-seeder races and
// the resulting duplicate inserts are benign.
func IsDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	var appErr *domain.AppError
	return errors.As(err, &appErr) && appErr.Code == "CONFLICT"
}
