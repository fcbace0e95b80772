package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tweetline/internal/apperror"
)

// NewRepository builds the Postgres-backed repositories over a shared pool.
// Every statement runs under timeout; zero disables the bound.
func NewRepository(db *sqlx.DB, timeout time.Duration) *Repository {
	b := base{db: db, timeout: timeout}
	return &Repository{
		User:    &userRepository{b},
		Follow:  &followRepository{b},
		Tweet:   &tweetRepository{b},
		Comment: &commentRepository{b},
		Health:  &healthRepository{b},
	}
}

type base struct {
	db      *sqlx.DB
	timeout time.Duration
}

func (b base) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// toggle flips a membership row in one transaction. The advisory lock serializes
// concurrent toggles of the same pair so each call observes the previous one.
// It reports whether the row exists afterwards.
func (b base) toggle(ctx context.Context, lockKey, deleteQuery, insertQuery string, args ...any) (bool, error) {
	ctx, cancel := b.bound(ctx)
	defer cancel()

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin toggle: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return false, fmt.Errorf("lock %s: %w", lockKey, err)
	}

	result, err := tx.ExecContext(ctx, deleteQuery, args...)
	if err != nil {
		return false, err
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	present := removed == 0
	if present {
		if _, err := tx.ExecContext(ctx, insertQuery, args...); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit toggle: %w", err)
	}
	return present, nil
}

func newID() string {
	return uuid.New().String()
}

func pqCode(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// storeError maps driver failures onto error kinds. A foreign-key violation means a
// referenced record vanished, which callers observe as NotFound.
func storeError(err error, format string, args ...any) error {
	if pqErr, ok := pqCode(err); ok {
		switch string(pqErr.Code) {
		case pgerrcode.UniqueViolation:
			return apperror.Wrap(apperror.Conflict, err, format, args...)
		case pgerrcode.ForeignKeyViolation:
			return apperror.Wrap(apperror.NotFound, err, format, args...)
		}
	}
	return apperror.FromStore(err, format, args...)
}
