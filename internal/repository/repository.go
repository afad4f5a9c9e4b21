package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDuplicateKey is returned when an insert hits a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrOrderPaid is returned when a second payment is recorded for an order.
	ErrOrderPaid = errors.New("order already has a payment")
	// ErrCartEntryOwned is returned when a cart row belongs to another user.
	ErrCartEntryOwned = errors.New("cart entry owned by another user")
)

const uniqueViolation = "23505"

// Transactor starts the transactions that multi-step operations run in.
type Transactor interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

type pgTransactor struct{ pool *pgxpool.Pool }

func NewTransactor(pool *pgxpool.Pool) Transactor {
	return &pgTransactor{pool: pool}
}

func (t *pgTransactor) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// violatedConstraint names the unique constraint err hit, or "" for any other error.
func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}

func wrapInsert(what string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", what, ErrDuplicateKey)
	}
	return fmt.Errorf("%s: %w", what, err)
}
