package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"payout/internal/domain"

	"github.com/lib/pq"
)

type ctxtype string

const (
	trKey ctxtype = "tx"
)

var (
	uniqueConstraint     pq.ErrorCode = "23505"
	lockNotAvailable     pq.ErrorCode = "55P03"
	serializationFailure pq.ErrorCode = "40001"
	deadlockDetected     pq.ErrorCode = "40P01"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getTr(ctx context.Context) (*sql.Tx, bool) {
	tr, ok := ctx.Value(trKey).(*sql.Tx)
	return tr, ok
}

// conn returns the transaction carried by ctx, or db outside one.
func conn(ctx context.Context, db *sql.DB) querier {
	if tr, ok := getTr(ctx); ok {
		return tr
	}
	return db
}

type Transactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn in a transaction. Nested calls join the outer one.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := getTr(ctx); ok {
		return fn(ctx)
	}
	return withTx(ctx, t.db, fn)
}

func withTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	tr, err := db.BeginTx(ctx, nil)
	if err != nil {
		return mapTxError("begin", err)
	}
	defer func() {
		_ = tr.Rollback()
	}()

	if err := fn(context.WithValue(ctx, trKey, tr)); err != nil {
		return err
	}
	if err := tr.Commit(); err != nil {
		return mapTxError("commit", err)
	}
	return nil
}

// mapTxError turns lock and serialization failures into retryable errors.
func mapTxError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case lockNotAvailable:
			return &domain.TransientError{Op: op, Err: fmt.Errorf("%w: %s", domain.ErrLockTimeout, pqErr.Message)}
		case serializationFailure, deadlockDetected:
			return &domain.TransientError{Op: op, Err: err}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
