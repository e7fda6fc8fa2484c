package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type contextKey string

const querierKey contextKey = "db_querier"

// Querier is the subset of pgx operations shared by pools, acquired
// connections and transactions. Repositories run against whatever Querier the
// request context carries, so the same repository code works inside and
// outside a transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// WithQuerier returns a context carrying q. Used by InTx to make an open
// transaction visible to repositories.
func WithQuerier(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, querierKey, q)
}

// QuerierFromContext retrieves the transaction-scoped Querier, or nil when
// the context carries none.
func QuerierFromContext(ctx context.Context) Querier {
	q, _ := ctx.Value(querierKey).(Querier)
	return q
}

// TxBeginner matches pgxpool.Pool's transaction entry point.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// InTx runs fn inside a single transaction. The open transaction is injected
// into the context passed to fn, so repository calls made through that context
// all share it. The transaction commits only if fn returns nil; any error, a
// panic, or context cancellation rolls everything back.
func InTx(ctx context.Context, pool TxBeginner, opts pgx.TxOptions, fn func(ctx context.Context) error) error {
	tx, err := pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback after a successful commit returns ErrTxClosed, which is the
	// harmless no-op we want.
	defer tx.Rollback(ctx)

	if err := fn(WithQuerier(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
