package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx operations shared by pools, connections and
// transactions. Repositories run their SQL through a Querier so the same
// code serves both standalone calls and calls inside a transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type contextKey string

const querierKey contextKey = "db_querier"

// WithQuerier returns a context carrying q, typically an open transaction.
func WithQuerier(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, querierKey, q)
}

// QuerierFromContext retrieves the transaction/connection bound to ctx, or
// nil when none is set and the repository should fall back to its pool.
func QuerierFromContext(ctx context.Context) Querier {
	q, _ := ctx.Value(querierKey).(Querier)
	return q
}

// maxSerializationRetries bounds retries of transactions aborted by the
// database's serialization checks (SQLSTATE 40001).
const maxSerializationRetries = 3

// WithSerializableTx runs fn inside a SERIALIZABLE transaction. The
// transaction is exposed to repositories through the context, so every query
// fn issues sees one snapshot and conflicting concurrent writers abort at
// commit. Serialization failures are retried a bounded number of times;
// any other error rolls back and is returned as-is.
func WithSerializableTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxSerializationRetries; attempt++ {
		tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return err
		}

		txCtx := WithQuerier(ctx, tx)
		if err := fn(txCtx); err != nil {
			_ = tx.Rollback(ctx)
			if isSerializationFailure(err) {
				lastErr = err
				continue
			}
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			if isSerializationFailure(err) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}

// TxRunner executes fn inside a transaction boundary. Services depend on
// this type rather than a pool so tests can substitute a pass-through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// SerializableTx returns a TxRunner bound to pool.
func SerializableTx(pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return WithSerializableTx(ctx, pool, fn)
	}
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}
