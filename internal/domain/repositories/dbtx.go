// Package repositories holds the storage-agnostic pieces shared by the
// repository interfaces and their postgres implementations.
package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, so a query runs the same
// way inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, arguments ...interface{}) pgx.Row
}

// TxFn runs with a context that carries the active transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs a TxFn in one transaction, committing on nil and
// rolling back on error or panic.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}

type txKey struct{}

// SetTx returns ctx carrying tx.
func SetTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTx returns the transaction stored in ctx, or nil.
func GetTx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}
