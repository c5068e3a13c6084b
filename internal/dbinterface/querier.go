// Package dbinterface provides database interfaces to avoid import cycles.
// This package has no dependencies and can be imported by both the database
// implementation and the model stores.
package dbinterface

import (
	"context"
	"database/sql"
)

// Querier is the centralized interface for database operations. It is
// implemented by *sql.DB, *sql.Tx, and *database.DB, letting stores accept
// any of them and compose multi-step writes in one transaction.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// TxQuerier is a Querier that can also be committed or rolled back.
type TxQuerier interface {
	Querier
	Commit() error
	Rollback() error
}

// TxBeginner is implemented by types that can begin transactions.
type TxBeginner interface {
	Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (TxQuerier, error)
}
