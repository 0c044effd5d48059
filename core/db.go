package core

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type (
	// DBExecutor is the querying surface repositories run against. Both
	// *sqlx.DB and *sqlx.Tx satisfy it, so a repository call works the same
	// inside and outside a transaction.
	DBExecutor interface {
		sqlx.ExtContext

		GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
		SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	}

	DB interface {
		DBExecutor

		BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	}
)

// Atomic runs fn inside a single transaction; fn receives the transaction as
// a DBExecutor to pass down to repository calls. Any error rolls back.
func Atomic(ctx context.Context, db DB, opts *sql.TxOptions, fn func(tx DBExecutor) error) error {
	if db == nil {
		// in-memory repositories have no transactions
		return fn(nil)
	}
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return rbErr
		}
		return err
	}
	return tx.Commit()
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
