// Package dbx provides the small database/sql abstractions shared by the
// repositories: DBTX, satisfied by both *sql.DB and *sql.Tx, and helpers that
// run a unit of work inside a transaction.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by the repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with the transactional handle, and
// commits when fn returns nil. Any error or panic rolls the transaction back;
// panics are rethrown after the rollback. The context passed to fn carries a
// TxScope whose hooks run once the outcome is known.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := comments.Update(ctx, id, text); err != nil {
//	        return err
//	    }
//	    return history.Append(ctx, entry)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	ctx, scope := withScope(ctx)
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			scope.finish(false)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			scope.finish(false)
			return
		}
		err = tx.Commit()
		scope.finish(err == nil)
	}()

	err = fn(ctx, tx)
	return err
}

// InTx is WithTx for units of work that produce a value. The value is only
// returned when the transaction committed.
func InTx[T any](ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx DBTX) (T, error)) (T, error) {
	var result T
	err := WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		v, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
