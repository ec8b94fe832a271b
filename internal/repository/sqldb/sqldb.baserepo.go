// FilePath: internal/repository/sqldb/sqldb.baserepo.go
package sqldb

import (
	"context"
	"database/sql"

	"github.com/itsatony/hydrohub/internal/database"
	"github.com/itsatony/hydrohub/internal/errors"
)

// BaseRepo carries the shared connection and transaction helpers.
// Queries are written with "?" placeholders and rebound per dialect.
type BaseRepo struct {
	db database.DB
}

func (r *BaseRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := r.db.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to begin transaction", err)
	}
	return tx, nil
}

func (r *BaseRepo) Commit(tx database.Transaction) error {
	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseError("failed to commit transaction", err)
	}
	return nil
}

func (r *BaseRepo) Rollback(tx database.Transaction) error {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return errors.NewDatabaseError("failed to rollback transaction", err)
	}
	return nil
}

func (r *BaseRepo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return errors.NewDatabaseError("failed to ping database", err)
	}
	return nil
}

func (r *BaseRepo) Close() error {
	if err := r.db.Close(); err != nil {
		return errors.NewDatabaseError("failed to close database", err)
	}
	return nil
}

// LockUnit takes a transaction-scoped advisory lock on Postgres.
// SQLite runs on a single connection, so transactions are already serialized.
func (r *BaseRepo) LockUnit(ctx context.Context, tx database.Transaction, unitID string) error {
	if r.db.Dialect() != database.DialectPostgres {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, unitID); err != nil {
		return errors.NewDatabaseError("failed to lock unit", err)
	}
	return nil
}

func (r *BaseRepo) rebind(query string) string {
	return r.db.GetDB().Rebind(query)
}

// withTx runs fn inside a transaction and commits when it returns nil
func (r *BaseRepo) withTx(ctx context.Context, fn func(tx database.Transaction) error) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(tx)

	if err := fn(tx); err != nil {
		return err
	}
	return r.Commit(tx)
}
