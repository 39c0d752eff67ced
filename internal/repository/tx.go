package repository

import (
	"context"
	"database/sql"
	"errors"

	"catalog-admin/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// withTx runs fn inside a read-committed transaction. The transaction is
// committed only if fn returns nil and rolled back on every other path.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return domain.Storage(err, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return domain.Storage(err, "failed to commit transaction")
	}

	return nil
}

// pgError extracts the server error behind err, if any.
func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == pgUniqueViolation
}

// storageError wraps err as a storage failure unless it already carries a
// catalog Kind.
func storageError(err error, message string) error {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if pgErr, ok := pgError(err); ok {
		switch pgErr.Code {
		case pgCheckViolation:
			return domain.Validation("%s: constraint %s violated", message, pgErr.ConstraintName).WithCause(err)
		case pgNumericOutOfRange:
			return domain.Validation("%s: value out of range", message).WithCause(err)
		}
	}
	return domain.Storage(err, "%s", message)
}
