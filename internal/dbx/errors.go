package dbx

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes mapped onto common errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
)

// MapError translates driver errors into the common sentinels: no rows
// becomes ErrorNotFound, a unique violation ErrorAlreadyExists and a foreign
// key violation ErrorConflict. Malformed input such as a non-UUID id is a
// validation error. Anything else is wrapped as "db error".
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", common.ErrorConflict, pgErr.ConstraintName)
		case pgInvalidTextRepr:
			return common.NewValidationError("invalid identifier")
		}
	}

	return fmt.Errorf("db error: %w", err)
}

// RequireAffected returns ErrorNotFound when an UPDATE or DELETE touched no rows.
func RequireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
