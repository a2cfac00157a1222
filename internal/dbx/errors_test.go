package dbx

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, MapError(nil))
	assert.ErrorIs(t, MapError(sql.ErrNoRows), common.ErrorNotFound)

	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	err := MapError(unique)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Contains(t, err.Error(), "users_email_key")

	assert.ErrorIs(t, MapError(&pgconn.PgError{Code: "23503"}), common.ErrorConflict)

	assert.ErrorIs(t, MapError(&pgconn.PgError{Code: "22P02"}), common.ErrorValidation)

	other := MapError(errors.New("conn reset"))
	assert.EqualError(t, other, "db error: conn reset")
	assert.NotErrorIs(t, other, common.ErrorNotFound)
}

func TestRequireAffected(t *testing.T) {
	assert.NoError(t, RequireAffected(sqlmock.NewResult(0, 1)))
	assert.ErrorIs(t, RequireAffected(sqlmock.NewResult(0, 0)), common.ErrorNotFound)
	assert.Error(t, RequireAffected(sqlmock.NewErrorResult(errors.New("x"))))
}
