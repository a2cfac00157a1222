package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

var userCols = []string{"id", "email", "password_hash", "role", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*password_hash,\s*role\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at,\s*updated_at\s*$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("alice@example.com", "hash", "user").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("42", now, now))

	u := &models.User{Email: "alice@example.com", PasswordHash: "hash", Role: models.RoleUser}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "42" || got.Email != "alice@example.com" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.c", Role: models.RoleUser})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want ErrorAlreadyExists, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.c"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*email,\s*password_hash,\s*role,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`

	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "alice@example.com", "hash", "admin", now, now))

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "u-1" || got.Role != models.RoleAdmin || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM\s+users\s+ORDER\s+BY\s+created_at,\s*id\s+OFFSET\s+\$1\s+LIMIT\s+\$2`).
		WithArgs(10, 2).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "a@x", "h", "user", now, now).
			AddRow("u-2", "b@x", "h", "superadmin", now, now))

	got, err := repo.List(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[1].Role != models.RoleSuperadmin {
		t.Fatalf("unexpected users: %+v", got)
	}
}

func TestList_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM\s+users`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "a@x", "h", "user", now, now).
			RowError(0, errors.New("broken row")))

	_, err := repo.List(context.Background(), 0, 10)
	if err == nil || !regexp.MustCompile(`db error: .*broken row`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped row error, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+email\s*=\s*\$2,\s*password_hash\s*=\s*\$3.*WHERE\s+id\s*=\s*\$1`).
		WithArgs("u-1", "new@x", "h2").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "new@x", "h2", "user", now, now))

	got, err := repo.Update(context.Background(), &models.User{ID: "u-1", Email: "new@x", PasswordHash: "h2", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.Email != "new@x" || got.Role != models.RoleUser {
		t.Fatalf("role must not be written by Update: %+v", got)
	}
}

func TestUpdateRole_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+role\s*=\s*\$2`).
		WithArgs("ghost", "admin").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateRole(context.Background(), "ghost", models.RoleAdmin)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`

	mock.ExpectExec(q).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Delete(context.Background(), "u-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	mock.ExpectExec(q).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Delete(context.Background(), "ghost"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}

	mock.ExpectExec(q).WithArgs("uploader").WillReturnError(&pgconn.PgError{Code: "23503"})
	if err := repo.Delete(context.Background(), "uploader"); !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
}
