package accounts

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestPostgres_Create(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	a := account("5b0c7a9e-0000-4000-8000-000000000001", "alice", "github")
	mock.ExpectExec(`^INSERT INTO accounts \(id, principal, .*\) VALUES \(\$1, .*\$12\)$`).
		WithArgs(a.ID, "alice", "github", a.Username, []byte(a.Password), a.URL, "", "web", 80,
			a.CreatedAt, a.UpdatedAt, a.NextChangeAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateNotFound(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^UPDATE accounts SET .* WHERE id = \$10 AND principal = \$11$`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), account("x", "alice", "t"))
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgres_GetNoRows(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM accounts WHERE id = \$1 AND principal = \$2`).
		WithArgs("x", "alice").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "alice", "x")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgres_ListScansRows(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	cols := []string{"id", "principal", "title", "username", "password", "url", "notes", "category",
		"strength", "created_at", "updated_at", "next_change_at"}
	mock.ExpectQuery(`FROM accounts WHERE principal = \$1 ORDER BY title, id$`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a1", "alice", "aws", "root", []byte("p"), "", "", "", 40, t0, t0, t0))

	list, err := repo.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 40, list[0].Strength)
	assert.Equal(t, "aws", list[0].Title)
}

func TestPostgres_HistoryError(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	boom := errors.New("timeout")
	mock.ExpectQuery(`FROM account_password_history`).WithArgs("a1").WillReturnError(boom)

	_, err := repo.History(context.Background(), "a1")
	require.ErrorIs(t, err, boom)
}
