package totp

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestPostgres_Get(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)^SELECT principal, secret, enabled, created_at FROM totp_registrations WHERE principal = \$1$`).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"principal", "secret", "enabled", "created_at"}).
			AddRow("bob", []byte("sec"), true, created))
	mock.ExpectQuery(`(?s)^SELECT id, position, code FROM totp_backup_codes WHERE principal = \$1 ORDER BY position$`).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"id", "position", "code"}).
			AddRow(int64(7), 0, []byte("c0")).
			AddRow(int64(8), 1, []byte("c1")))

	got, err := repo.Get(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, cryptox.EncryptedSecret("sec"), got.Secret)
	require.Len(t, got.BackupCodes, 2)
	assert.Equal(t, int64(8), got.BackupCodes[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetNotFound(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM totp_registrations`).WithArgs("nobody").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "nobody")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgres_ReplaceOrder(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	reg := registration("bob", "sec", "c0", "c1")

	mock.ExpectExec(`^DELETE FROM totp_backup_codes WHERE principal = \$1$`).
		WithArgs("bob").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`^INSERT INTO totp_registrations .* ON CONFLICT \(principal\) DO UPDATE`).
		WithArgs("bob", []byte("sec"), true, reg.CreatedAt).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^INSERT INTO totp_backup_codes`).
		WithArgs("bob", 0, []byte("c0")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`^INSERT INTO totp_backup_codes`).
		WithArgs("bob", 1, []byte("c1")).WillReturnResult(sqlmock.NewResult(2, 1))

	require.NoError(t, repo.Replace(context.Background(), reg))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ConsumeRace(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE FROM totp_backup_codes WHERE principal = \$1 AND id = \$2$`).
		WithArgs("bob", int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ConsumeBackupCode(context.Background(), "bob", 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgres_DBErrorIsWrapped(t *testing.T) {
	repo, mock, db := newPostgresWithMock(t)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT COUNT`).WithArgs("bob").WillReturnError(boom)

	_, err := repo.CountBackupCodes(context.Background(), "bob")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "db error")
}
