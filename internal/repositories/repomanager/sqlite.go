package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/facekeeper/internal/dbx"
	"github.com/dmitrijs2005/facekeeper/internal/migrations/sqlite"
	"github.com/dmitrijs2005/facekeeper/internal/repositories/accounts"
	"github.com/dmitrijs2005/facekeeper/internal/repositories/totp"
	"github.com/pressly/goose/v3"
)

// SQLiteRepositoryManager serves the default local database.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) TOTP(db dbx.DBTX) totp.Repository {
	return totp.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(sqlite.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
