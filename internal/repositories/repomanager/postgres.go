package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/facekeeper/internal/dbx"
	"github.com/dmitrijs2005/facekeeper/internal/migrations/postgres"
	"github.com/dmitrijs2005/facekeeper/internal/repositories/accounts"
	"github.com/dmitrijs2005/facekeeper/internal/repositories/totp"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager serves a shared PostgreSQL database.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) TOTP(db dbx.DBTX) totp.Repository {
	return totp.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(postgres.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
