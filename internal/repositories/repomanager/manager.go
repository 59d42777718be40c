// Package repomanager vends dialect-specific repositories and runs the
// embedded goose migrations for the configured database.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/facekeeper/internal/dbx"
	"github.com/dmitrijs2005/facekeeper/internal/repositories/accounts"
	"github.com/dmitrijs2005/facekeeper/internal/repositories/totp"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	TOTP(db dbx.DBTX) totp.Repository
	Accounts(db dbx.DBTX) accounts.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// New returns the manager for a dbx driver name.
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case dbx.DriverSQLite:
		return &SQLiteRepositoryManager{}, nil
	case dbx.DriverPostgres:
		return &PostgresRepositoryManager{}, nil
	default:
		return nil, fmt.Errorf("no repositories for driver %q", driver)
	}
}
