package totp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/cryptox"
	"github.com/dmitrijs2005/facekeeper/internal/dbx"
	"github.com/dmitrijs2005/facekeeper/internal/models"
)

type queries struct {
	getRegistration    string
	getCodes           string
	upsertRegistration string
	deleteCodes        string
	insertCode         string
	consumeCode        string
	countCodes         string
	deleteRegistration string
}

var sqliteQueries = queries{
	getRegistration:    `SELECT principal, secret, enabled, created_at FROM totp_registrations WHERE principal = ?`,
	getCodes:           `SELECT id, position, code FROM totp_backup_codes WHERE principal = ? ORDER BY position`,
	upsertRegistration: `INSERT INTO totp_registrations (principal, secret, enabled, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(principal) DO UPDATE SET secret = excluded.secret, enabled = excluded.enabled, created_at = excluded.created_at`,
	deleteCodes:        `DELETE FROM totp_backup_codes WHERE principal = ?`,
	insertCode:         `INSERT INTO totp_backup_codes (principal, position, code) VALUES (?, ?, ?)`,
	consumeCode:        `DELETE FROM totp_backup_codes WHERE principal = ? AND id = ?`,
	countCodes:         `SELECT COUNT(*) FROM totp_backup_codes WHERE principal = ?`,
	deleteRegistration: `DELETE FROM totp_registrations WHERE principal = ?`,
}

var postgresQueries = queries{
	getRegistration:    `SELECT principal, secret, enabled, created_at FROM totp_registrations WHERE principal = $1`,
	getCodes:           `SELECT id, position, code FROM totp_backup_codes WHERE principal = $1 ORDER BY position`,
	upsertRegistration: `INSERT INTO totp_registrations (principal, secret, enabled, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (principal) DO UPDATE SET secret = EXCLUDED.secret, enabled = EXCLUDED.enabled, created_at = EXCLUDED.created_at`,
	deleteCodes:        `DELETE FROM totp_backup_codes WHERE principal = $1`,
	insertCode:         `INSERT INTO totp_backup_codes (principal, position, code) VALUES ($1, $2, $3)`,
	consumeCode:        `DELETE FROM totp_backup_codes WHERE principal = $1 AND id = $2`,
	countCodes:         `SELECT COUNT(*) FROM totp_backup_codes WHERE principal = $1`,
	deleteRegistration: `DELETE FROM totp_registrations WHERE principal = $1`,
}

// SQLRepository implements Repository over a dbx.DBTX. The two constructors
// differ only in placeholder syntax.
type SQLRepository struct {
	db dbx.DBTX
	q  queries
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries}
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries}
}

func (r *SQLRepository) Get(ctx context.Context, principal string) (*models.TOTPRegistration, error) {
	reg := &models.TOTPRegistration{}
	var secret []byte

	err := r.db.QueryRowContext(ctx, r.q.getRegistration, principal).
		Scan(&reg.Principal, &secret, &reg.Enabled, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	reg.Secret = cryptox.EncryptedSecret(secret)

	rows, err := r.db.QueryContext(ctx, r.q.getCodes, principal)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c    models.BackupCode
			code []byte
		)
		if err := rows.Scan(&c.ID, &c.Position, &code); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		c.Code = cryptox.EncryptedSecret(code)
		reg.BackupCodes = append(reg.BackupCodes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return reg, nil
}

func (r *SQLRepository) Replace(ctx context.Context, reg *models.TOTPRegistration) error {
	if _, err := r.db.ExecContext(ctx, r.q.deleteCodes, reg.Principal); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, r.q.upsertRegistration,
		reg.Principal, []byte(reg.Secret), reg.Enabled, reg.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	for i, c := range reg.BackupCodes {
		if _, err := r.db.ExecContext(ctx, r.q.insertCode, reg.Principal, i, []byte(c.Code)); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

func (r *SQLRepository) ConsumeBackupCode(ctx context.Context, principal string, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q.consumeCode, principal, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n == 1, nil
}

func (r *SQLRepository) CountBackupCodes(ctx context.Context, principal string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, r.q.countCodes, principal).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) Delete(ctx context.Context, principal string) error {
	if _, err := r.db.ExecContext(ctx, r.q.deleteCodes, principal); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.q.deleteRegistration, principal); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
