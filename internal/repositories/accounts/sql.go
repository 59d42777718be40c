package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/cryptox"
	"github.com/dmitrijs2005/facekeeper/internal/dbx"
	"github.com/dmitrijs2005/facekeeper/internal/models"
)

const accountColumns = `id, principal, title, username, password, url, notes, category, strength, created_at, updated_at, next_change_at`

type queries struct {
	insert        string
	update        string
	delete        string
	deleteHistory string
	get           string
	list          string
	due           string
	addHistory    string
	history       string
}

var sqliteQueries = queries{
	insert:        `INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	update:        `UPDATE accounts SET title = ?, username = ?, password = ?, url = ?, notes = ?, category = ?, strength = ?, updated_at = ?, next_change_at = ? WHERE id = ? AND principal = ?`,
	delete:        `DELETE FROM accounts WHERE id = ? AND principal = ?`,
	deleteHistory: `DELETE FROM account_password_history WHERE account_id = ?`,
	get:           `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? AND principal = ?`,
	list:          `SELECT ` + accountColumns + ` FROM accounts WHERE principal = ? ORDER BY title, id`,
	due:           `SELECT ` + accountColumns + ` FROM accounts WHERE principal = ? AND next_change_at <= ? ORDER BY next_change_at, id`,
	addHistory:    `INSERT INTO account_password_history (account_id, password, changed_at) VALUES (?, ?, ?)`,
	history:       `SELECT account_id, password, changed_at FROM account_password_history WHERE account_id = ? ORDER BY changed_at DESC, id DESC`,
}

var postgresQueries = queries{
	insert:        `INSERT INTO accounts (` + accountColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
	update:        `UPDATE accounts SET title = $1, username = $2, password = $3, url = $4, notes = $5, category = $6, strength = $7, updated_at = $8, next_change_at = $9 WHERE id = $10 AND principal = $11`,
	delete:        `DELETE FROM accounts WHERE id = $1 AND principal = $2`,
	deleteHistory: `DELETE FROM account_password_history WHERE account_id = $1`,
	get:           `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND principal = $2`,
	list:          `SELECT ` + accountColumns + ` FROM accounts WHERE principal = $1 ORDER BY title, id`,
	due:           `SELECT ` + accountColumns + ` FROM accounts WHERE principal = $1 AND next_change_at <= $2 ORDER BY next_change_at, id`,
	addHistory:    `INSERT INTO account_password_history (account_id, password, changed_at) VALUES ($1, $2, $3)`,
	history:       `SELECT account_id, password, changed_at FROM account_password_history WHERE account_id = $1 ORDER BY changed_at DESC, id DESC`,
}

// SQLRepository implements Repository for SQLite and PostgreSQL.
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

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*models.Account, error) {
	a := &models.Account{}
	var password []byte
	err := s.Scan(&a.ID, &a.Principal, &a.Title, &a.Username, &password, &a.URL, &a.Notes,
		&a.Category, &a.Strength, &a.CreatedAt, &a.UpdatedAt, &a.NextChangeAt)
	if err != nil {
		return nil, err
	}
	a.Password = cryptox.EncryptedSecret(password)
	return a, nil
}

func (r *SQLRepository) Create(ctx context.Context, a *models.Account) error {
	_, err := r.db.ExecContext(ctx, r.q.insert,
		a.ID, a.Principal, a.Title, a.Username, []byte(a.Password), a.URL, a.Notes, a.Category,
		a.Strength, a.CreatedAt.UTC(), a.UpdatedAt.UTC(), a.NextChangeAt.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Update(ctx context.Context, a *models.Account) error {
	res, err := r.db.ExecContext(ctx, r.q.update,
		a.Title, a.Username, []byte(a.Password), a.URL, a.Notes, a.Category, a.Strength,
		a.UpdatedAt.UTC(), a.NextChangeAt.UTC(), a.ID, a.Principal)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *SQLRepository) Delete(ctx context.Context, principal, id string) error {
	res, err := r.db.ExecContext(ctx, r.q.delete, id, principal)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := expectOne(res); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, r.q.deleteHistory, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, principal, id string) (*models.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, r.q.get, id, principal))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *SQLRepository) List(ctx context.Context, principal string) ([]models.Account, error) {
	return r.query(ctx, r.q.list, principal)
}

func (r *SQLRepository) DueForChange(ctx context.Context, principal string, now time.Time) ([]models.Account, error) {
	return r.query(ctx, r.q.due, principal, now.UTC())
}

func (r *SQLRepository) query(ctx context.Context, q string, args ...any) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) AddHistory(ctx context.Context, accountID string, password cryptox.EncryptedSecret, changedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, r.q.addHistory, accountID, []byte(password), changedAt.UTC()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) History(ctx context.Context, accountID string) ([]models.PasswordChange, error) {
	rows, err := r.db.QueryContext(ctx, r.q.history, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.PasswordChange
	for rows.Next() {
		var (
			c        models.PasswordChange
			password []byte
		)
		if err := rows.Scan(&c.AccountID, &password, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		c.Password = cryptox.EncryptedSecret(password)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
