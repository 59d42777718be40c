// Package accounts stores credential records. Passwords arrive and leave as
// cryptox.EncryptedSecret; this package never sees plaintext.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/cryptox"
	"github.com/dmitrijs2005/facekeeper/internal/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.Account) error
	// Update overwrites every mutable column. Returns common.ErrorNotFound
	// when the account does not belong to a.Principal.
	Update(ctx context.Context, a *models.Account) error
	Delete(ctx context.Context, principal, id string) error
	Get(ctx context.Context, principal, id string) (*models.Account, error)
	// List returns the principal's accounts ordered by title.
	List(ctx context.Context, principal string) ([]models.Account, error)
	// DueForChange lists accounts whose next change date is not after now.
	DueForChange(ctx context.Context, principal string, now time.Time) ([]models.Account, error)

	AddHistory(ctx context.Context, accountID string, password cryptox.EncryptedSecret, changedAt time.Time) error
	History(ctx context.Context, accountID string) ([]models.PasswordChange, error)
}
