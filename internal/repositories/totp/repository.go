// Package totp persists TOTP registrations and their backup codes.
//
// A registration row holds the encrypted shared secret; each backup code is
// its own row so that consuming one is a single-row DELETE whose affected
// count tells the caller whether it won.
//
// Replace issues several statements. Callers run it inside dbx.WithTx so the
// secret and the code list change together.
package totp

import (
	"context"

	"github.com/dmitrijs2005/facekeeper/internal/models"
)

type Repository interface {
	// Get returns the registration with its remaining codes ordered by
	// position, or common.ErrorNotFound.
	Get(ctx context.Context, principal string) (*models.TOTPRegistration, error)

	// Replace stores reg, discarding any previous secret and codes.
	Replace(ctx context.Context, reg *models.TOTPRegistration) error

	// ConsumeBackupCode deletes one code. It reports false when the code was
	// already gone.
	ConsumeBackupCode(ctx context.Context, principal string, id int64) (bool, error)

	// CountBackupCodes returns the number of unused codes.
	CountBackupCodes(ctx context.Context, principal string) (int, error)

	// Delete removes the registration and its codes. Missing is not an error.
	Delete(ctx context.Context, principal string) error
}
