// Package models defines the records persisted by the vault's repositories.
// Secret-bearing fields are always cryptox.EncryptedSecret.
package models

import (
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/cryptox"
)

// TOTPRegistration is the second-factor state of one principal. Secret and
// BackupCodes are replaced together on re-registration.
type TOTPRegistration struct {
	Principal   string
	Secret      cryptox.EncryptedSecret
	BackupCodes []BackupCode
	Enabled     bool
	CreatedAt   time.Time
}

// BackupCode is a single-use recovery code. ID is assigned by storage and
// used to consume exactly this row.
type BackupCode struct {
	ID       int64
	Position int
	Code     cryptox.EncryptedSecret
}
