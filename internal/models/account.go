package models

import (
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/cryptox"
)

// Account is a stored credential. Only Password is secret.
type Account struct {
	ID           string
	Principal    string
	Title        string
	Username     string
	Password     cryptox.EncryptedSecret
	URL          string
	Notes        string
	Category     string
	Strength     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextChangeAt time.Time
}

// PasswordChange records a previous password of an account.
type PasswordChange struct {
	AccountID string
	Password  cryptox.EncryptedSecret
	ChangedAt time.Time
}
