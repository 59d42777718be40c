package cryptox

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Subkey labels. Changing one invalidates everything derived from it.
const (
	LabelCipher  = "facekeeper/cipher/v1"
	LabelSession = "facekeeper/session/v1"
)

// KeySource yields the process master key.
type KeySource interface {
	Load(ctx context.Context) ([]byte, error)
}

// EphemeralKey generates a fresh random key on every Load. Ciphertext sealed
// under it does not survive a restart.
type EphemeralKey struct{}

func (EphemeralKey) Load(ctx context.Context) ([]byte, error) {
	return randomKey()
}

// DeriveSubkey expands master into a KeySize key bound to label.
func DeriveSubkey(master []byte, label string) ([]byte, error) {
	if len(master) < KeySize {
		return nil, fmt.Errorf("master key too short: %d bytes", len(master))
	}

	out := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(label)), out); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return out, nil
}

func randomKey() ([]byte, error) {
	k := make([]byte, KeySize)
	if _, err := rand.Read(k); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return k, nil
}
