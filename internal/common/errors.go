// Package common defines shared constants, sentinel errors and small helpers
// used across FaceKeeper components. Callers should use errors.Is to match
// the sentinel values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Cryptographic errors. ErrDecryption covers malformed ciphertext, a
	// foreign key and integrity failures alike.
	ErrDecryption = errors.New("decryption failed")

	// Biometric gate errors. Denial and cancellation are outcomes, not errors.
	ErrNoEnrollment      = errors.New("no face enrollment")
	ErrSourceUnavailable = errors.New("frame source unavailable")
	ErrSessionActive     = errors.New("another verification session is active")
	ErrNoFaceDetected    = errors.New("no face detected")

	// Disclosure errors.
	ErrNotVerified = errors.New("not verified")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
