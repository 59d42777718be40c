package common

import "time"

const (
	// DefaultMaxAttempts is the number of frames a gate run may consume.
	DefaultMaxAttempts = 3

	// DefaultFaceThreshold is the similarity a live frame must strictly exceed.
	DefaultFaceThreshold = 0.5

	// DefaultExposure is how long a disclosed secret stays readable.
	DefaultExposure = 30 * time.Second

	// BackupCodeCount is the number of backup codes issued per registration.
	BackupCodeCount = 8

	// BackupCodeLength is the length of a single backup code.
	BackupCodeLength = 8

	// PasswordExpiry is the rotation period attached to stored account passwords.
	PasswordExpiry = 90 * 24 * time.Hour
)
