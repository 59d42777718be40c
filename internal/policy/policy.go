// Package policy decides which vault operations need a fresh biometric
// verification.
//
// The table is an allow-list of sensitive operations. Anything not listed,
// including kinds this build does not know, is reported as not requiring the
// gate; callers that add an operation must list it here to protect it.
package policy

type Kind string

const (
	Login         Kind = "login"
	RevealSecret  Kind = "reveal_secret"
	CopySecret    Kind = "copy_secret"
	AddAccount    Kind = "add_account"
	UpdateAccount Kind = "update_account"
	DeleteAccount Kind = "delete_account"
	ListAccounts  Kind = "list_accounts"
	SetupTOTP     Kind = "setup_totp"
	TOTPStatus    Kind = "totp_status"
	EnrollFace    Kind = "enroll_face"
	ResetFace     Kind = "reset_face"
	Logout        Kind = "logout"
)

var sensitive = map[Kind]bool{
	Login:        true,
	RevealSecret: true,
	CopySecret:   true,
}

// RequiresBiometric reports whether k must pass the biometric gate.
func RequiresBiometric(k Kind) bool {
	return sensitive[k]
}

// Kinds lists every operation known to the table.
func Kinds() []Kind {
	return []Kind{
		Login, RevealSecret, CopySecret,
		AddAccount, UpdateAccount, DeleteAccount, ListAccounts,
		SetupTOTP, TOTPStatus, EnrollFace, ResetFace, Logout,
	}
}
