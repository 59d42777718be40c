package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiresBiometric(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{Login, true},
		{RevealSecret, true},
		{CopySecret, true},
		{AddAccount, false},
		{UpdateAccount, false},
		{DeleteAccount, false},
		{ListAccounts, false},
		{SetupTOTP, false},
		{TOTPStatus, false},
		{EnrollFace, false},
		{ResetFace, false},
		{Logout, false},
		{Kind("export_vault"), false},
		{Kind(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, RequiresBiometric(tt.kind))
		})
	}
}

func TestKinds_CoversTable(t *testing.T) {
	known := map[Kind]bool{}
	for _, k := range Kinds() {
		known[k] = true
	}
	for k := range sensitive {
		assert.True(t, known[k], "sensitive kind %s missing from Kinds", k)
	}
}
