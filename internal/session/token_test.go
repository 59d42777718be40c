package session

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T, ttl time.Duration) (*Issuer, *time.Time) {
	t.Helper()
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	i := NewIssuer([]byte("super-secret"), ttl)
	i.now = func() time.Time { return now }
	return i, &now
}

func TestIssueAndValidate(t *testing.T) {
	i, _ := newTestIssuer(t, time.Hour)

	tok, err := i.Issue("bob")
	require.NoError(t, err)

	got, err := i.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "bob", got)
}

func TestValidate_Expired(t *testing.T) {
	i, now := newTestIssuer(t, time.Minute)

	tok, err := i.Issue("bob")
	require.NoError(t, err)

	*now = now.Add(2 * time.Minute)
	_, err = i.Validate(tok)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestValidate_WrongKey(t *testing.T) {
	i, _ := newTestIssuer(t, time.Hour)
	other := NewIssuer([]byte("other-secret"), time.Hour)

	tok, err := other.Issue("bob")
	require.NoError(t, err)

	_, err = i.Validate(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestValidate_Malformed(t *testing.T) {
	i, _ := newTestIssuer(t, time.Hour)

	for _, tok := range []string{"", "not.a.jwt", "a.b"} {
		_, err := i.Validate(tok)
		require.ErrorIs(t, err, common.ErrInvalidToken, tok)
	}
}

func TestValidate_RejectsOtherAlgorithms(t *testing.T) {
	i, _ := newTestIssuer(t, time.Hour)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "bob",
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = i.Validate(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	i, _ := newTestIssuer(t, time.Hour)

	a, err := i.Issue("bob")
	require.NoError(t, err)
	b, err := i.Issue("bob")
	require.NoError(t, err)

	i.Revoke(a)

	_, err = i.Validate(a)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	got, err := i.Validate(b)
	require.NoError(t, err)
	assert.Equal(t, "bob", got)

	i.Revoke("garbage")
}
