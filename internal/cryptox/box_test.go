package cryptox

import (
	"bytes"
	"testing"

	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBox(t *testing.T, alg Algorithm) *Box {
	t.Helper()
	b, err := NewBox(bytes.Repeat([]byte{7}, KeySize), alg)
	require.NoError(t, err)
	return b
}

func TestBox_RoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{AESGCM, XChaCha20Poly1305} {
		t.Run(alg.String(), func(t *testing.T) {
			b := newTestBox(t, alg)

			for _, in := range []string{"", "hunter2", "пароль with ünïcode", string(bytes.Repeat([]byte("x"), 4096))} {
				es, err := b.EncryptString(in)
				require.NoError(t, err)

				out, err := b.DecryptString(es)
				require.NoError(t, err)
				assert.Equal(t, in, out)
			}
		})
	}
}

func TestBox_FreshNoncePerCall(t *testing.T) {
	b := newTestBox(t, AESGCM)

	a, err := b.EncryptString("same")
	require.NoError(t, err)
	c, err := b.EncryptString("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, c)
}

func TestBox_TamperAnyByte(t *testing.T) {
	for _, alg := range []Algorithm{AESGCM, XChaCha20Poly1305} {
		t.Run(alg.String(), func(t *testing.T) {
			b := newTestBox(t, alg)
			es, err := b.EncryptString("correct horse battery staple")
			require.NoError(t, err)

			for i := range es {
				tampered := append(EncryptedSecret(nil), es...)
				tampered[i] ^= 0x01

				_, err := b.Decrypt(tampered)
				require.ErrorIs(t, err, common.ErrDecryption, "byte %d", i)
			}
		})
	}
}

func TestBox_WrongKey(t *testing.T) {
	b := newTestBox(t, XChaCha20Poly1305)
	other, err := NewBox(bytes.Repeat([]byte{8}, KeySize), XChaCha20Poly1305)
	require.NoError(t, err)

	es, err := b.EncryptString("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(es)
	require.ErrorIs(t, err, common.ErrDecryption)
}

func TestBox_MalformedInput(t *testing.T) {
	b := newTestBox(t, AESGCM)

	for _, in := range []EncryptedSecret{nil, {}, {1}, {1, 1, 0, 0}, bytes.Repeat([]byte{1}, 28)} {
		_, err := b.Decrypt(in)
		require.ErrorIs(t, err, common.ErrDecryption)
	}
}

func TestBox_ForeignAlgorithm(t *testing.T) {
	gcm := newTestBox(t, AESGCM)
	xc := newTestBox(t, XChaCha20Poly1305)

	es, err := gcm.EncryptString("secret")
	require.NoError(t, err)

	_, err = xc.Decrypt(es)
	require.ErrorIs(t, err, common.ErrDecryption)
}

func TestNewBox_Validation(t *testing.T) {
	_, err := NewBox(make([]byte, 16), AESGCM)
	require.Error(t, err)

	_, err = NewBox(make([]byte, KeySize), Algorithm(9))
	require.Error(t, err)
}

func TestEncryptedSecret_TextForm(t *testing.T) {
	b := newTestBox(t, AESGCM)
	es, err := b.EncryptString("secret")
	require.NoError(t, err)

	parsed, err := ParseEncryptedSecret(es.String())
	require.NoError(t, err)
	assert.Equal(t, es, parsed)

	_, err = ParseEncryptedSecret("not base64 !!")
	require.ErrorIs(t, err, common.ErrDecryption)
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, AESGCM, a)

	a, err = ParseAlgorithm("xchacha20poly1305")
	require.NoError(t, err)
	assert.Equal(t, XChaCha20Poly1305, a)

	_, err = ParseAlgorithm("rot13")
	require.Error(t, err)
}
