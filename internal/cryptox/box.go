package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/facekeeper/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length of every CipherBox key.
const KeySize = 32

const formatVersion byte = 1

// Algorithm identifies the AEAD used by a Box. The value is written into
// every EncryptedSecret header.
type Algorithm byte

const (
	AESGCM            Algorithm = 1
	XChaCha20Poly1305 Algorithm = 2
)

// ParseAlgorithm maps a config name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "", "aes-gcm", "aes256-gcm":
		return AESGCM, nil
	case "xchacha20poly1305", "xchacha20-poly1305":
		return XChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("unknown cipher %q", name)
	}
}

func (a Algorithm) String() string {
	switch a {
	case AESGCM:
		return "aes-gcm"
	case XChaCha20Poly1305:
		return "xchacha20poly1305"
	default:
		return fmt.Sprintf("algorithm(%d)", byte(a))
	}
}

// EncryptedSecret is an opaque sealed value. It carries no plaintext
// metadata; two values are the same secret only if their bytes are equal.
type EncryptedSecret []byte

// String encodes the secret as unpadded base64url for text columns.
func (es EncryptedSecret) String() string {
	return base64.RawURLEncoding.EncodeToString(es)
}

// ParseEncryptedSecret decodes the output of EncryptedSecret.String.
func ParseEncryptedSecret(s string) (EncryptedSecret, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryption, err)
	}
	return EncryptedSecret(b), nil
}

// Box performs authenticated encryption under a single key. It holds no
// state besides the AEAD and is safe for concurrent use.
type Box struct {
	alg  Algorithm
	aead cipher.AEAD
}

// NewBox builds a Box for a 32-byte key. The key is copied into the cipher
// state; the caller may wipe its slice afterwards.
func NewBox(key []byte, alg Algorithm) (*Box, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("cipher key must be %d bytes, got %d", KeySize, len(key))
	}

	var (
		aead cipher.AEAD
		err  error
	)

	switch alg {
	case AESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		aead, err = cipher.NewGCM(block)
	case XChaCha20Poly1305:
		aead, err = chacha20poly1305.NewX(key)
	default:
		return nil, fmt.Errorf("unsupported algorithm %s", alg)
	}
	if err != nil {
		return nil, err
	}

	return &Box{alg: alg, aead: aead}, nil
}

// Algorithm reports the AEAD this box seals with.
func (b *Box) Algorithm() Algorithm { return b.alg }

// Encrypt seals plaintext with a fresh random nonce. It only fails when the
// system random source fails.
func (b *Box) Encrypt(plaintext []byte) (EncryptedSecret, error) {
	header := []byte{formatVersion, byte(b.alg)}
	ns := b.aead.NonceSize()

	out := make([]byte, len(header)+ns, len(header)+ns+len(plaintext)+b.aead.Overhead())
	copy(out, header)

	nonce := out[len(header):]
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	out = b.aead.Seal(out, nonce, plaintext, header)
	return EncryptedSecret(out), nil
}

func (b *Box) EncryptString(s string) (EncryptedSecret, error) {
	return b.Encrypt([]byte(s))
}

// Decrypt opens a value produced by Encrypt. Malformed input, a foreign
// algorithm, a wrong key or any tampering yields common.ErrDecryption.
func (b *Box) Decrypt(es EncryptedSecret) ([]byte, error) {
	ns := b.aead.NonceSize()

	if len(es) < 2+ns+b.aead.Overhead() {
		return nil, fmt.Errorf("%w: input too short", common.ErrDecryption)
	}
	if es[0] != formatVersion {
		return nil, fmt.Errorf("%w: unknown format version %d", common.ErrDecryption, es[0])
	}
	if Algorithm(es[1]) != b.alg {
		return nil, fmt.Errorf("%w: sealed with %s, box uses %s", common.ErrDecryption, Algorithm(es[1]), b.alg)
	}

	header := es[:2]
	nonce := es[2 : 2+ns]

	plaintext, err := b.aead.Open(nil, nonce, es[2+ns:], header)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", common.ErrDecryption)
	}

	return plaintext, nil
}

func (b *Box) DecryptString(es EncryptedSecret) (string, error) {
	p, err := b.Decrypt(es)
	if err != nil {
		return "", err
	}
	s := string(p)
	common.WipeByteArray(p)
	return s, nil
}
