package cryptox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"filippo.io/age"
	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/filex"
	"github.com/fxamacker/cbor/v2"
)

const ageHeader = "age-encryption.org/v1"

// scryptWorkFactor is the age scrypt cost for new key files.
var scryptWorkFactor = 18

// ErrPassphraseRequired is returned when a key file is age-encrypted and no
// passphrase was supplied.
var ErrPassphraseRequired = errors.New("key file is passphrase protected")

type keyEnvelope struct {
	Version int    `cbor:"1,keyasint"`
	Created int64  `cbor:"2,keyasint"`
	Key     []byte `cbor:"3,keyasint,omitempty"`
	KMSKey  string `cbor:"4,keyasint,omitempty"`
	Blob    []byte `cbor:"5,keyasint,omitempty"`
}

// FileKey keeps the master key in a local file, created with mode 0600 on
// first use. When Passphrase is set the CBOR envelope is age-encrypted with
// an scrypt recipient.
type FileKey struct {
	Path       string
	Passphrase string
}

func (f FileKey) Load(ctx context.Context) ([]byte, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return f.create()
	}
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	if bytes.HasPrefix(raw, []byte(ageHeader)) {
		if f.Passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		raw, err = openAge(raw, f.Passphrase)
		if err != nil {
			return nil, err
		}
	}

	var env keyEnvelope
	err = cbor.Unmarshal(raw, &env)
	common.WipeByteArray(raw)
	if err != nil {
		return nil, fmt.Errorf("decode key file: %w", err)
	}
	if env.Version != 1 || len(env.Key) != KeySize {
		common.WipeByteArray(env.Key)
		return nil, fmt.Errorf("key file %s is not a version 1 key", f.Path)
	}

	return env.Key, nil
}

func (f FileKey) create() ([]byte, error) {
	key, err := randomKey()
	if err != nil {
		return nil, err
	}

	data, err := cbor.Marshal(keyEnvelope{Version: 1, Created: time.Now().Unix(), Key: key})
	if err != nil {
		return nil, fmt.Errorf("encode key file: %w", err)
	}

	if f.Passphrase != "" {
		sealed, err := sealAge(data, f.Passphrase)
		common.WipeByteArray(data)
		if err != nil {
			common.WipeByteArray(key)
			return nil, err
		}
		data = sealed
	}

	err = filex.WriteFileAtomic(f.Path, data, 0o600)
	common.WipeByteArray(data)
	if err != nil {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("write key file: %w", err)
	}

	return key, nil
}

func sealAge(data []byte, passphrase string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("age recipient: %w", err)
	}
	recipient.SetWorkFactor(scryptWorkFactor)

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("age encrypt: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("age write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("age close: %w", err)
	}

	return buf.Bytes(), nil
}

func openAge(data []byte, passphrase string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("age identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, fmt.Errorf("unlock key file (wrong passphrase?): %w", err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return out, nil
}
