// Package otp is the OneTimeCodeAuthority: TOTP issuance and verification
// with single-use backup codes as a fallback.
//
// Codes follow RFC 6238 with a 30 second step, six digits and SHA-1, the
// profile every authenticator app accepts. The shared secret and each backup
// code are sealed with the vault's CipherBox before they reach storage.
package otp

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"image/png"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/cryptox"
	"github.com/dmitrijs2005/facekeeper/internal/dbx"
	"github.com/dmitrijs2005/facekeeper/internal/logging"
	"github.com/dmitrijs2005/facekeeper/internal/models"
	"github.com/dmitrijs2005/facekeeper/internal/repositories/repomanager"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	DefaultIssuer = "Account Manager"
	DefaultSkew   = 1
	period        = 30
	secretSize    = 20
	qrSize        = 200
)

// backupAlphabet is the RFC 4648 base32 alphabet. 256 is a multiple of its
// length, so byte%32 is unbiased.
const backupAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// Enrollment is handed to the enrollment UI once. It is never stored in
// this form.
type Enrollment struct {
	Secret          string
	BackupCodes     []string
	ProvisioningURI string
	QRCodePNG       []byte
}

type RegistrationStatus struct {
	Enabled              bool
	BackupCodesRemaining int
	CreatedAt            time.Time
}

type Authority struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	box    *cryptox.Box
	issuer string
	skew   uint
	now    func() time.Time
	rand   io.Reader
	log    logging.Logger

	// mu orders re-registration against verification.
	mu sync.Mutex
}

type Option func(*Authority)

func WithIssuer(issuer string) Option { return func(a *Authority) { a.issuer = issuer } }

// WithSkew accepts codes up to skew steps before or after the current one.
func WithSkew(skew uint) Option { return func(a *Authority) { a.skew = skew } }

func WithClock(now func() time.Time) Option { return func(a *Authority) { a.now = now } }

func WithLogger(l logging.Logger) Option { return func(a *Authority) { a.log = l } }

func NewAuthority(db *sql.DB, repos repomanager.RepositoryManager, box *cryptox.Box, opts ...Option) *Authority {
	a := &Authority{
		db:     db,
		repos:  repos,
		box:    box,
		issuer: DefaultIssuer,
		skew:   DefaultSkew,
		now:    time.Now,
		rand:   rand.Reader,
		log:    logging.Nop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Authority) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    period,
		Skew:      a.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Issue creates a fresh secret and backup codes for principal, replacing any
// previous registration in one transaction.
func (a *Authority) Issue(ctx context.Context, principal string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.issuer,
		AccountName: principal,
		Period:      period,
		SecretSize:  secretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		Rand:        a.rand,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}

	codes, err := a.generateBackupCodes()
	if err != nil {
		return nil, err
	}

	reg := &models.TOTPRegistration{
		Principal: principal,
		Enabled:   true,
		CreatedAt: a.now(),
	}
	if reg.Secret, err = a.box.EncryptString(key.Secret()); err != nil {
		return nil, fmt.Errorf("seal secret: %w", err)
	}
	for i, c := range codes {
		sealed, err := a.box.EncryptString(c)
		if err != nil {
			return nil, fmt.Errorf("seal backup code: %w", err)
		}
		reg.BackupCodes = append(reg.BackupCodes, models.BackupCode{Position: i, Code: sealed})
	}

	a.mu.Lock()
	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return a.repos.TOTP(tx).Replace(ctx, reg)
	})
	a.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("store registration: %w", err)
	}

	qr, err := qrPNG(key)
	if err != nil {
		a.log.Warn(ctx, "qr code rendering failed", "principal", principal, "error", err)
	}

	a.log.Info(ctx, "totp registration issued", "principal", principal, "backup_codes", len(codes))

	return &Enrollment{
		Secret:          key.Secret(),
		BackupCodes:     codes,
		ProvisioningURI: key.URL(),
		QRCodePNG:       qr,
	}, nil
}

func qrPNG(key *otp.Key) ([]byte, error) {
	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *Authority) generateBackupCodes() ([]string, error) {
	codes := make([]string, 0, common.BackupCodeCount)
	seen := make(map[string]struct{}, common.BackupCodeCount)

	buf := make([]byte, common.BackupCodeLength)
	for len(codes) < common.BackupCodeCount {
		if _, err := io.ReadFull(a.rand, buf); err != nil {
			return nil, fmt.Errorf("backup code: %w", err)
		}
		b := make([]byte, len(buf))
		for i, v := range buf {
			b[i] = backupAlphabet[int(v)%len(backupAlphabet)]
		}
		c := string(b)
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		codes = append(codes, c)
	}
	common.WipeByteArray(buf)
	return codes, nil
}

// normalize drops spaces and dashes and upper-cases code.
func normalize(code string) string {
	code = strings.ReplaceAll(code, "-", "")
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// Verify checks code for principal. Backup codes are tried first and a
// matching one is consumed; otherwise code is checked as a TOTP within the
// configured skew. An unknown principal yields false without error.
func (a *Authority) Verify(ctx context.Context, principal, code string) (bool, error) {
	code = normalize(code)
	if code == "" {
		return false, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	repo := a.repos.TOTP(a.db)

	reg, err := repo.Get(ctx, principal)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	if !reg.Enabled {
		return false, nil
	}

	for _, bc := range reg.BackupCodes {
		plain, err := a.box.DecryptString(bc.Code)
		if err != nil {
			return false, fmt.Errorf("open backup code: %w", err)
		}
		if subtle.ConstantTimeCompare([]byte(plain), []byte(code)) != 1 {
			continue
		}

		consumed, err := repo.ConsumeBackupCode(ctx, principal, bc.ID)
		if err != nil {
			return false, err
		}
		if consumed {
			a.log.Info(ctx, "backup code consumed", "principal", principal)
		}
		return consumed, nil
	}

	secret, err := a.box.DecryptString(reg.Secret)
	if err != nil {
		return false, fmt.Errorf("open totp secret: %w", err)
	}

	ok, err := totp.ValidateCustom(code, secret, a.now(), a.validateOpts())
	if err != nil {
		// Malformed input such as a wrong length is just a wrong code.
		return false, nil
	}
	return ok, nil
}

// Status reports whether principal has a registration and how many backup
// codes are left.
func (a *Authority) Status(ctx context.Context, principal string) (*RegistrationStatus, error) {
	repo := a.repos.TOTP(a.db)

	reg, err := repo.Get(ctx, principal)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &RegistrationStatus{}, nil
		}
		return nil, err
	}

	return &RegistrationStatus{
		Enabled:              reg.Enabled,
		BackupCodesRemaining: len(reg.BackupCodes),
		CreatedAt:            reg.CreatedAt,
	}, nil
}

// Enabled reports whether login for principal requires a second factor.
func (a *Authority) Enabled(ctx context.Context, principal string) (bool, error) {
	st, err := a.Status(ctx, principal)
	if err != nil {
		return false, err
	}
	return st.Enabled, nil
}

// Disable removes principal's registration.
func (a *Authority) Disable(ctx context.Context, principal string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.repos.TOTP(a.db).Delete(ctx, principal); err != nil {
		return err
	}
	a.log.Info(ctx, "totp registration removed", "principal", principal)
	return nil
}
