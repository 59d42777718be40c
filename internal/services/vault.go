// Package services contains the application services of the vault.
// The Vault ties the biometric gate, the one-time code authority, the
// secret disclosure and storage together behind session tokens: login
// returns a token and every other call takes one.
package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/audit"
	"github.com/dmitrijs2005/facekeeper/internal/biometric"
	"github.com/dmitrijs2005/facekeeper/internal/cryptox"
	"github.com/dmitrijs2005/facekeeper/internal/disclosure"
	"github.com/dmitrijs2005/facekeeper/internal/face"
	"github.com/dmitrijs2005/facekeeper/internal/logging"
	"github.com/dmitrijs2005/facekeeper/internal/otp"
	"github.com/dmitrijs2005/facekeeper/internal/policy"
	"github.com/dmitrijs2005/facekeeper/internal/repositories/accounts"
	"github.com/dmitrijs2005/facekeeper/internal/repositories/references"
	"github.com/dmitrijs2005/facekeeper/internal/repositories/repomanager"
	"github.com/dmitrijs2005/facekeeper/internal/session"
)

// enrollFrames bounds how many frames enrollment inspects for a face.
const enrollFrames = 10

// Deps are the collaborators of a Vault. Clipboard may be nil, in which case
// copy behaves like reveal.
type Deps struct {
	DB         *sql.DB
	Repos      repomanager.RepositoryManager
	References references.Store
	Matcher    face.Matcher
	Gate       *biometric.Gate
	OTP        *otp.Authority
	Box        *cryptox.Box
	Discloser  *disclosure.Discloser
	Clipboard  disclosure.Sink
	Sessions   *session.Issuer
	Audit      audit.Sink
	Log        logging.Logger
}

type Vault struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	refs      references.Store
	matcher   face.Matcher
	gate      *biometric.Gate
	otp       *otp.Authority
	box       *cryptox.Box
	discloser *disclosure.Discloser
	clipboard disclosure.Sink
	sessions  *session.Issuer
	audit     audit.Sink
	log       logging.Logger
	now       func() time.Time
}

func NewVault(d Deps) *Vault {
	v := &Vault{
		db:        d.DB,
		repos:     d.Repos,
		refs:      d.References,
		matcher:   d.Matcher,
		gate:      d.Gate,
		otp:       d.OTP,
		box:       d.Box,
		discloser: d.Discloser,
		clipboard: d.Clipboard,
		sessions:  d.Sessions,
		audit:     d.Audit,
		log:       d.Log,
		now:       time.Now,
	}
	if v.audit == nil {
		v.audit = audit.Nop{}
	}
	if v.log == nil {
		v.log = logging.Nop()
	}
	return v
}

func (v *Vault) accountsRepo() accounts.Repository {
	return v.repos.Accounts(v.db)
}

// principal resolves a session token.
func (v *Vault) principal(token string) (string, error) {
	return v.sessions.Validate(token)
}

func (v *Vault) record(ctx context.Context, kind audit.Kind, principal string, ok bool, reason string) {
	e := audit.Event{Time: v.now(), Kind: kind, Principal: principal, Success: ok, Reason: reason}
	if err := v.audit.Record(ctx, e); err != nil {
		v.log.Warn(ctx, "audit record failed", "kind", string(kind), "error", err)
	}
}

// guard runs the biometric gate when the policy marks kind as sensitive.
// Other kinds pass with a zero Outcome.
func (v *Vault) guard(ctx context.Context, kind policy.Kind, principal string, src face.Source, observe func(biometric.Status)) (biometric.Outcome, error) {
	if !policy.RequiresBiometric(kind) {
		return biometric.Outcome{}, nil
	}

	o, err := v.gate.Verify(ctx, principal, src, observe)
	if err != nil {
		v.record(ctx, audit.KindGate, principal, false, err.Error())
		return o, err
	}
	v.record(ctx, audit.KindGate, principal, o.Verified(), o.Reason.String())
	return o, nil
}
