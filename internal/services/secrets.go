package services

import (
	"context"

	"github.com/dmitrijs2005/facekeeper/internal/audit"
	"github.com/dmitrijs2005/facekeeper/internal/biometric"
	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/disclosure"
	"github.com/dmitrijs2005/facekeeper/internal/face"
	"github.com/dmitrijs2005/facekeeper/internal/policy"
)

// CopySecret verifies the caller's face and puts the account password on the
// clipboard for the exposure period.
func (v *Vault) CopySecret(ctx context.Context, token, accountID string, src face.Source, observe func(biometric.Status)) (*disclosure.Window, biometric.Outcome, error) {
	return v.disclose(ctx, policy.CopySecret, token, accountID, src, observe, v.clipboard)
}

// RevealSecret is CopySecret without the clipboard: the plaintext is only
// readable from the returned window.
func (v *Vault) RevealSecret(ctx context.Context, token, accountID string, src face.Source, observe func(biometric.Status)) (*disclosure.Window, biometric.Outcome, error) {
	return v.disclose(ctx, policy.RevealSecret, token, accountID, src, observe, nil)
}

func (v *Vault) disclose(ctx context.Context, kind policy.Kind, token, accountID string, src face.Source, observe func(biometric.Status), sink disclosure.Sink) (*disclosure.Window, biometric.Outcome, error) {
	principal, err := v.principal(token)
	if err != nil {
		return nil, biometric.Outcome{}, err
	}

	a, err := v.accountsRepo().Get(ctx, principal, accountID)
	if err != nil {
		return nil, biometric.Outcome{}, err
	}

	o, err := v.guard(ctx, kind, principal, src, observe)
	if err != nil {
		return nil, o, err
	}
	if !o.Verified() {
		v.record(ctx, audit.KindDisclosure, principal, false, o.Reason.String())
		return nil, o, common.ErrNotVerified
	}

	w, err := v.discloser.RevealTo(a.Password, o, sink)
	if err != nil {
		v.record(ctx, audit.KindDisclosure, principal, false, "reveal failed")
		return nil, o, err
	}

	v.record(ctx, audit.KindDisclosure, principal, true, string(kind))
	return w, o, nil
}
