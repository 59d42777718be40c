package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/facekeeper/internal/audit"
	"github.com/dmitrijs2005/facekeeper/internal/biometric"
	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/face"
	"github.com/dmitrijs2005/facekeeper/internal/otp"
	"github.com/dmitrijs2005/facekeeper/internal/policy"
)

// SecondFactor asks the user for a TOTP or backup code. It is only called
// when the principal has a registration.
type SecondFactor func(ctx context.Context) (string, error)

// LoginResult carries the gate outcome and, on success, the session token.
type LoginResult struct {
	Token   string
	Outcome biometric.Outcome
}

// Enroll stores the first frame from src that contains a face as the
// principal's reference. Replacing an existing reference requires a session
// token issued to the same principal.
func (v *Vault) Enroll(ctx context.Context, token, principal string, src face.Source) error {
	if principal == "" {
		return fmt.Errorf("%w: principal is required", common.ErrorValidation)
	}

	_, err := v.refs.Load(ctx, principal)
	switch {
	case err == nil:
		owner, err := v.principal(token)
		if err != nil || owner != principal {
			v.record(ctx, audit.KindEnroll, principal, false, "already enrolled")
			return common.ErrorUnauthorized
		}
	case errors.Is(err, common.ErrorNotFound):
	default:
		return err
	}

	release, err := v.gate.Hold()
	if err != nil {
		return err
	}
	defer release()

	capture, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := capture.Close(); err != nil {
			v.log.Warn(ctx, "close frame source", "error", err)
		}
	}()

	for i := 0; i < enrollFrames; i++ {
		frame, err := capture.Next(ctx)
		if err != nil {
			return err
		}
		if len(v.matcher.Detect(frame)) == 0 {
			continue
		}

		data, err := face.EncodeFrame(frame)
		if err != nil {
			return err
		}
		if err := v.refs.Save(ctx, principal, data); err != nil {
			return err
		}

		v.log.Info(ctx, "face enrolled", "principal", principal)
		v.record(ctx, audit.KindEnroll, principal, true, "")
		return nil
	}

	v.record(ctx, audit.KindEnroll, principal, false, "no face")
	return common.ErrNoFaceDetected
}

// ResetFace deletes the caller's reference image.
func (v *Vault) ResetFace(ctx context.Context, token string) error {
	principal, err := v.principal(token)
	if err != nil {
		return err
	}
	if err := v.refs.Delete(ctx, principal); err != nil {
		return err
	}
	v.record(ctx, audit.KindResetFace, principal, true, "")
	return nil
}

// ResetAllFaces removes every stored reference and reports how many were
// removed. It needs a valid session like ResetFace, since a principal without
// a reference can be enrolled by anyone.
func (v *Vault) ResetAllFaces(ctx context.Context, token string) (int, error) {
	principal, err := v.principal(token)
	if err != nil {
		v.record(ctx, audit.KindResetFace, "", false, "no session")
		return 0, err
	}

	n, err := v.refs.DeleteAll(ctx)
	if err != nil {
		return n, err
	}
	v.log.Warn(ctx, "all face references removed", "principal", principal, "count", n)
	v.record(ctx, audit.KindResetFace, principal, true, fmt.Sprintf("removed %d", n))
	return n, nil
}

// Login runs the biometric gate for principal and, when the principal has a
// TOTP registration, asks secondFactor for a code. A denied gate is reported
// in the result with a nil error; a rejected code is common.ErrorUnauthorized.
func (v *Vault) Login(ctx context.Context, principal string, src face.Source, observe func(biometric.Status), secondFactor SecondFactor) (*LoginResult, error) {
	o, err := v.guard(ctx, policy.Login, principal, src, observe)
	if err != nil {
		v.record(ctx, audit.KindLogin, principal, false, err.Error())
		return nil, err
	}

	res := &LoginResult{Outcome: o}
	if !o.Verified() {
		v.record(ctx, audit.KindLogin, principal, false, o.Reason.String())
		return res, nil
	}

	enabled, err := v.otp.Enabled(ctx, principal)
	if err != nil {
		return nil, err
	}
	if enabled {
		if secondFactor == nil {
			return nil, common.ErrorUnauthorized
		}
		code, err := secondFactor(ctx)
		if err != nil {
			return nil, err
		}
		ok, err := v.otp.Verify(ctx, principal, code)
		if err != nil {
			return nil, err
		}
		v.record(ctx, audit.KindSecondFactor, principal, ok, "")
		if !ok {
			v.record(ctx, audit.KindLogin, principal, false, "second factor")
			return nil, common.ErrorUnauthorized
		}
	}

	tok, err := v.sessions.Issue(principal)
	if err != nil {
		return nil, err
	}
	res.Token = tok

	v.record(ctx, audit.KindLogin, principal, true, "")
	return res, nil
}

// Logout revokes token and clears any secret still disclosed to its owner.
func (v *Vault) Logout(ctx context.Context, token string) error {
	principal, err := v.principal(token)
	if err != nil {
		return err
	}
	v.sessions.Revoke(token)
	v.discloser.ClearFor(principal)
	v.record(ctx, audit.KindLogout, principal, true, "")
	return nil
}

// SetupTOTP issues a new registration for the caller, replacing any previous
// one.
func (v *Vault) SetupTOTP(ctx context.Context, token string) (*otp.Enrollment, error) {
	principal, err := v.principal(token)
	if err != nil {
		return nil, err
	}

	e, err := v.otp.Issue(ctx, principal)
	if err != nil {
		return nil, err
	}
	v.record(ctx, audit.KindTOTPIssued, principal, true, "")
	return e, nil
}

func (v *Vault) TOTPStatus(ctx context.Context, token string) (*otp.RegistrationStatus, error) {
	principal, err := v.principal(token)
	if err != nil {
		return nil, err
	}
	return v.otp.Status(ctx, principal)
}

func (v *Vault) DisableTOTP(ctx context.Context, token string) error {
	principal, err := v.principal(token)
	if err != nil {
		return err
	}
	return v.otp.Disable(ctx, principal)
}
