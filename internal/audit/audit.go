// Package audit records security-relevant vault events. Events carry who did
// what and whether it worked, never secret material.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/logging"
)

type Kind string

const (
	KindEnroll        Kind = "face.enroll"
	KindResetFace     Kind = "face.reset"
	KindGate          Kind = "gate.verify"
	KindLogin         Kind = "session.login"
	KindLogout        Kind = "session.logout"
	KindSecondFactor  Kind = "totp.verify"
	KindTOTPIssued    Kind = "totp.issue"
	KindDisclosure    Kind = "secret.disclose"
	KindAccountChange Kind = "account.change"
)

type Event struct {
	Time      time.Time `json:"time"`
	Kind      Kind      `json:"kind"`
	Principal string    `json:"principal,omitempty"`
	Success   bool      `json:"success"`
	Reason    string    `json:"reason,omitempty"`
}

type Sink interface {
	Record(ctx context.Context, e Event) error
}

// LogSink writes events through the application logger.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(l logging.Logger) *LogSink {
	return &LogSink{log: l.With("component", "audit")}
}

func (s *LogSink) Record(ctx context.Context, e Event) error {
	args := []any{"kind", string(e.Kind), "principal", e.Principal, "success", e.Success}
	if e.Reason != "" {
		args = append(args, "reason", e.Reason)
	}
	if e.Success {
		s.log.Info(ctx, "audit", args...)
	} else {
		s.log.Warn(ctx, "audit", args...)
	}
	return nil
}

// Multi records to every sink and joins their errors.
type Multi []Sink

func (m Multi) Record(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }
