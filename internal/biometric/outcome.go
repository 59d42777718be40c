// Package biometric runs the attempt-bounded face verification protocol.
//
// A Gate owns the capture device for the length of one Run. Each attempt
// acquires a frame, checks for a face and scores it against the principal's
// reference; a score strictly above the threshold verifies. Progress is
// delivered as Status values on a channel and the run ends with an Outcome.
// Denials are outcomes, not errors.
package biometric

import (
	"time"
)

// State is a step of a gate run.
type State int

const (
	StateIdle State = iota
	StateAwaitingFrame
	StateFaceFound
	StateFaceNotFound
	StateScoring
	StateVerified
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFrame:
		return "awaiting_frame"
	case StateFaceFound:
		return "face_found"
	case StateFaceNotFound:
		return "face_not_found"
	case StateScoring:
		return "scoring"
	case StateVerified:
		return "verified"
	case StateDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Status is a progress report from a running gate.
type Status struct {
	State             State
	FaceFound         bool
	Similarity        float64
	Attempt           int
	AttemptsRemaining int
}

type Result int

const (
	Denied Result = iota
	Verified
)

func (r Result) String() string {
	if r == Verified {
		return "verified"
	}
	return "denied"
}

type Reason int

const (
	ReasonMatched Reason = iota + 1
	ReasonAttemptExhausted
	ReasonCancelled
	ReasonSourceUnavailable
)

func (r Reason) String() string {
	switch r {
	case ReasonMatched:
		return "matched"
	case ReasonAttemptExhausted:
		return "attempt_exhausted"
	case ReasonCancelled:
		return "cancelled"
	case ReasonSourceUnavailable:
		return "source_unavailable"
	default:
		return "none"
	}
}

// Outcome is the terminal result of a gate run. ID is unique per run and
// lets consumers treat a verification as single use.
type Outcome struct {
	ID         string
	Principal  string
	Result     Result
	Reason     Reason
	Attempts   int
	VerifiedAt time.Time
}

func (o Outcome) Verified() bool {
	return o.Result == Verified
}

// Message is neutral text for the user. It does not say which check failed.
func (o Outcome) Message() string {
	switch {
	case o.Verified():
		return "verified"
	case o.Reason == ReasonCancelled:
		return "verification cancelled"
	case o.Reason == ReasonSourceUnavailable:
		return "camera unavailable, try again"
	default:
		return "verification failed, try again"
	}
}
