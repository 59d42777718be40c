package biometric

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/face"
	"github.com/dmitrijs2005/facekeeper/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ReferenceStore yields the enrolled reference frame of a principal, or
// common.ErrorNotFound.
type ReferenceStore interface {
	Load(ctx context.Context, principal string) (face.Frame, error)
}

type Config struct {
	MaxAttempts int
	// Threshold is exclusive: a similarity equal to it does not verify.
	Threshold float64
	// FrameInterval is the minimum spacing between frame acquisitions.
	FrameInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: common.DefaultMaxAttempts,
		Threshold:   common.DefaultFaceThreshold,
	}
}

// Gate runs verification sessions. Only one Run may be active at a time
// because the capture device is exclusive.
type Gate struct {
	refs    ReferenceStore
	matcher face.Matcher
	cfg     Config
	log     logging.Logger
	active  chan struct{}
	now     func() time.Time
}

func NewGate(refs ReferenceStore, m face.Matcher, cfg Config, l logging.Logger) *Gate {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = common.DefaultMaxAttempts
	}
	return &Gate{
		refs:    refs,
		matcher: m,
		cfg:     cfg,
		log:     l,
		active:  make(chan struct{}, 1),
		now:     time.Now,
	}
}

// Run is one active verification session.
type Run struct {
	principal string
	status    chan Status
	cancel    context.CancelFunc
	done      chan struct{}
	outcome   Outcome
	once      sync.Once
}

// Status delivers progress in order. The channel is closed when the run ends.
func (r *Run) Status() <-chan Status { return r.status }

// Cancel stops the run at the next iteration boundary. Safe to call any
// number of times, including after the run ended.
func (r *Run) Cancel() {
	r.once.Do(r.cancel)
}

// Wait blocks until the run ends. The device is released by then.
func (r *Run) Wait() Outcome {
	<-r.done
	return r.outcome
}

// Start begins a run for principal on a worker goroutine. It fails with
// common.ErrNoEnrollment before touching src when the principal has no
// reference, and with common.ErrSessionActive while another run is active.
// Cancelling ctx cancels the run.
func (g *Gate) Start(ctx context.Context, principal string, src face.Source) (*Run, error) {
	select {
	case g.active <- struct{}{}:
	default:
		return nil, common.ErrSessionActive
	}

	ref, err := g.refs.Load(ctx, principal)
	if err != nil || !ref.Valid() {
		<-g.active
		if err == nil || errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNoEnrollment
		}
		return nil, fmt.Errorf("load reference: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &Run{
		principal: principal,
		status:    make(chan Status, 3*g.cfg.MaxAttempts+2),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	g.log.Info(ctx, "gate started", "principal", principal, "max_attempts", g.cfg.MaxAttempts)

	go func() {
		o := g.run(runCtx, r, ref, src)
		cancel()

		g.log.Info(ctx, "gate finished",
			"principal", principal, "outcome", o.ID,
			"result", o.Result.String(), "reason", o.Reason.String(), "attempts", o.Attempts)

		r.outcome = o
		close(r.status)
		<-g.active
		close(r.done)
	}()

	return r, nil
}

// Hold claims the capture device for work outside a run, such as enrollment.
// It fails with common.ErrSessionActive while a run or another hold is
// active. The returned release may be called more than once.
func (g *Gate) Hold() (release func(), err error) {
	select {
	case g.active <- struct{}{}:
	default:
		return nil, common.ErrSessionActive
	}

	var once sync.Once
	return func() { once.Do(func() { <-g.active }) }, nil
}

// Verify runs the gate to completion, calling observe on the caller's
// goroutine for every status.
func (g *Gate) Verify(ctx context.Context, principal string, src face.Source, observe func(Status)) (Outcome, error) {
	r, err := g.Start(ctx, principal, src)
	if err != nil {
		return Outcome{}, err
	}

	for s := range r.Status() {
		if observe != nil {
			observe(s)
		}
	}

	return r.Wait(), nil
}

func (g *Gate) run(ctx context.Context, r *Run, ref face.Frame, src face.Source) Outcome {
	o := Outcome{ID: uuid.NewString(), Principal: r.principal, Result: Denied}
	maxAttempts := g.cfg.MaxAttempts

	emit := func(s Status) {
		select {
		case r.status <- s:
		default:
		}
	}
	deny := func(reason Reason) Outcome {
		o.Reason = reason
		emit(Status{State: StateDenied, Attempt: o.Attempts, AttemptsRemaining: maxAttempts - o.Attempts})
		return o
	}

	if ctx.Err() != nil {
		return deny(ReasonCancelled)
	}

	capture, err := src.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return deny(ReasonCancelled)
		}
		g.log.Warn(ctx, "frame source unavailable", "principal", r.principal, "error", err)
		return deny(ReasonSourceUnavailable)
	}
	defer func() {
		if err := capture.Close(); err != nil {
			g.log.Warn(context.Background(), "close frame source", "error", err)
		}
	}()

	limit := rate.Inf
	if g.cfg.FrameInterval > 0 {
		limit = rate.Every(g.cfg.FrameInterval)
	}
	pacer := rate.NewLimiter(limit, 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return deny(ReasonCancelled)
		}

		emit(Status{State: StateAwaitingFrame, Attempt: attempt, AttemptsRemaining: maxAttempts - attempt + 1})

		if err := pacer.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return deny(ReasonCancelled)
			}
			// the deadline falls before the next frame is due
			g.log.Warn(ctx, "frame acquisition failed", "principal", r.principal, "attempt", attempt, "error", err)
			return deny(ReasonSourceUnavailable)
		}

		frame, err := capture.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return deny(ReasonCancelled)
			}
			g.log.Warn(ctx, "frame acquisition failed", "principal", r.principal, "attempt", attempt, "error", err)
			return deny(ReasonSourceUnavailable)
		}

		o.Attempts = attempt
		remaining := maxAttempts - attempt

		if len(g.matcher.Detect(frame)) == 0 {
			emit(Status{State: StateFaceNotFound, Attempt: attempt, AttemptsRemaining: remaining})
			continue
		}
		emit(Status{State: StateFaceFound, FaceFound: true, Attempt: attempt, AttemptsRemaining: remaining})

		sim := g.matcher.Similarity(frame, ref)
		g.log.Debug(ctx, "frame scored", "principal", r.principal, "attempt", attempt, "similarity", sim)

		emit(Status{State: StateScoring, FaceFound: true, Similarity: sim, Attempt: attempt, AttemptsRemaining: remaining})

		if sim > g.cfg.Threshold {
			o.Result = Verified
			o.Reason = ReasonMatched
			o.VerifiedAt = g.now()
			emit(Status{State: StateVerified, FaceFound: true, Similarity: sim, Attempt: attempt, AttemptsRemaining: remaining})
			return o
		}
	}

	return deny(ReasonAttemptExhausted)
}
