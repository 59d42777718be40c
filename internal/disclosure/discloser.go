// Package disclosure exposes a decrypted secret for a bounded time after a
// fresh biometric verification, then wipes it.
package disclosure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/facekeeper/internal/biometric"
	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/cryptox"
	"github.com/dmitrijs2005/facekeeper/internal/logging"
)

const DefaultMaxAge = 10 * time.Second

type Discloser struct {
	box      *cryptox.Box
	sink     Sink
	exposure time.Duration
	maxAge   time.Duration
	clock    Clock
	log      logging.Logger

	mu   sync.Mutex
	used map[string]time.Time
	open map[*Window]string
}

type Option func(*Discloser)

// WithExposure sets how long a window stays readable.
func WithExposure(d time.Duration) Option { return func(x *Discloser) { x.exposure = d } }

// WithMaxAge bounds the age of the verification a reveal may rely on.
func WithMaxAge(d time.Duration) Option { return func(x *Discloser) { x.maxAge = d } }

func WithClock(c Clock) Option { return func(x *Discloser) { x.clock = c } }

func WithLogger(l logging.Logger) Option { return func(x *Discloser) { x.log = l } }

// NewDiscloser returns a Discloser publishing to sink. A nil sink keeps the
// plaintext inside the Window only.
func NewDiscloser(box *cryptox.Box, sink Sink, opts ...Option) *Discloser {
	if sink == nil {
		sink = NopSink{}
	}
	d := &Discloser{
		box:      box,
		sink:     sink,
		exposure: common.DefaultExposure,
		maxAge:   DefaultMaxAge,
		clock:    RealClock{},
		log:      logging.Nop(),
		used:     make(map[string]time.Time),
		open:     make(map[*Window]string),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Reveal decrypts es if o is a verified outcome that is recent and has not
// been used for a previous reveal. Anything else is common.ErrNotVerified.
// The returned Window clears itself after the exposure period.
func (d *Discloser) Reveal(es cryptox.EncryptedSecret, o biometric.Outcome) (*Window, error) {
	return d.RevealTo(es, o, d.sink)
}

// RevealTo is Reveal with a sink chosen by the caller.
func (d *Discloser) RevealTo(es cryptox.EncryptedSecret, o biometric.Outcome, sink Sink) (*Window, error) {
	if sink == nil {
		sink = NopSink{}
	}
	now := d.clock.Now()

	if err := d.claim(o, now); err != nil {
		return nil, err
	}

	plain, err := d.box.Decrypt(es)
	if err != nil {
		return nil, err
	}

	buf := memguard.NewBufferFromBytes(plain)
	buf.Freeze()

	w := &Window{
		buf:       buf,
		sink:      sink,
		clock:     d.clock,
		expiresAt: now.Add(d.exposure),
		done:      make(chan struct{}),
		log:       d.log,
		onClear:   d.forget,
	}

	d.mu.Lock()
	d.open[w] = o.Principal
	d.mu.Unlock()

	if err := sink.Publish(buf.Bytes()); err != nil {
		d.forget(w)
		buf.Destroy()
		return nil, fmt.Errorf("publish secret: %w", err)
	}

	w.mu.Lock()
	w.timer = d.clock.AfterFunc(d.exposure, w.Clear)
	w.mu.Unlock()

	d.log.Info(context.Background(), "secret disclosed", "principal", o.Principal, "expires_at", w.expiresAt)
	return w, nil
}

func (d *Discloser) claim(o biometric.Outcome, now time.Time) error {
	if !o.Verified() || o.VerifiedAt.IsZero() {
		return common.ErrNotVerified
	}
	if now.Sub(o.VerifiedAt) > d.maxAge {
		return common.ErrNotVerified
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for id, at := range d.used {
		if now.Sub(at) > d.maxAge {
			delete(d.used, id)
		}
	}

	if _, seen := d.used[o.ID]; seen {
		return common.ErrNotVerified
	}
	d.used[o.ID] = o.VerifiedAt
	return nil
}

func (d *Discloser) forget(w *Window) {
	d.mu.Lock()
	delete(d.open, w)
	d.mu.Unlock()
}

// windows returns the open windows of principal, or all of them when
// principal is empty.
func (d *Discloser) windows(principal string) []*Window {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]*Window, 0, len(d.open))
	for w, p := range d.open {
		if principal == "" || p == principal {
			out = append(out, w)
		}
	}
	return out
}

// ClearFor clears every open window disclosed to principal.
func (d *Discloser) ClearFor(principal string) {
	if principal == "" {
		return
	}
	for _, w := range d.windows(principal) {
		w.Clear()
	}
}

// Close clears every open window, erasing its sink, without waiting for
// expiry. It must run before the process exits.
func (d *Discloser) Close() {
	ws := d.windows("")
	for _, w := range ws {
		w.Clear()
	}
	if len(ws) > 0 {
		d.log.Info(context.Background(), "open disclosure windows cleared", "count", len(ws))
	}
}
