package disclosure

import (
	"context"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/facekeeper/internal/logging"
)

// Window is a time-limited view of one plaintext. The plaintext lives in
// locked memory and is destroyed on Clear, whichever of expiry or an explicit
// call comes first.
type Window struct {
	mu        sync.Mutex
	buf       *memguard.LockedBuffer
	sink      Sink
	clock     Clock
	timer     Timer
	expiresAt time.Time
	cleared   bool
	done      chan struct{}
	log       logging.Logger
	onClear   func(*Window)
}

// Read returns the plaintext, or false once the window is cleared or past
// ExpiresAt. An expired window is cleared even if its timer has not fired.
func (w *Window) Read() (string, bool) {
	w.mu.Lock()
	if w.cleared {
		w.mu.Unlock()
		return "", false
	}
	if w.clock != nil && !w.clock.Now().Before(w.expiresAt) {
		w.mu.Unlock()
		w.Clear()
		return "", false
	}
	defer w.mu.Unlock()
	return string(w.buf.Bytes()), true
}

func (w *Window) ExpiresAt() time.Time {
	return w.expiresAt
}

// Done is closed when the window has been cleared.
func (w *Window) Done() <-chan struct{} {
	return w.done
}

// Clear erases the sink and wipes the plaintext. Safe to call repeatedly.
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cleared {
		return
	}
	w.cleared = true

	if w.timer != nil {
		w.timer.Stop()
	}
	if err := w.sink.Erase(w.buf.Bytes()); err != nil {
		w.log.Warn(context.Background(), "sink erase failed", "error", err)
	}
	w.buf.Destroy()
	close(w.done)

	if w.onClear != nil {
		w.onClear(w)
	}
}
