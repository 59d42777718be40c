package face

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/facekeeper/internal/common"
)

// Source opens an exclusive frame capture, typically a camera.
type Source interface {
	// Open acquires the device. A missing or busy device is reported as
	// common.ErrSourceUnavailable.
	Open(ctx context.Context) (Capture, error)
}

// Capture is an open device. Close releases it and must be called exactly
// once by whoever called Open.
type Capture interface {
	// Next blocks until a frame is available, the context ends, or the
	// device fails with common.ErrSourceUnavailable.
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// StaticSource replays a fixed list of frames. Each Open starts from the
// first frame; once the list is exhausted Next reports the source as
// unavailable.
type StaticSource struct {
	Frames []Frame
}

func (s *StaticSource) Open(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &staticCapture{frames: s.Frames}, nil
}

type staticCapture struct {
	mu     sync.Mutex
	frames []Frame
	pos    int
	closed bool
}

func (c *staticCapture) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Frame{}, fmt.Errorf("%w: capture closed", common.ErrSourceUnavailable)
	}
	if c.pos >= len(c.frames) {
		return Frame{}, fmt.Errorf("%w: no more frames", common.ErrSourceUnavailable)
	}

	f := c.frames[c.pos]
	c.pos++
	return f, nil
}

func (c *staticCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
