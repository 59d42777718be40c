package face

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/fsnotify/fsnotify"
)

// SpoolSource treats a directory as a camera: every image file dropped into
// Dir becomes the next frame and is removed once decoded. Files present
// before Open are ignored.
type SpoolSource struct {
	Dir string
}

func (s *SpoolSource) Open(ctx context.Context) (Capture, error) {
	fi, err := os.Stat(s.Dir)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: spool dir %s", common.ErrSourceUnavailable, s.Dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSourceUnavailable, err)
	}
	if err := w.Add(s.Dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%w: watch %s: %v", common.ErrSourceUnavailable, s.Dir, err)
	}

	return &spoolCapture{watcher: w}, nil
}

type spoolCapture struct {
	watcher *fsnotify.Watcher
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func (c *spoolCapture) Next(ctx context.Context) (Frame, error) {
	for {
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()

		case ev, ok := <-c.watcher.Events:
			if !ok {
				return Frame{}, fmt.Errorf("%w: spool watcher closed", common.ErrSourceUnavailable)
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !isImageFile(ev.Name) {
				continue
			}

			data, err := os.ReadFile(ev.Name)
			if err != nil {
				continue
			}
			f := DecodeFrame(data)
			if !f.Valid() {
				// Partially written; a later Write event retries.
				continue
			}
			_ = os.Remove(ev.Name)
			return f, nil

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return Frame{}, fmt.Errorf("%w: spool watcher closed", common.ErrSourceUnavailable)
			}
			return Frame{}, fmt.Errorf("%w: %v", common.ErrSourceUnavailable, err)
		}
	}
}

func (c *spoolCapture) Close() error {
	err := c.watcher.Close()
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
