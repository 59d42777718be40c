package disclosure

import (
	"bytes"
	"fmt"

	"github.com/atotto/clipboard"
)

// Sink receives a plaintext for the lifetime of a window. Implementations
// must not keep a reference to the slice passed to Publish or Erase.
type Sink interface {
	Publish(secret []byte) error
	// Erase is called once at the end of the window with the same bytes.
	Erase(secret []byte) error
}

type NopSink struct{}

func (NopSink) Publish([]byte) error { return nil }
func (NopSink) Erase([]byte) error   { return nil }

// Seams for the system clipboard.
var (
	clipboardWriteAll = clipboard.WriteAll
	clipboardReadAll  = clipboard.ReadAll
)

// ClipboardSink copies the secret to the system clipboard. On erase the
// clipboard is emptied unless the user has since copied something else.
type ClipboardSink struct{}

func (ClipboardSink) Publish(secret []byte) error {
	if err := clipboardWriteAll(string(secret)); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return nil
}

func (ClipboardSink) Erase(secret []byte) error {
	current, err := clipboardReadAll()
	if err != nil {
		return clipboardWriteAll("")
	}
	if !bytes.Equal([]byte(current), secret) {
		return nil
	}
	return clipboardWriteAll("")
}
