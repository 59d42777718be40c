package disclosure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubClipboard(t *testing.T, initial string) *string {
	t.Helper()
	content := initial

	oldW, oldR := clipboardWriteAll, clipboardReadAll
	t.Cleanup(func() { clipboardWriteAll, clipboardReadAll = oldW, oldR })

	clipboardWriteAll = func(s string) error { content = s; return nil }
	clipboardReadAll = func() (string, error) { return content, nil }
	return &content
}

func TestClipboardSink_PublishThenErase(t *testing.T) {
	content := stubClipboard(t, "before")
	s := ClipboardSink{}

	require.NoError(t, s.Publish([]byte("pw")))
	assert.Equal(t, "pw", *content)

	require.NoError(t, s.Erase([]byte("pw")))
	assert.Equal(t, "", *content)
}

func TestClipboardSink_KeepsNewerContent(t *testing.T) {
	content := stubClipboard(t, "")
	s := ClipboardSink{}

	require.NoError(t, s.Publish([]byte("pw")))
	*content = "something the user copied"

	require.NoError(t, s.Erase([]byte("pw")))
	assert.Equal(t, "something the user copied", *content)
}

func TestClipboardSink_EraseWhenUnreadable(t *testing.T) {
	content := stubClipboard(t, "pw")
	clipboardReadAll = func() (string, error) { return "", errors.New("no read") }

	require.NoError(t, ClipboardSink{}.Erase([]byte("pw")))
	assert.Equal(t, "", *content)
}

func TestClipboardSink_PublishError(t *testing.T) {
	stubClipboard(t, "")
	clipboardWriteAll = func(string) error { return errors.New("xclip missing") }

	require.Error(t, ClipboardSink{}.Publish([]byte("pw")))
}
