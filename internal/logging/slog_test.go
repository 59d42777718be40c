package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG", "msg=dbg", "a=1",
		"level=INFO", "msg=inf", "b=2",
		"level=WARN", "msg=wrn", "c=3",
		"level=ERROR", "msg=err", "d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("principal", "alice", "run", "r1").Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	for _, want := range []string{"msg=hello", "principal=alice", "run=r1", "k=v"} {
		assert.Contains(t, out, want)
	}
}

func TestNew_TextHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(FormatText, "warn", &buf)

	log.Info(context.Background(), "quiet")
	log.Warn(context.Background(), "loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNew_UnknownFormatIsJSON(t *testing.T) {
	var buf bytes.Buffer
	New(Format("xml"), "", &buf).Info(context.Background(), "hi", "k", 1)

	assert.Contains(t, buf.String(), `"msg":"hi"`)
	assert.Contains(t, buf.String(), `"k":1`)
}

func TestNop_Discards(t *testing.T) {
	log := Nop()
	log.With("a", 1).Error(context.Background(), "nothing")
}

func TestSlogLogger_RedactsSensitiveKeys(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	args := []any{"principal", "alice", "password", "hunter2"}
	log.Info(ctx, "login", args...)
	log.With("Token", "abc.def").Warn(ctx, "expired")

	out := buf.String()
	assert.Contains(t, out, "principal=alice")
	assert.Contains(t, out, "password=[REDACTED]")
	assert.Contains(t, out, "Token=[REDACTED]")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "abc.def")
	assert.Equal(t, "hunter2", args[3])
}
