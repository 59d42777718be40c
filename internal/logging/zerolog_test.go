package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestZerologLogger_FieldsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Error(ctx, "err", "b", "two")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "dbg", lines[0]["message"])
	assert.EqualValues(t, 1, lines[0]["a"])
	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "two", lines[1]["b"])
}

func TestZerologLogger_WithAndBadKey(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf)).With("principal", "bob")

	log.Warn(context.Background(), "odd", "dangling")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "bob", lines[0]["principal"])
	assert.Equal(t, "dangling", lines[0]["!BADKEY"])
}

func TestNew_ZerologFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(FormatZerolog, "error", &buf)

	log.Info(context.Background(), "skip")
	log.Error(context.Background(), "keep")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "keep", lines[0]["message"])
}

func TestZerologLogger_RedactsSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf))

	log.With("secret_key", "s3cr3t").Info(context.Background(), "dial", "backup_code", "ABCD-EFGH", "bucket", "vault")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "[REDACTED]", lines[0]["secret_key"])
	assert.Equal(t, "[REDACTED]", lines[0]["backup_code"])
	assert.Equal(t, "vault", lines[0]["bucket"])
}
