package face

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticSource_ReplaysThenUnavailable(t *testing.T) {
	src := &StaticSource{Frames: []Frame{{Image: checker(10, 10, 2)}, {}}}
	ctx := context.Background()

	c, err := src.Open(ctx)
	require.NoError(t, err)

	f, err := c.Next(ctx)
	require.NoError(t, err)
	assert.True(t, f.Valid())

	f, err = c.Next(ctx)
	require.NoError(t, err)
	assert.False(t, f.Valid())

	_, err = c.Next(ctx)
	require.ErrorIs(t, err, common.ErrSourceUnavailable)

	require.NoError(t, c.Close())
}

func TestStaticSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&StaticSource{}).Open(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSpoolSource_MissingDir(t *testing.T) {
	_, err := (&SpoolSource{Dir: filepath.Join(t.TempDir(), "absent")}).Open(context.Background())
	require.ErrorIs(t, err, common.ErrSourceUnavailable)
}

func TestSpoolSource_DeliversDroppedImage(t *testing.T) {
	spool := t.TempDir()
	staging := t.TempDir()

	c, err := (&SpoolSource{Dir: spool}).Open(context.Background())
	require.NoError(t, err)
	defer c.Close()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, checker(32, 32, 4)))
	tmp := filepath.Join(staging, "frame.png")
	require.NoError(t, os.WriteFile(tmp, buf.Bytes(), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(spool, "notes.txt"), []byte("ignored"), 0o600))
	require.NoError(t, os.Rename(tmp, filepath.Join(spool, "frame.png")))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	f, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 32, f.Image.Bounds().Dx())

	_, err = os.Stat(filepath.Join(spool, "frame.png"))
	assert.True(t, os.IsNotExist(err), "consumed frame is removed")
}

func TestSpoolSource_ContextEnds(t *testing.T) {
	c, err := (&SpoolSource{Dir: t.TempDir()}).Open(context.Background())
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCameraSource_WithoutBackend(t *testing.T) {
	c, err := (&CameraSource{DeviceID: 99}).Open(context.Background())
	if err == nil {
		_ = c.Close()
		t.Skip("a camera is attached")
	}
	require.ErrorIs(t, err, common.ErrSourceUnavailable)
}
