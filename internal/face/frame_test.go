package face

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, checker(40, 30, 5)))

	f := DecodeFrame(buf.Bytes())
	require.True(t, f.Valid())
	assert.Equal(t, 40, f.Image.Bounds().Dx())

	assert.False(t, DecodeFrame([]byte("not an image")).Valid())
	assert.False(t, DecodeFrame(nil).Valid())
}

func TestEncodeFrame(t *testing.T) {
	data, err := EncodeFrame(Frame{Image: gradient(64, 48, false)})
	require.NoError(t, err)

	back := DecodeFrame(data)
	require.True(t, back.Valid())
	assert.Greater(t, NewMatcher(nil).Similarity(back, Frame{Image: gradient(64, 48, false)}), 0.95)

	_, err = EncodeFrame(Frame{})
	require.Error(t, err)
}
