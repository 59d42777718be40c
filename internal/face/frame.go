package face

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Frame is one still image from a frame source. A Frame with a nil Image is
// malformed and never contains a face.
type Frame struct {
	Image image.Image
}

// Valid reports whether the frame carries a non-empty image.
func (f Frame) Valid() bool {
	return f.Image != nil && !f.Image.Bounds().Empty()
}

// DecodeFrame decodes JPEG or PNG bytes. Undecodable input yields a malformed
// Frame rather than an error.
func DecodeFrame(data []byte) Frame {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}
	}
	return Frame{Image: img}
}

// EncodeFrame serialises a frame as JPEG, the on-disk reference format.
func EncodeFrame(f Frame) ([]byte, error) {
	if !f.Valid() {
		return nil, errMalformedFrame
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.Image, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// grayscale converts img to an *image.Gray anchored at the origin.
func grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) && g.Stride == b.Dx() {
		return g
	}
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// downscale reduces img to a size×size grayscale image.
func downscale(img image.Image, size int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
