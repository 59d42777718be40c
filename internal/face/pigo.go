package face

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

// PigoDetector runs a pico cascade (facefinder) over the frame.
type PigoDetector struct {
	classifier *pigo.Pigo
	minSize    int
	quality    float32
}

// NewPigoDetector loads a cascade file such as pigo's "facefinder".
func NewPigoDetector(cascadePath string) (*PigoDetector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("read cascade: %w", err)
	}
	return NewPigoDetectorFromBytes(data)
}

func NewPigoDetectorFromBytes(cascade []byte) (d *PigoDetector, err error) {
	// Unpack indexes into the buffer without bounds checks.
	defer func() {
		if r := recover(); r != nil {
			d, err = nil, fmt.Errorf("unpack cascade: %v", r)
		}
	}()

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}

	return &PigoDetector{classifier: classifier, minSize: 40, quality: 5.0}, nil
}

func (p *PigoDetector) Detect(gray *image.Gray) []image.Rectangle {
	b := gray.Bounds()
	rows, cols := b.Dy(), b.Dx()
	if rows < p.minSize || cols < p.minSize {
		return nil
	}

	pixels := gray.Pix
	if gray.Stride != cols {
		pixels = make([]uint8, 0, rows*cols)
		for y := 0; y < rows; y++ {
			off := y * gray.Stride
			pixels = append(pixels, gray.Pix[off:off+cols]...)
		}
	}

	params := pigo.CascadeParams{
		MinSize:     p.minSize,
		MaxSize:     min(rows, cols),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := p.classifier.RunCascade(params, 0.0)
	dets = p.classifier.ClusterDetections(dets, 0.2)

	var out []image.Rectangle
	for _, d := range dets {
		if d.Q < p.quality {
			continue
		}
		half := d.Scale / 2
		r := image.Rect(d.Col-half, d.Row-half, d.Col+half, d.Row+half).Intersect(image.Rect(0, 0, cols, rows))
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}
