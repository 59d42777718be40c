package face

import (
	"errors"
	"image"
	"math"
)

// compareSize is the edge of the square both frames are reduced to before
// correlation.
const compareSize = 96

var errMalformedFrame = errors.New("malformed frame")

// Detector finds face regions in a grayscale image.
type Detector interface {
	Detect(gray *image.Gray) []image.Rectangle
}

// Matcher is what the biometric gate consumes.
type Matcher interface {
	// Detect returns face regions, empty for no face or a malformed frame.
	Detect(f Frame) []image.Rectangle
	// Similarity scores a against b in [0, 1].
	Similarity(a, b Frame) float64
}

// CorrelationMatcher pairs a Detector with zero-offset normalized
// cross-correlation.
type CorrelationMatcher struct {
	detector Detector
}

func NewMatcher(d Detector) *CorrelationMatcher {
	return &CorrelationMatcher{detector: d}
}

func (m *CorrelationMatcher) Detect(f Frame) []image.Rectangle {
	if !f.Valid() || m.detector == nil {
		return nil
	}
	return m.detector.Detect(grayscale(f.Image))
}

// Similarity returns the Pearson correlation of the two frames after both
// are reduced to 96×96 grayscale. Negative correlation, a malformed frame or
// a flat image score 0.
func (m *CorrelationMatcher) Similarity(a, b Frame) float64 {
	if !a.Valid() || !b.Valid() {
		return 0
	}
	return correlate(downscale(a.Image, compareSize), downscale(b.Image, compareSize))
}

func correlate(a, b *image.Gray) float64 {
	n := len(a.Pix)
	if n == 0 || n != len(b.Pix) {
		return 0
	}

	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += float64(a.Pix[i])
		sumB += float64(b.Pix[i])
	}
	meanA := sumA / float64(n)
	meanB := sumB / float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := float64(a.Pix[i]) - meanA
		db := float64(b.Pix[i]) - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	if varA == 0 || varB == 0 {
		return 0
	}

	r := cov / math.Sqrt(varA*varB)
	switch {
	case r < 0 || math.IsNaN(r):
		return 0
	case r > 1:
		return 1
	}
	return r
}
