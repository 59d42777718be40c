//go:build !opencv

package face

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/facekeeper/internal/common"
)

// CameraSource is a webcam. This build has no capture backend.
type CameraSource struct {
	DeviceID int
}

func (s *CameraSource) Open(ctx context.Context) (Capture, error) {
	return nil, fmt.Errorf("%w: camera %d: built without opencv support", common.ErrSourceUnavailable, s.DeviceID)
}

// NewDetector loads a pico cascade for PigoDetector.
func NewDetector(cascadePath string) (Detector, error) {
	return NewPigoDetector(cascadePath)
}
