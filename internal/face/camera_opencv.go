//go:build opencv

package face

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmitrijs2005/facekeeper/internal/common"
	"gocv.io/x/gocv"
)

// CameraSource is a webcam read through OpenCV.
type CameraSource struct {
	DeviceID int
}

func (s *CameraSource) Open(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vc, err := gocv.OpenVideoCapture(s.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: camera %d: %v", common.ErrSourceUnavailable, s.DeviceID, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("%w: camera %d not opened", common.ErrSourceUnavailable, s.DeviceID)
	}

	return &cameraCapture{vc: vc}, nil
}

type cameraCapture struct {
	mu sync.Mutex
	vc *gocv.VideoCapture
}

func (c *cameraCapture) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := c.vc.Read(&mat); !ok || mat.Empty() {
		return Frame{}, fmt.Errorf("%w: camera read failed", common.ErrSourceUnavailable)
	}

	img, err := mat.ToImage()
	if err != nil {
		// A frame that cannot be converted is malformed, not a dead device.
		return Frame{}, nil
	}
	return Frame{Image: img}, nil
}

func (c *cameraCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vc.Close()
}

// CascadeDetector runs an OpenCV Haar cascade.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

func NewCascadeDetector(path string) (*CascadeDetector, error) {
	cc := gocv.NewCascadeClassifier()
	if !cc.Load(path) {
		_ = cc.Close()
		return nil, fmt.Errorf("load cascade %s", path)
	}
	return &CascadeDetector{classifier: cc}, nil
}

func (d *CascadeDetector) Detect(gray *image.Gray) []image.Rectangle {
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil
	}
	defer mat.Close()

	eq := gocv.NewMat()
	defer eq.Close()
	gocv.EqualizeHist(mat, &eq)

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.DetectMultiScaleWithParams(eq, 1.1, 5, 0, image.Pt(30, 30), image.Pt(0, 0))
}

func (d *CascadeDetector) Close() error {
	return d.classifier.Close()
}

// NewDetector picks the Haar cascade for .xml files and pico otherwise.
func NewDetector(cascadePath string) (Detector, error) {
	if strings.EqualFold(filepath.Ext(cascadePath), ".xml") {
		return NewCascadeDetector(cascadePath)
	}
	return NewPigoDetector(cascadePath)
}
