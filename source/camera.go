package source

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// fallbackCameraFPS stands in when a capture driver reports no rate.
const fallbackCameraFPS = 30.0

// CameraSource reads frames from a live capture device. The stream is
// unbounded: TotalFrames reports -1.
type CameraSource struct {
	index int
	cap   *gocv.VideoCapture
	log   *logrus.Logger
}

// NewCameraSource creates an unopened camera source for a device index.
func NewCameraSource(index int, log *logrus.Logger) *CameraSource {
	return &CameraSource{index: index, log: log}
}

// Open acquires the capture device.
func (s *CameraSource) Open() error {
	cap, err := gocv.VideoCaptureDevice(s.index)
	if err != nil {
		return errors.Wrapf(err, "opening camera %d", s.index)
	}
	if !cap.IsOpened() {
		cap.Close()
		return errors.Errorf("could not open camera %d", s.index)
	}
	s.cap = cap

	s.log.WithFields(logrus.Fields{
		"index": s.index,
		"fps":   s.FPS(),
		"size":  s.FrameSize(),
	}).Info("camera opened")
	return nil
}

// Read fills dst with the next frame. False on device disconnect.
func (s *CameraSource) Read(dst *gocv.Mat) bool {
	if s.cap == nil {
		return false
	}
	return s.cap.Read(dst)
}

// Release closes the device. Safe to call twice.
func (s *CameraSource) Release() error {
	if s.cap == nil {
		return nil
	}
	err := s.cap.Close()
	s.cap = nil
	return err
}

// IsOpened reports whether the device is acquired.
func (s *CameraSource) IsOpened() bool {
	return s.cap != nil && s.cap.IsOpened()
}

// FPS is the driver's reported rate; drivers that report none get the
// fallback so downstream timing math stays sane.
func (s *CameraSource) FPS() float64 {
	if s.cap == nil {
		return fallbackCameraFPS
	}
	fps := s.cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		return fallbackCameraFPS
	}
	return fps
}

// FrameSize is the driver's reported frame dimensions.
func (s *CameraSource) FrameSize() image.Point {
	if s.cap == nil {
		return image.Point{}
	}
	return image.Pt(
		int(s.cap.Get(gocv.VideoCaptureFrameWidth)),
		int(s.cap.Get(gocv.VideoCaptureFrameHeight)),
	)
}

// TotalFrames is -1: a live stream has no known length.
func (s *CameraSource) TotalFrames() int {
	return -1
}

// Describe names the device for logs and reports.
func (s *CameraSource) Describe() string {
	return fmt.Sprintf("camera:%d", s.index)
}
