package source

import (
	"image"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// FileSource reads frames from a video container on disk.
type FileSource struct {
	path string
	cap  *gocv.VideoCapture
	log  *logrus.Logger
}

// NewFileSource creates an unopened file source.
func NewFileSource(path string, log *logrus.Logger) *FileSource {
	return &FileSource{path: path, log: log}
}

// Open validates the path and acquires the capture.
func (s *FileSource) Open() error {
	if _, err := os.Stat(s.path); err != nil {
		return errors.Wrapf(err, "video file %s", s.path)
	}

	cap, err := gocv.VideoCaptureFile(s.path)
	if err != nil {
		return errors.Wrapf(err, "opening video file %s", s.path)
	}
	if !cap.IsOpened() {
		cap.Close()
		return errors.Errorf("could not open video file %s", s.path)
	}
	s.cap = cap

	s.log.WithFields(logrus.Fields{
		"path":   s.path,
		"fps":    s.FPS(),
		"size":   s.FrameSize(),
		"frames": s.TotalFrames(),
	}).Info("video file opened")
	return nil
}

// Read fills dst with the next frame. False on end of file or a decode
// failure.
func (s *FileSource) Read(dst *gocv.Mat) bool {
	if s.cap == nil {
		return false
	}
	return s.cap.Read(dst)
}

// Release closes the capture. Safe to call twice.
func (s *FileSource) Release() error {
	if s.cap == nil {
		return nil
	}
	err := s.cap.Close()
	s.cap = nil
	return err
}

// IsOpened reports whether the capture is acquired.
func (s *FileSource) IsOpened() bool {
	return s.cap != nil && s.cap.IsOpened()
}

// FPS is the container's reported frame rate.
func (s *FileSource) FPS() float64 {
	if s.cap == nil {
		return 0
	}
	return s.cap.Get(gocv.VideoCaptureFPS)
}

// FrameSize is the container's reported frame dimensions.
func (s *FileSource) FrameSize() image.Point {
	if s.cap == nil {
		return image.Point{}
	}
	return image.Pt(
		int(s.cap.Get(gocv.VideoCaptureFrameWidth)),
		int(s.cap.Get(gocv.VideoCaptureFrameHeight)),
	)
}

// TotalFrames is the container's reported frame count.
func (s *FileSource) TotalFrames() int {
	if s.cap == nil {
		return 0
	}
	return int(s.cap.Get(gocv.VideoCaptureFrameCount))
}

// Describe returns the file path.
func (s *FileSource) Describe() string {
	return s.path
}
