// Package source - Video stream acquisition.
//
// A Source hides whether frames come from a container file or a live
// camera behind one read contract: Open may fail hard, Read reports
// false on exhaustion or any mid-stream failure, Release is safe to call
// on every exit path.
package source

import (
	"image"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Kind selects a source implementation. The set is closed: adding a new
// kind means extending the factory switch.
type Kind int

const (
	// KindFile reads a video container from disk.
	KindFile Kind = iota
	// KindCamera reads a capture device.
	KindCamera
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindCamera:
		return "camera"
	default:
		return "unknown"
	}
}

// ParseKind maps a CLI source name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "file":
		return KindFile, nil
	case "camera":
		return KindCamera, nil
	default:
		return 0, errors.Errorf("unknown source %q (want file or camera)", name)
	}
}

// Source is the acquisition boundary shared by file- and camera-backed
// streams.
type Source interface {
	// Open acquires the stream. Failure here is a hard error.
	Open() error
	// Read fills dst with the next frame. False means exhaustion or a
	// mid-stream failure; both end the run gracefully.
	Read(dst *gocv.Mat) bool
	// Release frees the stream. Idempotent.
	Release() error
	// IsOpened reports whether the stream is acquired.
	IsOpened() bool
	// FPS is the stream's reported frame rate.
	FPS() float64
	// FrameSize is the stream's reported width and height.
	FrameSize() image.Point
	// TotalFrames is the container frame count, -1 when unbounded.
	TotalFrames() int
	// Describe names the stream for logs and reports.
	Describe() string
}

// New constructs a source for the given kind.
//
// Arguments:
//   - kind: File or camera.
//   - path: Video file path; required for KindFile, ignored otherwise.
//   - index: Capture device index; used by KindCamera only.
//   - log: Run logger.
//
// Returns:
//   - Source: The unopened source.
//   - error: Missing path or unknown kind.
func New(kind Kind, path string, index int, log *logrus.Logger) (Source, error) {
	switch kind {
	case KindFile:
		if path == "" {
			return nil, errors.New("file source requires a path")
		}
		return NewFileSource(path, log), nil
	case KindCamera:
		return NewCameraSource(index, log), nil
	default:
		return nil, errors.Errorf("unknown source kind %d", kind)
	}
}
