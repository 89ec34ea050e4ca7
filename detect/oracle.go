package detect

import (
	"image"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Oracle is the opaque classifier boundary. An implementation consumes a
// frame plus scan parameters and returns parallel slices of candidate
// boxes and raw scores. Internal algorithm and score scale are
// implementation details; callers only rely on the parallel-slice
// contract.
type Oracle interface {
	// Init prepares the classifier. Must be called once before Scan.
	Init() error
	// Scan runs one detection pass over the frame.
	Scan(frame gocv.Mat, params ScanParams) ([]image.Rectangle, []float64, error)
	// Close releases classifier resources.
	Close() error
}

// NewOracle builds the classifier selected by kind. An empty kind
// defaults to the HOG detector, which needs no model file.
func NewOracle(kind string, opts ONNXOptions, log *logrus.Logger) (Oracle, error) {
	switch kind {
	case "", "hog":
		return NewHOGOracle(log), nil
	case "onnx":
		return NewONNXOracle(opts, log), nil
	default:
		return nil, errors.Errorf("unknown detector %q (want hog or onnx)", kind)
	}
}
