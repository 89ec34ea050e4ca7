package detect

import (
	"image"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// hogGroupThreshold is the detector-side grouping threshold applied by
// OpenCV after the multi-scale scan.
const hogGroupThreshold = 2.0

// HOGOracle runs OpenCV's HOG descriptor with the built-in SVM people
// detector. The binding reports no per-window SVM weights, so scores are
// derived from silhouette size: a candidate filling a quarter of the
// frame or more scores 0.95, smaller ones scale down toward 0.75.
type HOGOracle struct {
	hog         gocv.HOGDescriptor
	initialized bool
	log         *logrus.Logger
}

// NewHOGOracle creates an uninitialized HOG oracle.
func NewHOGOracle(log *logrus.Logger) *HOGOracle {
	return &HOGOracle{log: log}
}

// Init loads the default people detector. Safe to call twice.
func (o *HOGOracle) Init() error {
	if o.initialized {
		return nil
	}
	o.hog = gocv.NewHOGDescriptor()
	if err := o.hog.SetSVMDetector(gocv.HOGDefaultPeopleDetector()); err != nil {
		return errors.Wrap(err, "loading default people detector")
	}
	o.initialized = true
	o.log.Debug("HOG oracle initialized")
	return nil
}

// Scan runs one multi-scale sliding-window pass.
func (o *HOGOracle) Scan(frame gocv.Mat, params ScanParams) ([]image.Rectangle, []float64, error) {
	if !o.initialized {
		return nil, nil, errors.New("oracle not initialized")
	}

	rects := o.hog.DetectMultiScaleWithParams(
		frame,
		params.HitThreshold,
		params.WinStride,
		params.Padding,
		params.Scale,
		hogGroupThreshold,
		false,
	)

	scores := make([]float64, len(rects))
	maxArea := float64(frame.Cols()*frame.Rows()) / 4
	for i, r := range rects {
		normalized := float64(r.Dx()*r.Dy()) / maxArea
		if normalized > 1.0 {
			normalized = 1.0
		}
		scores[i] = 0.75 + normalized*0.2
	}

	return rects, scores, nil
}

// Close releases the descriptor.
func (o *HOGOracle) Close() error {
	if !o.initialized {
		return nil
	}
	o.initialized = false
	return o.hog.Close()
}
