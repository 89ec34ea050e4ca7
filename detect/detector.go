package detect

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Detector asks the oracle for raw candidate windows and merges the
// passes. It deliberately does not deduplicate: overlapping candidates
// from the two passes are handed to the Postprocessor as-is, whose
// suppression stage owns deduplication. The only filtering here is a
// cheap minimum-size rejection before the expensive filter chain.
type Detector struct {
	cfg         Config
	oracle      Oracle
	log         *logrus.Logger
	initialized bool
}

// NewDetector creates a detector around the given oracle.
func NewDetector(cfg Config, oracle Oracle, log *logrus.Logger) *Detector {
	return &Detector{cfg: cfg, oracle: oracle, log: log}
}

// Initialize prepares the oracle. Idempotent; must be called before the
// first Detect.
func (d *Detector) Initialize() error {
	if d.initialized {
		return nil
	}
	if err := d.oracle.Init(); err != nil {
		return errors.Wrap(err, "initializing oracle")
	}
	d.initialized = true
	return nil
}

// Detect returns the merged raw candidates for one frame.
//
// Arguments:
//   - frame: The preprocessed frame to scan. Coordinates in the result
//     are relative to this frame.
//
// Returns:
//   - []Detection: Primary-pass candidates, followed by second-pass
//     candidates when multi-pass is enabled. May contain duplicates.
//   - error: "detector not initialized" when called before Initialize,
//     or an oracle failure.
func (d *Detector) Detect(frame gocv.Mat) ([]Detection, error) {
	if !d.initialized {
		return nil, errors.New("detector not initialized")
	}

	detections, err := d.scanPass(frame, d.cfg.Primary, "primary")
	if err != nil {
		return nil, err
	}

	if d.cfg.MultiPass {
		second, err := d.scanPass(frame, d.cfg.Secondary, "secondary")
		if err != nil {
			return nil, err
		}
		detections = append(detections, second...)
	}

	return detections, nil
}

// scanPass runs one oracle pass and drops candidates below the minimum
// size.
func (d *Detector) scanPass(frame gocv.Mat, params ScanParams, name string) ([]Detection, error) {
	rects, scores, err := d.oracle.Scan(frame, params)
	if err != nil {
		return nil, errors.Wrapf(err, "%s scan", name)
	}

	detections := make([]Detection, 0, len(rects))
	for i, r := range rects {
		w, h := r.Dx(), r.Dy()
		if w < d.cfg.MinSize.X || h < d.cfg.MinSize.Y {
			continue
		}
		detections = append(detections, NewDetection(r.Min.X, r.Min.Y, w, h, scores[i]))
	}

	d.log.WithFields(logrus.Fields{
		"pass":       name,
		"raw":        len(rects),
		"candidates": len(detections),
	}).Debug("scan pass complete")

	return detections, nil
}

// Close releases the oracle.
func (d *Detector) Close() error {
	if !d.initialized {
		return nil
	}
	d.initialized = false
	return d.oracle.Close()
}
