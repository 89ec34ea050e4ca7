package detect

import "image"

// ScanParams hold one pass of sliding-window scan parameters handed to
// the oracle.
type ScanParams struct {
	// WinStride is the window step in pixels for the sliding scan.
	WinStride image.Point `json:"win_stride" yaml:"win_stride"`
	// Padding is added around each scan window before classification.
	Padding image.Point `json:"padding" yaml:"padding"`
	// Scale is the image pyramid step between scan levels.
	Scale float64 `json:"scale" yaml:"scale"`
	// HitThreshold is the classifier decision threshold for a window.
	HitThreshold float64 `json:"hit_threshold" yaml:"hit_threshold"`
}

// Config bundles every detection and filtering parameter. It is read-only
// for the lifetime of a pipeline run.
type Config struct {
	// Primary is the scan parameter set used on every frame.
	Primary ScanParams `json:"primary" yaml:"primary"`
	// MultiPass enables a second, denser scan whose raw candidates are
	// concatenated with the first pass before filtering.
	MultiPass bool `json:"multi_pass" yaml:"multi_pass"`
	// Secondary is the denser parameter set used when MultiPass is on.
	Secondary ScanParams `json:"secondary" yaml:"secondary"`

	// ConfidenceThreshold is the post-filter score floor.
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// NMSThreshold is the IoU above which an overlapping box is suppressed.
	NMSThreshold float64 `json:"nms_threshold" yaml:"nms_threshold"`

	// MinSize rejects candidates narrower or shorter than this (w, h).
	MinSize image.Point `json:"min_size" yaml:"min_size"`
	// MaxSize rejects candidates wider or taller than this (w, h).
	MaxSize image.Point `json:"max_size" yaml:"max_size"`
	// MinAspect and MaxAspect bound the height/width ratio of a
	// plausible pedestrian silhouette.
	MinAspect float64 `json:"min_aspect" yaml:"min_aspect"`
	MaxAspect float64 `json:"max_aspect" yaml:"max_aspect"`
}

// DefaultConfig returns the detection parameters tuned for street-level
// pedestrian footage.
func DefaultConfig() Config {
	return Config{
		Primary: ScanParams{
			WinStride:    image.Pt(8, 8),
			Padding:      image.Pt(8, 8),
			Scale:        1.03,
			HitThreshold: 0.5,
		},
		MultiPass: false,
		Secondary: ScanParams{
			WinStride:    image.Pt(4, 4),
			Padding:      image.Pt(16, 16),
			Scale:        1.02,
			HitThreshold: 0.3,
		},
		ConfidenceThreshold: 0.5,
		NMSThreshold:        0.4,
		MinSize:             image.Pt(40, 80),
		MaxSize:             image.Pt(200, 400),
		MinAspect:           1.3,
		MaxAspect:           3.5,
	}
}
