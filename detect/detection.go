// Package detect - Pedestrian candidate generation and filtering.
//
// The package splits detection into two halves: a Detector that asks an
// Oracle (HOG or ONNX backed) for raw candidate windows, and a
// Postprocessor that filters the merged candidates down to plausible,
// non-overlapping pedestrians. The Detector optimizes for recall, the
// Postprocessor for precision.
package detect

import (
	"fmt"
	"image"
)

// Detection is a single candidate bounding box with its raw confidence
// score. Coordinates are pixels, origin top-left. Confidence is on the
// classifier's own scale, not a probability. Values are never mutated
// after creation, only replaced by rescaled copies.
type Detection struct {
	X          int
	Y          int
	W          int
	H          int
	Confidence float64
}

// NewDetection creates a Detection from a bounding box and score.
func NewDetection(x, y, w, h int, confidence float64) Detection {
	return Detection{X: x, Y: y, W: w, H: h, Confidence: confidence}
}

// Area returns the box area in pixels.
func (d Detection) Area() int {
	return d.W * d.H
}

// Center returns the box center point.
func (d Detection) Center() image.Point {
	return image.Pt(d.X+d.W/2, d.Y+d.H/2)
}

// Rect returns the box as an image.Rectangle for drawing calls.
func (d Detection) Rect() image.Rectangle {
	return image.Rect(d.X, d.Y, d.X+d.W, d.Y+d.H)
}

// Scale returns a copy with every coordinate and dimension divided by
// factor. A detection found on a frame shrunk by factor f maps back to
// the original frame via Scale(f).
//
// Arguments:
//   - factor: The scale factor relating the measured frame to the target
//     frame; must be non-zero.
//
// Returns:
//   - Detection: The rescaled copy. Confidence is unchanged.
func (d Detection) Scale(factor float64) Detection {
	return Detection{
		X:          int(float64(d.X) / factor),
		Y:          int(float64(d.Y) / factor),
		W:          int(float64(d.W) / factor),
		H:          int(float64(d.H) / factor),
		Confidence: d.Confidence,
	}
}

// IoU returns the Intersection-over-Union of two axis-aligned boxes.
// Disjoint boxes yield 0, as does a degenerate union.
func (d Detection) IoU(other Detection) float64 {
	x1 := max(d.X, other.X)
	y1 := max(d.Y, other.Y)
	x2 := min(d.X+d.W, other.X+other.W)
	y2 := min(d.Y+d.H, other.Y+other.H)

	iw := x2 - x1
	ih := y2 - y1
	if iw <= 0 || ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := d.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// String implements fmt.Stringer.
func (d Detection) String() string {
	return fmt.Sprintf("Detection(%d,%d %dx%d conf=%.2f)", d.X, d.Y, d.W, d.H, d.Confidence)
}
