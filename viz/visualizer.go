// Package viz - Detection overlay rendering, display window and video
// export.
//
// The Visualizer draws onto a copy of each frame so the raw frame stays
// available to the sampler. Box color encodes confidence: green for
// detections at or above the high-confidence threshold, orange for the
// rest, so a reviewer can separate solid hits from doubtful ones at a
// glance.
package viz

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/vision-ai/go-pedvision/detect"
)

// outputFourCC selects the codec for exported video. XVID pairs with
// the .avi container and is available in stock OpenCV builds.
const outputFourCC = "XVID"

// Info panel geometry, anchored to the top-left corner.
const (
	panelWidth     = 200
	panelHeight    = 60
	panelFontScale = 0.55
)

// Overlay colors. gocv maps color.RGBA onto OpenCV's BGR scalar, so
// these read in RGB order.
var (
	boxColorHigh   = color.RGBA{0, 255, 0, 0}
	boxColorLow    = color.RGBA{255, 180, 0, 0}
	labelBgHigh    = color.RGBA{0, 180, 0, 0}
	labelBgLow     = color.RGBA{200, 140, 0, 0}
	labelTextColor = color.RGBA{255, 255, 255, 0}
	panelColor     = color.RGBA{0, 0, 0, 0}
	panelTextColor = color.RGBA{0, 255, 0, 0}
)

// Config controls overlay rendering, the display window and video
// export.
type Config struct {
	// BoxThickness is the bounding box line width in pixels.
	BoxThickness int `json:"box_thickness" yaml:"box_thickness"`
	// FontScale sizes the per-detection confidence labels.
	FontScale float64 `json:"font_scale" yaml:"font_scale"`
	// HighConfidence splits green from orange boxes.
	HighConfidence float64 `json:"high_confidence" yaml:"high_confidence"`
	// ShowConfidence toggles the per-detection score labels.
	ShowConfidence bool `json:"show_confidence" yaml:"show_confidence"`
	// ShowInfoPanel toggles the FPS and count panel.
	ShowInfoPanel bool `json:"show_info_panel" yaml:"show_info_panel"`
	// PanelAlpha blends the panel over the frame, 0 transparent to 1
	// opaque.
	PanelAlpha float64 `json:"panel_alpha" yaml:"panel_alpha"`
	// Display opens an on-screen window for the annotated stream.
	Display bool `json:"display" yaml:"display"`
	// WindowTitle names the display window.
	WindowTitle string `json:"window_title" yaml:"window_title"`
	// SaveOutput enables writing the annotated stream to OutputPath.
	SaveOutput bool   `json:"save_output" yaml:"save_output"`
	OutputPath string `json:"output_path" yaml:"output_path"`
}

// DefaultConfig returns the rendering parameters used when no overrides
// are supplied.
func DefaultConfig() Config {
	return Config{
		BoxThickness:   2,
		FontScale:      0.5,
		HighConfidence: 1.0,
		ShowConfidence: true,
		ShowInfoPanel:  true,
		PanelAlpha:     0.6,
		Display:        false,
		WindowTitle:    "Yaya Tespit Sistemi",
		SaveOutput:     false,
		OutputPath:     "output/result.avi",
	}
}

// Visualizer renders detections onto frame copies and optionally
// streams the result to a video file.
type Visualizer struct {
	cfg    Config
	writer *gocv.VideoWriter
	log    *logrus.Logger
}

// NewVisualizer creates a renderer. The video writer stays idle until
// StartWriter is called.
func NewVisualizer(cfg Config, log *logrus.Logger) *Visualizer {
	return &Visualizer{cfg: cfg, log: log}
}

// Draw renders all detections plus the info panel onto a copy of frame
// and returns it. The input frame is never modified. If a video writer
// is active the rendered copy is also appended to the output file.
//
// The caller owns the returned Mat and must Close it.
func (v *Visualizer) Draw(frame gocv.Mat, detections []detect.Detection, fps float64) gocv.Mat {
	output := frame.Clone()

	for _, d := range detections {
		v.drawBox(&output, d)
	}
	if v.cfg.ShowInfoPanel {
		v.drawInfoPanel(&output, len(detections), fps)
	}

	if v.writer != nil {
		if err := v.writer.Write(output); err != nil {
			v.log.WithError(err).Warn("writing output video frame")
		}
	}
	return output
}

// StartWriter opens the video export file. The source's frame rate and
// size must be passed through unchanged or players will misreport
// duration.
func (v *Visualizer) StartWriter(path string, fps float64, size image.Point) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating output directory %s", dir)
		}
	}

	writer, err := gocv.VideoWriterFile(path, outputFourCC, fps, size.X, size.Y, true)
	if err != nil {
		return errors.Wrapf(err, "opening video writer %s", path)
	}
	if !writer.IsOpened() {
		writer.Close()
		return errors.Errorf("video writer failed to open %s", path)
	}

	v.writer = writer
	v.log.WithFields(logrus.Fields{
		"path": path,
		"fps":  fps,
	}).Info("output video writer started")
	return nil
}

// ReleaseWriter flushes and closes the export file. Safe to call when
// no writer was started; must be called before the process exits or
// the container index is left incomplete.
func (v *Visualizer) ReleaseWriter() error {
	if v.writer == nil {
		return nil
	}
	err := v.writer.Close()
	v.writer = nil
	if err != nil {
		return errors.Wrap(err, "closing video writer")
	}
	v.log.Info("output video writer closed")
	return nil
}

func (v *Visualizer) boxColors(confidence float64) (color.RGBA, color.RGBA) {
	if confidence >= v.cfg.HighConfidence {
		return boxColorHigh, labelBgHigh
	}
	return boxColorLow, labelBgLow
}

func (v *Visualizer) drawBox(frame *gocv.Mat, d detect.Detection) {
	boxColor, labelBg := v.boxColors(d.Confidence)
	gocv.Rectangle(frame, d.Rect(), boxColor, v.cfg.BoxThickness)

	if !v.cfg.ShowConfidence {
		return
	}

	label := fmt.Sprintf("Yaya %.2f", d.Confidence)
	textSize := gocv.GetTextSize(label, gocv.FontHersheySimplex, v.cfg.FontScale, 1)

	// Filled backdrop directly above the box keeps the label readable
	// on busy backgrounds.
	backdrop := image.Rect(d.X, d.Y-textSize.Y-8, d.X+textSize.X+4, d.Y)
	gocv.Rectangle(frame, backdrop, labelBg, -1)
	gocv.PutText(frame, label, image.Pt(d.X+2, d.Y-4), gocv.FontHersheySimplex, v.cfg.FontScale, labelTextColor, 1)
}

// drawInfoPanel blends a translucent status panel into the top-left
// corner showing the current rate and detection count.
func (v *Visualizer) drawInfoPanel(frame *gocv.Mat, count int, fps float64) {
	overlay := frame.Clone()
	defer overlay.Close()

	gocv.Rectangle(&overlay, image.Rect(0, 0, panelWidth, panelHeight), panelColor, -1)
	gocv.AddWeighted(overlay, v.cfg.PanelAlpha, *frame, 1-v.cfg.PanelAlpha, 0, frame)

	gocv.PutText(frame, fmt.Sprintf("FPS: %.1f", fps), image.Pt(10, 22), gocv.FontHersheySimplex, panelFontScale, panelTextColor, 1)
	gocv.PutText(frame, fmt.Sprintf("Tespit: %d", count), image.Pt(10, 48), gocv.FontHersheySimplex, panelFontScale, panelTextColor, 1)
}
