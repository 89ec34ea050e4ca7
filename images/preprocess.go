// Package images - Frame conditioning ahead of detection.
//
// The Preprocessor shrinks, denoises, contrast-enhances and sharpens each
// frame in a fixed order. Resizing runs first so the more expensive steps
// operate on the smaller image; the applied scale factor is retained so
// later stages can map detection coordinates back to the original frame.
package images

import (
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Config controls the preprocessing steps. Each enhancement step has its
// own enable flag; resizing is governed solely by TargetWidth.
type Config struct {
	// TargetWidth shrinks wider frames down to this width, preserving
	// aspect ratio. Frames at or below it pass through untouched.
	TargetWidth int `json:"target_width" yaml:"target_width"`

	// EnableDenoise applies a small Gaussian blur.
	EnableDenoise bool `json:"enable_denoise" yaml:"enable_denoise"`
	// DenoiseKernel is the blur kernel size, forced to the nearest odd
	// value at or above it.
	DenoiseKernel int `json:"denoise_kernel" yaml:"denoise_kernel"`

	// EnableCLAHE applies tile-local contrast enhancement to the
	// luminance channel only.
	EnableCLAHE bool `json:"enable_clahe" yaml:"enable_clahe"`
	// CLAHEClipLimit bounds per-tile histogram clipping.
	CLAHEClipLimit float64 `json:"clahe_clip_limit" yaml:"clahe_clip_limit"`
	// CLAHETileGrid is the tile layout for local equalization.
	CLAHETileGrid image.Point `json:"clahe_tile_grid" yaml:"clahe_tile_grid"`

	// EnableSharpen applies the unsharp 3x3 convolution.
	EnableSharpen bool `json:"enable_sharpen" yaml:"enable_sharpen"`
	// SharpenStrength interpolates between identity (0) and the full
	// edge-enhancing kernel (1).
	SharpenStrength float64 `json:"sharpen_strength" yaml:"sharpen_strength"`

	// Grayscale converts the conditioned frame to single-channel as the
	// final step.
	Grayscale bool `json:"grayscale" yaml:"grayscale"`
}

// DefaultConfig returns the conditioning parameters tuned for street
// footage.
func DefaultConfig() Config {
	return Config{
		TargetWidth:     640,
		EnableDenoise:   true,
		DenoiseKernel:   3,
		EnableCLAHE:     true,
		CLAHEClipLimit:  2.5,
		CLAHETileGrid:   image.Pt(8, 8),
		EnableSharpen:   true,
		SharpenStrength: 0.5,
		Grayscale:       false,
	}
}

// Preprocessor conditions frames for detection. Stateless across calls
// except for the last-computed scale factor.
type Preprocessor struct {
	cfg         Config
	scaleFactor float64
	log         *logrus.Logger
}

// NewPreprocessor creates a preprocessor for the given config.
func NewPreprocessor(cfg Config, log *logrus.Logger) *Preprocessor {
	return &Preprocessor{cfg: cfg, scaleFactor: 1.0, log: log}
}

// ScaleFactor returns the factor applied by the most recent Process
// call: processed width / original width, 1.0 when no resize happened.
func (p *Preprocessor) ScaleFactor() float64 {
	return p.scaleFactor
}

// Process conditions one frame and returns a new Mat owned by the
// caller. The input frame is never modified.
func (p *Preprocessor) Process(frame gocv.Mat) gocv.Mat {
	work := p.resize(frame)
	if p.cfg.EnableDenoise {
		work = p.denoise(work)
	}
	if p.cfg.EnableCLAHE {
		work = p.enhanceContrast(work)
	}
	if p.cfg.EnableSharpen {
		work = p.sharpen(work)
	}
	if p.cfg.Grayscale {
		work = p.toGrayscale(work)
	}
	return work
}

// resize shrinks the frame to the target width and records the scale
// factor. Always returns a fresh Mat.
func (p *Preprocessor) resize(frame gocv.Mat) gocv.Mat {
	width := frame.Cols()
	if p.cfg.TargetWidth <= 0 || width <= p.cfg.TargetWidth {
		p.scaleFactor = 1.0
		return frame.Clone()
	}

	p.scaleFactor = float64(p.cfg.TargetWidth) / float64(width)
	height := int(float64(frame.Rows()) * p.scaleFactor)

	dst := gocv.NewMat()
	gocv.Resize(frame, &dst, image.Pt(p.cfg.TargetWidth, height), 0, 0, gocv.InterpolationArea)
	return dst
}

func (p *Preprocessor) denoise(src gocv.Mat) gocv.Mat {
	k := p.cfg.DenoiseKernel
	if k%2 == 0 {
		k++
	}
	if k < 1 {
		k = 1
	}

	dst := gocv.NewMat()
	gocv.GaussianBlur(src, &dst, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	src.Close()
	return dst
}

// enhanceContrast runs CLAHE on the L channel of LAB so chrominance is
// untouched and colors do not shift.
func (p *Preprocessor) enhanceContrast(src gocv.Mat) gocv.Mat {
	lab := gocv.NewMat()
	gocv.CvtColor(src, &lab, gocv.ColorBGRToLab)
	src.Close()

	channels := gocv.Split(lab)
	lab.Close()

	clahe := gocv.NewCLAHEWithParams(p.cfg.CLAHEClipLimit, p.cfg.CLAHETileGrid)
	luminance := gocv.NewMat()
	clahe.Apply(channels[0], &luminance)
	clahe.Close()
	channels[0].Close()

	merged := gocv.NewMat()
	gocv.Merge([]gocv.Mat{luminance, channels[1], channels[2]}, &merged)
	luminance.Close()
	channels[1].Close()
	channels[2].Close()

	dst := gocv.NewMat()
	gocv.CvtColor(merged, &dst, gocv.ColorLabToBGR)
	merged.Close()
	return dst
}

func (p *Preprocessor) sharpen(src gocv.Mat) gocv.Mat {
	kernel := SharpenKernel(float32(p.cfg.SharpenStrength))
	defer kernel.Close()

	dst := gocv.NewMat()
	gocv.Filter2D(src, &dst, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)
	src.Close()
	return dst
}

func (p *Preprocessor) toGrayscale(src gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	src.Close()
	return dst
}
