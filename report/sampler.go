package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/vision-ai/go-pedvision/detect"
	"github.com/vision-ai/go-pedvision/images"
)

// sampleJPEGQuality is the encode quality for saved sample frames.
const sampleJPEGQuality = 90

// rawSubdir and thumbSubdir live under the sample output directory.
const (
	rawSubdir   = "raw"
	thumbSubdir = "thumbs"
)

// SamplerConfig controls which detection frames get persisted to disk.
type SamplerConfig struct {
	// OutputDir receives annotated sample frames.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// SampleInterval saves every Nth frame that carries detections.
	// Values below 1 are treated as 1.
	SampleInterval int `json:"sample_interval" yaml:"sample_interval"`
	// HighConfidence saves any frame whose best detection reaches this
	// score, regardless of the interval. 0 disables the override.
	HighConfidence float64 `json:"high_confidence" yaml:"high_confidence"`
	// SaveRaw mirrors each saved frame without annotations under raw/.
	SaveRaw bool `json:"save_raw" yaml:"save_raw"`
	// ThumbnailWidth writes a downscaled preview of each saved frame
	// under thumbs/. 0 disables thumbnails.
	ThumbnailWidth int `json:"thumbnail_width" yaml:"thumbnail_width"`
}

// DefaultSamplerConfig returns the sampling parameters used when no
// overrides are supplied.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		OutputDir:      "output/samples",
		SampleInterval: 10,
		HighConfidence: 1.5,
		SaveRaw:        false,
		ThumbnailWidth: 320,
	}
}

// Sampler periodically saves frames that carry detections so a run
// leaves reviewable evidence behind. Frames without detections never
// advance its counters.
type Sampler struct {
	cfg                  SamplerConfig
	framesWithDetections int
	totalSaved           int
	log                  *logrus.Logger
}

// NewSampler creates the output directory tree up front so save
// failures mid-run are limited to encoding problems.
func NewSampler(cfg SamplerConfig, log *logrus.Logger) (*Sampler, error) {
	if cfg.SampleInterval < 1 {
		cfg.SampleInterval = 1
	}

	dirs := []string{cfg.OutputDir}
	if cfg.SaveRaw {
		dirs = append(dirs, filepath.Join(cfg.OutputDir, rawSubdir))
	}
	if cfg.ThumbnailWidth > 0 {
		dirs = append(dirs, filepath.Join(cfg.OutputDir, thumbSubdir))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating sample directory %s", dir)
		}
	}

	return &Sampler{cfg: cfg, log: log}, nil
}

// Process decides whether this frame is worth keeping and saves it if
// so. Frames with no detections are ignored entirely. A frame is saved
// when its best confidence reaches the high-confidence override, or
// when the running count of detection frames hits the sample interval.
func (s *Sampler) Process(frameNumber int, raw, annotated gocv.Mat, detections []detect.Detection) error {
	if len(detections) == 0 {
		return nil
	}
	s.framesWithDetections++

	maxConf := 0.0
	for _, d := range detections {
		if d.Confidence > maxConf {
			maxConf = d.Confidence
		}
	}

	highConfidence := s.cfg.HighConfidence > 0 && maxConf >= s.cfg.HighConfidence
	if !highConfidence && s.framesWithDetections%s.cfg.SampleInterval != 0 {
		return nil
	}

	return s.save(frameNumber, raw, annotated, len(detections), maxConf, highConfidence)
}

// TotalSaved reports how many frames this sampler has written.
func (s *Sampler) TotalSaved() int {
	return s.totalSaved
}

// FramesWithDetections reports how many processed frames carried at
// least one detection.
func (s *Sampler) FramesWithDetections() int {
	return s.framesWithDetections
}

func (s *Sampler) save(frameNumber int, raw, annotated gocv.Mat, count int, maxConf float64, highConfidence bool) error {
	filename := fmt.Sprintf("frame_%06d_%ddet.jpg", frameNumber, count)
	params := []int{gocv.IMWriteJpegQuality, sampleJPEGQuality}

	annotatedPath := filepath.Join(s.cfg.OutputDir, filename)
	if ok := gocv.IMWriteWithParams(annotatedPath, annotated, params); !ok {
		return errors.Errorf("writing sample %s", annotatedPath)
	}

	if s.cfg.SaveRaw {
		rawPath := filepath.Join(s.cfg.OutputDir, rawSubdir, filename)
		if ok := gocv.IMWriteWithParams(rawPath, raw, params); !ok {
			return errors.Errorf("writing raw sample %s", rawPath)
		}
	}

	if s.cfg.ThumbnailWidth > 0 {
		thumbPath := filepath.Join(s.cfg.OutputDir, thumbSubdir, filename)
		if err := images.SaveThumbnail(annotated, s.cfg.ThumbnailWidth, thumbPath); err != nil {
			return errors.Wrap(err, "writing sample thumbnail")
		}
	}

	s.totalSaved++
	s.log.WithFields(logrus.Fields{
		"frame":      frameNumber,
		"detections": count,
		"max_conf":   maxConf,
		"high_conf":  highConfidence,
		"path":       annotatedPath,
	}).Debug("sample frame saved")
	return nil
}
