// Package report - Run statistics, diagnostics and the terminal JSON
// summary.
//
// The Generator accumulates one FrameStats record per processed frame
// and distills them into a Report at run end; the Sampler writes
// diagnostic JPEG frames to disk as the run progresses. Both are
// append-only and owned by the pipeline for exactly one run.
package report

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// reportFilename is the fixed name of the JSON summary inside the
// output directory.
const reportFilename = "detection_report.json"

// topFrameCount is how many of the busiest frames the report lists.
const topFrameCount = 5

// FrameStats is the per-frame record appended for every processed
// frame.
type FrameStats struct {
	// FrameNumber is 1-based and monotonic.
	FrameNumber int `json:"frame_number"`
	// DetectionCount is the number of detections kept on this frame.
	DetectionCount int `json:"detection_count"`
	// Confidences holds one score per kept detection.
	Confidences []float64 `json:"confidences"`
	// FPS is the instantaneous rate measured while processing this
	// frame; 0 on the first frame.
	FPS float64 `json:"fps"`
}

// Report is the terminal aggregate written once per run.
type Report struct {
	VideoSource      string  `json:"video_source"`
	VideoResolution  string  `json:"video_resolution"`
	VideoFPS         float64 `json:"video_fps"`
	TotalVideoFrames int     `json:"total_video_frames"`

	TotalProcessedFrames    int `json:"total_processed_frames"`
	FramesWithDetections    int `json:"frames_with_detections"`
	FramesWithoutDetections int `json:"frames_without_detections"`
	TotalDetections         int `json:"total_detections"`

	AvgConfidence float64 `json:"avg_confidence"`
	MinConfidence float64 `json:"min_confidence"`
	MaxConfidence float64 `json:"max_confidence"`

	AvgFPS                 float64 `json:"avg_fps"`
	MinFPS                 float64 `json:"min_fps"`
	MaxFPS                 float64 `json:"max_fps"`
	TotalProcessingTimeSec float64 `json:"total_processing_time_sec"`

	TopDetectionFrames []FrameStats `json:"top_detection_frames"`

	ConfigSummary map[string]interface{} `json:"config_summary"`
}

// Generator accumulates per-frame statistics and produces the final
// Report. Collection is append-only; Generate is the only consumer of
// the accumulated state.
type Generator struct {
	frameStats     []FrameStats
	allConfidences []float64
	allFPS         []float64
	startTime      time.Time
	clock          clock.Clock
	log            *logrus.Logger
}

// NewGenerator creates a generator over the wall clock.
func NewGenerator(log *logrus.Logger) *Generator {
	return NewGeneratorWithClock(clock.New(), log)
}

// NewGeneratorWithClock creates a generator over an injected clock so
// tests can control elapsed time.
func NewGeneratorWithClock(c clock.Clock, log *logrus.Logger) *Generator {
	return &Generator{clock: c, log: log}
}

// Start records the processing start time. Total processing time is
// measured from here.
func (g *Generator) Start() {
	g.startTime = g.clock.Now()
}

// RecordFrame appends one frame's statistics. Zero FPS values are kept
// in the frame record but excluded from the rate distribution, since
// the first frame has no prior tick to measure against.
func (g *Generator) RecordFrame(frameNumber, detectionCount int, confidences []float64, fps float64) {
	g.frameStats = append(g.frameStats, FrameStats{
		FrameNumber:    frameNumber,
		DetectionCount: detectionCount,
		Confidences:    confidences,
		FPS:            fps,
	})
	g.allConfidences = append(g.allConfidences, confidences...)
	if fps > 0 {
		g.allFPS = append(g.allFPS, fps)
	}
}

// Generate distills the accumulated statistics into a Report.
//
// Arguments:
//   - videoSource: Path or device name of the stream.
//   - resolution: Source frame size.
//   - videoFPS: The source's reported frame rate.
//   - totalFrames: Container frame count, -1 for live streams.
//   - configSummary: Snapshot of the parameters this run used.
//
// Returns:
//   - *Report: The completed aggregate, ready to write.
func (g *Generator) Generate(
	videoSource string,
	resolution image.Point,
	videoFPS float64,
	totalFrames int,
	configSummary map[string]interface{},
) *Report {
	var elapsed float64
	if !g.startTime.IsZero() {
		elapsed = g.clock.Now().Sub(g.startTime).Seconds()
	}

	framesWith := 0
	totalDetections := 0
	for _, s := range g.frameStats {
		if s.DetectionCount > 0 {
			framesWith++
		}
		totalDetections += s.DetectionCount
	}

	if configSummary == nil {
		configSummary = map[string]interface{}{}
	}

	r := &Report{
		VideoSource:      videoSource,
		VideoResolution:  fmt.Sprintf("%dx%d", resolution.X, resolution.Y),
		VideoFPS:         videoFPS,
		TotalVideoFrames: totalFrames,

		TotalProcessedFrames:    len(g.frameStats),
		FramesWithDetections:    framesWith,
		FramesWithoutDetections: len(g.frameStats) - framesWith,
		TotalDetections:         totalDetections,

		AvgConfidence: safeAvg(g.allConfidences),
		MinConfidence: minOf(g.allConfidences),
		MaxConfidence: maxOf(g.allConfidences),

		AvgFPS:                 safeAvg(g.allFPS),
		MinFPS:                 minOf(g.allFPS),
		MaxFPS:                 maxOf(g.allFPS),
		TotalProcessingTimeSec: math.Round(elapsed*100) / 100,

		TopDetectionFrames: g.topFrames(topFrameCount),

		ConfigSummary: configSummary,
	}

	g.logSummary(r)
	return r
}

// Write marshals the report as indented JSON under dir.
func (g *Generator) Write(r *Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating report directory %s", dir)
	}

	path := filepath.Join(dir, reportFilename)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshaling report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "writing report %s", path)
	}

	g.log.WithField("path", path).Info("detection report written")
	return path, nil
}

// topFrames returns the n busiest frames by detection count, descending.
// The sort is stable, so equal counts keep frame order.
func (g *Generator) topFrames(n int) []FrameStats {
	ordered := make([]FrameStats, len(g.frameStats))
	copy(ordered, g.frameStats)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DetectionCount > ordered[j].DetectionCount
	})

	if len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}

func (g *Generator) logSummary(r *Report) {
	g.log.WithFields(logrus.Fields{
		"frames":          r.TotalProcessedFrames,
		"with_detections": r.FramesWithDetections,
		"detections":      r.TotalDetections,
		"avg_confidence":  r.AvgConfidence,
		"avg_fps":         r.AvgFPS,
		"elapsed_sec":     r.TotalProcessingTimeSec,
	}).Info("run summary")
}

// safeAvg averages values rounded to four decimals; an empty slice
// yields 0.0 rather than a division error.
func safeAvg(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*10000) / 10000
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
