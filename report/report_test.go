package report

import (
	"encoding/json"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func confs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5
	}
	return out
}

func TestSafeAvg(t *testing.T) {
	assert.Equal(t, 0.0, safeAvg(nil), "empty input must yield zero, not a division error")
	assert.Equal(t, 2.0, safeAvg([]float64{1.0, 3.0}))
	assert.InDelta(t, 1.6667, safeAvg([]float64{1.0, 2.0, 2.0}), 1e-9, "average should round to four decimals")
}

func TestGenerateAggregatesFrames(t *testing.T) {
	g := NewGenerator(newTestLogger())
	g.RecordFrame(1, 2, []float64{0.8, 0.9}, 0)
	g.RecordFrame(2, 0, nil, 12.0)
	g.RecordFrame(3, 1, []float64{0.95}, 10.0)

	r := g.Generate("clip.mp4", image.Pt(1280, 720), 25.0, 300, map[string]interface{}{"detector": "hog"})

	assert.Equal(t, "clip.mp4", r.VideoSource)
	assert.Equal(t, "1280x720", r.VideoResolution)
	assert.Equal(t, 25.0, r.VideoFPS)
	assert.Equal(t, 300, r.TotalVideoFrames)

	assert.Equal(t, 3, r.TotalProcessedFrames)
	assert.Equal(t, 2, r.FramesWithDetections)
	assert.Equal(t, 1, r.FramesWithoutDetections)
	assert.Equal(t, 3, r.TotalDetections)

	assert.InDelta(t, 0.8833, r.AvgConfidence, 1e-9)
	assert.Equal(t, 0.8, r.MinConfidence)
	assert.Equal(t, 0.95, r.MaxConfidence)

	assert.Equal(t, 11.0, r.AvgFPS, "zero-rate first frame must not drag the average down")
	assert.Equal(t, 10.0, r.MinFPS)
	assert.Equal(t, 12.0, r.MaxFPS)
}

func TestGenerateEmptyRun(t *testing.T) {
	g := NewGenerator(newTestLogger())

	r := g.Generate("camera:0", image.Pt(640, 480), 30.0, -1, nil)

	assert.Equal(t, 0, r.TotalProcessedFrames)
	assert.Equal(t, 0, r.TotalDetections)
	assert.Equal(t, 0.0, r.AvgConfidence)
	assert.Equal(t, 0.0, r.MinConfidence)
	assert.Equal(t, 0.0, r.MaxConfidence)
	assert.Equal(t, 0.0, r.AvgFPS)
	assert.Empty(t, r.TopDetectionFrames)
	assert.NotNil(t, r.ConfigSummary, "config summary should marshal as an object even when absent")
}

func TestTopFramesOrderedByCount(t *testing.T) {
	g := NewGenerator(newTestLogger())
	counts := map[int]int{1: 1, 2: 5, 3: 3, 4: 5, 5: 2, 6: 0, 7: 4}
	for frame := 1; frame <= 7; frame++ {
		g.RecordFrame(frame, counts[frame], confs(counts[frame]), 9.0)
	}

	r := g.Generate("clip.mp4", image.Pt(1280, 720), 25.0, 7, nil)

	require.Len(t, r.TopDetectionFrames, 5)
	var got []int
	for _, s := range r.TopDetectionFrames {
		got = append(got, s.FrameNumber)
	}
	assert.Equal(t, []int{2, 4, 7, 3, 5}, got, "ties on count must keep frame order")

	top := r.TopDetectionFrames[0]
	assert.Equal(t, 5, top.DetectionCount)
	assert.Len(t, top.Confidences, 5, "top frames carry their full per-frame record")
	assert.Equal(t, 9.0, top.FPS)
}

func TestProcessingTimeUsesClock(t *testing.T) {
	mock := clock.NewMock()
	g := NewGeneratorWithClock(mock, newTestLogger())

	g.Start()
	mock.Add(3456 * time.Millisecond)
	r := g.Generate("clip.mp4", image.Pt(640, 480), 30.0, 100, nil)

	assert.InDelta(t, 3.46, r.TotalProcessingTimeSec, 1e-9, "elapsed time should round to two decimals")
}

func TestProcessingTimeZeroWithoutStart(t *testing.T) {
	mock := clock.NewMock()
	g := NewGeneratorWithClock(mock, newTestLogger())
	mock.Add(time.Minute)

	r := g.Generate("clip.mp4", image.Pt(640, 480), 30.0, 100, nil)

	assert.Equal(t, 0.0, r.TotalProcessingTimeSec)
}

func TestWriteCreatesReportFile(t *testing.T) {
	g := NewGenerator(newTestLogger())
	g.RecordFrame(1, 1, []float64{0.7}, 0)
	r := g.Generate("clip.mp4", image.Pt(1280, 720), 25.0, 1, map[string]interface{}{"detector": "hog"})

	dir := filepath.Join(t.TempDir(), "out")
	path, err := g.Write(r, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "detection_report.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "total_processed_frames")
	assert.Contains(t, decoded, "top_detection_frames")
	assert.Contains(t, decoded, "config_summary")
	assert.Equal(t, "1280x720", decoded["video_resolution"])
}
