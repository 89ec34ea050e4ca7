package viz

import (
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/vision-ai/go-pedvision/detect"
	"github.com/vision-ai/go-pedvision/images"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestFrame(t *testing.T) gocv.Mat {
	t.Helper()
	frame := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(120, 120, 120, 0))
	return frame
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.BoxThickness)
	assert.Equal(t, 0.5, cfg.FontScale)
	assert.Equal(t, 1.0, cfg.HighConfidence)
	assert.Equal(t, 0.6, cfg.PanelAlpha)
	assert.True(t, cfg.ShowConfidence)
	assert.True(t, cfg.ShowInfoPanel)
	assert.False(t, cfg.Display)
	assert.Equal(t, "output/result.avi", cfg.OutputPath)
}

func TestDrawReturnsIndependentCopy(t *testing.T) {
	v := NewVisualizer(DefaultConfig(), newTestLogger())
	frame := newTestFrame(t)
	defer frame.Close()

	before := images.MatChecksum(frame)
	out := v.Draw(frame, []detect.Detection{detect.NewDetection(40, 60, 50, 110, 1.4)}, 12.0)
	defer out.Close()

	assert.Equal(t, before, images.MatChecksum(frame), "input frame must stay untouched")
	assert.Equal(t, frame.Rows(), out.Rows())
	assert.Equal(t, frame.Cols(), out.Cols())
	assert.NotEqual(t, before, images.MatChecksum(out), "overlay should alter the copy")
}

func TestDrawPanelWithoutDetections(t *testing.T) {
	v := NewVisualizer(DefaultConfig(), newTestLogger())
	frame := newTestFrame(t)
	defer frame.Close()

	out := v.Draw(frame, nil, 7.5)
	defer out.Close()

	assert.NotEqual(t, images.MatChecksum(frame), images.MatChecksum(out), "info panel should render even with no detections")
}

func TestDrawPassthroughWhenOverlaysDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShowInfoPanel = false
	v := NewVisualizer(cfg, newTestLogger())
	frame := newTestFrame(t)
	defer frame.Close()

	out := v.Draw(frame, nil, 7.5)
	defer out.Close()

	assert.Equal(t, images.MatChecksum(frame), images.MatChecksum(out), "nothing to draw should leave the copy identical")
}

func TestBoxColorSplitsOnHighConfidence(t *testing.T) {
	v := NewVisualizer(DefaultConfig(), newTestLogger())

	boxColor, labelBg := v.boxColors(1.0)
	assert.Equal(t, boxColorHigh, boxColor, "threshold itself counts as high confidence")
	assert.Equal(t, labelBgHigh, labelBg)

	boxColor, labelBg = v.boxColors(0.99)
	assert.Equal(t, boxColorLow, boxColor)
	assert.Equal(t, labelBgLow, labelBg)
}

func TestReleaseWriterWithoutStartIsNoop(t *testing.T) {
	v := NewVisualizer(DefaultConfig(), newTestLogger())
	require.NoError(t, v.ReleaseWriter())
}

func TestStartWriterRejectsUnwritablePath(t *testing.T) {
	v := NewVisualizer(DefaultConfig(), newTestLogger())

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := v.StartWriter(filepath.Join(blocker, "out.avi"), 25.0, image.Pt(320, 240))
	assert.Error(t, err)
}

func TestWriterRoundTrip(t *testing.T) {
	v := NewVisualizer(DefaultConfig(), newTestLogger())
	frame := newTestFrame(t)
	defer frame.Close()

	path := filepath.Join(t.TempDir(), "nested", "out.avi")
	require.NoError(t, v.StartWriter(path, 25.0, image.Pt(320, 240)))

	for i := 0; i < 5; i++ {
		out := v.Draw(frame, []detect.Detection{detect.NewDetection(40, 60, 50, 110, 0.8)}, 10.0)
		out.Close()
	}
	require.NoError(t, v.ReleaseWriter())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "export file should contain encoded frames")
}
