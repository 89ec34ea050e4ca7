package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return string(body)
}

func TestCountersAppearInScrape(t *testing.T) {
	m := New()
	m.FramesRead.Add(4)
	m.FramesProcessed.Add(3)
	m.FramesWithDetections.Add(2)
	m.DetectionsTotal.Add(7)
	m.SamplesSaved.Add(1)
	m.LastDetectionCount.Store(5)

	body := scrape(t, m)
	assert.Contains(t, body, "pedvision_frames_read_total 4")
	assert.Contains(t, body, "pedvision_frames_processed_total 3")
	assert.Contains(t, body, "pedvision_frames_with_detections_total 2")
	assert.Contains(t, body, "pedvision_detections_total 7")
	assert.Contains(t, body, "pedvision_samples_saved_total 1")
	assert.Contains(t, body, "pedvision_last_detection_count 5")
}

func TestGaugesTrackLatestValues(t *testing.T) {
	m := New()
	m.SetFPS(12.34)
	m.UpdateFrameLatency(83 * time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, "pedvision_processing_fps 12.34")
	assert.Contains(t, body, "pedvision_frame_latency_ms 83")
}

func TestNegativeFPSClampsToZero(t *testing.T) {
	m := New()
	m.SetFPS(-5)

	body := scrape(t, m)
	assert.Contains(t, body, "pedvision_processing_fps 0")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := New()
	b := New()
	a.FramesProcessed.Add(9)

	assert.Contains(t, scrape(t, a), "pedvision_frames_processed_total 9")
	assert.Contains(t, scrape(t, b), "pedvision_frames_processed_total 0")
}
