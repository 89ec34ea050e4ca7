// Package metrics - Pipeline counters exposed over HTTP in Prometheus
// format.
//
// Counters are plain atomics updated from the processing loop; the
// registry reads them lazily through gauge closures, so scrapes never
// block frame processing.
package metrics

import (
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all pipeline metrics.
type Metrics struct {
	// Frame flow counters
	FramesRead           atomic.Uint64
	FramesProcessed      atomic.Uint64
	FramesWithDetections atomic.Uint64
	DetectionsTotal      atomic.Uint64
	SamplesSaved         atomic.Uint64

	// Error counters
	DetectErrors atomic.Uint64
	SampleErrors atomic.Uint64

	// Instantaneous state
	LastDetectionCount atomic.Uint64
	FrameLatencyMs     atomic.Uint64
	fpsCentis          atomic.Uint64

	registry *prometheus.Registry
}

// New creates a Metrics instance with its collectors registered on a
// private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerCollectors()
	return m
}

func (m *Metrics) registerCollectors() {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pedvision_frames_read_total",
			Help: "Total frames read from the video source",
		},
		func() float64 { return float64(m.FramesRead.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pedvision_frames_processed_total",
			Help: "Total frames run through the full pipeline",
		},
		func() float64 { return float64(m.FramesProcessed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pedvision_frames_with_detections_total",
			Help: "Total frames that carried at least one detection",
		},
		func() float64 { return float64(m.FramesWithDetections.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pedvision_detections_total",
			Help: "Total detections kept after post-processing",
		},
		func() float64 { return float64(m.DetectionsTotal.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pedvision_samples_saved_total",
			Help: "Total sample frames written to disk",
		},
		func() float64 { return float64(m.SamplesSaved.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pedvision_detect_errors_total",
			Help: "Total detector failures",
		},
		func() float64 { return float64(m.DetectErrors.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pedvision_sample_errors_total",
			Help: "Total sample write failures",
		},
		func() float64 { return float64(m.SampleErrors.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pedvision_last_detection_count",
			Help: "Detections on the most recent frame",
		},
		func() float64 { return float64(m.LastDetectionCount.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pedvision_frame_latency_ms",
			Help: "Wall time spent on the most recent frame in milliseconds",
		},
		func() float64 { return float64(m.FrameLatencyMs.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "pedvision_processing_fps",
			Help: "Current processing rate over the sliding window",
		},
		func() float64 { return float64(m.fpsCentis.Load()) / 100 },
	))
}

// UpdateFrameLatency records the wall time spent on one frame.
func (m *Metrics) UpdateFrameLatency(duration time.Duration) {
	m.FrameLatencyMs.Store(uint64(duration.Milliseconds()))
}

// SetFPS records the current processing rate. Stored in hundredths so
// the atomic stays integer-valued.
func (m *Metrics) SetFPS(fps float64) {
	if fps < 0 {
		fps = 0
	}
	m.fpsCentis.Store(uint64(math.Round(fps * 100)))
}

// Handler returns the Prometheus HTTP handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr. Blocks; run it on its own
// goroutine.
func (m *Metrics) StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
