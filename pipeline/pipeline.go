// Package pipeline - Frame loop orchestration.
//
// The pipeline wires source, preprocessor, detector, postprocessor,
// visualizer, sampler and reporter into a single sequential loop. Each
// frame flows through every stage before the next frame is read;
// cancellation is checked once per frame, so a canceled context stops
// the run at the next frame boundary with all teardown still running.
package pipeline

import (
	"context"
	"image"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/vision-ai/go-pedvision/detect"
	"github.com/vision-ai/go-pedvision/images"
	"github.com/vision-ai/go-pedvision/metrics"
	"github.com/vision-ai/go-pedvision/report"
	"github.com/vision-ai/go-pedvision/source"
	"github.com/vision-ai/go-pedvision/util"
	"github.com/vision-ai/go-pedvision/viz"
)

// State tracks the pipeline through its single-run lifecycle.
type State int

const (
	StateCreated State = iota
	StateInitialized
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// sourceInfo caches stream metadata at open time. The report is built
// after the source is released, when the capture handle can no longer
// answer.
type sourceInfo struct {
	describe    string
	fps         float64
	size        image.Point
	totalFrames int
}

// Pipeline runs the full detection flow over one video source. A
// Pipeline is single-use: construct, Run once, discard.
type Pipeline struct {
	cfg Config

	src      source.Source
	pre      *images.Preprocessor
	det      *detect.Detector
	post     *detect.Postprocessor
	viz      *viz.Visualizer
	window   *viz.Window
	fps      *util.FPSCounter
	reporter *report.Generator
	sampler  *report.Sampler
	mets     *metrics.Metrics
	log      *logrus.Logger

	state State
	info  sourceInfo
}

// New assembles a pipeline from its configuration. The oracle is
// injected so callers pick the classifier backend; everything else is
// built here. Sampler output directories are created immediately.
func New(src source.Source, oracle detect.Oracle, cfg Config, mets *metrics.Metrics, log *logrus.Logger) (*Pipeline, error) {
	p := &Pipeline{
		cfg:   cfg,
		src:   src,
		pre:   images.NewPreprocessor(cfg.Preprocess, log),
		det:   detect.NewDetector(cfg.Detection, oracle, log),
		post:  detect.NewPostprocessor(cfg.Detection, log),
		viz:   viz.NewVisualizer(cfg.Visualization, log),
		fps:   util.NewFPSCounter(0),
		mets:  mets,
		log:   log,
		state: StateCreated,
	}

	if cfg.EnableReporting {
		p.reporter = report.NewGenerator(log)
	}
	if cfg.EnableSampling {
		sampler, err := report.NewSampler(cfg.Sampling, log)
		if err != nil {
			return nil, err
		}
		p.sampler = sampler
	}
	return p, nil
}

// State reports the current lifecycle state.
func (p *Pipeline) State() State {
	return p.state
}

// Run executes the pipeline until the stream ends, the user quits, or
// ctx is canceled. Cancellation stops cleanly: teardown runs and the
// report is still written, so an interrupted run keeps its evidence.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.state != StateCreated {
		return errors.Errorf("pipeline already %s", p.state)
	}

	if err := p.det.Initialize(); err != nil {
		return err
	}
	defer p.det.Close()
	p.state = StateInitialized

	if p.reporter != nil {
		p.reporter.Start()
	}

	if err := p.src.Open(); err != nil {
		return err
	}
	defer p.src.Release()

	p.info = sourceInfo{
		describe:    p.src.Describe(),
		fps:         p.src.FPS(),
		size:        p.src.FrameSize(),
		totalFrames: p.src.TotalFrames(),
	}
	p.log.WithFields(logrus.Fields{
		"source":     p.info.describe,
		"resolution": p.info.size,
		"fps":        p.info.fps,
		"detector":   p.cfg.Detector,
	}).Info("pipeline starting")

	if p.cfg.Visualization.SaveOutput {
		if err := p.viz.StartWriter(p.cfg.Visualization.OutputPath, p.info.fps, p.info.size); err != nil {
			return err
		}
	}
	defer p.viz.ReleaseWriter()

	if p.cfg.Visualization.Display {
		p.window = viz.NewWindow(p.cfg.Visualization.WindowTitle, p.log)
		defer p.window.Close()
	}

	p.state = StateRunning
	err := p.processFrames(ctx)
	p.state = StateFinished
	if err != nil {
		return err
	}

	return p.generateReport()
}

// processFrames is the per-frame loop. Stops on stream end, quit key,
// context cancellation, or a detector error.
func (p *Pipeline) processFrames(ctx context.Context) error {
	frame := gocv.NewMat()
	defer frame.Close()

	frameCount := 0
	for {
		select {
		case <-ctx.Done():
			p.log.WithField("frames", frameCount).Info("run canceled")
			return nil
		default:
		}

		if !p.src.Read(&frame) {
			p.log.WithField("frames", frameCount).Info("end of stream")
			return nil
		}
		p.mets.FramesRead.Add(1)
		p.fps.Tick()
		frameCount++
		started := time.Now()

		detections, err := p.processFrame(frame)
		if err != nil {
			p.mets.DetectErrors.Add(1)
			return errors.Wrapf(err, "frame %d", frameCount)
		}

		output := p.viz.Draw(frame, detections, p.fps.FPS())

		if p.sampler != nil {
			if err := p.sampler.Process(frameCount, frame, output, detections); err != nil {
				p.mets.SampleErrors.Add(1)
				p.log.WithError(err).Warn("saving sample frame")
			}
			p.mets.SamplesSaved.Store(uint64(p.sampler.TotalSaved()))
		}

		if p.reporter != nil {
			p.reporter.RecordFrame(frameCount, len(detections), confidences(detections), p.fps.FPS())
		}

		p.mets.FramesProcessed.Add(1)
		p.mets.DetectionsTotal.Add(uint64(len(detections)))
		if len(detections) > 0 {
			p.mets.FramesWithDetections.Add(1)
		}
		p.mets.LastDetectionCount.Store(uint64(len(detections)))
		p.mets.SetFPS(p.fps.FPS())
		p.mets.UpdateFrameLatency(time.Since(started))

		if p.window != nil && p.window.Show(output) {
			output.Close()
			p.log.WithField("frames", frameCount).Info("stopped by user")
			return nil
		}
		output.Close()
	}
}

// processFrame runs one frame through preprocess, detect, coordinate
// rescale and postprocess, returning the detections in original frame
// coordinates.
func (p *Pipeline) processFrame(frame gocv.Mat) ([]detect.Detection, error) {
	processed := p.pre.Process(frame)
	defer processed.Close()

	raw, err := p.det.Detect(processed)
	if err != nil {
		return nil, err
	}

	// Detections are in shrunk-frame coordinates; map them back before
	// filtering so size and aspect gates see original-scale boxes.
	if scale := p.pre.ScaleFactor(); scale != 1.0 {
		for i := range raw {
			raw[i] = raw[i].Scale(scale)
		}
	}

	return p.post.Process(raw), nil
}

func (p *Pipeline) generateReport() error {
	if p.reporter == nil {
		return nil
	}

	summary := map[string]interface{}{
		"detector":   p.cfg.Detector,
		"detection":  p.cfg.Detection,
		"preprocess": p.cfg.Preprocess,
	}
	r := p.reporter.Generate(p.info.describe, p.info.size, p.info.fps, p.info.totalFrames, summary)
	if _, err := p.reporter.Write(r, p.cfg.ReportDir); err != nil {
		return err
	}

	if p.sampler != nil {
		p.log.WithFields(logrus.Fields{
			"saved":           p.sampler.TotalSaved(),
			"with_detections": p.sampler.FramesWithDetections(),
		}).Info("frame sampling summary")
	}
	return nil
}

func confidences(detections []detect.Detection) []float64 {
	if len(detections) == 0 {
		return nil
	}
	out := make([]float64, len(detections))
	for i, d := range detections {
		out[i] = d.Confidence
	}
	return out
}
