// Command pedvision runs the pedestrian detection pipeline over a video
// file or camera stream.
//
// Usage:
//
//	pedvision -source file -input input/video.mp4
//	pedvision -source camera -camera-index 0
//	pedvision -source file -input input/video.mp4 -save-output
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/vision-ai/go-pedvision/detect"
	"github.com/vision-ai/go-pedvision/metrics"
	"github.com/vision-ai/go-pedvision/pipeline"
	"github.com/vision-ai/go-pedvision/source"
)

func main() {
	var (
		sourceKind   string
		inputPath    string
		cameraIndex  int
		configPath   string
		detectorKind string
		modelPath    string
		targetWidth  int
		multiPass    bool
		display      bool
		saveOutput   bool
		outputPath   string
		saveSamples  bool
		sampleDir    string
		writeReport  bool
		reportDir    string
		metricsAddr  string
		logLevel     string
	)
	flag.StringVar(&sourceKind, "source", "file", "Video source type: file or camera")
	flag.StringVar(&inputPath, "input", "", "Video file path (required with -source file)")
	flag.IntVar(&cameraIndex, "camera-index", 0, "Camera device index")
	flag.StringVar(&configPath, "config", "", "YAML config file applied over defaults")
	flag.StringVar(&detectorKind, "detector", "hog", "Detector backend: hog or onnx")
	flag.StringVar(&modelPath, "model", "", "ONNX model path (required with -detector onnx)")
	flag.IntVar(&targetWidth, "target-width", 640, "Preprocessing target width, 0 disables resizing")
	flag.BoolVar(&multiPass, "multi-pass", false, "Run a second, denser detection pass")
	flag.BoolVar(&display, "display", false, "Show the annotated stream in a window")
	flag.BoolVar(&saveOutput, "save-output", false, "Write the annotated stream to -output-path")
	flag.StringVar(&outputPath, "output-path", "output/result.avi", "Annotated video output path")
	flag.BoolVar(&saveSamples, "save-samples", true, "Save detection frames to disk")
	flag.StringVar(&sampleDir, "sample-dir", "output/samples", "Sample frame directory")
	flag.BoolVar(&writeReport, "report", true, "Write the JSON run report")
	flag.StringVar(&reportDir, "report-dir", "output", "Run report directory")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9091")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flag.Parse()

	log := newLogger(logLevel)

	cfg := pipeline.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = pipeline.LoadConfig(configPath)
		if err != nil {
			log.WithError(err).Fatal("loading config")
		}
	}

	// Flags the user actually passed win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "detector":
			cfg.Detector = detectorKind
		case "model":
			cfg.ONNX.ModelPath = modelPath
		case "target-width":
			cfg.Preprocess.TargetWidth = targetWidth
		case "multi-pass":
			cfg.Detection.MultiPass = multiPass
		case "display":
			cfg.Visualization.Display = display
		case "save-output":
			cfg.Visualization.SaveOutput = saveOutput
		case "output-path":
			cfg.Visualization.OutputPath = outputPath
		case "save-samples":
			cfg.EnableSampling = saveSamples
		case "sample-dir":
			cfg.Sampling.OutputDir = sampleDir
		case "report":
			cfg.EnableReporting = writeReport
		case "report-dir":
			cfg.ReportDir = reportDir
		case "metrics-addr":
			cfg.MetricsAddr = metricsAddr
		}
	})

	kind, err := source.ParseKind(sourceKind)
	if err != nil {
		log.WithError(err).Fatal("invalid source type")
	}
	if kind == source.KindFile && inputPath == "" {
		log.Fatal("-source file requires -input")
	}
	if cfg.Detector == "onnx" && cfg.ONNX.ModelPath == "" {
		log.Fatal("-detector onnx requires -model")
	}

	src, err := source.New(kind, inputPath, cameraIndex, log)
	if err != nil {
		log.WithError(err).Fatal("creating video source")
	}

	oracle, err := detect.NewOracle(cfg.Detector, cfg.ONNX, log)
	if err != nil {
		log.WithError(err).Fatal("creating detector")
	}

	mets := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			log.WithField("addr", cfg.MetricsAddr).Info("metrics server listening")
			if err := mets.StartServer(cfg.MetricsAddr); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	p, err := pipeline.New(src, oracle, cfg, mets, log)
	if err != nil {
		log.WithError(err).Fatal("building pipeline")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Run(ctx); err != nil {
		log.WithError(err).Fatal("pipeline failed")
	}
}

// newLogger builds the process-wide logger handed to every component.
func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
