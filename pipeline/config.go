package pipeline

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vision-ai/go-pedvision/detect"
	"github.com/vision-ai/go-pedvision/images"
	"github.com/vision-ai/go-pedvision/report"
	"github.com/vision-ai/go-pedvision/viz"
)

// Config aggregates the per-stage configurations into one document that
// can be loaded from a YAML file.
type Config struct {
	// Detector selects the classifier backend, "hog" or "onnx".
	Detector string `json:"detector" yaml:"detector"`
	// ONNX applies only when Detector is "onnx".
	ONNX detect.ONNXOptions `json:"onnx" yaml:"onnx"`

	Detection     detect.Config        `json:"detection" yaml:"detection"`
	Preprocess    images.Config        `json:"preprocess" yaml:"preprocess"`
	Visualization viz.Config           `json:"visualization" yaml:"visualization"`
	Sampling      report.SamplerConfig `json:"sampling" yaml:"sampling"`

	// EnableReporting writes the JSON run report at the end.
	EnableReporting bool `json:"enable_reporting" yaml:"enable_reporting"`
	// EnableSampling persists detection frames during the run.
	EnableSampling bool `json:"enable_sampling" yaml:"enable_sampling"`
	// ReportDir receives the run report.
	ReportDir string `json:"report_dir" yaml:"report_dir"`
	// MetricsAddr serves Prometheus metrics when non-empty, e.g.
	// ":9091".
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`
}

// DefaultConfig returns the full pipeline configuration with every
// stage at its defaults.
func DefaultConfig() Config {
	return Config{
		Detector:        "hog",
		Detection:       detect.DefaultConfig(),
		Preprocess:      images.DefaultConfig(),
		Visualization:   viz.DefaultConfig(),
		Sampling:        report.DefaultSamplerConfig(),
		EnableReporting: true,
		EnableSampling:  true,
		ReportDir:       "output",
	}
}

// LoadConfig reads a YAML file over the defaults, so a config file only
// needs to name the values it changes.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config file %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config file %s", path)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing config file %s", path)
	}
	return nil
}
