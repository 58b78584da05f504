package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/linlab/internal/dataset"
	"github.com/san-kum/linlab/internal/equation"
	"github.com/san-kum/linlab/internal/errs"
	"github.com/san-kum/linlab/internal/fitting"
	"github.com/san-kum/linlab/internal/linearize"
)

const (
	DefaultDataDir   = "./runs"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultPoints    = 12
	DefaultNoise     = 0.02
	DefaultSeed      = 1
)

type Config struct {
	Log        LogConfig            `yaml:"log"`
	DataDir    string               `yaml:"data_dir"`
	Catalogue  string               `yaml:"catalogue,omitempty"`
	Fit        fitting.Options      `yaml:"fit"`
	Convention linearize.Convention `yaml:"convention"`
	Resolution ResolutionConfig     `yaml:"resolution"`
	Simulate   SimulateConfig       `yaml:"simulate"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ResolutionConfig is the instrument resolution used as the default
// uncertainty of imported data. Zero leaves the uncertainty unknown.
type ResolutionConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type SimulateConfig struct {
	Points int     `yaml:"points"`
	Noise  float64 `yaml:"noise"`
	Seed   int64   `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		DataDir: DefaultDataDir,
		Fit:     fitting.DefaultOptions(),
		Simulate: SimulateConfig{
			Points: DefaultPoints,
			Noise:  DefaultNoise,
			Seed:   DefaultSeed,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return &errs.ValidationError{Field: "log.level", Msg: err.Error()}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return &errs.ValidationError{Field: "log.format", Msg: "must be text or json, got " + c.Log.Format}
	}
	if c.Simulate.Points < dataset.MinPoints {
		return &errs.ValidationError{Field: "simulate.points", Msg: "too few points"}
	}
	if c.Simulate.Noise < 0 || c.Resolution.X < 0 || c.Resolution.Y < 0 {
		return &errs.ValidationError{Field: "config", Msg: "noise and resolution must not be negative"}
	}
	return nil
}

// Apply configures logger's level and formatter.
func (l LogConfig) Apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	logger.SetLevel(level)
	if strings.EqualFold(l.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableLevelTruncation: true})
	}
	return nil
}

// AxisConvention returns the default convention extended by the configured
// entries.
func (c *Config) AxisConvention() linearize.Convention {
	return linearize.DefaultConvention().Merge(c.Convention)
}

// LoadCatalogue returns the built-in equations plus those of the configured
// catalogue file, if any.
func (c *Config) LoadCatalogue() (*equation.Catalogue, error) {
	cat, err := BuiltinCatalogue()
	if err != nil {
		return nil, err
	}
	if c.Catalogue == "" {
		return cat, nil
	}
	extra, err := equation.Load(c.Catalogue)
	if err != nil {
		return nil, err
	}
	return cat.With(extra.List()...)
}

// ApplyResolution fills unknown uncertainties of d from the configured
// resolution.
func (c *Config) ApplyResolution(d dataset.Dataset) dataset.Dataset {
	if c.Resolution.X == 0 && c.Resolution.Y == 0 {
		return d
	}
	return d.WithResolution(c.Resolution.X, c.Resolution.Y)
}
