// Package config loads the run configuration of the densenet command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Data formats understood by the command.
const (
	FormatCSV = "csv"
	FormatIDX = "idx"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	Widths            []int   `yaml:"widths"`
	TrainRatio        float64 `yaml:"train_ratio"`
	Epochs            int     `yaml:"epochs"`
	BatchSize         int     `yaml:"batch_size"`
	LearningRate      float64 `yaml:"learning_rate"`
	LearningRateDecay float64 `yaml:"learning_rate_decay"`
	Seed              uint64  `yaml:"seed"`
	LogEvery          int     `yaml:"log_every"` // 0 disables per-epoch lines
	Workers           int     `yaml:"workers"`

	Data Data `yaml:"data"`

	Weights           string `yaml:"weights"`
	Checkpoint        string `yaml:"checkpoint"`
	MetricsCSV        string `yaml:"metrics_csv"`
	EarlyStopPatience int    `yaml:"early_stop_patience"`
}

// Data describes where samples come from.
type Data struct {
	Format string `yaml:"format"`

	// csv
	Path        string  `yaml:"path"`
	LabelColumn int     `yaml:"label_column"`
	HasHeader   bool    `yaml:"has_header"`
	Scale       float64 `yaml:"scale"`

	// idx
	Images string `yaml:"images"`
	Labels string `yaml:"labels"`

	Classes   int  `yaml:"classes"`
	Normalize bool `yaml:"normalize"`
	Limit     int  `yaml:"limit"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Widths       []int
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         uint64
	LogEvery     int
	Workers      int
	DataPath     string
	Images       string
	Labels       string
	Limit        int
	Weights      string
}

// Default returns the MNIST setup: 784-512-10, 80/20 split, 50 epochs of
// batch 50 at rate 0.09 without decay.
func Default() *Config {
	return &Config{
		Widths:            []int{784, 512, 10},
		TrainRatio:        0.8,
		Epochs:            50,
		BatchSize:         50,
		LearningRate:      0.09,
		LearningRateDecay: 1,
		LogEvery:          1,
		Data: Data{
			Format:      FormatIDX,
			LabelColumn: -1,
			Classes:     10,
		},
		Weights: "weights.bin",
	}
}

// Load reads a Config from YAML on top of Default. Unknown keys are
// rejected. The result is not validated, so overrides can still fill in
// missing values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if len(o.Widths) > 0 {
		c.Widths = append([]int(nil), o.Widths...)
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.DataPath != "" {
		c.Data.Format = FormatCSV
		c.Data.Path = o.DataPath
	}
	if o.Images != "" {
		c.Data.Format = FormatIDX
		c.Data.Images = o.Images
	}
	if o.Labels != "" {
		c.Data.Labels = o.Labels
	}
	if o.Limit > 0 {
		c.Data.Limit = o.Limit
	}
	if o.Weights != "" {
		c.Weights = o.Weights
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if len(c.Widths) < 2 {
		return fmt.Errorf("widths needs at least 2 entries (got %v)", c.Widths)
	}
	for i, w := range c.Widths {
		if w <= 0 {
			return fmt.Errorf("widths[%d] must be > 0 (got %d)", i, w)
		}
	}
	if c.TrainRatio < 0 || c.TrainRatio > 1 {
		return fmt.Errorf("train_ratio must be in [0, 1] (got %v)", c.TrainRatio)
	}
	if c.Epochs < 0 {
		return fmt.Errorf("epochs must be >= 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %v)", c.LearningRate)
	}
	if c.LearningRateDecay <= 0 {
		return fmt.Errorf("learning_rate_decay must be > 0 (got %v)", c.LearningRateDecay)
	}
	if c.Weights == "" {
		return errors.New("weights output path must be set")
	}
	if err := c.Data.validate(); err != nil {
		return err
	}
	if out := c.Widths[len(c.Widths)-1]; out != c.Data.Classes {
		return fmt.Errorf("output width %d does not match data.classes %d", out, c.Data.Classes)
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("log_every must be >= 0 (got %d)", c.LogEvery)
	}
	return nil
}

func (d Data) validate() error {
	switch d.Format {
	case FormatCSV:
		if d.Path == "" {
			return errors.New("data.path must be set for csv data")
		}
	case FormatIDX:
		if d.Images == "" || d.Labels == "" {
			return errors.New("data.images and data.labels must be set for idx data")
		}
	default:
		return fmt.Errorf("data.format must be %q or %q (got %q)", FormatCSV, FormatIDX, d.Format)
	}
	if d.Classes <= 0 {
		return fmt.Errorf("data.classes must be > 0 (got %d)", d.Classes)
	}
	return nil
}

// ParseWidths parses a comma separated widths list such as "784,512,10".
func ParseWidths(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	widths := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("widths[%d]: %w", i, err)
		}
		widths[i] = v
	}
	return widths, nil
}
