// Package config loads and validates graphalgo run configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-graphalgo/pkg/algorithms"
	"github.com/dd0wney/cluso-graphalgo/pkg/graph"
	"github.com/dd0wney/cluso-graphalgo/pkg/logging"
	"github.com/dd0wney/cluso-graphalgo/pkg/metrics"
	"github.com/dd0wney/cluso-graphalgo/pkg/partition"
)

// Config is the complete configuration of a graphalgo run
type Config struct {
	// Concurrency bounds compute steps and BFS waves, 0 = runtime.NumCPU()
	Concurrency int    `yaml:"concurrency" validate:"min=0,max=4096"`
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`

	PageRank  PageRankConfig  `yaml:"pagerank"`
	Traversal TraversalConfig `yaml:"traversal"`
}

// PageRankConfig holds PageRank settings
type PageRankConfig struct {
	Iterations    int     `yaml:"iterations" validate:"min=1"`
	DampingFactor float64 `yaml:"damping_factor" validate:"gt=0,lt=1"`
	BatchSize     int     `yaml:"batch_size" validate:"min=1"`
	Tolerance     float64 `yaml:"tolerance" validate:"min=0"`
}

// TraversalConfig holds settings shared by the BFS based algorithms
type TraversalConfig struct {
	QueueCapacity  int    `yaml:"queue_capacity" validate:"min=1"`
	Direction      string `yaml:"direction" validate:"oneof=outgoing incoming both"`
	WassermanFaust bool   `yaml:"wasserman_faust"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		LogLevel: "info",
		PageRank: PageRankConfig{
			Iterations:    20,
			DampingFactor: 0.85,
			BatchSize:     partition.DefaultBatchSize,
		},
		Traversal: TraversalConfig{
			QueueCapacity: algorithms.DefaultQueueCapacity,
			Direction:     "both",
		},
	}
}

// Load reads and validates a YAML configuration file
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EffectiveConcurrency resolves a zero concurrency to the number of CPUs
func (c Config) EffectiveConcurrency() int {
	if c.Concurrency == 0 {
		return runtime.NumCPU()
	}
	return c.Concurrency
}

// Level returns the configured log level
func (c Config) Level() logging.Level {
	return logging.LevelOrDefault(c.LogLevel, logging.InfoLevel)
}

// Direction returns the configured traversal direction
func (c Config) Direction() graph.Direction {
	switch c.Traversal.Direction {
	case "outgoing":
		return graph.Outgoing
	case "incoming":
		return graph.Incoming
	default:
		return graph.Both
	}
}

// PageRankOptions converts the configuration for NewPageRank
func (c Config) PageRankOptions(logger logging.Logger, m *metrics.Registry) algorithms.PageRankOptions {
	return algorithms.PageRankOptions{
		DampingFactor: c.PageRank.DampingFactor,
		Concurrency:   c.EffectiveConcurrency(),
		BatchSize:     c.PageRank.BatchSize,
		Tolerance:     c.PageRank.Tolerance,
		Logger:        logger,
		Metrics:       m,
	}
}

// AllShortestPathsOptions converts the configuration for NewAllShortestPaths
func (c Config) AllShortestPathsOptions(logger logging.Logger, m *metrics.Registry) algorithms.AllShortestPathsOptions {
	return algorithms.AllShortestPathsOptions{
		Concurrency:   c.EffectiveConcurrency(),
		QueueCapacity: c.Traversal.QueueCapacity,
		Logger:        logger,
		Metrics:       m,
	}
}

// ClosenessOptions converts the configuration for ClosenessCentrality
func (c Config) ClosenessOptions(logger logging.Logger, m *metrics.Registry) algorithms.ClosenessOptions {
	return algorithms.ClosenessOptions{
		Direction:      c.Direction(),
		WassermanFaust: c.Traversal.WassermanFaust,
		Concurrency:    c.EffectiveConcurrency(),
		Logger:         logger,
		Metrics:        m,
	}
}
