// Package config loads the TOML run configuration consumed by cmd/tch.
//
// Settings are layered: compiled-in defaults first, then the config
// file, then TCH_* environment variables, then command-line overrides.
// Every load path ends in struct-tag validation, so a Config handed to
// a trainer is always well formed.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full configuration for one training run.
type Config struct {
	Trainer string `toml:"trainer" validate:"required,oneof=cartpole mnist text"` // Which trainer "tch train" runs
	Backend string `toml:"backend" validate:"required,oneof=cpu webgpu"`          // Compute backend for tensors
	Seed    int64  `toml:"seed" validate:"gte=0"`                                 // RNG seed; 0 seeds from the clock

	Training   TrainingConfig   `toml:"training"`
	Checkpoint CheckpointConfig `toml:"checkpoint"`
	Data       DataConfig       `toml:"data"`
	Logging    LoggingConfig    `toml:"logging"`
}

// TrainingConfig holds the optimization hyperparameters shared by the
// trainers.
type TrainingConfig struct {
	Epochs       int     `toml:"epochs" validate:"min=1"`
	BatchSize    int     `toml:"batch_size" validate:"min=1"`
	LearningRate float64 `toml:"learning_rate" validate:"gt=0"`
	HiddenSizes  []int   `toml:"hidden_sizes" validate:"min=1,dive,min=1"` // Hidden layer widths, input to output
	Optimizer    string  `toml:"optimizer" validate:"required,oneof=sgd adam"`
	Momentum     float64 `toml:"momentum" validate:"gte=0,lt=1"` // SGD only
	WeightDecay  float64 `toml:"weight_decay" validate:"gte=0"`
	Timeout      string  `toml:"timeout"` // Wall-clock limit for the dataset trainers, e.g. "30m"; empty means unlimited
}

// TimeoutDuration returns the parsed wall-clock limit, or zero when no
// timeout is configured. Validate has already rejected unparseable
// values.
func (c TrainingConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// CheckpointConfig controls where and how often weights are written.
type CheckpointConfig struct {
	Path      string `toml:"path" validate:"required"`
	SaveEvery int    `toml:"save_every" validate:"gte=0"` // Epochs between snapshots; 0 saves only the final weights
}

// DataConfig points the dataset-backed trainers at their inputs.
type DataConfig struct {
	Dir string `toml:"dir" validate:"required"` // Directory holding MNIST IDX files and text corpora
}

// LoggingConfig configures the CLI's structured logger.
type LoggingConfig struct {
	Level string `toml:"level" validate:"required,oneof=debug info warn error"`
}

// Default returns the compiled-in configuration: a CartPole
// policy-gradient run of 50 epochs over 5000-step batches, Adam at
// 1e-2 through a 32-unit hidden layer.
func Default() *Config {
	return &Config{
		Trainer: "cartpole",
		Backend: "cpu",
		Seed:    42,
		Training: TrainingConfig{
			Epochs:       50,
			BatchSize:    5000,
			LearningRate: 1e-2,
			HiddenSizes:  []int{32},
			Optimizer:    "adam",
			Momentum:     0.9,
		},
		Checkpoint: CheckpointConfig{
			Path: "model.tch",
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds a validated Config. Defaults come first, then the file at
// path when path is non-empty, then TCH_* environment variables on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides layers command-line values on top of a loaded Config
// and re-validates the result. Empty strings keep the loaded values.
func ApplyOverrides(cfg *Config, trainer, backend string) error {
	if trainer != "" {
		cfg.Trainer = trainer
	}
	if backend != "" {
		cfg.Backend = backend
	}
	return cfg.Validate()
}

// Validate checks the struct tags plus the duration fields the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Training.Timeout != "" {
		if _, err := time.ParseDuration(c.Training.Timeout); err != nil {
			return fmt.Errorf("config: training.timeout: %w", err)
		}
	}
	return nil
}

// applyEnvOverrides applies TCH_* environment variables, which sit
// between the config file and command-line flags in priority.
// Unparseable numeric values are ignored.
func applyEnvOverrides(cfg *Config) {
	if trainer := os.Getenv("TCH_TRAINER"); trainer != "" {
		cfg.Trainer = trainer
	}
	if backend := os.Getenv("TCH_BACKEND"); backend != "" {
		cfg.Backend = backend
	}
	if seed := os.Getenv("TCH_SEED"); seed != "" {
		if s, err := strconv.ParseInt(seed, 10, 64); err == nil {
			cfg.Seed = s
		}
	}
	if epochs := os.Getenv("TCH_EPOCHS"); epochs != "" {
		if e, err := strconv.Atoi(epochs); err == nil {
			cfg.Training.Epochs = e
		}
	}
	if batch := os.Getenv("TCH_BATCH_SIZE"); batch != "" {
		if n, err := strconv.Atoi(batch); err == nil {
			cfg.Training.BatchSize = n
		}
	}
	if lr := os.Getenv("TCH_LEARNING_RATE"); lr != "" {
		if l, err := strconv.ParseFloat(lr, 64); err == nil {
			cfg.Training.LearningRate = l
		}
	}
	if timeout := os.Getenv("TCH_TIMEOUT"); timeout != "" {
		cfg.Training.Timeout = timeout
	}
	if path := os.Getenv("TCH_CHECKPOINT_PATH"); path != "" {
		cfg.Checkpoint.Path = path
	}
	if dir := os.Getenv("TCH_DATA_DIR"); dir != "" {
		cfg.Data.Dir = dir
	}
	if level := os.Getenv("TCH_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
