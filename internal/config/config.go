// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package config holds the knobs of a single training run.
//
// A Config is assembled once at startup from defaults, an optional YAML
// file and the command line flags that were given, validated, and then
// treated as read-only for the rest of the process.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/trainer/internal/device"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Dataset names accepted by the data layer.
const (
	DatasetMNIST     = "mnist"
	DatasetCIFAR10   = "cifar10"
	DatasetDistilled = "distilled"
	DatasetSynthetic = "synthetic"
)

// Model names accepted by the model factory.
const (
	ModelCNN    = "cnn"
	ModelLeNet  = "lenet"
	ModelResNet = "resnet"
)

// Optimizer names.
const (
	OptimizerAdam = "adam"
	OptimizerSGD  = "sgd"
)

// DefaultMetricsPath is where the metrics record lands unless overridden.
const DefaultMetricsPath = "metrics.json"

// Config captures the runtime knobs for a training run.
type Config struct {
	LearningRate  float64 `yaml:"learning_rate"`
	BatchSize     int     `yaml:"batch_size"`
	EvalBatchSize int     `yaml:"eval_batch_size"`
	Epochs        int     `yaml:"epochs"`
	Optimizer     string  `yaml:"optimizer"`
	Momentum      float64 `yaml:"momentum"`
	Seed          int64   `yaml:"seed"`

	Dataset    string `yaml:"dataset"`
	DataDir    string `yaml:"data_dir"`
	TestPath   string `yaml:"test_path"`
	MaxSamples int    `yaml:"max_samples"`
	Augment    bool   `yaml:"augment"`

	Model  string `yaml:"model"`
	Device string `yaml:"device"`

	MetricsPath    string `yaml:"metrics_path"`
	CheckpointPath string `yaml:"checkpoint_path"`
}

// Default returns the configuration used when neither a file nor flags
// say otherwise: the MNIST CNN run.
func Default() Config {
	return Config{
		LearningRate:  0.001,
		BatchSize:     64,
		EvalBatchSize: 256,
		Epochs:        5,
		Optimizer:     OptimizerAdam,
		Momentum:      0.9,
		Seed:          1,
		Dataset:       DatasetMNIST,
		DataDir:       "./data",
		Model:         ModelCNN,
		Device:        string(device.CPU),
		MetricsPath:   DefaultMetricsPath,
	}
}

// Load reads a YAML file on top of Default. Keys absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML from r on top of Default. Unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Validate verifies the config is runnable.
func (c Config) Validate() error {
	if c.LearningRate <= 0 {
		return fmt.Errorf("%w: learning_rate must be > 0 (got %g)", ErrInvalid, c.LearningRate)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be > 0 (got %d)", ErrInvalid, c.BatchSize)
	}
	if c.EvalBatchSize <= 0 {
		return fmt.Errorf("%w: eval_batch_size must be > 0 (got %d)", ErrInvalid, c.EvalBatchSize)
	}
	if c.Epochs < 0 {
		return fmt.Errorf("%w: epochs must be >= 0 (got %d)", ErrInvalid, c.Epochs)
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("%w: max_samples must be >= 0 (got %d)", ErrInvalid, c.MaxSamples)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("%w: momentum must be in [0, 1) (got %g)", ErrInvalid, c.Momentum)
	}
	switch c.Optimizer {
	case OptimizerAdam, OptimizerSGD:
	default:
		return fmt.Errorf("%w: unknown optimizer %q", ErrInvalid, c.Optimizer)
	}
	switch c.Dataset {
	case DatasetMNIST, DatasetCIFAR10, DatasetSynthetic:
	case DatasetDistilled:
		if c.DataDir == "" {
			return fmt.Errorf("%w: distilled dataset needs data_dir pointing at a .safetensors file", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown dataset %q", ErrInvalid, c.Dataset)
	}
	switch c.Model {
	case ModelCNN, ModelLeNet, ModelResNet:
	default:
		return fmt.Errorf("%w: unknown model %q", ErrInvalid, c.Model)
	}
	if _, err := device.Parse(c.Device); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.MetricsPath == "" {
		return fmt.Errorf("%w: metrics_path must be set", ErrInvalid)
	}
	return nil
}
