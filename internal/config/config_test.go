// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultMetricsPath, cfg.MetricsPath)
	assert.Equal(t, ModelCNN, cfg.Model)
}

func TestParseKeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Parse(strings.NewReader("learning_rate: 0.01\nbatch_size: 32\n"))
	require.NoError(t, err)

	assert.InDelta(t, 0.01, cfg.LearningRate, 1e-12)
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, Default().Epochs, cfg.Epochs)
	assert.Equal(t, Default().Optimizer, cfg.Optimizer)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownKey(t *testing.T) {
	_, err := Parse(strings.NewReader("learning_rat: 0.01\n"))
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	body := `dataset: cifar10
model: resnet
epochs: 20
optimizer: sgd
momentum: 0.8
augment: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DatasetCIFAR10, cfg.Dataset)
	assert.Equal(t, ModelResNet, cfg.Model)
	assert.Equal(t, 20, cfg.Epochs)
	assert.Equal(t, OptimizerSGD, cfg.Optimizer)
	assert.True(t, cfg.Augment)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero lr", func(c *Config) { c.LearningRate = 0 }},
		{"negative batch", func(c *Config) { c.BatchSize = -1 }},
		{"zero eval batch", func(c *Config) { c.EvalBatchSize = 0 }},
		{"negative epochs", func(c *Config) { c.Epochs = -1 }},
		{"momentum one", func(c *Config) { c.Momentum = 1 }},
		{"unknown optimizer", func(c *Config) { c.Optimizer = "rmsprop" }},
		{"unknown dataset", func(c *Config) { c.Dataset = "imagenet" }},
		{"unknown model", func(c *Config) { c.Model = "vit" }},
		{"unknown device", func(c *Config) { c.Device = "tpu" }},
		{"distilled without path", func(c *Config) { c.Dataset = DatasetDistilled; c.DataDir = "" }},
		{"empty metrics path", func(c *Config) { c.MetricsPath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestValidateAllowsZeroEpochs(t *testing.T) {
	cfg := Default()
	cfg.Epochs = 0
	assert.NoError(t, cfg.Validate())
}
