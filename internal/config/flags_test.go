// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return f.Config()
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(t)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeYAML(t, "epochs: 3\ndataset: cifar10\nmodel: resnet\n")

	cfg, err := parseFlags(t, "-config", path, "-lr", "0.01", "-batch", "32", "-model", "cnn")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Epochs)
	assert.Equal(t, DatasetCIFAR10, cfg.Dataset)
	assert.Equal(t, ModelCNN, cfg.Model)
	assert.Equal(t, 0.01, cfg.LearningRate)
	assert.Equal(t, 32, cfg.BatchSize)
}

func TestFlagsExplicitValuesWin(t *testing.T) {
	path := writeYAML(t, "seed: 7\naugment: true\nmomentum: 0.5\nepochs: 4\nmax_samples: 100\n")

	tests := []struct {
		name  string
		args  []string
		check func(*testing.T, Config)
	}{
		{"zero epochs", []string{"-epochs", "0"}, func(t *testing.T, c Config) { assert.Equal(t, 0, c.Epochs) }},
		{"plain sgd", []string{"-optimizer", "sgd", "-momentum", "0"}, func(t *testing.T, c Config) {
			assert.Equal(t, OptimizerSGD, c.Optimizer)
			assert.Equal(t, 0.0, c.Momentum)
		}},
		{"zero seed", []string{"-seed", "0"}, func(t *testing.T, c Config) { assert.Equal(t, int64(0), c.Seed) }},
		{"augment off", []string{"-augment=false"}, func(t *testing.T, c Config) { assert.False(t, c.Augment) }},
		{"all samples", []string{"-samples", "0"}, func(t *testing.T, c Config) { assert.Equal(t, 0, c.MaxSamples) }},
		{"file kept", nil, func(t *testing.T, c Config) {
			assert.Equal(t, int64(7), c.Seed)
			assert.True(t, c.Augment)
			assert.Equal(t, 0.5, c.Momentum)
			assert.Equal(t, 4, c.Epochs)
			assert.Equal(t, 100, c.MaxSamples)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseFlags(t, append([]string{"-config", path}, tt.args...)...)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestFlagsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"negative lr", []string{"-lr", "-1"}},
		{"zero lr", []string{"-lr", "0"}},
		{"negative batch", []string{"-batch", "-5"}},
		{"zero batch", []string{"-batch", "0"}},
		{"negative samples", []string{"-samples", "-3"}},
		{"negative epochs", []string{"-epochs", "-1"}},
		{"momentum one", []string{"-momentum", "1"}},
		{"unknown optimizer", []string{"-optimizer", "rmsprop"}},
		{"empty metrics path", []string{"-metrics", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(t, tt.args...)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := parseFlags(t, "-config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

