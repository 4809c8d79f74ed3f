// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"fmt"
)

// Flags binds the run options to a flag.FlagSet. Every flag given on the
// command line replaces the value from the config file (or the default),
// zero and negative values included; Validate then rejects the bad ones.
// Flags that are not given leave the value untouched.
type Flags struct {
	fs   *flag.FlagSet
	path string
}

// BindFlags registers the run options on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.path, "config", "", "YAML config file")
	defaults := Default()
	define(fs, &defaults)
	return f
}

// define registers one flag per Config field, writing into c.
func define(fs *flag.FlagSet, c *Config) {
	fs.Float64Var(&c.LearningRate, "lr", c.LearningRate, "learning rate")
	fs.IntVar(&c.BatchSize, "batch", c.BatchSize, "training batch size")
	fs.IntVar(&c.EvalBatchSize, "eval-batch", c.EvalBatchSize, "evaluation batch size")
	fs.IntVar(&c.Epochs, "epochs", c.Epochs, "number of passes over the training split")
	fs.StringVar(&c.Optimizer, "optimizer", c.Optimizer, "optimizer: adam or sgd")
	fs.Float64Var(&c.Momentum, "momentum", c.Momentum, "SGD momentum")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for shuffling, sampling and augmentation")
	fs.StringVar(&c.Dataset, "dataset", c.Dataset, "dataset: mnist, cifar10, distilled or synthetic")
	fs.StringVar(&c.DataDir, "data", c.DataDir, "dataset directory, or .safetensors file for distilled")
	fs.StringVar(&c.TestPath, "test", c.TestPath, "held-out .safetensors file for distilled runs")
	fs.IntVar(&c.MaxSamples, "samples", c.MaxSamples, "limit examples per split (0 = all)")
	fs.BoolVar(&c.Augment, "augment", c.Augment, "random flip and crop on colour images")
	fs.StringVar(&c.Model, "model", c.Model, "network: cnn, lenet or resnet")
	fs.StringVar(&c.Device, "device", c.Device, "device: cpu, webgpu or auto")
	fs.StringVar(&c.MetricsPath, "metrics", c.MetricsPath, "metrics output file")
	fs.StringVar(&c.CheckpointPath, "save", c.CheckpointPath, "write the trained weights to this .born file")
}

// Config resolves the flags into a validated Config. Call it after the
// FlagSet has been parsed.
func (f *Flags) Config() (Config, error) {
	cfg := Default()
	if f.path != "" {
		var err error
		if cfg, err = Load(f.path); err != nil {
			return Config{}, err
		}
	}

	// Replay the flags that were set onto the loaded config.
	target := flag.NewFlagSet("config", flag.ContinueOnError)
	define(target, &cfg)
	var setErr error
	f.fs.Visit(func(fl *flag.Flag) {
		if setErr != nil || target.Lookup(fl.Name) == nil {
			return
		}
		if err := target.Set(fl.Name, fl.Value.String()); err != nil {
			setErr = fmt.Errorf("flag -%s: %w", fl.Name, err)
		}
	})
	if setErr != nil {
		return Config{}, setErr
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

