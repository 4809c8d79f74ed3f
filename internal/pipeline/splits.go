// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"
	"slices"

	"github.com/born-ml/trainer/internal/config"
	"github.com/born-ml/trainer/internal/dataset"
)

// Synthetic runs use MNIST-sized images.
var syntheticShape = []int{1, 28, 28}

const (
	syntheticClasses = 10
	syntheticSamples = 1000

	// distilledHoldout is the share of a distilled file held out for
	// evaluation when no separate test file is given.
	distilledHoldout = 0.2
)

// LoadSplits loads the train and test splits named by cfg.Dataset.
func LoadSplits(cfg config.Config) (trainSet, testSet *dataset.InMemory, err error) {
	switch cfg.Dataset {
	case config.DatasetMNIST:
		trainSet, testSet, err = loadPair(cfg, dataset.LoadMNIST)
	case config.DatasetCIFAR10:
		trainSet, testSet, err = loadPair(cfg, dataset.LoadCIFAR10)
	case config.DatasetSynthetic:
		trainSet, testSet, err = loadSynthetic(cfg)
	case config.DatasetDistilled:
		trainSet, testSet, err = loadDistilled(cfg)
	default:
		err = fmt.Errorf("unknown dataset %q", cfg.Dataset)
	}
	if err != nil {
		return nil, nil, err
	}

	if trainSet.NumClasses() != testSet.NumClasses() {
		return nil, nil, fmt.Errorf("train split has %d classes, test split has %d",
			trainSet.NumClasses(), testSet.NumClasses())
	}
	if !slices.Equal(trainSet.Shape(), testSet.Shape()) {
		return nil, nil, fmt.Errorf("train examples are %v, test examples are %v",
			trainSet.Shape(), testSet.Shape())
	}
	return trainSet, testSet, nil
}

type splitLoader func(dir string, split dataset.Split, maxSamples int) (*dataset.InMemory, error)

func loadPair(cfg config.Config, load splitLoader) (*dataset.InMemory, *dataset.InMemory, error) {
	trainSet, err := load(cfg.DataDir, dataset.Train, cfg.MaxSamples)
	if err != nil {
		return nil, nil, err
	}
	testSet, err := load(cfg.DataDir, dataset.Test, cfg.MaxSamples)
	if err != nil {
		return nil, nil, err
	}
	return trainSet, testSet, nil
}

func loadSynthetic(cfg config.Config) (*dataset.InMemory, *dataset.InMemory, error) {
	n := syntheticSamples
	if cfg.MaxSamples > 0 {
		n = cfg.MaxSamples
	}
	trainSet, err := dataset.Synthetic(n, syntheticClasses, syntheticShape, cfg.Seed)
	if err != nil {
		return nil, nil, err
	}
	testSet, err := dataset.Synthetic(max(n/5, 1), syntheticClasses, syntheticShape, cfg.Seed+1)
	if err != nil {
		return nil, nil, err
	}
	return trainSet, testSet, nil
}

func loadDistilled(cfg config.Config) (*dataset.InMemory, *dataset.InMemory, error) {
	full, err := dataset.LoadDistilled(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	full = full.Sample(cfg.MaxSamples, cfg.Seed)

	if cfg.TestPath == "" {
		trainSet, testSet := full.Split(distilledHoldout, cfg.Seed)
		if trainSet.Len() == 0 || testSet.Len() == 0 {
			return nil, nil, fmt.Errorf("distilled dataset %s has too few examples (%d) to hold out a test split: %w",
				cfg.DataDir, full.Len(), dataset.ErrEmpty)
		}
		return trainSet, testSet, nil
	}

	testSet, err := dataset.LoadDistilled(cfg.TestPath)
	if err != nil {
		return nil, nil, err
	}
	return full, testSet.Sample(cfg.MaxSamples, cfg.Seed), nil
}
