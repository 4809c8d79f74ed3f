// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train implements the training and evaluation loops.
//
// Both loops are plain sequential iterations over a batch source. All
// numeric work (forward pass, cross-entropy, gradients, parameter update)
// is delegated to Born: the autodiff backend records the forward pass on
// its gradient tape, the tape produces gradients, and an optim.Optimizer
// applies them.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	net, _ := model.NewSimpleCNN(1, 28, 28, 10, backend)
//	opt := optim.NewAdam(net.Parameters(), optim.AdamConfig{LR: 0.001}, backend)
//	trainer, _ := train.NewTrainer(backend, train.Config{LearningRate: 0.001, BatchSize: 64, Epochs: 5})
//	stats, err := trainer.Fit(net, opt, trainLoader)
//	result, err := train.Evaluate[*autodiff.Backend[*cpu.Backend]](net, testLoader)
package train

import (
	"errors"
	"fmt"
	"iter"

	"github.com/born-ml/born/tensor"

	"github.com/born-ml/trainer/internal/dataset"
)

// ErrEmptySplit is returned when a loop is handed a source without examples.
var ErrEmptySplit = errors.New("split has no examples")

// Config holds the immutable hyperparameters of a run.
type Config struct {
	LearningRate float64
	BatchSize    int
	Epochs       int
}

// Validate checks the hyperparameters. Zero epochs is allowed and means
// "evaluate the initial parameters".
func (c Config) Validate() error {
	if c.LearningRate <= 0 {
		return fmt.Errorf("train: learning rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("train: batch size must be > 0 (got %d)", c.BatchSize)
	}
	if c.Epochs < 0 {
		return fmt.Errorf("train: epochs must be >= 0 (got %d)", c.Epochs)
	}
	return nil
}

// Source yields the batches of one pass over a split. Each call to All
// starts a new pass.
type Source[B tensor.Backend] interface {
	All() iter.Seq2[dataset.Batch[B], error]
}

// SliceSource is a Source over a fixed list of batches.
type SliceSource[B tensor.Backend] []dataset.Batch[B]

// All yields the batches in order.
func (s SliceSource[B]) All() iter.Seq2[dataset.Batch[B], error] {
	return func(yield func(dataset.Batch[B], error) bool) {
		for _, b := range s {
			if !yield(b, nil) {
				return
			}
		}
	}
}
