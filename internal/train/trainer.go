// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/optim"
	"github.com/born-ml/born/tensor"

	"github.com/born-ml/trainer/internal/dataset"
	"github.com/born-ml/trainer/internal/metrics"
	"github.com/born-ml/trainer/internal/model"
)

// ErrNonFinite is returned when a batch produces a NaN or infinite loss.
var ErrNonFinite = errors.New("loss is not finite")

// EpochStats summarises one training epoch.
type EpochStats struct {
	Epoch    int // 1-based
	Loss     float64
	Batches  int
	Examples int
	Duration time.Duration
}

// Trainer runs the training loop on an autodiff-wrapped backend X.
type Trainer[X tensor.Backend] struct {
	backend *autodiff.Backend[X]
	cfg     Config

	// OnEpoch, when set, runs after every epoch. A non-nil error aborts Fit.
	OnEpoch func(EpochStats) error

	// LogEvery logs the running loss every N batches (0 disables).
	LogEvery int
}

// NewTrainer validates cfg and returns a Trainer.
func NewTrainer[X tensor.Backend](backend *autodiff.Backend[X], cfg Config) (*Trainer[X], error) {
	if backend == nil {
		return nil, errors.New("train: backend is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Trainer[X]{backend: backend, cfg: cfg}, nil
}

// Config returns the hyperparameters the trainer was built with.
func (t *Trainer[X]) Config() Config { return t.cfg }

// Fit runs Config().Epochs full passes over src, updating the parameters of
// m through opt after every batch.
//
// The first failing batch aborts the run; parameter updates already
// applied are kept. With zero epochs Fit returns immediately and m is
// left untouched.
func (t *Trainer[X]) Fit(
	m model.Classifier[*autodiff.Backend[X]],
	opt optim.Optimizer,
	src Source[*autodiff.Backend[X]],
) ([]EpochStats, error) {
	stats := make([]EpochStats, 0, t.cfg.Epochs)
	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		es, err := t.epoch(epoch, m, opt, src)
		if err != nil {
			return stats, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		stats = append(stats, es)
		if t.OnEpoch != nil {
			if err := t.OnEpoch(es); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

func (t *Trainer[X]) epoch(
	epoch int,
	m model.Classifier[*autodiff.Backend[X]],
	opt optim.Optimizer,
	src Source[*autodiff.Backend[X]],
) (EpochStats, error) {
	start := time.Now()
	var window metrics.Window
	es := EpochStats{Epoch: epoch}

	for batch, err := range src.All() {
		if err != nil {
			return es, err
		}
		loss, err := t.Step(m, opt, batch)
		if err != nil {
			return es, fmt.Errorf("batch %d: %w", es.Batches+1, err)
		}
		window.Add(loss)
		es.Batches++
		es.Examples += batch.Size

		if t.LogEvery > 0 && es.Batches%t.LogEvery == 0 {
			log.Printf("epoch=%d batch=%d loss=%.4f", epoch, es.Batches, window.Mean())
		}
	}
	if es.Batches == 0 {
		return es, ErrEmptySplit
	}
	es.Loss = window.Mean()
	es.Duration = time.Since(start)
	return es, nil
}

// Step performs one optimisation step on a single batch and returns the
// batch loss: forward pass, cross-entropy against the integer labels,
// backward pass, optimizer step, gradient reset.
func (t *Trainer[X]) Step(
	m model.Classifier[*autodiff.Backend[X]],
	opt optim.Optimizer,
	batch dataset.Batch[*autodiff.Backend[X]],
) (float64, error) {
	if n := batch.Labels.NumElements(); n != batch.Size || batch.Inputs.Shape()[0] != n {
		return 0, fmt.Errorf("batch dimension mismatch: inputs %v, labels %d, size %d",
			batch.Inputs.Shape(), n, batch.Size)
	}

	tape := t.backend.Tape()
	tape.Clear()
	tape.StartRecording()
	defer func() {
		tape.StopRecording()
		tape.Clear()
	}()

	logits := m.Forward(batch.Inputs)
	lossRaw := t.backend.CrossEntropy(logits.Raw(), batch.Labels.Raw())
	loss := float64(lossRaw.AsFloat32()[0])
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return loss, ErrNonFinite
	}

	outputGrad, err := tensor.NewRaw(lossRaw.Shape(), lossRaw.DType(), t.backend.Device())
	if err != nil {
		return 0, fmt.Errorf("create output gradient: %w", err)
	}
	outputGrad.AsFloat32()[0] = 1.0

	grads := tape.Backward(outputGrad, t.backend)
	opt.Step(grads)
	opt.ZeroGrad()
	return loss, nil
}
