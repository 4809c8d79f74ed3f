// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pipeline wires a validated config into one end-to-end run:
// load the splits, build the network and optimizer, train, evaluate on the
// held-out split, and persist the metrics record.
package pipeline

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/optim"
	"github.com/born-ml/born/tensor"

	"github.com/born-ml/trainer/internal/config"
	"github.com/born-ml/trainer/internal/dataset"
	"github.com/born-ml/trainer/internal/device"
	"github.com/born-ml/trainer/internal/metrics"
	"github.com/born-ml/trainer/internal/model"
	"github.com/born-ml/trainer/internal/train"
)

// logEvery is how often the running loss is logged, in batches.
const logEvery = 100

// Run executes the run described by cfg and returns the metrics record it
// wrote to cfg.MetricsPath.
func Run(cfg config.Config) (metrics.Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kind, err := device.Parse(cfg.Device)
	if err != nil {
		return nil, err
	}
	kind, err = device.Resolve(kind)
	if err != nil {
		return nil, err
	}
	log.Printf("device: %s", device.Describe(kind))

	if kind == device.WebGPU {
		return runWebGPU(cfg)
	}
	return run(cfg, cpu.New())
}

func run[X tensor.Backend](cfg config.Config, base X) (metrics.Record, error) {
	backend := autodiff.New(base)

	trainSet, testSet, err := LoadSplits(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("data: %s train=%d test=%d shape=%v classes=%d",
		cfg.Dataset, trainSet.Len(), testSet.Len(), trainSet.Shape(), trainSet.NumClasses())

	net, err := model.New(model.Kind(cfg.Model), trainSet.Shape(), trainSet.NumClasses(), backend)
	if err != nil {
		return nil, err
	}
	log.Printf("model: %s, %d parameters", net, model.CountParameters[*autodiff.Backend[X]](net))

	opt, err := NewOptimizer(cfg, net.Parameters(), backend)
	if err != nil {
		return nil, err
	}

	trainLoader, err := dataset.NewLoader(trainSet, backend, dataset.LoaderOptions{
		BatchSize: cfg.BatchSize,
		Shuffle:   true,
		Augment:   cfg.Augment,
		Seed:      cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("train split: %w", err)
	}
	testLoader, err := dataset.NewLoader(testSet, backend, dataset.LoaderOptions{
		BatchSize: cfg.EvalBatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("test split: %w", err)
	}

	trainer, err := train.NewTrainer(backend, train.Config{
		LearningRate: cfg.LearningRate,
		BatchSize:    cfg.BatchSize,
		Epochs:       cfg.Epochs,
	})
	if err != nil {
		return nil, err
	}
	// The held-out split is scored after every epoch; the last score is
	// the final result.
	var (
		res    train.Result
		scored bool
	)
	evaluate := func() error {
		r, err := train.Evaluate[*autodiff.Backend[X]](net, testLoader)
		if err != nil {
			return fmt.Errorf("evaluate: %w", err)
		}
		res, scored = r, true
		return nil
	}

	trainer.LogEvery = logEvery
	trainer.OnEpoch = func(es train.EpochStats) error {
		if err := evaluate(); err != nil {
			return err
		}
		log.Printf("epoch=%d/%d loss=%.4f accuracy=%.4f test_loss=%.4f examples=%d time=%s",
			es.Epoch, cfg.Epochs, es.Loss, res.Accuracy, res.Loss, es.Examples, es.Duration.Round(time.Millisecond))
		return nil
	}

	stats, err := trainer.Fit(net, opt, trainLoader)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	if !scored {
		if err := evaluate(); err != nil {
			return nil, err
		}
	}
	log.Printf("test: accuracy=%.4f (%d/%d) loss=%.4f", res.Accuracy, res.Correct, res.Total, res.Loss)

	rec := res.Record()
	rec[metrics.Epochs] = float64(len(stats))
	if len(stats) > 0 {
		rec[metrics.TrainLoss] = stats[len(stats)-1].Loss
	}
	if err := metrics.WriteFile(cfg.MetricsPath, rec); err != nil {
		return nil, err
	}
	log.Printf("metrics written to %s", cfg.MetricsPath)

	if cfg.CheckpointPath != "" {
		meta := map[string]string{
			"dataset":  cfg.Dataset,
			"classes":  strconv.Itoa(net.NumClasses()),
			"shape":    fmt.Sprint(trainSet.Shape()),
			"accuracy": strconv.FormatFloat(res.Accuracy, 'f', 4, 64),
		}
		if err := nn.Save[*autodiff.Backend[X]](net, cfg.CheckpointPath, cfg.Model, meta); err != nil {
			return nil, fmt.Errorf("save checkpoint: %w", err)
		}
		log.Printf("checkpoint written to %s", cfg.CheckpointPath)
	}
	return rec, nil
}

// NewOptimizer builds the optimizer named by cfg.Optimizer over params.
func NewOptimizer[B tensor.Backend](cfg config.Config, params []*nn.Parameter[B], backend B) (optim.Optimizer, error) {
	switch cfg.Optimizer {
	case config.OptimizerAdam:
		return optim.NewAdam(params, optim.AdamConfig{
			LR:    float32(cfg.LearningRate),
			Betas: [2]float32{0.9, 0.999},
			Eps:   1e-8,
		}, backend), nil
	case config.OptimizerSGD:
		return optim.NewSGD(params, optim.SGDConfig{
			LR:       float32(cfg.LearningRate),
			Momentum: float32(cfg.Momentum),
		}, backend), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", cfg.Optimizer)
	}
}
