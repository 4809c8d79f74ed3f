// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"fmt"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"

	"github.com/born-ml/trainer/internal/metrics"
	"github.com/born-ml/trainer/internal/model"
)

// Result is the outcome of one evaluation pass.
//
// Accuracy is the ratio Correct/Total in [0, 1].
type Result struct {
	Correct  int
	Total    int
	Accuracy float64
	Loss     float64 // mean cross-entropy per example
}

// Record converts r into a metrics record.
func (r Result) Record() metrics.Record {
	return metrics.Record{
		metrics.Accuracy: r.Accuracy,
		metrics.Loss:     r.Loss,
	}
}

// tapeOwner is satisfied by autodiff backends.
type tapeOwner interface {
	Tape() *autodiff.GradientTape
}

// pauseRecording stops gradient recording on backends that have a tape and
// returns a func that restores the previous state.
func pauseRecording(backend any) func() {
	owner, ok := backend.(tapeOwner)
	if !ok {
		return func() {}
	}
	tape := owner.Tape()
	if !tape.IsRecording() {
		return func() {}
	}
	tape.StopRecording()
	return tape.StartRecording
}

// Evaluate runs m in inference mode over one pass of src and counts how
// often the highest-scoring class equals the label. Ties resolve to the
// lowest class index.
//
// No gradients are recorded and no parameters change. Only the aggregate
// counts matter, so the result does not depend on the order in which src
// yields examples.
func Evaluate[B tensor.Backend](m model.Classifier[B], src Source[B]) (Result, error) {
	var (
		res     Result
		lossSum   float64
		restore   func()
		criterion *nn.CrossEntropyLoss[B]
	)
	defer func() {
		if restore != nil {
			restore()
		}
	}()

	for batch, err := range src.All() {
		if err != nil {
			return Result{}, err
		}
		if restore == nil {
			backend := batch.Inputs.Backend()
			restore = pauseRecording(backend)
			criterion = nn.NewCrossEntropyLoss(backend)
		}

		logits := m.Forward(batch.Inputs)
		shape := logits.Shape()
		labels := batch.Labels.Data()
		if len(shape) != 2 || shape[0] != len(labels) || batch.Size != len(labels) {
			return Result{}, fmt.Errorf("evaluate: logits %v do not match %d labels", shape, len(labels))
		}

		correct, err := countCorrect(logits.Data(), labels, shape[1])
		if err != nil {
			return Result{}, err
		}
		// The criterion returns the batch mean; weight it back by batch size
		// so the final loss is a per-example mean over the whole split.
		loss := criterion.Forward(logits, batch.Labels).Data()[0]
		res.Correct += correct
		res.Total += len(labels)
		lossSum += float64(loss) * float64(len(labels))
	}

	if res.Total == 0 {
		return Result{}, ErrEmptySplit
	}
	res.Accuracy = float64(res.Correct) / float64(res.Total)
	res.Loss = lossSum / float64(res.Total)
	return res, nil
}

// countCorrect returns how many rows of a [len(labels), classes] logits
// block have their maximum at the label. Labels outside [0, classes) are an
// error.
func countCorrect(logits []float32, labels []int32, classes int) (int, error) {
	correct := 0
	for i, label := range labels {
		if label < 0 || int(label) >= classes {
			return 0, fmt.Errorf("evaluate: label %d out of range [0, %d)", label, classes)
		}
		row := logits[i*classes : (i+1)*classes]

		best := 0
		for c, v := range row {
			if v > row[best] {
				best = c
			}
		}
		if best == int(label) {
			correct++
		}
	}
	return correct, nil
}
