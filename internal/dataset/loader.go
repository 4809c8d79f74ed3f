// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"iter"
	"math/rand"

	"github.com/born-ml/born/tensor"
)

// Batch is a mini-batch of inputs and integer class labels.
//
// Inputs has shape [Size, C, H, W]; Labels has shape [Size].
type Batch[B tensor.Backend] struct {
	Inputs *tensor.Tensor[float32, B]
	Labels *tensor.Tensor[int32, B]
	Size   int
}

// LoaderOptions configure a Loader.
type LoaderOptions struct {
	BatchSize int
	Shuffle   bool
	Augment   bool
	Seed      int64
}

// Loader turns a Dataset into mini-batches of tensors on a backend.
//
// Every call to All walks the dataset exactly once. With Shuffle set, each
// walk uses a fresh permutation drawn from the loader's seeded PRNG, so a
// sequence of epochs is reproducible for a given seed.
type Loader[B tensor.Backend] struct {
	ds      Dataset
	backend B
	opts    LoaderOptions
	rng     *rand.Rand
}

// NewLoader creates a Loader over ds.
func NewLoader[B tensor.Backend](ds Dataset, backend B, opts LoaderOptions) (*Loader[B], error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("new loader: %w", ErrEmpty)
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("new loader: batch size must be > 0 (got %d)", opts.BatchSize)
	}
	return &Loader[B]{
		ds:      ds,
		backend: backend,
		opts:    opts,
		rng:     rand.New(rand.NewSource(opts.Seed)),
	}, nil
}

// NumExamples returns the number of examples visited per pass.
func (l *Loader[B]) NumExamples() int { return l.ds.Len() }

// NumBatches returns the number of batches per pass. The last batch is
// short when the batch size does not divide the dataset.
func (l *Loader[B]) NumBatches() int {
	return (l.ds.Len() + l.opts.BatchSize - 1) / l.opts.BatchSize
}

// Dataset returns the underlying dataset.
func (l *Loader[B]) Dataset() Dataset { return l.ds }

// All yields every batch of one pass over the dataset.
func (l *Loader[B]) All() iter.Seq2[Batch[B], error] {
	order := l.order()
	return func(yield func(Batch[B], error) bool) {
		for start := 0; start < len(order); start += l.opts.BatchSize {
			end := min(start+l.opts.BatchSize, len(order))
			batch, err := l.build(order[start:end])
			if !yield(batch, err) || err != nil {
				return
			}
		}
	}
}

func (l *Loader[B]) order() []int {
	n := l.ds.Len()
	if l.opts.Shuffle {
		return l.rng.Perm(n)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func (l *Loader[B]) build(indices []int) (Batch[B], error) {
	shape := l.ds.Shape()
	size := numElements(shape)
	n := len(indices)

	dims := append(tensor.Shape{n}, shape...)
	inputsRaw, err := tensor.NewRaw(dims, tensor.Float32, l.backend.Device())
	if err != nil {
		return Batch[B]{}, fmt.Errorf("create inputs tensor: %w", err)
	}
	labelsRaw, err := tensor.NewRaw(tensor.Shape{n}, tensor.Int32, l.backend.Device())
	if err != nil {
		return Batch[B]{}, fmt.Errorf("create labels tensor: %w", err)
	}

	inputs := inputsRaw.AsFloat32()
	labels := labelsRaw.AsInt32()
	for j, idx := range indices {
		img, label := l.ds.Example(idx)
		dst := inputs[j*size : (j+1)*size]
		if l.opts.Augment {
			augment(dst, img, shape, l.rng)
		} else {
			copy(dst, img)
		}
		labels[j] = label
	}

	return Batch[B]{
		Inputs: tensor.New[float32, B](inputsRaw, l.backend),
		Labels: tensor.New[int32, B](labelsRaw, l.backend),
		Size:   n,
	}, nil
}
