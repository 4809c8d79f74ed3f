// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset provides the labelled image splits consumed by the
// training and evaluation loops.
//
// Readers decode the on-disk formats (MNIST IDX, CIFAR-10 binary batches,
// precomputed .safetensors tensors) into an in-memory Dataset. A Loader
// then turns a Dataset into mini-batches of Born tensors.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
)

// Split names a partition of a dataset.
type Split string

// Known splits.
const (
	Train Split = "train"
	Test  Split = "test"
)

// ErrEmpty is returned when a reader or loader ends up with no examples.
var ErrEmpty = errors.New("dataset is empty")

// Dataset is a random-access collection of labelled examples.
//
// Every example has the same per-example shape (for images: [C, H, W])
// and a label in [0, NumClasses()).
type Dataset interface {
	// Len returns the number of examples.
	Len() int

	// Example returns the flattened input and label of example i.
	// The returned slice must not be modified by the caller.
	Example(i int) ([]float32, int32)

	// Shape returns the per-example input shape.
	Shape() []int

	// NumClasses returns the number of label classes.
	NumClasses() int
}

// InMemory is a Dataset held entirely in memory.
type InMemory struct {
	images  [][]float32
	labels  []int32
	shape   []int
	classes int
}

// NewInMemory validates and wraps images and labels.
func NewInMemory(images [][]float32, labels []int32, shape []int, classes int) (*InMemory, error) {
	if len(images) != len(labels) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", len(images), len(labels))
	}
	if classes <= 0 {
		return nil, fmt.Errorf("number of classes must be > 0 (got %d)", classes)
	}
	size := numElements(shape)
	if size <= 0 {
		return nil, fmt.Errorf("invalid example shape %v", shape)
	}
	for i, img := range images {
		if len(img) != size {
			return nil, fmt.Errorf("example %d has %d values, shape %v needs %d", i, len(img), shape, size)
		}
		if labels[i] < 0 || int(labels[i]) >= classes {
			return nil, fmt.Errorf("label %d of example %d out of range [0, %d)", labels[i], i, classes)
		}
	}
	return &InMemory{
		images:  images,
		labels:  labels,
		shape:   append([]int(nil), shape...),
		classes: classes,
	}, nil
}

// Len returns the number of examples.
func (d *InMemory) Len() int { return len(d.images) }

// Example returns example i.
func (d *InMemory) Example(i int) ([]float32, int32) { return d.images[i], d.labels[i] }

// Shape returns the per-example shape.
func (d *InMemory) Shape() []int { return d.shape }

// NumClasses returns the number of classes.
func (d *InMemory) NumClasses() int { return d.classes }

// Split partitions d into a training part and a held-out part holding about
// ratio of the examples. Each class is shuffled with seed and cut on its
// own, so a class with at least two examples lands in both parts even when
// the source is sorted by label. Both parts keep the source order.
func (d *InMemory) Split(ratio float64, seed int64) (train, test *InMemory) {
	ratio = min(max(ratio, 0), 1)
	var trainIdx, testIdx []int
	for _, idx := range d.byClass(seed) {
		n := len(idx)
		k := int(math.Round(float64(n) * ratio))
		if ratio > 0 && ratio < 1 && n >= 2 {
			k = min(max(k, 1), n-1)
		}
		testIdx = append(testIdx, idx[:k]...)
		trainIdx = append(trainIdx, idx[k:]...)
	}
	slices.Sort(trainIdx)
	slices.Sort(testIdx)
	return d.Subset(trainIdx), d.Subset(testIdx)
}

// Sample returns n examples drawn round-robin across the classes, each
// class in an order shuffled with seed. It returns d itself when n <= 0 or
// n >= d.Len().
func (d *InMemory) Sample(n int, seed int64) *InMemory {
	if n <= 0 || n >= d.Len() {
		return d
	}
	classes := d.byClass(seed)
	picked := make([]int, 0, n)
	for round := 0; len(picked) < n; round++ {
		for _, idx := range classes {
			if round < len(idx) && len(picked) < n {
				picked = append(picked, idx[round])
			}
		}
	}
	slices.Sort(picked)
	return d.Subset(picked)
}

// byClass groups example indices by label and shuffles each group.
func (d *InMemory) byClass(seed int64) [][]int {
	groups := make([][]int, d.classes)
	for i, label := range d.labels {
		groups[label] = append(groups[label], i)
	}
	rng := rand.New(rand.NewSource(seed))
	for _, idx := range groups {
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
	}
	return groups
}

// Subset returns a view over the given example indices, in that order.
func (d *InMemory) Subset(indices []int) *InMemory {
	images := make([][]float32, len(indices))
	labels := make([]int32, len(indices))
	for i, idx := range indices {
		images[i] = d.images[idx]
		labels[i] = d.labels[idx]
	}
	return &InMemory{images: images, labels: labels, shape: d.shape, classes: d.classes}
}

// ClassCounts returns how many examples carry each label.
func ClassCounts(ds Dataset) []int {
	counts := make([]int, ds.NumClasses())
	for i := 0; i < ds.Len(); i++ {
		_, label := ds.Example(i)
		counts[label]++
	}
	return counts
}

func numElements(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}
