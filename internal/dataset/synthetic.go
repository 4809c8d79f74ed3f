// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"math/rand"
)

// Synthetic builds a deterministic, linearly separable image dataset.
//
// Example i has label i%classes. Each class lights a different horizontal
// band of the image (value 0.8) on top of uniform noise in [0, 0.1), so a
// small CNN separates the classes within an epoch or two. It is meant for
// smoke runs without downloaded data, not as a benchmark.
func Synthetic(n, classes int, shape []int, seed int64) (*InMemory, error) {
	if n <= 0 {
		return nil, fmt.Errorf("synthetic: %w", ErrEmpty)
	}
	if len(shape) != 3 {
		return nil, fmt.Errorf("synthetic: shape must be [C, H, W], got %v", shape)
	}
	channels, rows, cols := shape[0], shape[1], shape[2]
	if classes <= 0 || classes > rows {
		return nil, fmt.Errorf("synthetic: need 0 < classes <= rows (classes=%d rows=%d)", classes, rows)
	}

	rng := rand.New(rand.NewSource(seed))
	band := rows / classes
	if band == 0 {
		band = 1
	}

	images := make([][]float32, n)
	labels := make([]int32, n)
	plane := rows * cols
	for i := range images {
		label := i % classes
		img := make([]float32, channels*plane)
		for j := range img {
			img[j] = rng.Float32() * 0.1
		}
		start := label * band
		for c := 0; c < channels; c++ {
			for r := start; r < start+band && r < rows; r++ {
				for col := 0; col < cols; col++ {
					img[c*plane+r*cols+col] = 0.8
				}
			}
		}
		images[i] = img
		labels[i] = int32(label)
	}
	return NewInMemory(images, labels, shape, classes)
}
