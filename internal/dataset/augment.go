// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package dataset

import "math/rand"

// cropPad is the zero padding applied before a random crop.
const cropPad = 4

// augment writes a randomly flipped and shifted copy of src (CHW) into dst.
//
// Single-channel images are copied unchanged: flipping digits changes
// their meaning.
func augment(dst, src []float32, shape []int, rng *rand.Rand) {
	if len(shape) != 3 || shape[0] < 3 {
		copy(dst, src)
		return
	}
	channels, rows, cols := shape[0], shape[1], shape[2]
	flip := rng.Intn(2) == 1
	dy := rng.Intn(2*cropPad+1) - cropPad
	dx := rng.Intn(2*cropPad+1) - cropPad

	plane := rows * cols
	for c := 0; c < channels; c++ {
		for y := 0; y < rows; y++ {
			sy := y + dy
			for x := 0; x < cols; x++ {
				sx := x + dx
				if flip {
					sx = cols - 1 - sx
				}
				var v float32
				if sy >= 0 && sy < rows && sx >= 0 && sx < cols {
					v = src[c*plane+sy*cols+sx]
				}
				dst[c*plane+y*cols+x] = v
			}
		}
	}
}
