// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"path/filepath"
)

// MNIST geometry.
const (
	MNISTRows    = 28
	MNISTCols    = 28
	MNISTClasses = 10
)

// MNISTFiles returns the image and label file names of a split inside dir.
// Either the raw file or a .gz sibling is accepted by LoadMNIST.
func MNISTFiles(dir string, split Split) (images, labels string) {
	prefix := "train"
	if split == Test {
		prefix = "t10k"
	}
	return filepath.Join(dir, prefix+"-images-idx3-ubyte"),
		filepath.Join(dir, prefix+"-labels-idx1-ubyte")
}

// LoadMNIST loads an MNIST split from the official IDX files.
//
// Pixels are normalised to [0, 1] and each example has shape [1, 28, 28].
// maxSamples limits the number of examples read (0 = all).
//
// Expected files in dir:
//   - train-images-idx3-ubyte, train-labels-idx1-ubyte
//   - t10k-images-idx3-ubyte, t10k-labels-idx1-ubyte
//
// Download MNIST from: http://yann.lecun.com/exdb/mnist/
func LoadMNIST(dir string, split Split, maxSamples int) (*InMemory, error) {
	imageFile, labelFile := MNISTFiles(dir, split)

	rc, err := openData(imageFile)
	if err != nil {
		return nil, fmt.Errorf("load mnist images: %w", err)
	}
	raw, err := readIDXImages(rc, maxSamples)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("load mnist images %s: %w", imageFile, err)
	}

	rc, err = openData(labelFile)
	if err != nil {
		return nil, fmt.Errorf("load mnist labels: %w", err)
	}
	rawLabels, err := readIDXLabels(rc, maxSamples)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("load mnist labels %s: %w", labelFile, err)
	}

	if len(raw.pixels) != len(rawLabels) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", len(raw.pixels), len(rawLabels))
	}
	if len(raw.pixels) == 0 {
		return nil, fmt.Errorf("mnist %s: %w", split, ErrEmpty)
	}

	images := make([][]float32, len(raw.pixels))
	labels := make([]int32, len(rawLabels))
	for i, px := range raw.pixels {
		img := make([]float32, len(px))
		for j, v := range px {
			img[j] = float32(v) / 255.0
		}
		images[i] = img
		labels[i] = int32(rawLabels[i])
	}

	return NewInMemory(images, labels, []int{1, raw.rows, raw.cols}, MNISTClasses)
}
