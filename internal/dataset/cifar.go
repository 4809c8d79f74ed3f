// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CIFAR-10 geometry.
const (
	CIFARChannels = 3
	CIFARSize     = 32
	CIFARClasses  = 10

	cifarImageBytes  = CIFARChannels * CIFARSize * CIFARSize
	cifarRecordBytes = 1 + cifarImageBytes
)

// Per-channel statistics of the CIFAR-10 training set.
var (
	cifarMean = [CIFARChannels]float32{0.4914, 0.4822, 0.4465}
	cifarStd  = [CIFARChannels]float32{0.2470, 0.2435, 0.2616}
)

// CIFAR10Files returns the binary batch files of a split inside dir.
// When dir contains the extracted "cifar-10-batches-bin" directory it is
// used instead.
func CIFAR10Files(dir string, split Split) []string {
	if st, err := os.Stat(filepath.Join(dir, "cifar-10-batches-bin")); err == nil && st.IsDir() {
		dir = filepath.Join(dir, "cifar-10-batches-bin")
	}
	if split == Test {
		return []string{filepath.Join(dir, "test_batch.bin")}
	}
	files := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		files = append(files, filepath.Join(dir, fmt.Sprintf("data_batch_%d.bin", i)))
	}
	return files
}

// LoadCIFAR10 loads a CIFAR-10 split from the binary distribution.
//
// Each record is one label byte followed by 3072 pixel bytes in CHW order
// (1024 red, 1024 green, 1024 blue). Pixels are scaled to [0, 1] and then
// standardised per channel. maxSamples limits the examples read (0 = all).
func LoadCIFAR10(dir string, split Split, maxSamples int) (*InMemory, error) {
	var (
		images [][]float32
		labels []int32
	)
	for _, name := range CIFAR10Files(dir, split) {
		if maxSamples > 0 && len(images) >= maxSamples {
			break
		}
		rc, err := openData(name)
		if err != nil {
			return nil, fmt.Errorf("load cifar10: %w", err)
		}
		remaining := 0
		if maxSamples > 0 {
			remaining = maxSamples - len(images)
		}
		imgs, lbls, err := readCIFARRecords(rc, remaining)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("load cifar10 %s: %w", name, err)
		}
		images = append(images, imgs...)
		labels = append(labels, lbls...)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("cifar10 %s: %w", split, ErrEmpty)
	}
	return NewInMemory(images, labels, []int{CIFARChannels, CIFARSize, CIFARSize}, CIFARClasses)
}

func readCIFARRecords(r io.Reader, limit int) ([][]float32, []int32, error) {
	var (
		images [][]float32
		labels []int32
		record [cifarRecordBytes]byte
	)
	for limit <= 0 || len(images) < limit {
		_, err := io.ReadFull(r, record[:])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", len(images), err)
		}
		label := int32(record[0])
		if label >= CIFARClasses {
			return nil, nil, fmt.Errorf("record %d: label %d out of range", len(images), label)
		}
		img := make([]float32, cifarImageBytes)
		plane := CIFARSize * CIFARSize
		for c := 0; c < CIFARChannels; c++ {
			for p := 0; p < plane; p++ {
				v := float32(record[1+c*plane+p]) / 255.0
				img[c*plane+p] = (v - cifarMean[c]) / cifarStd[c]
			}
		}
		images = append(images, img)
		labels = append(labels, label)
	}
	return images, labels, nil
}
