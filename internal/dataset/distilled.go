// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"math"
	"strconv"

	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/loader"
	"github.com/born-ml/born/tensor"
)

// Tensor names expected in a distilled dataset file.
const (
	DistilledImages = "images"
	DistilledLabels = "labels"
)

// LoadDistilled loads a precomputed (distilled) dataset from a .safetensors
// file holding two tensors:
//
//	images: F32 [N, C, H, W], [N, H, W] or [N, D]
//	labels: I64, I32 or U8 [N]
//
// The optional metadata key "num_classes" fixes the class count; otherwise
// it is one past the largest label. How the tensors were produced is not
// this package's concern.
func LoadDistilled(path string) (*InMemory, error) {
	model, err := loader.OpenModel(path)
	if err != nil {
		return nil, fmt.Errorf("open distilled dataset: %w", err)
	}
	defer model.Close()

	backend := cpu.New()

	imagesRaw, err := model.LoadTensor(DistilledImages, backend)
	if err != nil {
		return nil, fmt.Errorf("load %q tensor: %w", DistilledImages, err)
	}
	labelsRaw, err := model.LoadTensor(DistilledLabels, backend)
	if err != nil {
		return nil, fmt.Errorf("load %q tensor: %w", DistilledLabels, err)
	}

	if imagesRaw.DType() != tensor.Float32 {
		return nil, fmt.Errorf("%q tensor must be float32, got %v", DistilledImages, imagesRaw.DType())
	}
	shape := imagesRaw.Shape()
	if len(shape) < 2 {
		return nil, fmt.Errorf("%q tensor must have a batch dimension, got shape %v", DistilledImages, shape)
	}
	n := shape[0]
	example := exampleShape(shape[1:])

	labels, err := labelValues(labelsRaw)
	if err != nil {
		return nil, err
	}
	if len(labels) != n {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", n, len(labels))
	}
	if n == 0 {
		return nil, fmt.Errorf("distilled %s: %w", path, ErrEmpty)
	}

	classes, err := distilledClasses(model.Metadata(), labels)
	if err != nil {
		return nil, err
	}

	size := numElements(example)
	flat := imagesRaw.AsFloat32()
	images := make([][]float32, n)
	for i := range images {
		img := make([]float32, size)
		copy(img, flat[i*size:(i+1)*size])
		images[i] = img
	}
	return NewInMemory(images, labels, example, classes)
}

// exampleShape normalises the per-example shape to CHW.
func exampleShape(dims []int) []int {
	switch len(dims) {
	case 1:
		return []int{1, 1, dims[0]}
	case 2:
		return []int{1, dims[0], dims[1]}
	default:
		return append([]int(nil), dims...)
	}
}

func labelValues(raw *tensor.RawTensor) ([]int32, error) {
	if len(raw.Shape()) != 1 {
		return nil, fmt.Errorf("%q tensor must be 1-D, got shape %v", DistilledLabels, raw.Shape())
	}
	switch raw.DType() {
	case tensor.Int32:
		return append([]int32(nil), raw.AsInt32()...), nil
	case tensor.Int64:
		src := raw.AsInt64()
		out := make([]int32, len(src))
		for i, v := range src {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("%q tensor: label %d at index %d does not fit in int32", DistilledLabels, v, i)
			}
			out[i] = int32(v)
		}
		return out, nil
	case tensor.Uint8:
		src := raw.AsUint8()
		out := make([]int32, len(src))
		for i, v := range src {
			out[i] = int32(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%q tensor has unsupported dtype %v", DistilledLabels, raw.DType())
	}
}

func distilledClasses(meta map[string]interface{}, labels []int32) (int, error) {
	if v, ok := meta["num_classes"]; ok {
		s := fmt.Sprint(v)
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("metadata num_classes %q: %w", s, err)
		}
		return n, nil
	}
	var maxLabel int32 = -1
	for _, l := range labels {
		if l > maxLabel {
			maxLabel = l
		}
	}
	return int(maxLabel) + 1, nil
}
