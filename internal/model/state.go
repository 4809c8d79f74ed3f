// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"fmt"
	"strings"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// layerParams ties a layer's parameters to the prefix used for them in a
// state dictionary ("conv1.weight", "fc.bias", ...).
type layerParams[B tensor.Backend] struct {
	prefix string
	params []*nn.Parameter[B]
}

func stateKey(prefix, name string) string {
	// Born layers name their parameters "conv2d.weight", "weight", ...
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return prefix + "." + name
}

func stateDict[B tensor.Backend](layers []layerParams[B]) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for _, l := range layers {
		for _, p := range l.params {
			out[stateKey(l.prefix, p.Name())] = p.Tensor().Raw()
		}
	}
	return out
}

func loadStateDict[B tensor.Backend](layers []layerParams[B], state map[string]*tensor.RawTensor) error {
	for _, l := range layers {
		for _, p := range l.params {
			key := stateKey(l.prefix, p.Name())
			raw, ok := state[key]
			if !ok {
				return fmt.Errorf("missing %s in state dict", key)
			}
			want := p.Tensor().Shape()
			if !raw.Shape().Equal(want) {
				return fmt.Errorf("%s shape mismatch: expected %v, got %v", key, want, raw.Shape())
			}
			if raw.DType() != tensor.Float32 {
				return fmt.Errorf("%s dtype mismatch: expected float32, got %v", key, raw.DType())
			}
			copy(p.Tensor().Data(), raw.AsFloat32())
		}
	}
	return nil
}
