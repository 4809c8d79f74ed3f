// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"fmt"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// SimpleCNN is the two-block convolutional network used for MNIST.
//
// Architecture (for a [1, 28, 28] input):
//
//	Conv1: 1 → 32 channels, 3x3, padding 1 -> [batch, 32, 28, 28]
//	ReLU, MaxPool 2x2                       -> [batch, 32, 14, 14]
//	Conv2: 32 → 64 channels, 3x3, padding 1 -> [batch, 64, 14, 14]
//	ReLU, MaxPool 2x2                       -> [batch, 64, 7, 7]
//	Flatten                                 -> [batch, 3136]
//	FC1: 3136 → 128, ReLU
//	FC2: 128 → classes
type SimpleCNN[B tensor.Backend] struct {
	channels, height, width int
	classes                 int

	conv1 *nn.Conv2D[B]
	conv2 *nn.Conv2D[B]
	pool  *nn.MaxPool2D[B]
	relu  *nn.ReLU[B]
	fc1   *nn.Linear[B]
	fc2   *nn.Linear[B]
}

// NewSimpleCNN creates the network for channels x height x width inputs.
// Height and width must be divisible by 4.
func NewSimpleCNN[B tensor.Backend](channels, height, width, classes int, backend B) (*SimpleCNN[B], error) {
	if channels <= 0 || height <= 0 || width <= 0 || height%4 != 0 || width%4 != 0 {
		return nil, fmt.Errorf("simple cnn: input %dx%dx%d must be positive with H and W divisible by 4",
			channels, height, width)
	}
	features := 64 * (height / 4) * (width / 4)
	return &SimpleCNN[B]{
		channels: channels,
		height:   height,
		width:    width,
		classes:  classes,
		conv1:    nn.NewConv2D(channels, 32, 3, 3, 1, 1, true, backend),
		conv2:    nn.NewConv2D(32, 64, 3, 3, 1, 1, true, backend),
		pool:     nn.NewMaxPool2D(2, 2, backend),
		relu:     nn.NewReLU[B](),
		fc1:      nn.NewLinear(features, 128, backend),
		fc2:      nn.NewLinear(128, classes, backend),
	}, nil
}

// Forward computes class logits.
//
// Accepts [batch, C, H, W] or flattened [batch, C*H*W] input.
func (m *SimpleCNN[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	switch len(shape) {
	case 2:
		input = input.Reshape(shape[0], m.channels, m.height, m.width)
	case 4:
	default:
		panic(fmt.Sprintf("simple cnn: expected 2D or 4D input, got %dD", len(shape)))
	}

	x := m.pool.Forward(m.relu.Forward(m.conv1.Forward(input)))
	x = m.pool.Forward(m.relu.Forward(m.conv2.Forward(x)))
	x = flatten(x)
	x = m.relu.Forward(m.fc1.Forward(x))
	return m.fc2.Forward(x)
}

func (m *SimpleCNN[B]) layers() []layerParams[B] {
	return []layerParams[B]{
		{"conv1", m.conv1.Parameters()},
		{"conv2", m.conv2.Parameters()},
		{"fc1", m.fc1.Parameters()},
		{"fc2", m.fc2.Parameters()},
	}
}

// Parameters returns all trainable parameters.
func (m *SimpleCNN[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 8)
	for _, l := range m.layers() {
		params = append(params, l.params...)
	}
	return params
}

// StateDict returns the parameters keyed by layer name.
func (m *SimpleCNN[B]) StateDict() map[string]*tensor.RawTensor {
	return stateDict(m.layers())
}

// LoadStateDict copies parameters from a state dictionary.
func (m *SimpleCNN[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	return loadStateDict(m.layers(), state)
}

// NumClasses returns the width of the output layer.
func (m *SimpleCNN[B]) NumClasses() int { return m.classes }

func (m *SimpleCNN[B]) String() string {
	return fmt.Sprintf(`SimpleCNN(
  %s
  ReLU()
  %s
  %s
  ReLU()
  %s
  Linear(in=%d, out=128)
  ReLU()
  Linear(in=128, out=%d)
)`,
		m.conv1.String(), m.pool.String(),
		m.conv2.String(), m.pool.String(),
		64*(m.height/4)*(m.width/4), m.classes)
}
