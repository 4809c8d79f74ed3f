// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"fmt"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// LeNet is a LeNet-5 style network.
//
// Architecture (for a [1, 28, 28] input):
//
//	Conv1: C → 6 channels, 5x5      -> [batch, 6, 24, 24]
//	ReLU, MaxPool 2x2               -> [batch, 6, 12, 12]
//	Conv2: 6 → 16 channels, 5x5     -> [batch, 16, 8, 8]
//	ReLU, MaxPool 2x2               -> [batch, 16, 4, 4]
//	Flatten                         -> [batch, 256]
//	FC1: 256 → 120, ReLU
//	FC2: 120 → 84, ReLU
//	FC3: 84 → classes
type LeNet[B tensor.Backend] struct {
	channels, height, width int
	classes                 int
	features                int

	conv1 *nn.Conv2D[B]
	conv2 *nn.Conv2D[B]
	pool  *nn.MaxPool2D[B]
	relu  *nn.ReLU[B]
	fc1   *nn.Linear[B]
	fc2   *nn.Linear[B]
	fc3   *nn.Linear[B]
}

// lenetSide returns the spatial size after both conv/pool blocks, or 0 if
// side does not survive them without remainder.
func lenetSide(side int) int {
	if side < 5 || (side-4)%2 != 0 {
		return 0
	}
	side = (side - 4) / 2
	if side < 5 || (side-4)%2 != 0 {
		return 0
	}
	return (side - 4) / 2
}

// NewLeNet creates the network for channels x height x width inputs.
func NewLeNet[B tensor.Backend](channels, height, width, classes int, backend B) (*LeNet[B], error) {
	h, w := lenetSide(height), lenetSide(width)
	if channels <= 0 || h == 0 || w == 0 {
		return nil, fmt.Errorf("lenet: input %dx%dx%d does not fit two 5x5 conv + 2x2 pool blocks",
			channels, height, width)
	}
	features := 16 * h * w
	return &LeNet[B]{
		channels: channels,
		height:   height,
		width:    width,
		classes:  classes,
		features: features,
		conv1:    nn.NewConv2D(channels, 6, 5, 5, 1, 0, true, backend),
		conv2:    nn.NewConv2D(6, 16, 5, 5, 1, 0, true, backend),
		pool:     nn.NewMaxPool2D(2, 2, backend),
		relu:     nn.NewReLU[B](),
		fc1:      nn.NewLinear(features, 120, backend),
		fc2:      nn.NewLinear(120, 84, backend),
		fc3:      nn.NewLinear(84, classes, backend),
	}, nil
}

// Forward computes class logits from [batch, C, H, W] or [batch, C*H*W]
// input.
func (m *LeNet[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	switch len(shape) {
	case 2:
		input = input.Reshape(shape[0], m.channels, m.height, m.width)
	case 4:
	default:
		panic(fmt.Sprintf("lenet: expected 2D or 4D input, got %dD", len(shape)))
	}

	x := m.pool.Forward(m.relu.Forward(m.conv1.Forward(input)))
	x = m.pool.Forward(m.relu.Forward(m.conv2.Forward(x)))
	x = flatten(x)
	x = m.relu.Forward(m.fc1.Forward(x))
	x = m.relu.Forward(m.fc2.Forward(x))
	return m.fc3.Forward(x)
}

func (m *LeNet[B]) layers() []layerParams[B] {
	return []layerParams[B]{
		{"conv1", m.conv1.Parameters()},
		{"conv2", m.conv2.Parameters()},
		{"fc1", m.fc1.Parameters()},
		{"fc2", m.fc2.Parameters()},
		{"fc3", m.fc3.Parameters()},
	}
}

// Parameters returns all trainable parameters.
func (m *LeNet[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 10)
	for _, l := range m.layers() {
		params = append(params, l.params...)
	}
	return params
}

// StateDict returns the parameters keyed by layer name.
func (m *LeNet[B]) StateDict() map[string]*tensor.RawTensor {
	return stateDict(m.layers())
}

// LoadStateDict copies parameters from a state dictionary.
func (m *LeNet[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	return loadStateDict(m.layers(), state)
}

// NumClasses returns the width of the output layer.
func (m *LeNet[B]) NumClasses() int { return m.classes }

func (m *LeNet[B]) String() string {
	return fmt.Sprintf(`LeNet(
  %s
  ReLU()
  %s
  %s
  ReLU()
  %s
  Linear(in=%d, out=120)
  ReLU()
  Linear(in=120, out=84)
  ReLU()
  Linear(in=84, out=%d)
)`,
		m.conv1.String(), m.pool.String(),
		m.conv2.String(), m.pool.String(),
		m.features, m.classes)
}
