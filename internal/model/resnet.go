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

// resnetWidths are the channel counts of the three residual stages.
var resnetWidths = [3]int{16, 32, 64}

// residualBlock is a basic two-convolution residual block:
//
//	y = relu(conv2(relu(conv1(x))) + shortcut(x))
//
// The shortcut is the identity, or a 1x1 strided projection when the block
// changes the channel count or the resolution.
type residualBlock[B tensor.Backend] struct {
	conv1    *nn.Conv2D[B]
	conv2    *nn.Conv2D[B]
	shortcut *nn.Conv2D[B] // nil for identity
	relu     *nn.ReLU[B]
}

func newResidualBlock[B tensor.Backend](in, out, stride int, backend B) *residualBlock[B] {
	b := &residualBlock[B]{
		conv1: nn.NewConv2D(in, out, 3, 3, stride, 1, true, backend),
		conv2: nn.NewConv2D(out, out, 3, 3, 1, 1, true, backend),
		relu:  nn.NewReLU[B](),
	}
	if in != out || stride != 1 {
		b.shortcut = nn.NewConv2D(in, out, 1, 1, stride, 0, false, backend)
	}
	return b
}

func (b *residualBlock[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	y := b.relu.Forward(b.conv1.Forward(x))
	y = b.conv2.Forward(y)
	skip := x
	if b.shortcut != nil {
		skip = b.shortcut.Forward(x)
	}
	return b.relu.Forward(y.Add(skip))
}

func (b *residualBlock[B]) layers(prefix string) []layerParams[B] {
	out := []layerParams[B]{
		{prefix + ".conv1", b.conv1.Parameters()},
		{prefix + ".conv2", b.conv2.Parameters()},
	}
	if b.shortcut != nil {
		out = append(out, layerParams[B]{prefix + ".shortcut", b.shortcut.Parameters()})
	}
	return out
}

// ResNet is a small residual network for CIFAR-10 style inputs.
//
// Architecture (for a [3, 32, 32] input):
//
//	Stem: Conv 3 → 16, 3x3, ReLU           -> [batch, 16, 32, 32]
//	Stage 1: residual block 16 → 16        -> [batch, 16, 32, 32]
//	Stage 2: residual block 16 → 32, /2    -> [batch, 32, 16, 16]
//	Stage 3: residual block 32 → 64, /2    -> [batch, 64, 8, 8]
//	MaxPool 2x2, Flatten                   -> [batch, 1024]
//	FC: 1024 → classes
//
// Born has no batch normalisation layer, so the blocks run without one.
type ResNet[B tensor.Backend] struct {
	channels, height, width int
	classes                 int

	stem   *nn.Conv2D[B]
	relu   *nn.ReLU[B]
	blocks []*residualBlock[B]
	pool   *nn.MaxPool2D[B]
	fc     *nn.Linear[B]
}

// NewResNet creates the network for channels x height x width inputs.
// Height and width must be divisible by 8.
func NewResNet[B tensor.Backend](channels, height, width, classes int, backend B) (*ResNet[B], error) {
	if channels <= 0 || height <= 0 || width <= 0 || height%8 != 0 || width%8 != 0 {
		return nil, fmt.Errorf("resnet: input %dx%dx%d must be positive with H and W divisible by 8",
			channels, height, width)
	}
	w := resnetWidths
	features := w[2] * (height / 8) * (width / 8)
	return &ResNet[B]{
		channels: channels,
		height:   height,
		width:    width,
		classes:  classes,
		stem:     nn.NewConv2D(channels, w[0], 3, 3, 1, 1, true, backend),
		relu:     nn.NewReLU[B](),
		blocks: []*residualBlock[B]{
			newResidualBlock(w[0], w[0], 1, backend),
			newResidualBlock(w[0], w[1], 2, backend),
			newResidualBlock(w[1], w[2], 2, backend),
		},
		pool: nn.NewMaxPool2D(2, 2, backend),
		fc:   nn.NewLinear(features, classes, backend),
	}, nil
}

// Forward computes class logits for [batch, C, H, W] input.
func (m *ResNet[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if shape := input.Shape(); len(shape) != 4 {
		panic(fmt.Sprintf("resnet: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	x := m.relu.Forward(m.stem.Forward(input))
	for _, b := range m.blocks {
		x = b.Forward(x)
	}
	x = flatten(m.pool.Forward(x))
	return m.fc.Forward(x)
}

func (m *ResNet[B]) layers() []layerParams[B] {
	out := []layerParams[B]{{"stem", m.stem.Parameters()}}
	for i, b := range m.blocks {
		out = append(out, b.layers(fmt.Sprintf("stage%d", i+1))...)
	}
	return append(out, layerParams[B]{"fc", m.fc.Parameters()})
}

// Parameters returns all trainable parameters.
func (m *ResNet[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, l := range m.layers() {
		params = append(params, l.params...)
	}
	return params
}

// StateDict returns the parameters keyed by layer name.
func (m *ResNet[B]) StateDict() map[string]*tensor.RawTensor {
	return stateDict(m.layers())
}

// LoadStateDict copies parameters from a state dictionary.
func (m *ResNet[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	return loadStateDict(m.layers(), state)
}

// NumClasses returns the width of the output layer.
func (m *ResNet[B]) NumClasses() int { return m.classes }

func (m *ResNet[B]) String() string {
	var sb strings.Builder
	sb.WriteString("ResNet(\n")
	fmt.Fprintf(&sb, "  stem: %s\n", m.stem.String())
	for i, b := range m.blocks {
		fmt.Fprintf(&sb, "  stage%d: Residual(%s, %s", i+1, b.conv1.String(), b.conv2.String())
		if b.shortcut != nil {
			fmt.Fprintf(&sb, ", shortcut=%s", b.shortcut.String())
		}
		sb.WriteString(")\n")
	}
	fmt.Fprintf(&sb, "  %s\n", m.pool.String())
	fmt.Fprintf(&sb, "  Linear(in=%d, out=%d)\n)", resnetWidths[2]*(m.height/8)*(m.width/8), m.classes)
	return sb.String()
}
