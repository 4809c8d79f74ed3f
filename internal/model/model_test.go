// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"path/filepath"
	"testing"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBackend = *autodiff.Backend[*cpu.Backend]

func newBackend() testBackend {
	return autodiff.New(cpu.New())
}

func TestSimpleCNNForwardShape(t *testing.T) {
	backend := newBackend()
	m, err := NewSimpleCNN(1, 8, 8, 3, backend)
	require.NoError(t, err)

	x := tensor.Randn[float32](tensor.Shape{2, 1, 8, 8}, backend)
	out := m.Forward(x)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())

	flat := tensor.Randn[float32](tensor.Shape{2, 64}, backend)
	assert.Equal(t, tensor.Shape{2, 3}, m.Forward(flat).Shape())
}

func TestResNetForwardShape(t *testing.T) {
	backend := newBackend()
	m, err := NewResNet(3, 8, 8, 4, backend)
	require.NoError(t, err)

	x := tensor.Randn[float32](tensor.Shape{2, 3, 8, 8}, backend)
	assert.Equal(t, tensor.Shape{2, 4}, m.Forward(x).Shape())
}

func TestLeNetForwardShape(t *testing.T) {
	backend := newBackend()
	m, err := NewLeNet(3, 32, 32, 10, backend)
	require.NoError(t, err)

	x := tensor.Randn[float32](tensor.Shape{2, 3, 32, 32}, backend)
	assert.Equal(t, tensor.Shape{2, 10}, m.Forward(x).Shape())
	assert.Contains(t, m.StateDict(), "fc3.weight")
	assert.Contains(t, m.String(), "Linear(in=400, out=120)")
}

func TestParameterCounts(t *testing.T) {
	backend := newBackend()

	cnn, err := New(KindCNN, []int{1, 28, 28}, 10, backend)
	require.NoError(t, err)
	assert.Equal(t, 421642, CountParameters[testBackend](cnn))
	assert.Len(t, cnn.Parameters(), 8)

	lenet, err := New(KindLeNet, []int{1, 28, 28}, 10, backend)
	require.NoError(t, err)
	assert.Equal(t, 44426, CountParameters[testBackend](lenet))
	assert.Len(t, lenet.Parameters(), 10)

	res, err := New(KindResNet, []int{3, 32, 32}, 10, backend)
	require.NoError(t, err)
	assert.Equal(t, 87210, CountParameters[testBackend](res))
	assert.Equal(t, 10, res.NumClasses())
}

func TestNewRejectsBadShapes(t *testing.T) {
	backend := newBackend()
	tests := []struct {
		name    string
		kind    Kind
		shape   []int
		classes int
	}{
		{"not chw", KindCNN, []int{784}, 10},
		{"no classes", KindCNN, []int{1, 28, 28}, 0},
		{"cnn odd size", KindCNN, []int{1, 30, 30}, 10},
		{"resnet odd size", KindResNet, []int{3, 28, 28}, 10},
		{"lenet too small", KindLeNet, []int{1, 8, 8}, 10},
		{"lenet odd size", KindLeNet, []int{1, 29, 29}, 10},
		{"unknown", Kind("vit"), []int{3, 32, 32}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.kind, tt.shape, tt.classes, backend)
			assert.Error(t, err)
		})
	}
}

func TestStateDictKeys(t *testing.T) {
	backend := newBackend()
	m, err := NewResNet(3, 8, 8, 2, backend)
	require.NoError(t, err)

	state := m.StateDict()
	for _, key := range []string{
		"stem.weight", "stem.bias",
		"stage1.conv1.weight", "stage1.conv2.bias",
		"stage2.shortcut.weight", "stage3.shortcut.weight",
		"fc.weight", "fc.bias",
	} {
		assert.Contains(t, state, key)
	}
	assert.NotContains(t, state, "stage1.shortcut.weight", "identity shortcut has no parameters")
	assert.Len(t, state, len(m.Parameters()))
}

func TestLoadStateDictCopiesValues(t *testing.T) {
	backend := newBackend()
	src, err := NewSimpleCNN(1, 4, 4, 2, backend)
	require.NoError(t, err)
	dst, err := NewSimpleCNN(1, 4, 4, 2, backend)
	require.NoError(t, err)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	for i, p := range src.Parameters() {
		assert.Equal(t, p.Tensor().Data(), dst.Parameters()[i].Tensor().Data())
	}
}

func TestLoadStateDictErrors(t *testing.T) {
	backend := newBackend()
	m, err := NewSimpleCNN(1, 4, 4, 2, backend)
	require.NoError(t, err)

	state := m.StateDict()
	delete(state, "fc2.bias")
	assert.Error(t, m.LoadStateDict(state))

	other, err := NewSimpleCNN(1, 4, 4, 3, backend)
	require.NoError(t, err)
	assert.Error(t, m.LoadStateDict(other.StateDict()), "output width differs")
}

func TestCheckpointRoundTrip(t *testing.T) {
	backend := newBackend()
	src, err := NewSimpleCNN(1, 4, 4, 2, backend)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cnn.born")
	require.NoError(t, nn.Save[testBackend](src, path, "SimpleCNN", map[string]string{"dataset": "synthetic"}))

	dst, err := NewSimpleCNN(1, 4, 4, 2, backend)
	require.NoError(t, err)
	_, err = nn.Load[testBackend](path, backend, dst)
	require.NoError(t, err)

	for i, p := range src.Parameters() {
		assert.Equal(t, p.Tensor().Data(), dst.Parameters()[i].Tensor().Data())
	}
}

func TestStringDescribesLayers(t *testing.T) {
	backend := newBackend()
	m, err := NewSimpleCNN(1, 28, 28, 10, backend)
	require.NoError(t, err)
	assert.Contains(t, m.String(), "Linear(in=3136, out=128)")

	r, err := NewResNet(3, 32, 32, 10, backend)
	require.NoError(t, err)
	assert.Contains(t, r.String(), "Linear(in=1024, out=10)")
}
