// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model defines the image classifiers trained by this repository.
//
// The networks are compositions of Born layers (Conv2D, MaxPool2D, Linear,
// ReLU). They are generic over the tensor backend so that the same network
// runs on the CPU backend, the WebGPU backend, or either one wrapped with
// autodiff for training.
package model

import (
	"fmt"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// Classifier maps a batch of inputs to class scores.
//
// Forward takes [batch, C, H, W] inputs and returns unnormalised logits of
// shape [batch, classes]. Parameters enumerates every trainable tensor.
type Classifier[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*nn.Parameter[B]
}

// Network is a Classifier that also satisfies nn.Module, so it can be
// checkpointed with nn.Save and restored with nn.Load.
type Network[B tensor.Backend] interface {
	nn.Module[B]
	NumClasses() int
	String() string
}

// Kind names a network architecture.
type Kind string

// Known architectures.
const (
	KindCNN    Kind = "cnn"
	KindLeNet  Kind = "lenet"
	KindResNet Kind = "resnet"
)

// New builds the network of the given kind for examples of shape [C, H, W].
func New[B tensor.Backend](kind Kind, shape []int, classes int, backend B) (Network[B], error) {
	if len(shape) != 3 {
		return nil, fmt.Errorf("model: input shape must be [C, H, W], got %v", shape)
	}
	if classes <= 0 {
		return nil, fmt.Errorf("model: number of classes must be > 0 (got %d)", classes)
	}
	switch kind {
	case KindCNN:
		return NewSimpleCNN(shape[0], shape[1], shape[2], classes, backend)
	case KindLeNet:
		return NewLeNet(shape[0], shape[1], shape[2], classes, backend)
	case KindResNet:
		return NewResNet(shape[0], shape[1], shape[2], classes, backend)
	default:
		return nil, fmt.Errorf("model: unknown kind %q", kind)
	}
}

// CountParameters returns the number of trainable scalars in m.
func CountParameters[B tensor.Backend](m Classifier[B]) int {
	total := 0
	for _, param := range m.Parameters() {
		total += param.Tensor().NumElements()
	}
	return total
}

// flatten reshapes [N, C, H, W] to [N, C*H*W].
func flatten[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	features := 1
	for _, d := range shape[1:] {
		features *= d
	}
	return x.Reshape(shape[0], features)
}
