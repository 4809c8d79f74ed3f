// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

//go:build windows

package device

import (
	"fmt"

	"github.com/born-ml/born/backend/webgpu"
)

func webGPUAvailable() bool { return webgpu.IsAvailable() }

func webGPUName() string {
	b, err := webgpu.New()
	if err != nil {
		return "(unavailable)"
	}
	defer b.Release()
	return b.Name()
}

// NewWebGPU creates a WebGPU backend. The caller must call Release on it.
func NewWebGPU() (*webgpu.Backend, error) {
	if !webgpu.IsAvailable() {
		return nil, fmt.Errorf("%s: %w", WebGPU, ErrUnavailable)
	}
	b, err := webgpu.New()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", WebGPU, err)
	}
	return b, nil
}
