// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device selects the compute backend a run executes on.
//
// CPU is always available. WebGPU is only built on Windows, where Born
// ships its wgpu-native bindings; elsewhere requesting it fails with
// ErrUnavailable and "auto" resolves to the CPU.
package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// Kind names a compute device.
type Kind string

// Supported devices.
const (
	CPU    Kind = "cpu"
	WebGPU Kind = "webgpu"
	Auto   Kind = "auto"
)

// ErrUnavailable is returned when the requested device cannot be used on
// this host.
var ErrUnavailable = errors.New("device not available")

// Parse converts a user-supplied device name into a Kind.
func Parse(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case CPU, WebGPU, Auto:
		return k, nil
	case "":
		return CPU, nil
	default:
		return "", fmt.Errorf("unknown device %q (want cpu, webgpu or auto)", s)
	}
}

// Resolve maps Auto to a concrete device and checks that explicit requests
// can be honoured.
func Resolve(k Kind) (Kind, error) {
	switch k {
	case CPU:
		return CPU, nil
	case WebGPU:
		if !webGPUAvailable() {
			return "", fmt.Errorf("%s: %w", WebGPU, ErrUnavailable)
		}
		return WebGPU, nil
	case Auto:
		if webGPUAvailable() {
			return WebGPU, nil
		}
		return CPU, nil
	default:
		return "", fmt.Errorf("unknown device %q", k)
	}
}

// Host describes the processor the CPU backend runs on.
type Host struct {
	Brand         string
	Vendor        string
	PhysicalCores int
	LogicalCores  int
	AVX2          bool
	AVX512        bool
}

// DetectHost reports the features of the current processor.
func DetectHost() Host {
	return Host{
		Brand:         cpuid.CPU.BrandName,
		Vendor:        cpuid.CPU.VendorString,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
		AVX512:        cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
	}
}

func (h Host) String() string {
	brand := h.Brand
	if brand == "" {
		brand = "unknown cpu"
	}
	var simd []string
	if h.AVX2 {
		simd = append(simd, "avx2")
	}
	if h.AVX512 {
		simd = append(simd, "avx512")
	}
	s := fmt.Sprintf("%s (%d cores, %d threads)", brand, h.PhysicalCores, h.LogicalCores)
	if len(simd) > 0 {
		s += " [" + strings.Join(simd, ",") + "]"
	}
	return s
}

// Describe returns a one-line description of device k for logging.
func Describe(k Kind) string {
	switch k {
	case WebGPU:
		return "webgpu " + webGPUName()
	default:
		return "cpu " + DetectHost().String()
	}
}
