// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

//go:build !windows

package pipeline

import (
	"fmt"

	"github.com/born-ml/trainer/internal/config"
	"github.com/born-ml/trainer/internal/device"
	"github.com/born-ml/trainer/internal/metrics"
)

func runWebGPU(config.Config) (metrics.Record, error) {
	return nil, fmt.Errorf("%s: %w", device.WebGPU, device.ErrUnavailable)
}
