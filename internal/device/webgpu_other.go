// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

//go:build !windows

package device

func webGPUAvailable() bool { return false }

func webGPUName() string { return "(unavailable)" }
