// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package metrics persists the final numbers of a run.
//
// A Record is a flat name -> value map written once per run as a JSON
// object, e.g. {"accuracy": 0.85, "loss": 0.42}. There is no schema
// version and no history: each write replaces the previous file.
package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Well-known metric names.
const (
	Accuracy  = "accuracy"
	Loss      = "loss"
	TrainLoss = "train_loss"
	Epochs    = "epochs"
)

// Record maps metric names to values.
type Record map[string]float64

// WriteFile writes rec to path as a JSON object with sorted keys,
// replacing any existing file. Parent directories are created as needed.
//
// The write is not atomic and not safe for concurrent writers.
func WriteFile(path string, rec Record) error {
	for name, v := range rec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("metrics: %s is not a finite number (%v)", name, v)
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("metrics: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

// ReadFile parses a metrics file written by WriteFile.
func ReadFile(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("metrics: decode %s: %w", path, err)
	}
	return rec, nil
}
