// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package metrics

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, WriteFile(path, Record{"accuracy": 0.85}))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Record{"accuracy": 0.85}, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, map[string]any{"accuracy": 0.85}, generic)
}

func TestWriteFileSortsKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, WriteFile(path, Record{Loss: 0.42, Accuracy: 0.85}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"accuracy": 0.85, "loss": 0.42}`, string(raw))
	assert.Equal(t, `{"accuracy":0.85,"loss":0.42}`, string(raw))
}

func TestWriteFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, WriteFile(path, Record{Accuracy: 0.1, Loss: 2}))
	require.NoError(t, WriteFile(path, Record{Accuracy: 0.9}))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Record{Accuracy: 0.9}, got)
}

func TestWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "a", "metrics.json")
	require.NoError(t, WriteFile(path, Record{Epochs: 3}))
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestWriteFileRejectsNaN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	err := WriteFile(path, Record{Loss: math.NaN()})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing must be written")
}

func TestReadFileErrors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"accuracy": "high"}`), 0o600))
	_, err = ReadFile(path)
	require.Error(t, err)
}

func TestWindow(t *testing.T) {
	var w Window
	assert.Equal(t, 0.0, w.Mean())

	w.Add(1.2)
	w.Add(0.8)
	assert.InDelta(t, 1.0, w.Mean(), 1e-12)
	assert.Equal(t, 0.8, w.Last())
	assert.Equal(t, 2, w.Count())

	w.Reset()
	assert.Equal(t, 0, w.Count())
	assert.Equal(t, 0.0, w.Mean())
}
