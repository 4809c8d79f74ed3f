// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package experiment keeps a file-backed registry of training runs.
//
// Each experiment lives in its own directory named after its ID:
//
//	experiment/
//	    0b6c.../
//	        meta.json     name, command, arguments, timestamp, result
//	        metrics.json  written by the run itself
//
// The registry is meant for a single user on a single machine. It takes no
// locks.
package experiment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/trainer/internal/metrics"
)

// DefaultDir is the registry root used by the command line tools.
const DefaultDir = "experiment"

// MetaFile is the per-experiment descriptor file name.
const MetaFile = "meta.json"

// ErrNotFound is returned for unknown experiment IDs.
var ErrNotFound = errors.New("experiment not found")

// Experiment describes one registered run.
type Experiment struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Command   string         `json:"script_path"`
	Args      []string       `json:"args"`
	Timestamp time.Time      `json:"timestamp"`
	Result    metrics.Record `json:"result"`
}

// Registry stores experiments under a root directory.
type Registry struct {
	root string
	now  func() time.Time
}

// Open returns a registry rooted at dir. The directory is created lazily
// on the first Register.
func Open(dir string) *Registry {
	if dir == "" {
		dir = DefaultDir
	}
	return &Registry{root: dir, now: time.Now}
}

// Root returns the registry directory.
func (r *Registry) Root() string { return r.root }

// Dir returns the directory holding experiment id.
func (r *Registry) Dir(id string) string { return filepath.Join(r.root, id) }

// Register records a new experiment and returns it.
func (r *Registry) Register(name, command string, args []string) (Experiment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Experiment{}, errors.New("register: name is required")
	}
	exp := Experiment{
		ID:        uuid.NewString(),
		Name:      name,
		Command:   command,
		Args:      slices.Clone(args),
		Timestamp: r.now().Round(time.Second),
	}
	if exp.Args == nil {
		exp.Args = []string{}
	}
	if err := os.MkdirAll(r.Dir(exp.ID), 0o755); err != nil {
		return Experiment{}, fmt.Errorf("register: %w", err)
	}
	if err := r.write(exp); err != nil {
		return Experiment{}, fmt.Errorf("register: %w", err)
	}
	return exp, nil
}

// Get loads experiment id.
func (r *Registry) Get(id string) (Experiment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Experiment{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	data, err := os.ReadFile(filepath.Join(r.Dir(id), MetaFile))
	if errors.Is(err, os.ErrNotExist) {
		return Experiment{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Experiment{}, err
	}
	var exp Experiment
	if err := json.Unmarshal(data, &exp); err != nil {
		return Experiment{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return exp, nil
}

// List returns every experiment, oldest first. Directories without a
// readable descriptor are skipped.
func (r *Registry) List() ([]Experiment, error) {
	entries, err := os.ReadDir(r.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Experiment
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		exp, err := r.Get(e.Name())
		if err != nil {
			continue
		}
		out = append(out, exp)
	}
	slices.SortFunc(out, func(a, b Experiment) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// SetResult attaches a finished run's metrics to experiment id.
func (r *Registry) SetResult(id string, rec metrics.Record) (Experiment, error) {
	exp, err := r.Get(id)
	if err != nil {
		return Experiment{}, err
	}
	exp.Result = rec
	if err := r.write(exp); err != nil {
		return Experiment{}, err
	}
	return exp, nil
}

func (r *Registry) write(exp Experiment) error {
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.Dir(exp.ID), MetaFile), append(data, '\n'), 0o644)
}
