// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package metrics

// Window accumulates a running mean of per-batch losses.
type Window struct {
	sum   float64
	count int
	last  float64
}

// Add records one value.
func (w *Window) Add(v float64) {
	w.sum += v
	w.count++
	w.last = v
}

// Mean returns the mean of the recorded values, or 0 when empty.
func (w *Window) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	return w.sum / float64(w.count)
}

// Last returns the most recently recorded value.
func (w *Window) Last() float64 { return w.last }

// Count returns how many values were recorded.
func (w *Window) Count() int { return w.count }

// Reset clears the window.
func (w *Window) Reset() { *w = Window{} }
