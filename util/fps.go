// Package util - Small shared helpers for the pipeline.
package util

import (
	"time"

	"github.com/benbjohnson/clock"
)

// defaultFPSWindow is the number of frame timestamps retained for the
// rate estimate.
const defaultFPSWindow = 30

// FPSCounter estimates instantaneous throughput over a sliding window of
// frame timestamps. With n timestamps spanning elapsed seconds the rate
// is (n-1)/elapsed; fewer than two timestamps yield 0.
type FPSCounter struct {
	clock  clock.Clock
	window int
	ticks  []time.Time
}

// NewFPSCounter creates a counter over the wall clock. A window of 0
// selects the default; values below 2 are raised to 2, the minimum that
// defines a rate.
func NewFPSCounter(window int) *FPSCounter {
	return NewFPSCounterWithClock(window, clock.New())
}

// NewFPSCounterWithClock creates a counter over an injected clock so
// tests can drive time deterministically.
func NewFPSCounterWithClock(window int, c clock.Clock) *FPSCounter {
	if window == 0 {
		window = defaultFPSWindow
	}
	if window < 2 {
		window = 2
	}
	return &FPSCounter{
		clock:  c,
		window: window,
		ticks:  make([]time.Time, 0, window),
	}
}

// Tick records one frame at the current time, evicting the oldest
// timestamp once the window is full.
func (f *FPSCounter) Tick() {
	f.ticks = append(f.ticks, f.clock.Now())
	if len(f.ticks) > f.window {
		f.ticks = f.ticks[1:]
	}
}

// FPS returns the current estimate, 0 when undefined.
func (f *FPSCounter) FPS() float64 {
	n := len(f.ticks)
	if n < 2 {
		return 0
	}
	elapsed := f.ticks[n-1].Sub(f.ticks[0]).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(n-1) / elapsed
}

// Reset drops all recorded timestamps.
func (f *FPSCounter) Reset() {
	f.ticks = f.ticks[:0]
}
