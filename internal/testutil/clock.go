// Package testutil provides shared test helpers for the caremini packages.
package testutil

import (
	"sync"
	"time"
)

// ManualClock is a thread-safe wall clock for tests.
//
// Unlike the engine's system clock, ManualClock only moves when the test
// advances it. This makes pacing and recurrence timelines exact: a test can
// step second by second and assert actuator transitions at each instant.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at the given instant.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current instant without advancing it.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new instant.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set jumps the clock to the given instant.
//
// Used for tests that rebuild a scenario mid-flight. No monotonicity is
// enforced; tests own the timeline.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
