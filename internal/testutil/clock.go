// Package testutil provides deterministic time and ID sources for tests.
package testutil

import (
	"sync"
	"time"
)

// FixedStart is the canonical start instant for deterministic tests.
var FixedStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Clock hands out instants advancing by a fixed step, so timestamps in test
// journals and traces are identical across runs and machines.
//
// Thread-safe; Reset allows reuse across subtests.
type Clock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	n     int
}

// NewClock creates a clock starting at start and advancing by step per call.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{start: start, step: step}
}

// Next returns the next instant: start, start+step, start+2*step, ...
func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Reset rewinds the clock so Next returns the start instant again.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
