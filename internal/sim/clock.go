package sim

import "time"

// tickClock is the scheduler's logical clock.
//
// The clock advances by exactly one fixed tick duration per call to Advance,
// regardless of wall-clock drift. This keeps logical time moving in equal
// increments so timing error cannot compound across ticks.
//
// Owned exclusively by the driver goroutine; no locking.
type tickClock struct {
	now   time.Time
	step  time.Duration
	count uint64
}

func newTickClock(start time.Time, step time.Duration) *tickClock {
	return &tickClock{now: start, step: step}
}

// Advance moves logical time forward by one tick and returns the new now.
func (c *tickClock) Advance() time.Time {
	c.count++
	c.now = c.now.Add(c.step)
	return c.now
}

// Now returns the current logical time without advancing.
func (c *tickClock) Now() time.Time {
	return c.now
}

// Count returns the number of ticks taken so far.
func (c *tickClock) Count() uint64 {
	return c.count
}
