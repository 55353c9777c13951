package testutil

import "sync"

// StepClock is a deterministic wall clock for the ledger simulator.
//
// Each call to Now returns the current timestamp and then advances it by a
// fixed step, so repeated runs of the same scenario stamp identical
// lastUpdate values.
//
// Thread-safety: All methods are safe for concurrent use.
type StepClock struct {
	mu    sync.Mutex
	start int64
	step  int64
	now   int64
}

// NewStepClock creates a clock whose first reading is start.
// A zero step freezes time.
func NewStepClock(start, step int64) *StepClock {
	return &StepClock{start: start, step: step, now: start}
}

// Now returns the current Unix timestamp and advances the clock.
func (c *StepClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.now
	c.now += c.step
	return ts
}

// Peek returns the next reading without advancing.
func (c *StepClock) Peek() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to its start.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
