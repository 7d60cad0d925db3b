package testutil

import "sync/atomic"

// StepClock numbers scenario steps 1, 2, 3, ... so a trace carries the same
// seq values on every run. Safe for concurrent use.
type StepClock struct {
	seq atomic.Int64
}

// NewStepClock returns a clock whose first Next is 1.
func NewStepClock() *StepClock {
	return &StepClock{}
}

// Next advances the clock and returns the new step number.
func (c *StepClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last step number handed out, 0 before the first Next.
func (c *StepClock) Current() int64 {
	return c.seq.Load()
}

// Reset rewinds the clock so the next step is 1 again.
func (c *StepClock) Reset() {
	c.seq.Store(0)
}
