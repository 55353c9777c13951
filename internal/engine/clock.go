package engine

import "sync/atomic"

// Clock issues the seq stamped on every phase transition. A seq is unique
// across the whole journal, not just one session, since it keys the
// transitions table.
type Clock struct {
	seq atomic.Int64
}

// NewClock starts a fresh journal at seq 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt resumes after last, the value store.LastSeq reports for an
// existing journal file.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.seq.Store(last)
	return c
}

// Next returns the next seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq issued, or the resume point if none was.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
