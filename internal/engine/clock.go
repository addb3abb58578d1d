package engine

import "sync/atomic"

// Clock hands out journal sequence numbers for one game.
//
// A Service starts its clock at the game's stored Seq, so the entries of
// an operation continue the game's journal without gaps. Ordering within
// a game relies on these numbers, never on wall time.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock for a game without journal entries.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that continues after start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
