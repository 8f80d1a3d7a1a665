package events

import "sync/atomic"

// Clock is the monotonic logical clock that stamps event sequence numbers.
//
// The shop assigns sequence numbers while planning an operation and only
// moves the clock once the operation has committed, so a rejected or rolled
// back operation never burns a number.
type Clock struct {
	seq atomic.Int64
}

// NewClockAt creates a clock positioned at start, typically the last
// persisted sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Current returns the last committed sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Peek returns the sequence number n places after Current.
func (c *Clock) Peek(n int) int64 {
	return c.Current() + int64(n)
}

// AdvanceTo moves the clock forward to seq. It never moves backwards.
func (c *Clock) AdvanceTo(seq int64) {
	for {
		cur := c.seq.Load()
		if seq <= cur || c.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}
