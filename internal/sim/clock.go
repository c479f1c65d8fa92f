package sim

import (
	"sync"
	"time"
)

// Clock is the scheduling substrate every other component registers against.
// The engine schedules one-shot deferred callbacks and its periodic tick
// through it, which lets tests drive the whole simulation on virtual time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func())
}

// WallClock dispatches callbacks on real time.
type WallClock struct{}

// Now implements Clock.
func (WallClock) Now() time.Time { return time.Now().UTC() }

// AfterFunc implements Clock.
func (WallClock) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

type manualEntry struct {
	at  time.Time
	seq int64
	fn  func()
}

// ManualClock is a deterministic Clock for tests. Time only moves when
// Advance is called; due callbacks fire synchronously, in (time, scheduling
// order) order, on the calling goroutine.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	seq     int64
	pending []manualEntry
}

// NewManualClock creates a ManualClock starting at the given instant.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now implements Clock.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc implements Clock. Non-positive delays fire on the next Advance.
func (c *ManualClock) AfterFunc(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.pending = append(c.pending, manualEntry{at: c.now.Add(d), seq: c.seq, fn: fn})
}

// Advance moves the clock forward by d, firing every callback that comes due
// along the way. Callbacks may schedule further callbacks; those fire too if
// they fall within the window.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		idx := -1
		for i, e := range c.pending {
			if e.at.After(target) {
				continue
			}
			if idx == -1 || e.at.Before(c.pending[idx].at) ||
				(e.at.Equal(c.pending[idx].at) && e.seq < c.pending[idx].seq) {
				idx = i
			}
		}
		if idx == -1 {
			c.now = target
			c.mu.Unlock()
			return
		}
		entry := c.pending[idx]
		c.pending = append(c.pending[:idx], c.pending[idx+1:]...)
		if entry.at.After(c.now) {
			c.now = entry.at
		}
		c.mu.Unlock()

		// Fire outside the lock: the callback is free to call AfterFunc.
		entry.fn()
	}
}

// PendingCount reports how many callbacks are scheduled, for test assertions.
func (c *ManualClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
