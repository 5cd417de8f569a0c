// Package fake provides a manually advanced clock for deterministic tests.
package fake

import (
	"sync"
	"time"
)

// Clock is a clock.Clock whose time only moves when Advance or Set is called.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// New creates a Clock frozen at start. A zero start uses a fixed epoch.
func New(start time.Time) *Clock {
	if start.IsZero() {
		start = time.Date(2015, time.January, 8, 0, 0, 0, 0, time.UTC)
	}
	return &Clock{now: start}
}

// Now returns the frozen time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
