// Package system provides a real clock implementation.
package system

import "time"

// Clock implements clock.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current local time. The result keeps its monotonic clock
// reading, so durations between two readings are never negative.
func (Clock) Now() time.Time {
	return time.Now()
}
