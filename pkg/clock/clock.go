// Package clock abstracts wall-clock reads so time-driven modules can be
// stepped deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock, including its monotonic reading.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time {
	return time.Now()
}

// Manual is a Clock that only moves when told to.
type Manual struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set jumps to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Or returns c, or Real if c is nil.
func Or(c Clock) Clock {
	if c == nil {
		return Real{}
	}
	return c
}

// Stopwatch measures the seconds elapsed between successive Lap calls.
// It is not safe for concurrent use.
type Stopwatch struct {
	clock Clock
	last  time.Time
}

// NewStopwatch returns a stopwatch reading from c, started now.
func NewStopwatch(c Clock) *Stopwatch {
	c = Or(c)
	return &Stopwatch{clock: c, last: c.Now()}
}

// Lap returns the seconds since the previous Lap (or since the stopwatch
// was created) and restarts the lap. Backwards clock jumps count as zero.
func (s *Stopwatch) Lap() float64 {
	now := s.clock.Now()
	d := now.Sub(s.last)
	s.last = now
	if d < 0 {
		return 0
	}
	return d.Seconds()
}
