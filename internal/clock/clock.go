// Package clock measures elapsed control-loop time over an injectable clock, so
// the same state timers run against the wall clock on a robot and against a mock
// clock advanced by the simulation loop.
package clock

import (
	"time"

	bclock "github.com/benbjohnson/clock"
)

// Clock is the time source used by timers and the velocity limiter.
type Clock = bclock.Clock

// Mock is a clock that only moves when told to.
type Mock = bclock.Mock

// NewMock returns a mock clock positioned at the Unix epoch.
func NewMock() *Mock { return bclock.NewMock() }

// Timer reports seconds elapsed since it was created or last reset.
type Timer struct {
	clock Clock
	start time.Time
}

// NewTimer starts a timer on c.
func NewTimer(c Clock) Timer {
	return Timer{clock: c, start: c.Now()}
}

// Reset restarts the timer from now.
func (t *Timer) Reset() { t.start = t.clock.Now() }

// Seconds returns the elapsed time since the last reset. A zero Timer reports 0.
func (t Timer) Seconds() float64 {
	if t.clock == nil {
		return 0
	}
	return t.clock.Now().Sub(t.start).Seconds()
}

// Stopwatch converts clock readings into monotonically increasing float seconds
// relative to a fixed epoch; used as the limiter timestamp source.
type Stopwatch struct {
	clock Clock
	epoch time.Time
}

// NewStopwatch anchors a stopwatch at the current time of c.
func NewStopwatch(c Clock) *Stopwatch {
	return &Stopwatch{clock: c, epoch: c.Now()}
}

// Seconds returns the seconds since the stopwatch was created.
func (s *Stopwatch) Seconds() float64 {
	return s.clock.Now().Sub(s.epoch).Seconds()
}
