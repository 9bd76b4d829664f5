package executive

import (
	"github.com/cxd309/mecanum-engine/internal/clock"
)

// State is a behavior occupying one slot. Concrete states embed Base and call
// its Init and Update first when overriding them.
type State interface {
	Init(m *Machine)
	Update(m *Machine)
	Reset()
	StateBase() *Base
}

// Base carries the bookkeeping shared by every state.
type Base struct {
	// Elapsed runs from the most recent Init. States may Reset it to time a
	// sub-step.
	Elapsed clock.Timer
	// LastPeriod is the time between the two most recent updates, in seconds.
	LastPeriod float64
	// Arrived is the state's own completion flag, readable from other slots.
	Arrived bool

	period          clock.Timer
	initialized     bool
	deleteRequested bool
	iteration       int
}

// WithIteration returns a Base for a parameterized state.
func WithIteration(i int) Base {
	return Base{iteration: i}
}

// StateBase implements State.
func (b *Base) StateBase() *Base { return b }

// Init implements State.
func (b *Base) Init(m *Machine) {
	b.Elapsed = clock.NewTimer(m.Clock())
	b.period = clock.NewTimer(m.Clock())
	b.LastPeriod = 0
	b.initialized = true
}

// Update implements State.
func (b *Base) Update(*Machine) {
	b.LastPeriod = b.period.Seconds()
	b.period.Reset()
}

// Reset implements State. The state must be initialized again before the next
// update.
func (b *Base) Reset() {
	b.initialized = false
}

// Initialized reports whether Init has run since construction or Reset.
func (b *Base) Initialized() bool { return b.initialized }

// RequestDelete marks the state for removal at the end of the current update
// sweep; it is not updated again.
func (b *Base) RequestDelete() { b.deleteRequested = true }

// DeleteRequested reports whether RequestDelete was called.
func (b *Base) DeleteRequested() bool { return b.deleteRequested }

// Iteration returns the state's parameter.
func (b *Base) Iteration() int { return b.iteration }

// SetIteration sets the state's parameter.
func (b *Base) SetIteration(i int) { b.iteration = i }
