// Package executive runs concurrent behavior slots. Each slot holds at most one
// State; the Machine updates every occupied slot once per control cycle.
//
// Slots never coordinate through update order. A state that needs another slot
// reads it through State, InState or CurrentStateName.
package executive

import (
	"reflect"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/cxd309/mecanum-engine/internal/clock"
)

var (
	// ErrUninitializedState is the panic value, wrapped, when Update reaches a
	// state that was never initialized.
	ErrUninitializedState = errors.New("state was never initialized")
	// ErrInvalidIteration is the panic value, wrapped, raised by InvalidIteration.
	ErrInvalidIteration = errors.New("invalid state iteration")
)

// Slot is a category of concurrently running behavior.
type Slot int

const (
	Drive Slot = iota
	Arm
	Lift
)

// Slots lists every slot in update order.
var Slots = []Slot{Drive, Arm, Lift}

func (s Slot) String() string {
	switch s {
	case Drive:
		return "DRIVE"
	case Arm:
		return "ARM"
	case Lift:
		return "LIFT"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler so slots key JSON objects by name.
func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Slot) UnmarshalText(text []byte) error {
	for _, slot := range Slots {
		if slot.String() == string(text) {
			*s = slot
			return nil
		}
	}
	return errors.Errorf("unknown slot %q", text)
}

// Gate vetoes a transition when it returns false. A nil Gate always allows.
type Gate func() bool

// Machine owns the slot map.
type Machine struct {
	clock  clock.Clock
	logger golog.Logger
	slots  map[Slot]State
}

// NewMachine returns a machine with every slot empty. State timers read c.
func NewMachine(c clock.Clock, logger golog.Logger) *Machine {
	return &Machine{clock: c, logger: logger, slots: make(map[Slot]State, len(Slots))}
}

// Clock returns the clock state timers are built on.
func (m *Machine) Clock() clock.Clock { return m.clock }

// ChangeState installs s in slot and initializes it immediately. Any previous
// occupant is dropped.
func (m *Machine) ChangeState(slot Slot, s State) {
	m.logger.Debugw("change state", "slot", slot.String(), "from", m.CurrentStateName(slot), "to", StateName(s))
	m.slots[slot] = s
	s.Init(m)
}

// ChangeStateIf is ChangeState guarded by gate. When the gate refuses, the
// current occupant keeps running and false is returned.
func (m *Machine) ChangeStateIf(gate Gate, slot Slot, s State) bool {
	if gate != nil && !gate() {
		return false
	}
	m.ChangeState(slot, s)
	return true
}

// RemoveSlot empties slot.
func (m *Machine) RemoveSlot(slot Slot) {
	if _, ok := m.slots[slot]; !ok {
		return
	}
	m.logger.Debugw("remove slot", "slot", slot.String(), "state", m.CurrentStateName(slot))
	delete(m.slots, slot)
}

// State returns the occupant of slot.
func (m *Machine) State(slot Slot) (State, bool) {
	s, ok := m.slots[slot]
	return s, ok
}

// Arrived reports the Arrived flag of slot's occupant; an empty slot has not
// arrived.
func (m *Machine) Arrived(slot Slot) bool {
	s, ok := m.slots[slot]
	return ok && s.StateBase().Arrived
}

// InState reports whether slot is occupied by a state of the same kind as sample.
// sample may be a typed nil, e.g. (*Park)(nil).
func (m *Machine) InState(slot Slot, sample State) bool {
	s, ok := m.slots[slot]
	return ok && KindOf(s) == KindOf(sample)
}

// Update runs one sweep: every occupied slot, in Slots order, is updated unless
// its state requested deletion. The occupant is looked up when its slot is
// reached, so a state installed earlier in the sweep runs in the same sweep.
// Deleted states are removed after the sweep.
//
// Update panics if it reaches a state that was never initialized.
func (m *Machine) Update() {
	for _, slot := range Slots {
		s, ok := m.slots[slot]
		if !ok {
			continue
		}
		b := s.StateBase()
		if !b.Initialized() {
			panic(errors.Wrapf(ErrUninitializedState, "%s slot holds %s", slot, StateName(s)))
		}
		if b.DeleteRequested() {
			continue
		}
		s.Update(m)
	}
	for _, slot := range Slots {
		if s, ok := m.slots[slot]; ok && s.StateBase().DeleteRequested() {
			m.logger.Debugw("delete state", "slot", slot.String(), "state", StateName(s))
			delete(m.slots, slot)
		}
	}
}

// Init initializes every installed state again.
func (m *Machine) Init() {
	for _, slot := range Slots {
		if s, ok := m.slots[slot]; ok {
			s.Init(m)
		}
	}
}

// Reset resets every installed state.
func (m *Machine) Reset() {
	for _, slot := range Slots {
		if s, ok := m.slots[slot]; ok {
			s.Reset()
		}
	}
}

// CurrentStateName returns the name of slot's occupant, or "" when empty.
func (m *Machine) CurrentStateName(slot Slot) string {
	s, ok := m.slots[slot]
	if !ok {
		return ""
	}
	return StateName(s)
}

// CurrentStateNames returns the occupant names of every occupied slot.
func (m *Machine) CurrentStateNames() map[Slot]string {
	names := make(map[Slot]string, len(m.slots))
	for slot, s := range m.slots {
		names[slot] = StateName(s)
	}
	return names
}

// KindOf returns a comparable discriminant for the concrete type of s.
func KindOf(s State) reflect.Type {
	return reflect.TypeOf(s)
}

// StateName returns the type name of s, without package or pointer.
func StateName(s State) string {
	t := KindOf(s)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// InvalidIteration panics for a parameterized state asked to run an iteration
// it does not define.
func InvalidIteration(s State) {
	panic(errors.Wrapf(ErrInvalidIteration, "%s iteration %d", StateName(s), s.StateBase().Iteration()))
}
