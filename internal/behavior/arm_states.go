package behavior

import (
	"github.com/cxd309/mecanum-engine/internal/executive"
	"github.com/cxd309/mecanum-engine/internal/hardware"
)

// liftLowered is the lift encoder position with the arm all the way down.
const liftLowered = 0

// moveLift servos the lift toward ticks and latches Arrived on the first cycle it
// gets there. The lift keeps being held afterwards.
func (s *step) moveLift(ticks int) bool {
	ctrl := s.p.ctrl
	if ctrl.DriveMotorToPos(hardware.ActuatorLiftWinch, ticks, s.p.opts.LiftSpeed, ctrl.Config().ActuatorRampThreshold) {
		s.Arrived = true
	}
	return s.Arrived
}

func (s *step) setClaw(position float64) {
	s.p.robot.SetServoPosition(hardware.ServoClaw, position)
}

// RaiseOpenClaw raises the lift with the claw open.
type RaiseOpenClaw struct{ step }

func (s *RaiseOpenClaw) Init(m *executive.Machine) {
	s.step.Init(m)
	s.setClaw(hardware.ClawOpen)
}

func (s *RaiseOpenClaw) Update(m *executive.Machine) {
	s.Base.Update(m)
	s.moveLift(s.p.opts.LiftRaised)
}

// RaiseCloseClaw raises the lift holding a stone.
type RaiseCloseClaw struct{ step }

func (s *RaiseCloseClaw) Init(m *executive.Machine) {
	s.step.Init(m)
	s.setClaw(hardware.ClawClosed)
}

func (s *RaiseCloseClaw) Update(m *executive.Machine) {
	s.Base.Update(m)
	s.moveLift(s.p.opts.LiftRaised)
}

// LowerOpenClaw lowers the lift with the claw open.
type LowerOpenClaw struct{ step }

func (s *LowerOpenClaw) Init(m *executive.Machine) {
	s.step.Init(m)
	s.setClaw(hardware.ClawOpen)
}

func (s *LowerOpenClaw) Update(m *executive.Machine) {
	s.Base.Update(m)
	s.moveLift(liftLowered)
}

// LowerCloseClaw closes the claw on a stone and keeps the lift down.
type LowerCloseClaw struct{ step }

func (s *LowerCloseClaw) Init(m *executive.Machine) {
	s.step.Init(m)
	s.setClaw(hardware.ClawClosed)
}

func (s *LowerCloseClaw) Update(m *executive.Machine) {
	s.Base.Update(m)
	s.moveLift(liftLowered)
}

// PlaceOnFoundation lifts to the level given by its iteration and releases the
// stone once there.
type PlaceOnFoundation struct{ step }

func (s *PlaceOnFoundation) Update(m *executive.Machine) {
	s.Base.Update(m)
	level := s.Iteration()
	if level < 1 || level > s.p.opts.MaxLiftLevel {
		executive.InvalidIteration(s)
	}
	if s.moveLift(s.p.opts.LiftTicksForLevel(level)) {
		s.setClaw(hardware.ClawOpen)
	}
}
