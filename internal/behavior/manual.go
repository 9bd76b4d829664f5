package behavior

import (
	"math"

	"github.com/cxd309/mecanum-engine/internal/executive"
	"github.com/cxd309/mecanum-engine/internal/hardware"
	"github.com/cxd309/mecanum-engine/internal/kinematics"
)

// Manual hands the drive to the gamepad. Sticks are cubed for fine control near
// centre and scaled by Options.ManualScale; the right stick y axis drives the
// lift and the bumpers work the claw.
type Manual struct{ step }

func (s *Manual) Init(m *executive.Machine) {
	s.step.Init(m)
	m.RemoveSlot(executive.Arm)
	s.p.ctrl.Stop()
	// The manual shaper's last output is stale after autonomous driving.
	s.p.manual.Reset()
}

func (s *Manual) Update(m *executive.Machine) {
	s.Base.Update(m)
	g := s.p.gamepad.State()
	scale := s.p.opts.ManualScale
	requested := kinematics.JoystickCommand(
		cube(g.LeftStickX)*scale,
		cube(g.LeftStickY)*scale,
		cube(g.RightStickX)*scale,
	)
	shaped := s.p.manual.Update(s.p.watch.Seconds(), requested)
	s.p.robot.SetWheelPower(kinematics.Inverse(shaped))

	s.p.robot.SetActuatorPower(hardware.ActuatorLiftWinch, -g.RightStickY*s.p.opts.LiftSpeed)
	switch {
	case g.LeftBumper:
		s.setClaw(hardware.ClawOpen)
	case g.RightBumper:
		s.setClaw(hardware.ClawClosed)
	}
}

func cube(v float64) float64 { return math.Pow(v, 3) }
