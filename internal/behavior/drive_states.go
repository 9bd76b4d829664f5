package behavior

import (
	"github.com/pkg/errors"

	"github.com/cxd309/mecanum-engine/internal/clock"
	"github.com/cxd309/mecanum-engine/internal/executive"
	"github.com/cxd309/mecanum-engine/internal/field"
	"github.com/cxd309/mecanum-engine/internal/geometry"
	"github.com/cxd309/mecanum-engine/internal/hardware"
)

// step is embedded by every routine state. Entering a state resyncs the
// odometry heading from the gyro.
type step struct {
	executive.Base
	p *Program
}

func (s *step) Init(m *executive.Machine) {
	s.Base.Init(m)
	s.p.SyncHeadingFromGyro()
}

// advance moves slot on to next while the match gate allows it.
func (s *step) advance(m *executive.Machine, slot executive.Slot, next executive.State) bool {
	return m.ChangeStateIf(s.p.gate, slot, next)
}

func (s *step) speed() float64 {
	return DriveScale(s.Elapsed.Seconds(), s.p.opts.RampUpSeconds) * s.p.opts.DriveSpeed
}

func (s *step) driveTo(id field.LocationID) bool {
	return s.p.ctrl.RotateThenDriveToPosition(s.p.field.MustWaypoint(id), s.speed())
}

// followRoute drives routeID and resyncs the heading whenever the route moves on
// to its next waypoint.
func (s *step) followRoute(routeID string, route geometry.Route, waypoint *int) bool {
	arrived := s.p.ctrl.MultiWaypointDrive(routeID, s.speed(), route)
	if i := s.p.ctrl.CurrentWaypoint(); i != *waypoint {
		*waypoint = i
		s.p.SyncHeadingFromGyro()
	}
	return arrived
}

// parked hands off after the robot reaches its park location.
func (s *step) parked(m *executive.Machine) {
	if s.p.opts.Manual {
		s.advance(m, executive.Drive, &Manual{step: s.p.newStep(0)})
		return
	}
	s.advance(m, executive.Drive, &Stop{step: s.p.newStep(0)})
}

// Start places the robot at its start location and forks on the start position.
type Start struct{ step }

func (s *Start) Update(m *executive.Machine) {
	s.Base.Update(m)
	switch s.p.opts.StartPosition {
	case PositionLoading:
		s.p.setupInitialPosition(field.LoadingStart)
		m.ChangeState(executive.Drive, &StartLoading{step: s.p.newStep(0)})
	case PositionBuilding:
		s.p.setupInitialPosition(field.BuildingStart)
		m.ChangeState(executive.Drive, &StartBuilding{step: s.p.newStep(0)})
	default:
		panic(errors.Wrapf(ErrInvalidStartPosition, "got %q", string(s.p.opts.StartPosition)))
	}
}

// StartLoading opens the claw and waits out the start delay.
type StartLoading struct{ step }

func (s *StartLoading) Init(m *executive.Machine) {
	s.step.Init(m)
	s.p.ctrl.Stop()
	m.ChangeState(executive.Arm, &RaiseOpenClaw{step: s.p.newStep(0)})
}

func (s *StartLoading) Update(m *executive.Machine) {
	s.Base.Update(m)
	if s.Elapsed.Seconds() < s.p.opts.StartDelay {
		return
	}
	if s.p.opts.Simple {
		s.advance(m, executive.Drive, &SimplePark{step: s.p.newStep(0)})
		return
	}
	s.advance(m, executive.Drive, &ScanStone{step: s.p.newStep(0)})
}

// scanCandidates is the stone each ScanStone iteration can confirm, in order.
var scanCandidates = []int{2, 1}

// ScanStone drives to the scan location for one candidate stone, lets the camera
// settle and checks for the target. Iteration 0 checks the near candidate and
// iteration 1 the far one; a target seen by neither is the remaining stone.
type ScanStone struct {
	step
	dwell    clock.Timer
	settling bool
}

func (s *ScanStone) Update(m *executive.Machine) {
	s.Base.Update(m)
	i := s.Iteration()
	if i < 0 || i >= len(scanCandidates) {
		executive.InvalidIteration(s)
	}
	candidate := scanCandidates[i]

	if !s.driveTo(field.ScanLocations()[candidate]) {
		s.settling = false
		return
	}
	if !s.settling {
		s.settling = true
		s.dwell = clock.NewTimer(m.Clock())
	}
	if s.dwell.Seconds() < s.p.opts.ScanDwell {
		return
	}

	next := &AlignStone{step: s.p.newStep(0)}
	switch {
	case s.p.vision.IsTargetVisible():
		s.p.stone = candidate
	case i+1 < len(scanCandidates):
		s.advance(m, executive.Drive, &ScanStone{step: s.p.newStep(i + 1)})
		return
	default:
		s.p.stone = 0
	}
	if s.advance(m, executive.Drive, next) {
		s.p.logger.Infow("stone detected", "stone", s.p.stone, "iteration", i)
	}
}

// AlignStone drives in front of the detected stone while the arm lowers with the
// claw open.
type AlignStone struct{ step }

func (s *AlignStone) Init(m *executive.Machine) {
	s.step.Init(m)
	m.ChangeState(executive.Arm, &LowerOpenClaw{step: s.p.newStep(0)})
}

func (s *AlignStone) Update(m *executive.Machine) {
	s.Base.Update(m)
	arrived := s.driveTo(field.AlignStone(s.p.stone))
	if arrived && m.InState(executive.Arm, (*LowerOpenClaw)(nil)) && m.Arrived(executive.Arm) {
		s.advance(m, executive.Drive, &GrabStone{step: s.p.newStep(0)})
	}
}

// GrabStone drives onto the stone and closes the claw once there.
type GrabStone struct{ step }

func (s *GrabStone) Update(m *executive.Machine) {
	s.Base.Update(m)
	if !s.driveTo(field.GrabStone(s.p.stone)) {
		return
	}
	if !m.InState(executive.Arm, (*LowerCloseClaw)(nil)) {
		m.ChangeState(executive.Arm, &LowerCloseClaw{step: s.p.newStep(0)})
		return
	}
	if m.Arrived(executive.Arm) {
		s.advance(m, executive.Drive, &BackupStone{step: s.p.newStep(0)})
	}
}

// BackupStone holds still while the claw grips, then raises the stone and backs
// out to the align location.
type BackupStone struct{ step }

func (s *BackupStone) Init(m *executive.Machine) {
	s.step.Init(m)
	s.p.ctrl.Stop()
}

func (s *BackupStone) Update(m *executive.Machine) {
	s.Base.Update(m)
	if s.Elapsed.Seconds() < s.p.opts.BackupDelay {
		return
	}
	if !m.InState(executive.Arm, (*RaiseCloseClaw)(nil)) {
		m.ChangeState(executive.Arm, &RaiseCloseClaw{step: s.p.newStep(0)})
	}
	if s.driveTo(field.AlignStone(s.p.stone)) {
		s.advance(m, executive.Drive, &Deliver{step: s.p.newStep(0)})
	}
}

// Deliver carries the stone under the bridge to the foundation.
type Deliver struct {
	step
	routeID  string
	route    geometry.Route
	waypoint int
}

func (s *Deliver) Init(m *executive.Machine) {
	s.step.Init(m)
	s.routeID = s.p.nextRouteID("deliver")
	s.route = s.p.mustRoute(field.AlignStone(s.p.stone), field.FoundationDropOff)
	s.waypoint = 0
}

func (s *Deliver) Update(m *executive.Machine) {
	s.Base.Update(m)
	if s.followRoute(s.routeID, s.route, &s.waypoint) {
		s.advance(m, executive.Drive, &PlaceStone{step: s.p.newStep(0)})
	}
}

// PlaceStone holds position while the arm places the stone on the foundation.
type PlaceStone struct{ step }

func (s *PlaceStone) Init(m *executive.Machine) {
	s.step.Init(m)
	s.p.ctrl.Stop()
	m.ChangeState(executive.Arm, &PlaceOnFoundation{step: s.p.newStep(s.p.opts.PlaceLevel)})
}

func (s *PlaceStone) Update(m *executive.Machine) {
	s.Base.Update(m)
	if m.InState(executive.Arm, (*PlaceOnFoundation)(nil)) && m.Arrived(executive.Arm) {
		s.advance(m, executive.Drive, &Park{step: s.p.newStep(0)})
	}
}

// Park drives from the foundation to the park location with the arm lowered.
type Park struct {
	step
	routeID  string
	route    geometry.Route
	waypoint int
}

func (s *Park) Init(m *executive.Machine) {
	s.step.Init(m)
	s.routeID = s.p.nextRouteID("park")
	s.route = s.p.mustRoute(field.FoundationDropOff, s.p.parkLocation())
	s.waypoint = 0
	m.ChangeState(executive.Arm, &LowerOpenClaw{step: s.p.newStep(0)})
}

func (s *Park) Update(m *executive.Machine) {
	s.Base.Update(m)
	if s.followRoute(s.routeID, s.route, &s.waypoint) {
		s.parked(m)
	}
}

// SimplePark drives straight from the start location to the park location.
type SimplePark struct {
	step
	routeID  string
	route    geometry.Route
	waypoint int
}

func (s *SimplePark) Init(m *executive.Machine) {
	s.step.Init(m)
	s.routeID = s.p.nextRouteID("simple-park")
	s.route = s.p.mustRoute(s.p.startLocation(), s.p.parkLocation())
	s.waypoint = 0
}

func (s *SimplePark) Update(m *executive.Machine) {
	s.Base.Update(m)
	if s.followRoute(s.routeID, s.route, &s.waypoint) {
		s.parked(m)
	}
}

// StartBuilding waits out the start delay before parking.
type StartBuilding struct{ step }

func (s *StartBuilding) Init(m *executive.Machine) {
	s.step.Init(m)
	s.p.ctrl.Stop()
}

func (s *StartBuilding) Update(m *executive.Machine) {
	s.Base.Update(m)
	if s.Elapsed.Seconds() >= s.p.opts.StartDelay {
		s.advance(m, executive.Drive, &SimplePark{step: s.p.newStep(0)})
	}
}

// Stop halts every motor and ends the arm routine.
type Stop struct{ step }

func (s *Stop) Init(m *executive.Machine) {
	s.step.Init(m)
	s.halt(m)
	s.Arrived = true
}

func (s *Stop) Update(m *executive.Machine) {
	s.Base.Update(m)
	s.halt(m)
}

func (s *Stop) halt(m *executive.Machine) {
	s.p.ctrl.Stop()
	s.p.robot.SetActuatorPower(hardware.ActuatorLiftWinch, 0)
	m.RemoveSlot(executive.Arm)
}
