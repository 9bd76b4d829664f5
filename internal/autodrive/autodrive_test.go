package autodrive

import (
	"math"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/mecanum-engine/internal/clock"
	"github.com/cxd309/mecanum-engine/internal/geometry"
	"github.com/cxd309/mecanum-engine/internal/hardware"
	"github.com/cxd309/mecanum-engine/internal/kinematics"
	"github.com/cxd309/mecanum-engine/internal/limiter"
	"github.com/cxd309/mecanum-engine/internal/odometry"
)

const tick = 20 * time.Millisecond

type fakePose struct {
	pose geometry.Pose2D
}

func (f *fakePose) Pose() geometry.Pose2D { return f.pose }

type fakeRobot struct {
	wheels   kinematics.WheelCommand
	power    map[hardware.ActuatorID]float64
	position map[hardware.ActuatorID]int
	missing  bool
}

func newFakeRobot() *fakeRobot {
	return &fakeRobot{
		power:    map[hardware.ActuatorID]float64{},
		position: map[hardware.ActuatorID]int{},
	}
}

func (r *fakeRobot) SetWheelPower(w kinematics.WheelCommand) { r.wheels = w }

func (r *fakeRobot) ReadEncoderDeltas() (kinematics.WheelTicks, error) {
	return kinematics.WheelTicks{}, nil
}

func (r *fakeRobot) ReadHeading() (float64, error) { return 0, nil }

func (r *fakeRobot) SetActuatorPower(id hardware.ActuatorID, p float64) { r.power[id] = p }

func (r *fakeRobot) ReadActuatorPosition(id hardware.ActuatorID) (int, error) {
	if r.missing {
		return 0, hardware.ErrDeviceMissing
	}
	return r.position[id], nil
}

func (r *fakeRobot) SetServoPosition(hardware.ServoID, float64) {}

type harness struct {
	ctrl  *Controller
	pose  *fakePose
	robot *fakeRobot
	clock *clock.Mock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	shaper, err := limiter.New(limiter.Config{LinearLimit: 1000, AngularLimit: 1000})
	require.NoError(t, err)
	h := &harness{pose: &fakePose{}, robot: newFakeRobot(), clock: clock.NewMock()}
	h.ctrl, err = NewController(DefaultConfig(), h.pose, h.robot, kinematicsStub{}, shaper, h.clock, golog.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

// kinematicsStub only needs Inverse; the controller never integrates.
type kinematicsStub struct{}

func (kinematicsStub) Inverse(cmd kinematics.VelocityCommand) kinematics.WheelCommand {
	return kinematics.Inverse(cmd)
}

func (kinematicsStub) Forward(kinematics.WheelTicks) geometry.Pose2D { return geometry.Pose2D{} }

func (h *harness) step() { h.clock.Add(tick) }

func TestRampDownBoundaries(t *testing.T) {
	const threshold, maxOut, minOut = 2.0, 1.0, 0.2

	assert.Equal(t, minOut, RampDown(0, threshold, maxOut, minOut))
	assert.Equal(t, minOut, RampDown(-3, threshold, maxOut, minOut))
	assert.InDelta(t, 0.6, RampDown(threshold/2, threshold, maxOut, minOut), 1e-12)
	assert.Equal(t, maxOut, RampDown(threshold, threshold, maxOut, minOut))
	assert.Equal(t, maxOut, RampDown(10*threshold, threshold, maxOut, minOut))

	prev := RampDown(0, threshold, maxOut, minOut)
	for e := 0.05; e < 3; e += 0.05 {
		v := RampDown(e, threshold, maxOut, minOut)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}

	assert.Equal(t, maxOut, RampDown(0.1, 0, maxOut, minOut))
	assert.Equal(t, minOut, RampDown(0, 0, maxOut, minOut))
}

func TestConfigValidation(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.PositionTolerance = 0
	bad.MinPower = 2
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position_tolerance")
	assert.Contains(t, err.Error(), "min_power")
}

func TestArrivalBoundaryIsInclusive(t *testing.T) {
	target := geometry.Waypoint{X: 10, Heading: 0.05, Label: "target"}

	h := newHarness(t)
	h.pose.pose = geometry.Pose2D{X: 9}
	// Distance exactly 1 and heading error exactly the tolerance.
	h.ctrl.cfg.HeadingTolerance = 0.05
	assert.True(t, h.ctrl.RotateThenDriveToPosition(target, 1))
	assert.Equal(t, PhaseArrived, h.ctrl.Phase())
	assert.Equal(t, kinematics.WheelCommand{}, h.robot.wheels)

	h = newHarness(t)
	h.pose.pose = geometry.Pose2D{X: 9 - 1e-9}
	h.ctrl.cfg.HeadingTolerance = 0.05
	assert.False(t, h.ctrl.RotateThenDriveToPosition(target, 1))

	h = newHarness(t)
	h.pose.pose = geometry.Pose2D{X: 9, Heading: -1e-9}
	h.ctrl.cfg.HeadingTolerance = 0.05
	assert.False(t, h.ctrl.RotateThenDriveToPosition(target, 1))
	// Translate-only ignores the heading error.
	assert.True(t, h.ctrl.DriveToPosition(target, 1))
}

func TestArrivalIsLatchedPerTarget(t *testing.T) {
	h := newHarness(t)
	target := geometry.NewWaypoint("a", 5, 5, 0)
	h.pose.pose = target.Pose()
	require.True(t, h.ctrl.RotateThenDriveToPosition(target, 1))

	// Leaving the tolerance does not undo arrival for the same target.
	h.pose.pose = geometry.Pose2D{}
	h.step()
	assert.True(t, h.ctrl.RotateThenDriveToPosition(target, 1))
	assert.Equal(t, kinematics.WheelCommand{}, h.robot.wheels)

	// A different target re-enters the approach.
	h.step()
	assert.False(t, h.ctrl.RotateThenDriveToPosition(geometry.NewWaypoint("b", 5, 5, 0), 1))
	assert.Equal(t, PhaseApproachingTranslation, h.ctrl.Phase())
}

func TestRotateThenDrive(t *testing.T) {
	h := newHarness(t)
	target := geometry.NewWaypoint("turned", 10, 0, 90)

	assert.False(t, h.ctrl.RotateThenDriveToPosition(target, 1))
	assert.Equal(t, PhaseApproachingRotation, h.ctrl.Phase())
	cmd := h.ctrl.LastCommand()
	assert.Equal(t, 0.0, cmd.VX)
	assert.Equal(t, 0.0, cmd.VY)
	assert.Greater(t, cmd.Omega, 0.0, "counter-clockwise toward +90°")

	// Heading reached: translation starts. The target is dead ahead in the field
	// frame, which is to the robot's right when facing +y.
	h.pose.pose = geometry.Pose2D{Heading: math.Pi / 2}
	h.step()
	assert.False(t, h.ctrl.RotateThenDriveToPosition(target, 1))
	assert.Equal(t, PhaseApproachingTranslation, h.ctrl.Phase())
	cmd = h.ctrl.LastCommand()
	assert.InDelta(t, 0.0, cmd.VX, 1e-9)
	assert.InDelta(t, -1.0, cmd.VY, 1e-9)
	assert.Equal(t, 0.0, cmd.Omega)

	// A heading drift during translation is corrected without falling back to
	// the rotation phase.
	h.pose.pose = geometry.Pose2D{Heading: math.Pi/2 - 0.2}
	h.step()
	assert.False(t, h.ctrl.RotateThenDriveToPosition(target, 1))
	assert.Equal(t, PhaseApproachingTranslation, h.ctrl.Phase())
	assert.Greater(t, h.ctrl.LastCommand().Omega, 0.0)
	assert.NotEqual(t, 0.0, h.ctrl.LastCommand().VY)
}

func TestTranslateOnlyIgnoresHeading(t *testing.T) {
	h := newHarness(t)
	target := geometry.NewWaypoint("behind", 10, 0, 180)

	assert.False(t, h.ctrl.DriveToPosition(target, 0.5))
	assert.Equal(t, PhaseApproachingTranslation, h.ctrl.Phase())
	cmd := h.ctrl.LastCommand()
	assert.Equal(t, 0.0, cmd.Omega)
	assert.InDelta(t, 0.5, cmd.VX, 1e-12)

	h.pose.pose = geometry.Pose2D{X: 9.5}
	h.step()
	assert.True(t, h.ctrl.DriveToPosition(target, 0.5))
}

func TestZeroSpeedCommandsNothing(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.ctrl.RotateThenDriveToPosition(geometry.NewWaypoint("", 10, 0, 0), 0))
	assert.True(t, h.ctrl.LastCommand().IsZero())
}

func TestStopClearsTarget(t *testing.T) {
	h := newHarness(t)
	h.ctrl.DriveToPosition(geometry.NewWaypoint("", 10, 0, 0), 1)
	h.ctrl.Stop()
	_, ok := h.ctrl.Target()
	assert.False(t, ok)
	assert.Equal(t, PhaseIdle, h.ctrl.Phase())
	assert.Equal(t, kinematics.WheelCommand{}, h.robot.wheels)
}

func TestDriveMotorToPos(t *testing.T) {
	h := newHarness(t)
	lift := hardware.ActuatorLiftWinch

	assert.False(t, h.ctrl.DriveMotorToPos(lift, 1000, 1, 300))
	assert.Equal(t, 1.0, h.robot.power[lift])

	h.robot.position[lift] = 1100
	assert.False(t, h.ctrl.DriveMotorToPos(lift, 1000, 1, 300))
	assert.InDelta(t, -(0.2 + 0.8*100.0/300), h.robot.power[lift], 1e-12)

	h.robot.position[lift] = 1050
	assert.True(t, h.ctrl.DriveMotorToPos(lift, 1000, 1, 300), "inclusive arrival tolerance")
	assert.Equal(t, 0.0, h.robot.power[lift])

	h.robot.position[lift] = 949
	assert.False(t, h.ctrl.DriveMotorToPos(lift, 1000, -0.5, 300))
	assert.Greater(t, h.robot.power[lift], 0.0, "sign of power argument is ignored")
}

func TestDriveMotorToPosUsesLastKnownPosition(t *testing.T) {
	h := newHarness(t)
	lift := hardware.ActuatorLiftWinch

	h.robot.position[lift] = 990
	assert.True(t, h.ctrl.DriveMotorToPos(lift, 1000, 1, 300))

	h.robot.missing = true
	h.robot.position[lift] = 0
	assert.True(t, h.ctrl.DriveMotorToPos(lift, 1000, 1, 300))
	assert.False(t, h.ctrl.DriveMotorToPos(lift, 0, 1, 300))
	assert.Less(t, h.robot.power[lift], 0.0)
}

func TestRouteFollowerSequencing(t *testing.T) {
	route := geometry.Route{
		geometry.NewWaypoint("a", 1, 0, 0),
		geometry.NewWaypoint("b", 2, 0, 0),
		geometry.NewWaypoint("c", 3, 0, 0),
	}
	const ticksToArrive = 3

	var current geometry.Waypoint
	calls := 0
	drive := func(target geometry.Waypoint, _ float64) bool {
		if target != current {
			current = target
			calls = 0
		}
		calls++
		return calls >= ticksToArrive
	}

	var f RouteFollower
	var indices []int
	var arrived []bool
	for i := 0; i < 3*ticksToArrive+2; i++ {
		arrived = append(arrived, f.Drive("deliver", 1, route, drive))
		indices = append(indices, f.CurrentWaypoint())
	}

	assert.Equal(t, []int{0, 0, 1, 1, 1, 2, 2, 2, 2, 2, 2}, indices)
	assert.Equal(t, []bool{false, false, false, false, false, false, false, false, true, true, true}, arrived)

	// A new route ID starts over.
	f.Drive("park", 1, route, drive)
	assert.Equal(t, 0, f.CurrentWaypoint())
	assert.Equal(t, "park", f.RouteID())

	f.Reset()
	assert.Equal(t, "", f.RouteID())
	assert.True(t, f.Drive("empty", 1, nil, drive))
}

func TestMultiWaypointDrive(t *testing.T) {
	h := newHarness(t)
	route := geometry.Route{
		geometry.NewWaypoint("a", 5, 0, 0),
		geometry.NewWaypoint("b", 5, 5, 0),
	}

	h.pose.pose = route[0].Pose()
	assert.False(t, h.ctrl.MultiWaypointDrive("r", 1, route))
	assert.Equal(t, 1, h.ctrl.CurrentWaypoint())

	h.step()
	assert.False(t, h.ctrl.MultiWaypointDrive("r", 1, route))
	assert.Equal(t, 1, h.ctrl.CurrentWaypoint())
	assert.Greater(t, h.ctrl.LastCommand().VY, 0.0)

	h.pose.pose = route[1].Pose()
	h.step()
	assert.True(t, h.ctrl.MultiWaypointDrive("r", 1, route))
	assert.Equal(t, 1, h.ctrl.CurrentWaypoint())
}

func TestDriveToTargetEndToEnd(t *testing.T) {
	drive, err := kinematics.NewMecanum(kinematics.MecanumGeometry{
		WheelDiameter:   4,
		TicksPerRev:     560,
		WheelbaseWidth:  14,
		WheelbaseLength: 12,
	})
	require.NoError(t, err)
	sim, err := hardware.NewSim(hardware.SimConfig{MaxWheelSpeed: 30, LiftTicksPerSecond: 1000}, drive)
	require.NoError(t, err)
	odo := odometry.New(drive)
	odo.Initialize(geometry.Pose2D{})
	sim.Place(geometry.Pose2D{})

	shaper, err := limiter.New(limiter.Config{LinearLimit: 10, AngularLimit: 10})
	require.NoError(t, err)
	mock := clock.NewMock()
	ctrl, err := NewController(DefaultConfig(), odo, sim, drive, shaper, mock, golog.NewTestLogger(t))
	require.NoError(t, err)

	target := geometry.NewWaypoint("goal", 10, 0, 0)
	tolerance := DefaultConfig().PositionTolerance
	threshold := DefaultConfig().RampThreshold

	arrivedAt := -1
	prevVX := math.Inf(1)
	for i := 0; i < 500; i++ {
		deltas, err := sim.ReadEncoderDeltas()
		require.NoError(t, err)
		odo.Update(deltas)

		distance := odo.Pose().DistanceTo(target.Pose())
		arrived := ctrl.RotateThenDriveToPosition(target, 1)

		if arrivedAt >= 0 {
			require.True(t, arrived, "arrival must stay latched")
			assert.True(t, ctrl.LastCommand().IsZero())
		} else if arrived {
			arrivedAt = i
			assert.LessOrEqual(t, distance, tolerance)
		} else {
			assert.Greater(t, distance, tolerance)
			vx := ctrl.LastCommand().VX
			assert.Greater(t, vx, 0.0)
			if distance < threshold {
				assert.LessOrEqual(t, vx, prevVX+1e-12, "speed must fall as the target nears")
			}
			prevVX = vx
		}

		sim.Advance(tick.Seconds())
		mock.Add(tick)
	}
	require.GreaterOrEqual(t, arrivedAt, 0, "never arrived")
	assert.InDelta(t, 10, sim.TruePose().X, 1.1)
}
