// Package autodrive is the position controller. Each control cycle a behavior
// calls one of the drive operations with a target; the controller compares the
// target against the current pose, issues a shaped wheel command and reports
// whether the target has been reached.
//
// Arrival is latched per target: once a target reports arrived it keeps doing so,
// with the wheels stopped, until a different target is issued. Tolerances are
// inclusive.
package autodrive

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/cxd309/mecanum-engine/internal/clock"
	"github.com/cxd309/mecanum-engine/internal/geometry"
	"github.com/cxd309/mecanum-engine/internal/hardware"
	"github.com/cxd309/mecanum-engine/internal/kinematics"
	"github.com/cxd309/mecanum-engine/internal/limiter"
)

// Config holds the controller tuning. Distances share the odometry's unit and
// angles are radians.
type Config struct {
	PositionTolerance    float64 `json:"position_tolerance"`
	HeadingTolerance     float64 `json:"heading_tolerance"`
	RampThreshold        float64 `json:"ramp_threshold"`
	HeadingRampThreshold float64 `json:"heading_ramp_threshold"`
	MinPower             float64 `json:"min_power"`

	ActuatorArrivedTicks  int     `json:"actuator_arrived_ticks"`
	ActuatorRampThreshold float64 `json:"actuator_ramp_threshold"`
	ActuatorMinPower      float64 `json:"actuator_min_power"`
}

// DefaultConfig returns tuning suited to a robot measured in inches.
func DefaultConfig() Config {
	return Config{
		PositionTolerance:     1,
		HeadingTolerance:      geometry.Radians(3),
		RampThreshold:         2,
		HeadingRampThreshold:  geometry.Radians(30),
		MinPower:              0.15,
		ActuatorArrivedTicks:  50,
		ActuatorRampThreshold: 300,
		ActuatorMinPower:      0.2,
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var err error
	if c.PositionTolerance <= 0 {
		err = multierr.Append(err, errors.Errorf("position_tolerance must be positive, got %v", c.PositionTolerance))
	}
	if c.HeadingTolerance <= 0 {
		err = multierr.Append(err, errors.Errorf("heading_tolerance must be positive, got %v", c.HeadingTolerance))
	}
	if c.RampThreshold < 0 || c.HeadingRampThreshold < 0 || c.ActuatorRampThreshold < 0 {
		err = multierr.Append(err, errors.New("ramp thresholds cannot be negative"))
	}
	if c.MinPower < 0 || c.MinPower > 1 {
		err = multierr.Append(err, errors.Errorf("min_power must be within [0, 1], got %v", c.MinPower))
	}
	if c.ActuatorMinPower < 0 || c.ActuatorMinPower > 1 {
		err = multierr.Append(err, errors.Errorf("actuator_min_power must be within [0, 1], got %v", c.ActuatorMinPower))
	}
	if c.ActuatorArrivedTicks < 0 {
		err = multierr.Append(err, errors.Errorf("actuator_arrived_ticks cannot be negative, got %v", c.ActuatorArrivedTicks))
	}
	return err
}

// Phase is the controller's progress toward the current target.
type Phase string

const (
	PhaseIdle                   Phase = "idle"
	PhaseApproachingRotation    Phase = "approaching_rotation"
	PhaseApproachingTranslation Phase = "approaching_translation"
	PhaseArrived                Phase = "arrived"
)

// policy selects how a target is approached.
type policy int

const (
	rotateThenDrive policy = iota
	translateOnly
)

// PoseSource supplies the current pose estimate.
type PoseSource interface {
	Pose() geometry.Pose2D
}

// RampDown maps a remaining error onto an output between minOut and maxOut:
// minOut at or below zero error, rising linearly to maxOut at threshold and
// clipped beyond it. A non-positive threshold yields maxOut for any positive
// error.
func RampDown(err, threshold, maxOut, minOut float64) float64 {
	if err <= 0 {
		return minOut
	}
	if threshold <= 0 || err >= threshold {
		return maxOut
	}
	return minOut + (maxOut-minOut)*err/threshold
}

// Controller drives the robot toward targets and servos single-axis actuators.
type Controller struct {
	cfg    Config
	pose   PoseSource
	robot  hardware.Robot
	drive  kinematics.Drivetrain
	shaper *limiter.AccelerationLimiter
	clock  *clock.Stopwatch
	logger golog.Logger

	target    geometry.Waypoint
	hasTarget bool
	policy    policy
	phase     Phase

	lastCommand kinematics.VelocityCommand
	lastWheels  kinematics.WheelCommand

	actuatorLastKnown map[hardware.ActuatorID]int
	route             RouteFollower
}

// NewController returns a controller with no target. The shaper belongs to the
// controller's command stream from here on.
func NewController(
	cfg Config,
	pose PoseSource,
	robot hardware.Robot,
	drive kinematics.Drivetrain,
	shaper *limiter.AccelerationLimiter,
	c clock.Clock,
	logger golog.Logger,
) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "autodrive config")
	}
	return &Controller{
		cfg:               cfg,
		pose:              pose,
		robot:             robot,
		drive:             drive,
		shaper:            shaper,
		clock:             clock.NewStopwatch(c),
		logger:            logger,
		phase:             PhaseIdle,
		actuatorLastKnown: map[hardware.ActuatorID]int{},
	}, nil
}

// Config returns the controller tuning.
func (c *Controller) Config() Config { return c.cfg }

// Phase returns the progress toward the current target.
func (c *Controller) Phase() Phase { return c.phase }

// Target returns the current target, if any.
func (c *Controller) Target() (geometry.Waypoint, bool) { return c.target, c.hasTarget }

// LastCommand returns the most recent shaped velocity command.
func (c *Controller) LastCommand() kinematics.VelocityCommand { return c.lastCommand }

// LastWheels returns the most recent wheel command.
func (c *Controller) LastWheels() kinematics.WheelCommand { return c.lastWheels }

// RotateThenDriveToPosition turns toward the target heading first and only
// translates once the heading is within tolerance; heading correction continues
// while translating. It returns true once both position and heading are within
// tolerance.
func (c *Controller) RotateThenDriveToPosition(target geometry.Waypoint, speed float64) bool {
	return c.driveTo(target, speed, rotateThenDrive)
}

// DriveToPosition translates toward the target, ignoring heading entirely. It is
// used when heading is corrected elsewhere.
func (c *Controller) DriveToPosition(target geometry.Waypoint, speed float64) bool {
	return c.driveTo(target, speed, translateOnly)
}

func (c *Controller) driveTo(target geometry.Waypoint, speed float64, p policy) bool {
	if !c.hasTarget || target != c.target || p != c.policy {
		c.target = target
		c.hasTarget = true
		c.policy = p
		if p == rotateThenDrive {
			c.setPhase(PhaseApproachingRotation)
		} else {
			c.setPhase(PhaseApproachingTranslation)
		}
	}
	if c.phase == PhaseArrived {
		c.halt()
		return true
	}

	pose := c.pose.Pose()
	offset := target.Point().Sub(pose.Point())
	distance := offset.Norm()
	headingErr := geometry.AngleDiff(target.Heading, pose.Heading)

	positionOK := distance <= c.cfg.PositionTolerance
	headingOK := p == translateOnly || math.Abs(headingErr) <= c.cfg.HeadingTolerance

	if c.phase == PhaseApproachingRotation && headingOK {
		c.setPhase(PhaseApproachingTranslation)
	}
	if c.phase == PhaseApproachingTranslation && positionOK && headingOK {
		c.setPhase(PhaseArrived)
		c.halt()
		return true
	}

	speed = math.Abs(speed)
	minPower := math.Min(c.cfg.MinPower, speed)

	var cmd kinematics.VelocityCommand
	if p == rotateThenDrive && !headingOK {
		w := RampDown(math.Abs(headingErr), c.cfg.HeadingRampThreshold, speed, minPower)
		cmd.Omega = math.Copysign(w, headingErr)
	}
	if c.phase == PhaseApproachingTranslation && !positionOK {
		dir := geometry.RotateIntoFrame(offset, pose.Heading).Normalize()
		v := RampDown(distance, c.cfg.RampThreshold, speed, minPower)
		cmd.VX = dir.X * v
		cmd.VY = dir.Y * v
	}

	c.command(cmd)
	return false
}

// Stop zeroes the wheels and drops the current target.
func (c *Controller) Stop() {
	c.hasTarget = false
	c.setPhase(PhaseIdle)
	c.halt()
}

// halt forces a zero output past the shaper, so the next target starts from rest.
func (c *Controller) halt() {
	c.lastCommand = kinematics.VelocityCommand{}
	c.lastWheels = kinematics.WheelCommand{}
	c.shaper.Hold(c.clock.Seconds(), c.lastCommand)
	c.robot.SetWheelPower(c.lastWheels)
}

func (c *Controller) command(cmd kinematics.VelocityCommand) {
	c.lastCommand = c.shaper.Update(c.clock.Seconds(), cmd)
	c.lastWheels = c.drive.Inverse(c.lastCommand)
	c.robot.SetWheelPower(c.lastWheels)
}

func (c *Controller) setPhase(p Phase) {
	if p == c.phase {
		return
	}
	c.logger.Debugw("autodrive phase", "from", c.phase, "to", p, "target", c.target.String())
	c.phase = p
}
