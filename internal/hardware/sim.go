package hardware

import (
	"math"

	"github.com/pkg/errors"

	"github.com/cxd309/mecanum-engine/internal/geometry"
	"github.com/cxd309/mecanum-engine/internal/kinematics"
)

// SimConfig holds the parameters of the simulated robot.
type SimConfig struct {
	// MaxWheelSpeed is the wheel surface speed at full power, distance units per second.
	MaxWheelSpeed float64 `json:"max_wheel_speed"`
	// LiftTicksPerSecond is the actuator encoder rate at full power.
	LiftTicksPerSecond float64 `json:"lift_ticks_per_second"`

	MissingEncoders  bool         `json:"missing_encoders,omitempty"`
	MissingGyro      bool         `json:"missing_gyro,omitempty"`
	MissingActuators []ActuatorID `json:"missing_actuators,omitempty"`
}

// Validate checks the simulation rates.
func (c SimConfig) Validate() error {
	if c.MaxWheelSpeed <= 0 {
		return errors.Errorf("max_wheel_speed must be positive, got %v", c.MaxWheelSpeed)
	}
	if c.LiftTicksPerSecond <= 0 {
		return errors.Errorf("lift_ticks_per_second must be positive, got %v", c.LiftTicksPerSecond)
	}
	return nil
}

type simActuator struct {
	power    float64
	position float64
}

// Sim is a simulated mecanum robot implementing Robot. Wheel power maps linearly
// to wheel surface speed; the true pose is integrated from the same wheel model
// the odometry uses, so the only odometry error is encoder quantization.
type Sim struct {
	cfg   SimConfig
	drive *kinematics.Mecanum

	pose      geometry.Pose2D
	gyroZero  float64
	wheels    kinematics.WheelCommand
	pending   [4]float64 // ticks not yet read, including fractions
	actuators map[ActuatorID]*simActuator
	servos    map[ServoID]float64
	missing   map[ActuatorID]bool
}

// NewSim returns a simulated robot at the origin.
func NewSim(cfg SimConfig, drive *kinematics.Mecanum) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "sim")
	}
	s := &Sim{
		cfg:   cfg,
		drive: drive,
		actuators: map[ActuatorID]*simActuator{
			ActuatorLiftWinch: {},
		},
		servos:  map[ServoID]float64{ServoClaw: ClawOpen},
		missing: map[ActuatorID]bool{},
	}
	for _, id := range cfg.MissingActuators {
		s.missing[id] = true
	}
	return s, nil
}

// Place puts the robot at pose and zeroes the gyro there, as at power-up.
func (s *Sim) Place(pose geometry.Pose2D) {
	s.pose = pose.Normalized()
	s.gyroZero = s.pose.Heading
	s.pending = [4]float64{}
}

// TruePose returns the simulated ground-truth pose.
func (s *Sim) TruePose() geometry.Pose2D { return s.pose }

// WheelPower returns the last commanded wheel power.
func (s *Sim) WheelPower() kinematics.WheelCommand { return s.wheels }

// ServoPosition returns the last commanded servo position.
func (s *Sim) ServoPosition(id ServoID) float64 { return s.servos[id] }

// SetWheelPower implements Robot. Powers are clipped to [-1, 1].
func (s *Sim) SetWheelPower(w kinematics.WheelCommand) {
	s.wheels = kinematics.WheelCommand{
		FrontLeft:  clip(w.FrontLeft),
		FrontRight: clip(w.FrontRight),
		BackLeft:   clip(w.BackLeft),
		BackRight:  clip(w.BackRight),
	}
}

// ReadEncoderDeltas implements Robot. Whole ticks are reported and the
// fractional remainder carries to the next read.
func (s *Sim) ReadEncoderDeltas() (kinematics.WheelTicks, error) {
	if s.cfg.MissingEncoders {
		s.pending = [4]float64{}
		return kinematics.WheelTicks{}, ErrDeviceMissing
	}
	var whole [4]int
	for i, p := range s.pending {
		t := math.Trunc(p)
		whole[i] = int(t)
		s.pending[i] = p - t
	}
	return kinematics.WheelTicks{
		FrontLeft:  whole[0],
		FrontRight: whole[1],
		BackLeft:   whole[2],
		BackRight:  whole[3],
	}, nil
}

// ReadHeading implements Robot.
func (s *Sim) ReadHeading() (float64, error) {
	if s.cfg.MissingGyro {
		return 0, ErrDeviceMissing
	}
	return geometry.AngleDiff(s.pose.Heading, s.gyroZero), nil
}

// SetActuatorPower implements Robot.
func (s *Sim) SetActuatorPower(id ActuatorID, power float64) {
	a, ok := s.actuators[id]
	if !ok || s.missing[id] {
		return
	}
	a.power = clip(power)
}

// ReadActuatorPosition implements Robot.
func (s *Sim) ReadActuatorPosition(id ActuatorID) (int, error) {
	a, ok := s.actuators[id]
	if !ok || s.missing[id] {
		return 0, ErrDeviceMissing
	}
	return int(math.Round(a.position)), nil
}

// SetServoPosition implements Robot.
func (s *Sim) SetServoPosition(id ServoID, position float64) {
	s.servos[id] = math.Max(0, math.Min(1, position))
}

// Advance runs the physics for dt seconds under the current commands.
func (s *Sim) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	w := s.wheels
	travel := [4]float64{
		w.FrontLeft * s.cfg.MaxWheelSpeed * dt,
		w.FrontRight * s.cfg.MaxWheelSpeed * dt,
		w.BackLeft * s.cfg.MaxWheelSpeed * dt,
		w.BackRight * s.cfg.MaxWheelSpeed * dt,
	}
	perTick := s.drive.Geometry.DistancePerTick()
	for i, d := range travel {
		s.pending[i] += d / perTick
	}

	step := s.drive.ForwardTravel(travel)
	field := geometry.RotateOutOfFrame(step.Point(), s.pose.Heading)
	s.pose = geometry.Pose2D{
		X:       s.pose.X + field.X,
		Y:       s.pose.Y + field.Y,
		Heading: s.pose.Heading + step.Heading,
	}.Normalized()

	for _, a := range s.actuators {
		a.position += a.power * s.cfg.LiftTicksPerSecond * dt
	}
}

// SimLog is a point-in-time snapshot of the simulated hardware.
type SimLog struct {
	TruePose  geometry.Pose2D         `json:"true_pose"`
	Wheels    kinematics.WheelCommand `json:"wheels"`
	Actuators map[ActuatorID]int      `json:"actuators"`
	Servos    map[ServoID]float64     `json:"servos"`
}

// GetLog returns a point-in-time snapshot of the simulated hardware.
func (s *Sim) GetLog() SimLog {
	log := SimLog{
		TruePose:  s.pose,
		Wheels:    s.wheels,
		Actuators: make(map[ActuatorID]int, len(s.actuators)),
		Servos:    make(map[ServoID]float64, len(s.servos)),
	}
	for id, a := range s.actuators {
		log.Actuators[id] = int(math.Round(a.position))
	}
	for id, pos := range s.servos {
		log.Servos[id] = pos
	}
	return log
}

func clip(p float64) float64 {
	return math.Max(-1, math.Min(1, p))
}
