// Package hardware defines the boundary between the control core and the robot's
// devices, along with a simulated robot used by the engine and tests.
//
// Every read may report ErrDeviceMissing. Callers substitute a neutral value
// (zero delta, last-known position) and carry on; a missing device is never an
// operator-facing error.
package hardware

import (
	"github.com/pkg/errors"

	"github.com/cxd309/mecanum-engine/internal/kinematics"
)

// ErrDeviceMissing is returned by reads from a device that is not present.
var ErrDeviceMissing = errors.New("device missing")

// ActuatorID names a single-axis actuator with an encoder.
type ActuatorID string

// ServoID names a positional servo.
type ServoID string

const (
	ActuatorLiftWinch ActuatorID = "lift_winch"

	ServoClaw ServoID = "claw"
)

// Claw servo positions.
const (
	ClawOpen   = 0.0
	ClawClosed = 1.0
)

// Robot is the hardware seen by the control core.
type Robot interface {
	SetWheelPower(w kinematics.WheelCommand)
	// ReadEncoderDeltas returns per-wheel ticks since the previous read.
	ReadEncoderDeltas() (kinematics.WheelTicks, error)
	// ReadHeading returns the gyro heading in radians, relative to its zero at
	// power-up.
	ReadHeading() (float64, error)
	// SetActuatorPower is a no-op for a missing actuator.
	SetActuatorPower(id ActuatorID, power float64)
	ReadActuatorPosition(id ActuatorID) (int, error)
	SetServoPosition(id ServoID, position float64)
}

// Vision reports what the camera pipeline detected. The core never looks at
// pixels.
type Vision interface {
	IsTargetVisible() bool
	// DetectedIndex returns the index of the detected target, or false when
	// nothing is known.
	DetectedIndex() (int, bool)
}

// GamepadState is one sample of the driver's controller. Stick y axes read
// negative when pushed forward.
type GamepadState struct {
	LeftStickX  float64 `json:"left_stick_x"`
	LeftStickY  float64 `json:"left_stick_y"`
	RightStickX float64 `json:"right_stick_x"`
	RightStickY float64 `json:"right_stick_y"`
	LeftBumper  bool    `json:"left_bumper"`
	RightBumper bool    `json:"right_bumper"`
}

// Gamepad supplies controller samples.
type Gamepad interface {
	State() GamepadState
}

// FixedGamepad is a Gamepad that always reports the same sample.
type FixedGamepad GamepadState

// State implements Gamepad.
func (g FixedGamepad) State() GamepadState { return GamepadState(g) }
