package kinematics

import "math"

// JoystickCommand maps raw gamepad axes to a power-scale command. Gamepad y axes
// read negative when pushed forward, and a positive right-stick x turns clockwise.
func JoystickCommand(leftStickX, leftStickY, rightStickX float64) VelocityCommand {
	return VelocityCommand{VX: -leftStickY, VY: -leftStickX, Omega: -rightStickX}
}

// SimpleJoystickToWheels feeds raw stick axes straight into Inverse. The right
// stick y axis is accepted for call-site symmetry and ignored.
func SimpleJoystickToWheels(leftStickX, leftStickY, rightStickX, rightStickY float64) WheelCommand {
	return Inverse(JoystickCommand(leftStickX, leftStickY, rightStickX))
}

// PolarJoystickToWheels is the trigonometric form of SimpleJoystickToWheels: the
// left stick is read as a magnitude and direction and projected onto the two
// roller diagonals. Both forms must agree.
func PolarJoystickToWheels(leftStickX, leftStickY, rightStickX, rightStickY float64) WheelCommand {
	r := math.Hypot(leftStickX, leftStickY)
	theta := math.Atan2(-leftStickY, leftStickX)
	diagA := r * math.Sqrt2 * math.Sin(theta+math.Pi/4)
	diagB := r * math.Sqrt2 * math.Sin(theta-math.Pi/4)
	return normalize(WheelCommand{
		FrontLeft:  diagA + rightStickX,
		FrontRight: diagB - rightStickX,
		BackLeft:   diagB + rightStickX,
		BackRight:  diagA - rightStickX,
	})
}
