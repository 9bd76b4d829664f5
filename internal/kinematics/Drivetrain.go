// Package kinematics defines the Drivetrain interface mapping robot-frame velocity
// commands to wheel powers and wheel encoder motion back to robot-frame pose
// deltas, along with the built-in mecanum implementation.
//
// Adding a new drive base requires only implementing Drivetrain and registering
// it in the JSON discriminator in the engine package; odometry and the position
// controller never need to change.
package kinematics

import (
	"fmt"
	"math"

	"github.com/cxd309/mecanum-engine/internal/geometry"
)

// Drivetrain is the contract every drive-base model must satisfy.
type Drivetrain interface {
	// Inverse converts a power-scale robot-frame command into wheel powers, each
	// within [-1, 1]. Pure function.
	Inverse(cmd VelocityCommand) WheelCommand

	// Forward converts per-wheel encoder deltas for one tick into the robot-frame
	// displacement (Δx, Δy, Δheading) over that tick.
	Forward(delta WheelTicks) geometry.Pose2D
}

// VelocityCommand is a robot-frame velocity request: x forward, y left, Omega
// counter-clockwise. Units are whatever the producer and consumer agree on.
type VelocityCommand struct {
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Omega float64 `json:"omega"`
}

// Add returns the component-wise sum.
func (c VelocityCommand) Add(o VelocityCommand) VelocityCommand {
	return VelocityCommand{VX: c.VX + o.VX, VY: c.VY + o.VY, Omega: c.Omega + o.Omega}
}

// Sub returns the component-wise difference c - o.
func (c VelocityCommand) Sub(o VelocityCommand) VelocityCommand {
	return VelocityCommand{VX: c.VX - o.VX, VY: c.VY - o.VY, Omega: c.Omega - o.Omega}
}

// Scale multiplies every component by k.
func (c VelocityCommand) Scale(k float64) VelocityCommand {
	return VelocityCommand{VX: c.VX * k, VY: c.VY * k, Omega: c.Omega * k}
}

// LinearMagnitude returns the Euclidean norm of the translation part.
func (c VelocityCommand) LinearMagnitude() float64 { return math.Hypot(c.VX, c.VY) }

// IsZero reports whether every component is zero.
func (c VelocityCommand) IsZero() bool { return c == VelocityCommand{} }

func (c VelocityCommand) String() string {
	return fmt.Sprintf("vx=%.3f vy=%.3f ω=%.3f", c.VX, c.VY, c.Omega)
}

// WheelCommand holds the four mecanum wheel powers, each in [-1, 1].
type WheelCommand struct {
	FrontLeft  float64 `json:"front_left"`
	FrontRight float64 `json:"front_right"`
	BackLeft   float64 `json:"back_left"`
	BackRight  float64 `json:"back_right"`
}

// MaxMagnitude returns the largest absolute wheel power.
func (w WheelCommand) MaxMagnitude() float64 {
	return math.Max(math.Max(math.Abs(w.FrontLeft), math.Abs(w.FrontRight)),
		math.Max(math.Abs(w.BackLeft), math.Abs(w.BackRight)))
}

// Scale multiplies every wheel power by k.
func (w WheelCommand) Scale(k float64) WheelCommand {
	return WheelCommand{
		FrontLeft:  w.FrontLeft * k,
		FrontRight: w.FrontRight * k,
		BackLeft:   w.BackLeft * k,
		BackRight:  w.BackRight * k,
	}
}

// WheelTicks holds per-wheel encoder counts (absolute positions or deltas).
type WheelTicks struct {
	FrontLeft  int `json:"front_left"`
	FrontRight int `json:"front_right"`
	BackLeft   int `json:"back_left"`
	BackRight  int `json:"back_right"`
}

// Sub returns the per-wheel difference t - o.
func (t WheelTicks) Sub(o WheelTicks) WheelTicks {
	return WheelTicks{
		FrontLeft:  t.FrontLeft - o.FrontLeft,
		FrontRight: t.FrontRight - o.FrontRight,
		BackLeft:   t.BackLeft - o.BackLeft,
		BackRight:  t.BackRight - o.BackRight,
	}
}

// Add returns the per-wheel sum.
func (t WheelTicks) Add(o WheelTicks) WheelTicks {
	return WheelTicks{
		FrontLeft:  t.FrontLeft + o.FrontLeft,
		FrontRight: t.FrontRight + o.FrontRight,
		BackLeft:   t.BackLeft + o.BackLeft,
		BackRight:  t.BackRight + o.BackRight,
	}
}
