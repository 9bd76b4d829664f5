// Package odometry integrates wheel encoder deltas into a field-frame pose by
// dead-reckoning.
package odometry

import (
	"github.com/cxd309/mecanum-engine/internal/geometry"
	"github.com/cxd309/mecanum-engine/internal/kinematics"
)

// Odometry owns the pose estimate. Everyone else reads it through Pose.
type Odometry struct {
	drivetrain kinematics.Drivetrain
	pose       geometry.Pose2D
	baseline   kinematics.WheelTicks
}

// New returns odometry at the origin using drivetrain for forward kinematics.
func New(drivetrain kinematics.Drivetrain) *Odometry {
	return &Odometry{drivetrain: drivetrain}
}

// Initialize sets the pose and zeroes the encoder baselines.
func (o *Odometry) Initialize(pose geometry.Pose2D) {
	o.pose = pose.Normalized()
	o.baseline = kinematics.WheelTicks{}
}

// SetCurrentPosition overrides the pose without touching the encoder baselines,
// so absolute-encoder deltas stay continuous across the override.
func (o *Odometry) SetCurrentPosition(pose geometry.Pose2D) {
	o.pose = pose.Normalized()
}

// SetHeading overrides only the heading.
func (o *Odometry) SetHeading(heading float64) {
	o.pose = o.pose.WithHeading(heading).Normalized()
}

// Pose returns the current estimate.
func (o *Odometry) Pose() geometry.Pose2D {
	return o.pose
}

// Update integrates one tick of per-wheel encoder deltas. It must run exactly
// once per control cycle. The robot-frame displacement is rotated into the field
// frame with the heading held at the start of the tick.
func (o *Odometry) Update(delta kinematics.WheelTicks) {
	d := o.drivetrain.Forward(delta)
	field := geometry.RotateOutOfFrame(d.Point(), o.pose.Heading)
	o.pose = geometry.Pose2D{
		X:       o.pose.X + field.X,
		Y:       o.pose.Y + field.Y,
		Heading: o.pose.Heading + d.Heading,
	}.Normalized()
}

// UpdatePositions is Update for absolute encoder readings: the delta is taken
// against the stored baselines, which then advance to positions.
func (o *Odometry) UpdatePositions(positions kinematics.WheelTicks) {
	delta := positions.Sub(o.baseline)
	o.baseline = positions
	o.Update(delta)
}
