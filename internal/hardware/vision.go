package hardware

import (
	"github.com/golang/geo/r2"

	"github.com/cxd309/mecanum-engine/internal/geometry"
)

// PoseReader exposes a pose. Sim satisfies it through TruePose.
type PoseReader interface {
	TruePose() geometry.Pose2D
}

// SimVision sees the target only while the robot is within Radius of the scan
// point registered for the target's index.
type SimVision struct {
	robot      PoseReader
	target     int
	scanPoints map[int]r2.Point
	Radius     float64
}

// NewSimVision returns a SimVision for a target at index target. scanPoints maps
// target indices to the field position from which that index is observed.
func NewSimVision(robot PoseReader, target int, scanPoints map[int]r2.Point, radius float64) *SimVision {
	points := make(map[int]r2.Point, len(scanPoints))
	for i, p := range scanPoints {
		points[i] = p
	}
	return &SimVision{robot: robot, target: target, scanPoints: points, Radius: radius}
}

// IsTargetVisible implements Vision.
func (v *SimVision) IsTargetVisible() bool {
	p, ok := v.scanPoints[v.target]
	if !ok {
		return false
	}
	return v.robot.TruePose().Point().Sub(p).Norm() <= v.Radius
}

// DetectedIndex implements Vision.
func (v *SimVision) DetectedIndex() (int, bool) {
	if !v.IsTargetVisible() {
		return -1, false
	}
	return v.target, true
}
