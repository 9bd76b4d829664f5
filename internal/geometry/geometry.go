// Package geometry provides the 2D pose and waypoint value types shared by the
// odometry, kinematics, and position-control packages.
//
// Conventions: x forward, y left, heading counter-clockwise in radians. Poses
// produced by odometry always carry a heading normalized to (-π, π].
package geometry

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Pose2D is a planar position and heading.
type Pose2D struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"` // radians
}

// Waypoint is an immutable drive target with a human-readable label.
type Waypoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"` // radians
	Label   string  `json:"label"`
}

// Route is an ordered sequence of waypoints.
type Route []Waypoint

// Point returns the translation part of the pose.
func (p Pose2D) Point() r2.Point { return r2.Point{X: p.X, Y: p.Y} }

// Add returns the component-wise sum of two poses. The heading is not normalized.
func (p Pose2D) Add(o Pose2D) Pose2D {
	return Pose2D{X: p.X + o.X, Y: p.Y + o.Y, Heading: p.Heading + o.Heading}
}

// Sub returns the component-wise difference p - o.
func (p Pose2D) Sub(o Pose2D) Pose2D {
	return Pose2D{X: p.X - o.X, Y: p.Y - o.Y, Heading: p.Heading - o.Heading}
}

// Scale multiplies every component by k.
func (p Pose2D) Scale(k float64) Pose2D {
	return Pose2D{X: p.X * k, Y: p.Y * k, Heading: p.Heading * k}
}

// Normalized returns a copy with the heading wrapped to (-π, π].
func (p Pose2D) Normalized() Pose2D {
	p.Heading = NormalizeAngle(p.Heading)
	return p
}

// WithHeading returns a copy with the heading replaced.
func (p Pose2D) WithHeading(heading float64) Pose2D {
	p.Heading = heading
	return p
}

// DistanceTo returns the Euclidean distance between the two positions.
func (p Pose2D) DistanceTo(o Pose2D) float64 {
	return p.Point().Sub(o.Point()).Norm()
}

func (p Pose2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.1f°)", p.X, p.Y, Degrees(p.Heading))
}

// NewWaypoint builds a waypoint from a heading given in degrees.
func NewWaypoint(label string, x, y, headingDeg float64) Waypoint {
	return Waypoint{X: x, Y: y, Heading: Radians(headingDeg), Label: label}
}

// Pose returns the waypoint as a pose.
func (w Waypoint) Pose() Pose2D { return Pose2D{X: w.X, Y: w.Y, Heading: w.Heading} }

// Point returns the translation part of the waypoint.
func (w Waypoint) Point() r2.Point { return r2.Point{X: w.X, Y: w.Y} }

func (w Waypoint) String() string {
	if w.Label == "" {
		return w.Pose().String()
	}
	return w.Label + " " + w.Pose().String()
}

// RotateIntoFrame rotates a field-frame vector into a frame whose x axis sits at
// heading (field → robot).
func RotateIntoFrame(v r2.Point, heading float64) r2.Point {
	s, c := math.Sincos(heading)
	return r2.Point{X: v.X*c + v.Y*s, Y: -v.X*s + v.Y*c}
}

// RotateOutOfFrame is the inverse of RotateIntoFrame (robot → field).
func RotateOutOfFrame(v r2.Point, heading float64) r2.Point {
	s, c := math.Sincos(heading)
	return r2.Point{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// NormalizeAngle wraps an angle in radians to (-π, π].
func NormalizeAngle(rad float64) float64 {
	a := math.Mod(rad, 2*math.Pi)
	switch {
	case a <= -math.Pi:
		a += 2 * math.Pi
	case a > math.Pi:
		a -= 2 * math.Pi
	}
	return a
}

// AngleDiff returns the shortest signed rotation from `from` to `to`, in (-π, π].
func AngleDiff(to, from float64) float64 {
	return NormalizeAngle(to - from)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
