package kinematics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/mecanum-engine/internal/geometry"
)

var testGeometry = MecanumGeometry{
	WheelDiameter:   4,
	TicksPerRev:     560,
	WheelbaseWidth:  14,
	WheelbaseLength: 12,
}

func assertWheelsEqual(t *testing.T, want, got WheelCommand, msg string) {
	t.Helper()
	// The two joystick forms differ only by trigonometric rounding.
	const eps = 1e-12
	assert.InDelta(t, want.FrontLeft, got.FrontLeft, eps, msg)
	assert.InDelta(t, want.FrontRight, got.FrontRight, eps, msg)
	assert.InDelta(t, want.BackLeft, got.BackLeft, eps, msg)
	assert.InDelta(t, want.BackRight, got.BackRight, eps, msg)
}

func TestJoystickFormsAgree(t *testing.T) {
	axes := []float64{-1, -0.5, 0, 0.5, 1}
	for _, lx := range axes {
		for _, ly := range axes {
			for _, rx := range axes {
				simple := SimpleJoystickToWheels(lx, ly, rx, 0)
				polar := PolarJoystickToWheels(lx, ly, rx, 0)
				assertWheelsEqual(t, simple, polar, fmt.Sprintf("sticks lx=%v ly=%v rx=%v", lx, ly, rx))
			}
		}
	}
}

func TestInverseDirections(t *testing.T) {
	forward := Inverse(VelocityCommand{VX: 0.5})
	assert.Equal(t, WheelCommand{FrontLeft: 0.5, FrontRight: 0.5, BackLeft: 0.5, BackRight: 0.5}, forward)

	left := Inverse(VelocityCommand{VY: 0.5})
	assert.Equal(t, WheelCommand{FrontLeft: -0.5, FrontRight: 0.5, BackLeft: 0.5, BackRight: -0.5}, left)

	ccw := Inverse(VelocityCommand{Omega: 0.5})
	assert.Equal(t, WheelCommand{FrontLeft: -0.5, FrontRight: 0.5, BackLeft: -0.5, BackRight: 0.5}, ccw)
}

func TestInverseNormalizesPreservingDirection(t *testing.T) {
	w := Inverse(VelocityCommand{VX: 1, VY: 1, Omega: 0.5})
	assert.InDelta(t, 1.0, w.MaxMagnitude(), 1e-12)

	raw := WheelCommand{FrontLeft: -0.5, FrontRight: 2.5, BackLeft: 1.5, BackRight: 0.5}
	for _, pair := range [][2]float64{
		{w.FrontLeft, raw.FrontLeft},
		{w.FrontRight, raw.FrontRight},
		{w.BackLeft, raw.BackLeft},
		{w.BackRight, raw.BackRight},
	} {
		assert.InDelta(t, pair[1]/2.5, pair[0], 1e-12)
	}

	small := Inverse(VelocityCommand{VX: 0.2, VY: 0.1})
	assert.InDelta(t, 0.3, small.MaxMagnitude(), 1e-12, "commands inside the unit box pass through")
}

func TestNewMecanumRejectsBadGeometry(t *testing.T) {
	_, err := NewMecanum(MecanumGeometry{WheelDiameter: 0, TicksPerRev: 560, WheelbaseWidth: 1})
	assert.Error(t, err)
	_, err = NewMecanum(MecanumGeometry{WheelDiameter: 4, TicksPerRev: 0, WheelbaseWidth: 1})
	assert.Error(t, err)
	_, err = NewMecanum(MecanumGeometry{WheelDiameter: 4, TicksPerRev: 560})
	assert.Error(t, err)
}

func TestForwardMatchesClosedForm(t *testing.T) {
	m, err := NewMecanum(testGeometry)
	require.NoError(t, err)

	deltas := []WheelTicks{
		{FrontLeft: 100, FrontRight: 100, BackLeft: 100, BackRight: 100},
		{FrontLeft: -80, FrontRight: 80, BackLeft: 80, BackRight: -80},
		{FrontLeft: -50, FrontRight: 50, BackLeft: -50, BackRight: 50},
		{FrontLeft: 13, FrontRight: -7, BackLeft: 22, BackRight: 5},
	}
	k := testGeometry.K()
	perTick := testGeometry.DistancePerTick()
	for _, d := range deltas {
		fl := float64(d.FrontLeft) * perTick
		fr := float64(d.FrontRight) * perTick
		bl := float64(d.BackLeft) * perTick
		br := float64(d.BackRight) * perTick
		want := geometry.Pose2D{
			X:       (fl + fr + bl + br) / 4,
			Y:       (-fl + fr + bl - br) / 4,
			Heading: (-fl + fr - bl + br) / (4 * k),
		}
		got := m.Forward(d)
		assert.InDelta(t, want.X, got.X, 1e-9)
		assert.InDelta(t, want.Y, got.Y, 1e-9)
		assert.InDelta(t, want.Heading, got.Heading, 1e-9)
	}
}

func TestWheelTicksArithmetic(t *testing.T) {
	a := WheelTicks{FrontLeft: 10, FrontRight: 20, BackLeft: 30, BackRight: 40}
	b := WheelTicks{FrontLeft: 1, FrontRight: 2, BackLeft: 3, BackRight: 4}
	assert.Equal(t, WheelTicks{FrontLeft: 9, FrontRight: 18, BackLeft: 27, BackRight: 36}, a.Sub(b))
	assert.Equal(t, a, a.Sub(b).Add(b))
}
