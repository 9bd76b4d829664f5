package limiter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/mecanum-engine/internal/kinematics"
)

func newLimiter(t *testing.T, linear, angular float64) *AccelerationLimiter {
	t.Helper()
	l, err := New(Config{LinearLimit: linear, AngularLimit: angular})
	require.NoError(t, err)
	return l
}

func TestFirstUpdatePassesThrough(t *testing.T) {
	l := newLimiter(t, 1, 1)
	big := kinematics.VelocityCommand{VX: 100, VY: -50, Omega: 30}
	assert.Equal(t, big, l.Update(3.0, big))
	assert.True(t, l.Initialized())
}

func TestZeroDeltaTimeIsIdempotent(t *testing.T) {
	l := newLimiter(t, 1, 1)
	l.Update(0, kinematics.VelocityCommand{})

	first := l.Update(0.1, kinematics.VelocityCommand{VX: 1})
	second := l.Update(0.1, kinematics.VelocityCommand{VX: -7, Omega: 3})
	assert.Equal(t, first, second)

	// A clock that runs backwards is treated the same way.
	assert.Equal(t, first, l.Update(0.05, kinematics.VelocityCommand{VY: 9}))
}

func TestLinearChannelIsLimited(t *testing.T) {
	l := newLimiter(t, 2, 1)
	l.Update(0, kinematics.VelocityCommand{})

	out := l.Update(0.1, kinematics.VelocityCommand{VX: 3, VY: 4})
	// Allowed change is 2 * 0.1 = 0.2 along the (3, 4) direction.
	assert.InDelta(t, 0.12, out.VX, 1e-12)
	assert.InDelta(t, 0.16, out.VY, 1e-12)
	assert.Equal(t, 0.0, out.Omega)
}

func TestChannelsAreDecoupled(t *testing.T) {
	// A pure rotation step must not disturb translation.
	l := newLimiter(t, 1, 1)
	l.Update(0, kinematics.VelocityCommand{VX: 0.5})
	out := l.Update(0.1, kinematics.VelocityCommand{VX: 0.5, Omega: 10})
	assert.Equal(t, 0.5, out.VX)
	assert.InDelta(t, 0.1, out.Omega, 1e-12)

	// A pure translation step must not disturb rotation.
	l = newLimiter(t, 1, 1)
	l.Update(0, kinematics.VelocityCommand{Omega: 0.3})
	out = l.Update(0.1, kinematics.VelocityCommand{VY: 10, Omega: 0.3})
	assert.Equal(t, 0.3, out.Omega)
	assert.InDelta(t, 0.1, out.VY, 1e-12)

	// Both exceed: each is cut to exactly its own limit.
	l = newLimiter(t, 1, 4)
	l.Update(0, kinematics.VelocityCommand{})
	out = l.Update(0.5, kinematics.VelocityCommand{VX: 10, Omega: -10})
	assert.InDelta(t, 0.5, out.VX, 1e-12)
	assert.InDelta(t, -2.0, out.Omega, 1e-12)
}

func TestTracksRampWithoutLag(t *testing.T) {
	l := newLimiter(t, 1, 1)
	l.Update(0, kinematics.VelocityCommand{})

	// A ramp slower than the limit is reproduced exactly.
	for i := 1; i <= 10; i++ {
		ts := float64(i) * 0.1
		req := kinematics.VelocityCommand{VX: 0.05 * float64(i)}
		out := l.Update(ts, req)
		assert.InDelta(t, req.VX, out.VX, 1e-12)
	}
}

func TestConvergesToStep(t *testing.T) {
	l := newLimiter(t, 1, 1)
	l.Update(0, kinematics.VelocityCommand{})

	target := kinematics.VelocityCommand{VX: -1}
	var out kinematics.VelocityCommand
	for i := 1; i <= 15; i++ {
		out = l.Update(float64(i)*0.1, target)
		assert.LessOrEqual(t, math.Abs(out.VX), math.Min(float64(i)*0.1, 1)+1e-12)
	}
	assert.InDelta(t, -1.0, out.VX, 1e-12)
}

func TestDisabledPassesChanges(t *testing.T) {
	l := newLimiter(t, 1, 1)
	l.Enabled = false
	l.Update(0, kinematics.VelocityCommand{})
	req := kinematics.VelocityCommand{VX: 5, Omega: -5}
	assert.Equal(t, req, l.Update(0.1, req))
}

func TestResetReseeds(t *testing.T) {
	l := newLimiter(t, 1, 1)
	l.Update(0, kinematics.VelocityCommand{})
	l.Update(0.1, kinematics.VelocityCommand{VX: 1})

	l.Reset()
	assert.False(t, l.Initialized())
	req := kinematics.VelocityCommand{VX: -1, Omega: 1}
	assert.Equal(t, req, l.Update(0.2, req))
}

func TestHoldOverridesOutput(t *testing.T) {
	l := newLimiter(t, 1, 1)
	l.Update(0, kinematics.VelocityCommand{VX: 1})
	l.Hold(0.1, kinematics.VelocityCommand{})
	assert.Equal(t, kinematics.VelocityCommand{}, l.Output())

	out := l.Update(0.2, kinematics.VelocityCommand{VX: 1})
	assert.InDelta(t, 0.1, out.VX, 1e-12)
}

func TestUnsetLimitsPanic(t *testing.T) {
	var l AccelerationLimiter
	assert.PanicsWithValue(t, ErrLimitsUnset, func() {
		l.Update(0, kinematics.VelocityCommand{})
	})
}

func TestConfigValidation(t *testing.T) {
	_, err := New(Config{LinearLimit: 0, AngularLimit: 1})
	assert.Error(t, err)
	_, err = New(Config{LinearLimit: 1, AngularLimit: -1})
	assert.Error(t, err)

	l, err := New(Config{LinearLimit: 2, AngularLimit: 3, Disabled: true})
	require.NoError(t, err)
	assert.False(t, l.Enabled)
	lin, ang := l.Limits()
	assert.Equal(t, 2.0, lin)
	assert.Equal(t, 3.0, ang)
}
