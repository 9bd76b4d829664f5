// Package limiter implements the acceleration limiter that shapes robot-frame
// velocity commands before they reach the wheels.
//
// The limiter is a slew-rate limiter over a 3-DOF command. Linear (vx, vy) and
// angular (ω) motion are separate channels: the linear channel is limited on the
// Euclidean norm of the (vx, vy) change and the angular channel on |Δω|, each
// against its own limit, so a large rotational step never throttles translation
// and vice versa. Limits apply to the change from the previous output rather than
// to the request itself, so a ramp is tracked exactly once the limit stops
// binding.
//
// Units are whatever the command stream uses; LinearLimit and AngularLimit are
// per-channel configuration and are not assumed comparable.
package limiter

import (
	"math"

	"github.com/pkg/errors"

	"github.com/cxd309/mecanum-engine/internal/kinematics"
)

// ErrLimitsUnset is the panic value raised when Update runs on a limiter whose
// limits were never configured.
var ErrLimitsUnset = errors.New("acceleration limits must be set before update")

// Config holds the per-channel limits, in command units per second.
type Config struct {
	LinearLimit  float64 `json:"linear_limit"`
	AngularLimit float64 `json:"angular_limit"`
	Disabled     bool    `json:"disabled,omitempty"`
}

// Validate checks that both limits are positive.
func (c Config) Validate() error {
	if c.LinearLimit <= 0 {
		return errors.Errorf("linear_limit must be positive, got %v", c.LinearLimit)
	}
	if c.AngularLimit <= 0 {
		return errors.Errorf("angular_limit must be positive, got %v", c.AngularLimit)
	}
	return nil
}

// AccelerationLimiter shapes a single command stream. It must not be shared
// between two producers without a Reset at hand-off.
type AccelerationLimiter struct {
	linearLimit  float64
	angularLimit float64
	limitsSet    bool

	// Enabled turns limiting on or off; state is tracked either way.
	Enabled bool

	initialized       bool
	previousOutput    kinematics.VelocityCommand
	previousTimestamp float64
}

// New returns an enabled limiter with the given configuration.
func New(cfg Config) (*AccelerationLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &AccelerationLimiter{Enabled: !cfg.Disabled}
	l.SetLimits(cfg.LinearLimit, cfg.AngularLimit)
	return l, nil
}

// SetLimits sets both channel limits. Signs are ignored.
func (l *AccelerationLimiter) SetLimits(linear, angular float64) {
	l.linearLimit = math.Abs(linear)
	l.angularLimit = math.Abs(angular)
	l.limitsSet = true
}

// Limits returns the configured linear and angular limits.
func (l *AccelerationLimiter) Limits() (linear, angular float64) {
	return l.linearLimit, l.angularLimit
}

// Initialized reports whether the limiter has been seeded.
func (l *AccelerationLimiter) Initialized() bool { return l.initialized }

// Output returns the most recent output.
func (l *AccelerationLimiter) Output() kinematics.VelocityCommand { return l.previousOutput }

// Reset drops the stored state; the next Update seeds again and passes its input
// through unchanged.
func (l *AccelerationLimiter) Reset() {
	l.initialized = false
	l.previousOutput = kinematics.VelocityCommand{}
	l.previousTimestamp = 0
}

// Hold forces the stored output to cmd at timestamp, as if the limiter had
// produced it. Used when a consumer overrides the output (a hard stop).
func (l *AccelerationLimiter) Hold(timestamp float64, cmd kinematics.VelocityCommand) {
	l.previousOutput = cmd
	l.previousTimestamp = timestamp
	l.initialized = true
}

// Update returns the shaped command for requested at timestamp (seconds).
//
// The first call after construction or Reset stores its input and returns it
// unchanged. A call whose timestamp does not advance returns the previous output.
func (l *AccelerationLimiter) Update(timestamp float64, requested kinematics.VelocityCommand) kinematics.VelocityCommand {
	if !l.limitsSet {
		panic(ErrLimitsUnset)
	}

	if !l.initialized {
		l.Hold(timestamp, requested)
		return requested
	}

	dt := timestamp - l.previousTimestamp
	if dt <= 0 {
		return l.previousOutput
	}

	diff := requested.Sub(l.previousOutput)
	if l.Enabled {
		linearReq := diff.LinearMagnitude() / dt
		if linearReq > l.linearLimit {
			k := l.linearLimit / linearReq
			diff.VX *= k
			diff.VY *= k
		}
		angularReq := math.Abs(diff.Omega) / dt
		if angularReq > l.angularLimit {
			diff.Omega *= l.angularLimit / angularReq
		}
	}

	out := l.previousOutput.Add(diff)
	l.previousOutput = out
	l.previousTimestamp = timestamp
	return out
}
