package autodrive

import (
	"math"

	"github.com/cxd309/mecanum-engine/internal/hardware"
)

// DriveMotorToPos servos a single-axis actuator toward targetTicks. Power is
// ramped down over rampThreshold ticks of remaining error and the actuator is
// stopped once within ActuatorArrivedTicks. A missing position read falls back
// to the last position seen.
func (c *Controller) DriveMotorToPos(id hardware.ActuatorID, targetTicks int, power, rampThreshold float64) bool {
	current, err := c.robot.ReadActuatorPosition(id)
	if err != nil {
		current = c.actuatorLastKnown[id]
	} else {
		c.actuatorLastKnown[id] = current
	}

	offset := current - targetTicks
	remaining := math.Abs(float64(offset))
	if remaining <= float64(c.cfg.ActuatorArrivedTicks) {
		c.robot.SetActuatorPower(id, 0)
		return true
	}

	direction := 1.0
	if offset > 0 {
		direction = -1
	}
	power = math.Abs(power)
	p := RampDown(remaining, rampThreshold, power, math.Min(c.cfg.ActuatorMinPower, power))
	c.robot.SetActuatorPower(id, direction*p)
	return false
}
