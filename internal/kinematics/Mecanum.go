package kinematics

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/cxd309/mecanum-engine/internal/geometry"
)

// MecanumModelName is the JSON discriminator string for the Mecanum model.
const MecanumModelName = "mecanum"

// MecanumGeometry describes a four-wheel mecanum base. Lengths share one unit
// (inches in the default configuration).
//
// JSON discriminator: "model": "mecanum"
type MecanumGeometry struct {
	WheelDiameter   float64 `json:"wheel_diameter"`
	TicksPerRev     float64 `json:"ticks_per_rev"`
	WheelbaseWidth  float64 `json:"wheelbase_width"`  // left-right wheel spacing
	WheelbaseLength float64 `json:"wheelbase_length"` // front-back wheel spacing
}

// K is the sum of the half-width and half-length of the wheelbase; it couples
// rotation into each wheel's travel.
func (g MecanumGeometry) K() float64 {
	return math.Abs(g.WheelbaseWidth/2) + math.Abs(g.WheelbaseLength/2)
}

// DistancePerTick returns the wheel surface travel of a single encoder tick.
func (g MecanumGeometry) DistancePerTick() float64 {
	return math.Pi * g.WheelDiameter / g.TicksPerRev
}

// Mecanum implements Drivetrain for a four-wheel mecanum base.
type Mecanum struct {
	Geometry MecanumGeometry
	// pinv is the least-squares inverse of the 4x3 wheel matrix, mapping
	// per-wheel travel to robot-frame (Δx, Δy, Δθ).
	pinv *mat.Dense
}

// NewMecanum validates the geometry and precomputes the forward-kinematics matrix.
func NewMecanum(g MecanumGeometry) (*Mecanum, error) {
	if g.WheelDiameter <= 0 {
		return nil, errors.Errorf("wheel_diameter must be positive, got %v", g.WheelDiameter)
	}
	if g.TicksPerRev <= 0 {
		return nil, errors.Errorf("ticks_per_rev must be positive, got %v", g.TicksPerRev)
	}
	if g.K() <= 0 {
		return nil, errors.New("wheelbase width and length cannot both be zero")
	}

	a := wheelMatrix(g.K())
	var ata mat.Dense
	ata.Mul(a.T(), a)
	var ataInv mat.Dense
	if err := ataInv.Inverse(&ata); err != nil {
		return nil, errors.Wrap(err, "inverting mecanum wheel matrix")
	}
	pinv := &mat.Dense{}
	pinv.Mul(&ataInv, a.T())

	return &Mecanum{Geometry: g, pinv: pinv}, nil
}

// wheelMatrix maps robot-frame (x, y, θ) motion to wheel travel in the order
// front-left, front-right, back-left, back-right.
func wheelMatrix(k float64) *mat.Dense {
	return mat.NewDense(4, 3, []float64{
		1, -1, -k,
		1, 1, k,
		1, 1, -k,
		1, -1, k,
	})
}

// Inverse implements Drivetrain. The command is power-scale, so rotation enters
// each wheel with unit weight rather than through K.
func (m *Mecanum) Inverse(cmd VelocityCommand) WheelCommand {
	return Inverse(cmd)
}

// Forward implements Drivetrain.
func (m *Mecanum) Forward(delta WheelTicks) geometry.Pose2D {
	perTick := m.Geometry.DistancePerTick()
	return m.ForwardTravel([4]float64{
		float64(delta.FrontLeft) * perTick,
		float64(delta.FrontRight) * perTick,
		float64(delta.BackLeft) * perTick,
		float64(delta.BackRight) * perTick,
	})
}

// ForwardTravel maps per-wheel surface travel (front-left, front-right,
// back-left, back-right) to robot-frame (Δx, Δy, Δθ).
func (m *Mecanum) ForwardTravel(travel [4]float64) geometry.Pose2D {
	var out mat.VecDense
	out.MulVec(m.pinv, mat.NewVecDense(4, travel[:]))
	return geometry.Pose2D{X: out.AtVec(0), Y: out.AtVec(1), Heading: out.AtVec(2)}
}

// Inverse is the standard mecanum decomposition of a power-scale command. When
// any wheel would exceed magnitude 1 all four are scaled down together, which
// preserves the commanded direction.
func Inverse(cmd VelocityCommand) WheelCommand {
	w := WheelCommand{
		FrontLeft:  cmd.VX - cmd.VY - cmd.Omega,
		FrontRight: cmd.VX + cmd.VY + cmd.Omega,
		BackLeft:   cmd.VX + cmd.VY - cmd.Omega,
		BackRight:  cmd.VX - cmd.VY + cmd.Omega,
	}
	return normalize(w)
}

func normalize(w WheelCommand) WheelCommand {
	if m := w.MaxMagnitude(); m > 1 {
		return w.Scale(1 / m)
	}
	return w
}
