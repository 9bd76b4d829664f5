package engine

import (
	"encoding/json"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/cxd309/mecanum-engine/internal/autodrive"
	"github.com/cxd309/mecanum-engine/internal/behavior"
	"github.com/cxd309/mecanum-engine/internal/executive"
	"github.com/cxd309/mecanum-engine/internal/field"
	"github.com/cxd309/mecanum-engine/internal/geometry"
	"github.com/cxd309/mecanum-engine/internal/hardware"
	"github.com/cxd309/mecanum-engine/internal/kinematics"
	"github.com/cxd309/mecanum-engine/internal/limiter"
)

// SimulationMeta holds the identity and timing parameters for a simulation run.
type SimulationMeta struct {
	SimulationID string  `json:"simulation_id"` // generated when empty
	RunTime      float64 `json:"run_time"`      // seconds
	TimeStep     float64 `json:"time_step"`     // seconds
}

// RobotConfig describes the simulated robot.
//
// To add a drivetrain model, implement kinematics.Drivetrain and register it in
// UnmarshalJSON below.
type RobotConfig struct {
	Name       string              `json:"name"`
	Drivetrain *kinematics.Mecanum `json:"-"` // set by UnmarshalJSON
	Sim        hardware.SimConfig  `json:"sim"`
}

// drivetrainDisc is the minimum JSON structure needed to read the model discriminator.
type drivetrainDisc struct {
	Model string `json:"model"`
}

// mecanumJSON is the serialised form of a mecanum drivetrain.
type mecanumJSON struct {
	Model string `json:"model"`
	kinematics.MecanumGeometry
}

// robotJSON is the raw JSON shape of a RobotConfig, before the drivetrain is resolved.
type robotJSON struct {
	Name       string             `json:"name"`
	Drivetrain json.RawMessage    `json:"drivetrain"`
	Sim        hardware.SimConfig `json:"sim"`
}

// UnmarshalJSON implements json.Unmarshaler for RobotConfig.
// The "drivetrain" field must contain a "model" discriminator key that selects
// the concrete implementation. Fields absent from data keep their current
// values, so a RobotConfig can be decoded over a default.
//
// Supported models:
//   - "mecanum": four mecanum wheels in an X roller pattern.
func (r *RobotConfig) UnmarshalJSON(data []byte) error {
	aux := robotJSON{Name: r.Name, Sim: r.Sim}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Name = aux.Name
	r.Sim = aux.Sim

	if len(aux.Drivetrain) == 0 {
		if r.Drivetrain == nil {
			return errors.Errorf("robot %q: missing \"drivetrain\" field", r.Name)
		}
		return nil
	}

	var disc drivetrainDisc
	if err := json.Unmarshal(aux.Drivetrain, &disc); err != nil {
		return errors.Wrapf(err, "robot %q: reading drivetrain model discriminator", r.Name)
	}

	switch disc.Model {
	case kinematics.MecanumModelName:
		var g kinematics.MecanumGeometry
		if err := json.Unmarshal(aux.Drivetrain, &g); err != nil {
			return errors.Wrapf(err, "robot %q: parsing mecanum drivetrain", r.Name)
		}
		m, err := kinematics.NewMecanum(g)
		if err != nil {
			return errors.Wrapf(err, "robot %q", r.Name)
		}
		r.Drivetrain = m
	default:
		return errors.Errorf("robot %q: unknown drivetrain model %q", r.Name, disc.Model)
	}
	return nil
}

// MarshalJSON implements json.Marshaler for RobotConfig.
func (r RobotConfig) MarshalJSON() ([]byte, error) {
	out := struct {
		Name       string             `json:"name"`
		Drivetrain *mecanumJSON       `json:"drivetrain,omitempty"`
		Sim        hardware.SimConfig `json:"sim"`
	}{Name: r.Name, Sim: r.Sim}
	if r.Drivetrain != nil {
		out.Drivetrain = &mecanumJSON{Model: kinematics.MecanumModelName, MecanumGeometry: r.Drivetrain.Geometry}
	}
	return json.Marshal(out)
}

// VisionConfig places the target the simulated camera looks for.
type VisionConfig struct {
	// TargetStone is the index of the stone the camera will report.
	TargetStone int `json:"target_stone"`
	// Radius is how close to a scan location the robot must be to see it.
	Radius float64 `json:"radius"`
}

// SimulationInput is the JSON-serialisable input to the engine.
type SimulationInput struct {
	Meta          SimulationMeta   `json:"simulation_meta"`
	Robot         RobotConfig      `json:"robot"`
	Limiter       limiter.Config   `json:"limiter"`
	ManualLimiter limiter.Config   `json:"manual_limiter"`
	AutoDrive     autodrive.Config `json:"autodrive"`
	// Field defaults to field.DefaultField when omitted.
	Field   *field.FieldData      `json:"field,omitempty"`
	Program behavior.Options      `json:"program"`
	Vision  VisionConfig          `json:"vision"`
	Gamepad hardware.GamepadState `json:"gamepad"`
}

// DefaultGeometry is a 4 inch wheel mecanum base on 537.6 tick motors.
func DefaultGeometry() kinematics.MecanumGeometry {
	return kinematics.MecanumGeometry{
		WheelDiameter:   4,
		TicksPerRev:     537.6,
		WheelbaseWidth:  14,
		WheelbaseLength: 12,
	}
}

// DefaultInput returns a 30 second loading-side run with every tuning default.
// JSON input is decoded over it.
func DefaultInput() SimulationInput {
	drive, err := kinematics.NewMecanum(DefaultGeometry())
	if err != nil {
		panic(errors.Wrap(err, "default geometry"))
	}
	return SimulationInput{
		Meta: SimulationMeta{RunTime: 30, TimeStep: 0.02},
		Robot: RobotConfig{
			Name:       "mecanum",
			Drivetrain: drive,
			Sim:        hardware.SimConfig{MaxWheelSpeed: 40, LiftTicksPerSecond: 3000},
		},
		Limiter:       limiter.Config{LinearLimit: 10, AngularLimit: 10},
		ManualLimiter: limiter.Config{LinearLimit: 4, AngularLimit: 8},
		AutoDrive:     autodrive.DefaultConfig(),
		Program:       behavior.DefaultOptions(),
		Vision:        VisionConfig{TargetStone: 1, Radius: 2},
	}
}

// Validate reports every invalid field of the input.
func (in SimulationInput) Validate() error {
	var err error
	if in.Meta.RunTime <= 0 {
		err = multierr.Append(err, errors.Errorf("run_time must be positive, got %v", in.Meta.RunTime))
	}
	if in.Meta.TimeStep <= 0 {
		err = multierr.Append(err, errors.Errorf("time_step must be positive, got %v", in.Meta.TimeStep))
	}
	if in.Robot.Drivetrain == nil {
		err = multierr.Append(err, errors.New("robot drivetrain is required"))
	}
	err = multierr.Append(err, errors.Wrap(in.Robot.Sim.Validate(), "robot sim"))
	err = multierr.Append(err, errors.Wrap(in.Limiter.Validate(), "limiter"))
	err = multierr.Append(err, errors.Wrap(in.ManualLimiter.Validate(), "manual_limiter"))
	err = multierr.Append(err, errors.Wrap(in.AutoDrive.Validate(), "autodrive"))
	err = multierr.Append(err, errors.Wrap(in.Program.Validate(), "program"))
	if in.Vision.TargetStone < 0 || in.Vision.TargetStone >= field.StoneCount {
		err = multierr.Append(err, errors.Errorf("vision target_stone must be within [0, %d), got %d", field.StoneCount, in.Vision.TargetStone))
	}
	if in.Vision.Radius < 0 {
		err = multierr.Append(err, errors.Errorf("vision radius cannot be negative, got %v", in.Vision.Radius))
	}
	return err
}

// SimulationLogRow is the robot's state at a single simulation timestep.
type SimulationLogRow struct {
	Timestamp float64                    `json:"timestamp"` // seconds
	Pose      geometry.Pose2D            `json:"pose"`      // odometry estimate
	Phase     autodrive.Phase            `json:"phase"`
	States    map[executive.Slot]string  `json:"states"`
	Command   kinematics.VelocityCommand `json:"command"`
	Hardware  hardware.SimLog            `json:"hardware"`
}

// SimulationLog is the complete output of a simulation run.
type SimulationLog struct {
	Meta SimulationMeta `json:"simulation_meta"`
	// Stone is the stone index the routine settled on.
	Stone int `json:"stone"`
	// FinalState is the drive slot occupant when the run ended.
	FinalState string             `json:"final_state"`
	Output     []SimulationLogRow `json:"output"`
}
