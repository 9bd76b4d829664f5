// Package engine runs the robot control loop against a simulated robot.
//
// The simulation advances in fixed timesteps. Each step:
//
//  1. Sense - encoder deltas are read and integrated into the odometry pose. A
//     missing encoder reads as no motion.
//
//  2. Act - the behavior program sweeps the state machine, whose states drive
//     the autodrive controller and actuators.
//
//  3. Physics - the simulated robot moves under the commands it was given and
//     the clock advances by one timestep.
package engine

import (
	"encoding/json"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/cxd309/mecanum-engine/internal/autodrive"
	"github.com/cxd309/mecanum-engine/internal/behavior"
	"github.com/cxd309/mecanum-engine/internal/clock"
	"github.com/cxd309/mecanum-engine/internal/executive"
	"github.com/cxd309/mecanum-engine/internal/field"
	"github.com/cxd309/mecanum-engine/internal/hardware"
	"github.com/cxd309/mecanum-engine/internal/kinematics"
	"github.com/cxd309/mecanum-engine/internal/limiter"
	"github.com/cxd309/mecanum-engine/internal/odometry"
)

// Robot is the simulated robot and the control stack running it.
type Robot struct {
	meta    SimulationMeta
	clock   *clock.Mock
	sim     *hardware.Sim
	odo     *odometry.Odometry
	ctrl    *autodrive.Controller
	machine *executive.Machine
	program *behavior.Program
	logger  golog.Logger
	curTime float64
}

// NewRobot builds the control stack described by input and places the simulated
// robot at its start location.
func NewRobot(input SimulationInput, logger golog.Logger) (*Robot, error) {
	if err := input.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid input")
	}
	meta := input.Meta
	if meta.SimulationID == "" {
		meta.SimulationID = uuid.NewV4().String()
	}
	logger = logger.With("simulation_id", meta.SimulationID)

	drive := input.Robot.Drivetrain
	sim, err := hardware.NewSim(input.Robot.Sim, drive)
	if err != nil {
		return nil, err
	}

	data := field.DefaultField()
	if input.Field != nil {
		data = *input.Field
	}
	fieldMap, err := field.NewMap(data, input.Program.Alliance)
	if err != nil {
		return nil, errors.Wrap(err, "building field")
	}
	start, err := fieldMap.Waypoint(input.Program.StartLocation())
	if err != nil {
		return nil, errors.Wrap(err, "start location")
	}
	sim.Place(start.Pose())

	mock := clock.NewMock()
	odo := odometry.New(drive)
	shaper, err := limiter.New(input.Limiter)
	if err != nil {
		return nil, errors.Wrap(err, "limiter")
	}
	manual, err := limiter.New(input.ManualLimiter)
	if err != nil {
		return nil, errors.Wrap(err, "manual limiter")
	}
	ctrl, err := autodrive.NewController(input.AutoDrive, odo, sim, drive, shaper, mock, logger.Named("autodrive"))
	if err != nil {
		return nil, err
	}
	machine := executive.NewMachine(mock, logger.Named("executive"))

	scanPoints := make(map[int]r2.Point)
	for stone, id := range field.ScanLocations() {
		if w, err := fieldMap.Waypoint(id); err == nil {
			scanPoints[stone] = w.Point()
		}
	}

	program, err := behavior.NewProgram(input.Program, behavior.Deps{
		Machine:      machine,
		Controller:   ctrl,
		Odometry:     odo,
		Robot:        sim,
		Vision:       hardware.NewSimVision(sim, input.Vision.TargetStone, scanPoints, input.Vision.Radius),
		Gamepad:      hardware.FixedGamepad(input.Gamepad),
		Field:        fieldMap,
		ManualShaper: manual,
		Clock:        mock,
		Logger:       logger.Named("behavior"),
	})
	if err != nil {
		return nil, err
	}

	return &Robot{
		meta:    meta,
		clock:   mock,
		sim:     sim,
		odo:     odo,
		ctrl:    ctrl,
		machine: machine,
		program: program,
		logger:  logger,
	}, nil
}

// Sim returns the simulated hardware.
func (r *Robot) Sim() *hardware.Sim { return r.sim }

// Program returns the behavior program.
func (r *Robot) Program() *behavior.Program { return r.program }

// Machine returns the state machine.
func (r *Robot) Machine() *executive.Machine { return r.machine }

// Run starts the program and steps it until RunTime, returning the log.
func (r *Robot) Run() SimulationLog {
	log := SimulationLog{Meta: r.meta}
	r.program.Init()
	for r.curTime <= r.meta.RunTime {
		log.Output = append(log.Output, r.step())
		r.curTime += r.meta.TimeStep
	}
	log.Stone = r.program.Stone()
	log.FinalState = r.machine.CurrentStateName(executive.Drive)
	r.logger.Infow("run complete",
		"steps", len(log.Output),
		"stone", log.Stone,
		"final_state", log.FinalState,
		"pose", r.sim.TruePose().String(),
	)
	return log
}

// step advances the simulation by one timestep and returns the resulting log row.
func (r *Robot) step() SimulationLogRow {
	dt := r.meta.TimeStep

	deltas, err := r.sim.ReadEncoderDeltas()
	if err != nil {
		deltas = kinematics.WheelTicks{}
	}
	r.odo.Update(deltas)

	r.program.Update()

	r.sim.Advance(dt)
	r.clock.Add(time.Duration(dt * float64(time.Second)))

	return SimulationLogRow{
		Timestamp: r.curTime,
		Pose:      r.odo.Pose(),
		Phase:     r.ctrl.Phase(),
		States:    r.machine.CurrentStateNames(),
		Command:   r.ctrl.LastCommand(),
		Hardware:  r.sim.GetLog(),
	}
}

// RunJSON is the primary entry point for the CLI and WASM targets. It accepts a
// JSON-encoded SimulationInput, decoded over DefaultInput, runs the simulation
// and returns a JSON-encoded SimulationLog.
func RunJSON(jsonInput string, logger golog.Logger) (string, error) {
	input, err := ParseInput(jsonInput)
	if err != nil {
		return "", err
	}

	robot, err := NewRobot(input, logger)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(robot.Run())
	if err != nil {
		return "", errors.Wrap(err, "marshaling output")
	}
	return string(out), nil
}

// ParseInput decodes a JSON-encoded SimulationInput over DefaultInput.
func ParseInput(jsonInput string) (SimulationInput, error) {
	input := DefaultInput()
	if err := json.Unmarshal([]byte(jsonInput), &input); err != nil {
		return SimulationInput{}, errors.Wrap(err, "invalid input JSON")
	}
	return input, nil
}

// NewLogger returns a console logger writing to stderr, leaving stdout for the
// simulation log.
func NewLogger(name string, debug bool) (golog.Logger, error) {
	cfg := golog.NewDevelopmentLoggerConfig()
	if debug {
		cfg = golog.NewDebugLoggerConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	return l.Sugar().Named(name), nil
}
