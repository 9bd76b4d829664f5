// Package behavior is the competition routine: a program of drive and arm states
// run by the executive, steering the robot through the autodrive controller.
package behavior

import (
	"fmt"
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/cxd309/mecanum-engine/internal/autodrive"
	"github.com/cxd309/mecanum-engine/internal/clock"
	"github.com/cxd309/mecanum-engine/internal/executive"
	"github.com/cxd309/mecanum-engine/internal/field"
	"github.com/cxd309/mecanum-engine/internal/geometry"
	"github.com/cxd309/mecanum-engine/internal/hardware"
	"github.com/cxd309/mecanum-engine/internal/limiter"
	"github.com/cxd309/mecanum-engine/internal/odometry"
)

// Deps are the collaborators a Program drives. Vision is only needed by the
// stone routine; Gamepad and ManualShaper only when Options.Manual is set.
type Deps struct {
	Machine    *executive.Machine
	Controller *autodrive.Controller
	Odometry   *odometry.Odometry
	Robot      hardware.Robot
	Vision     hardware.Vision
	Gamepad    hardware.Gamepad
	Field      *field.Map
	// ManualShaper shapes gamepad commands. It must not be the controller's
	// shaper.
	ManualShaper *limiter.AccelerationLimiter
	Clock        clock.Clock
	Logger       golog.Logger
}

func (d Deps) validate(opts Options) error {
	var err error
	missing := func(name string) {
		err = multierr.Append(err, errors.Errorf("%s is required", name))
	}
	if d.Machine == nil {
		missing("machine")
	}
	if d.Controller == nil {
		missing("controller")
	}
	if d.Odometry == nil {
		missing("odometry")
	}
	if d.Robot == nil {
		missing("robot")
	}
	if d.Field == nil {
		missing("field")
	}
	if d.Clock == nil {
		missing("clock")
	}
	if d.Logger == nil {
		missing("logger")
	}
	if opts.runsStoneRoutine() && d.Vision == nil {
		missing("vision")
	}
	if opts.Manual {
		if d.Gamepad == nil {
			missing("gamepad")
		}
		if d.ManualShaper == nil {
			missing("manual shaper")
		}
	}
	return err
}

// Program owns the routine's shared state: the detected stone, the gyro heading
// offset and the match clock.
type Program struct {
	opts Options

	machine *executive.Machine
	ctrl    *autodrive.Controller
	odo     *odometry.Odometry
	robot   hardware.Robot
	vision  hardware.Vision
	gamepad hardware.Gamepad
	field   *field.Map
	manual  *limiter.AccelerationLimiter
	clock   clock.Clock
	watch   *clock.Stopwatch
	logger  golog.Logger

	match         clock.Timer
	gate          executive.Gate
	stopped       bool
	stone         int
	headingOffset float64
	routeSeq      int
}

// NewProgram checks opts and deps, and that the field connects every location
// the routine drives between.
func NewProgram(opts Options, deps Deps) (*Program, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "behavior options")
	}
	if err := deps.validate(opts); err != nil {
		return nil, errors.Wrap(err, "behavior deps")
	}
	p := &Program{
		opts:    opts,
		machine: deps.Machine,
		ctrl:    deps.Controller,
		odo:     deps.Odometry,
		robot:   deps.Robot,
		vision:  deps.Vision,
		gamepad: deps.Gamepad,
		field:   deps.Field,
		manual:  deps.ManualShaper,
		clock:   deps.Clock,
		watch:   clock.NewStopwatch(deps.Clock),
		logger:  deps.Logger,
	}
	if err := p.checkRoutes(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Program) checkRoutes() error {
	var err error
	need := []field.LocationID{p.startLocation(), p.parkLocation()}
	if p.opts.runsStoneRoutine() {
		need = append(need, field.FoundationDropOff)
		for _, id := range field.ScanLocations() {
			need = append(need, id)
		}
		for i := 0; i < field.StoneCount; i++ {
			need = append(need, field.AlignStone(i), field.GrabStone(i))
		}
	}
	for _, id := range need {
		if !p.field.Has(id) {
			err = multierr.Append(err, errors.Errorf("location %q not found", id))
		}
	}
	if err != nil {
		return errors.Wrap(err, "field")
	}

	check := func(from, to field.LocationID) {
		if _, e := p.field.Route(from, to); e != nil {
			err = multierr.Append(err, e)
		}
	}
	check(p.startLocation(), p.parkLocation())
	if p.opts.runsStoneRoutine() {
		for i := 0; i < field.StoneCount; i++ {
			check(field.AlignStone(i), field.FoundationDropOff)
		}
		check(field.FoundationDropOff, p.parkLocation())
	}
	return errors.Wrap(err, "field")
}

// Options returns the routine options.
func (p *Program) Options() Options { return p.opts }

// Init starts the match clock and installs Start in the drive slot.
func (p *Program) Init() {
	p.match = clock.NewTimer(p.clock)
	p.gate = MatchGate(p.clock, p.opts.MatchDuration, p.opts.MatchReserve)
	p.stopped = false
	p.logger.Infow("routine start",
		"alliance", p.opts.Alliance,
		"start", p.opts.StartPosition,
		"simple", p.opts.Simple,
	)
	p.machine.ChangeState(executive.Drive, &Start{step: p.newStep(0)})
}

// Update runs one sweep of the machine. Once the match gate closes the drive
// slot is forced to Stop, unless the driver has taken over.
func (p *Program) Update() {
	if !p.stopped && p.gate != nil && !p.gate() && !p.machine.InState(executive.Drive, (*Manual)(nil)) {
		p.logger.Infow("match over", "elapsed", p.match.Seconds(), "state", p.machine.CurrentStateName(executive.Drive))
		p.stopped = true
		p.machine.ChangeState(executive.Drive, &Stop{step: p.newStep(0)})
	}
	p.machine.Update()
}

// MatchSeconds returns the time since Init.
func (p *Program) MatchSeconds() float64 { return p.match.Seconds() }

// Stone returns the index of the stone the routine is collecting.
func (p *Program) Stone() int { return p.stone }

// HeadingOffset returns the offset added to gyro readings to get a field heading.
func (p *Program) HeadingOffset() float64 { return p.headingOffset }

// SyncHeadingFromGyro overwrites the odometry heading with the gyro's. A missing
// gyro leaves the odometry heading alone.
func (p *Program) SyncHeadingFromGyro() {
	gyro, err := p.robot.ReadHeading()
	if err != nil {
		return
	}
	p.odo.SetHeading(geometry.NormalizeAngle(gyro + p.headingOffset))
}

// setupInitialPosition places the odometry at location id and captures the
// offset between the gyro's zero and the field heading.
func (p *Program) setupInitialPosition(id field.LocationID) {
	w := p.field.MustWaypoint(id)
	p.odo.Initialize(w.Pose())
	gyro, err := p.robot.ReadHeading()
	if err != nil {
		gyro = 0
	}
	p.headingOffset = geometry.AngleDiff(w.Heading, gyro)
	p.logger.Debugw("initial position", "location", id, "pose", w.Pose().String(), "heading_offset", p.headingOffset)
}

func (p *Program) startLocation() field.LocationID { return p.opts.StartLocation() }

func (p *Program) parkLocation() field.LocationID {
	if p.opts.ParkInner {
		return field.ParkInner
	}
	return field.ParkOuter
}

func (p *Program) nextRouteID(name string) string {
	p.routeSeq++
	return fmt.Sprintf("%s-%d", name, p.routeSeq)
}

func (p *Program) mustRoute(from, to field.LocationID) geometry.Route {
	r, err := p.field.Route(from, to)
	if err != nil {
		panic(errors.Wrap(err, "plan route"))
	}
	return r
}

func (p *Program) newStep(iteration int) step {
	return step{Base: executive.WithIteration(iteration), p: p}
}

func (o Options) runsStoneRoutine() bool {
	return o.StartPosition == PositionLoading && !o.Simple
}

// DriveScale is the fraction of full speed a drive state may use elapsed seconds
// after it started. It ramps linearly to 1 over rampUp seconds.
func DriveScale(elapsed, rampUp float64) float64 {
	if rampUp <= 0 {
		return 1
	}
	return math.Max(0, math.Min(elapsed/rampUp, 1))
}

// MatchGate allows transitions while more than reserve seconds remain of a match
// of duration seconds starting now.
func MatchGate(c clock.Clock, duration, reserve float64) executive.Gate {
	match := clock.NewTimer(c)
	return func() bool {
		return match.Seconds() < duration-reserve
	}
}
