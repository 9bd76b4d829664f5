package behavior

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/cxd309/mecanum-engine/internal/field"
)

// ErrInvalidStartPosition is the panic value, wrapped, when the routine starts
// from a position it does not know.
var ErrInvalidStartPosition = errors.New("start position must be loading or building")

// StartPosition selects which side of the field the routine starts from.
type StartPosition string

const (
	PositionLoading  StartPosition = "loading"
	PositionBuilding StartPosition = "building"
)

// Validate returns ErrInvalidStartPosition for anything but the known positions.
func (s StartPosition) Validate() error {
	switch s {
	case PositionLoading, PositionBuilding:
		return nil
	default:
		return errors.Wrapf(ErrInvalidStartPosition, "got %q", string(s))
	}
}

// Options configures the routine.
type Options struct {
	Alliance      field.Alliance `json:"alliance"`
	StartPosition StartPosition  `json:"start_position"`
	// Simple skips the stone routine and parks.
	Simple    bool `json:"simple"`
	ParkInner bool `json:"park_inner"`
	// Manual hands the drive over to the gamepad after parking.
	Manual bool `json:"manual"`

	DriveSpeed    float64 `json:"drive_speed"`
	RampUpSeconds float64 `json:"ramp_up_seconds"`
	StartDelay    float64 `json:"start_delay"`
	ScanDwell     float64 `json:"scan_dwell"`
	BackupDelay   float64 `json:"backup_delay"`

	LiftSpeed         float64 `json:"lift_speed"`
	LiftRaised        int     `json:"lift_raised"`
	LiftBaseTicks     int     `json:"lift_base_ticks"`
	LiftTicksPerLevel int     `json:"lift_ticks_per_level"`
	MaxLiftLevel      int     `json:"max_lift_level"`
	PlaceLevel        int     `json:"place_level"`

	MatchDuration float64 `json:"match_duration"`
	MatchReserve  float64 `json:"match_reserve"`

	ManualScale float64 `json:"manual_scale"`
}

// DefaultOptions returns the loading-side routine for the red alliance.
func DefaultOptions() Options {
	return Options{
		Alliance:          field.AllianceRed,
		StartPosition:     PositionLoading,
		ParkInner:         true,
		DriveSpeed:        0.8,
		RampUpSeconds:     2,
		StartDelay:        1,
		ScanDwell:         2,
		BackupDelay:       1,
		LiftSpeed:         1,
		LiftRaised:        1500,
		LiftBaseTicks:     300,
		LiftTicksPerLevel: 400,
		MaxLiftLevel:      4,
		PlaceLevel:        1,
		MatchDuration:     30,
		MatchReserve:      0,
		ManualScale:       0.2,
	}
}

// Validate reports every invalid field.
func (o Options) Validate() error {
	var err error
	if o.Alliance != field.AllianceRed && o.Alliance != field.AllianceBlue {
		err = multierr.Append(err, errors.Errorf("unknown alliance %q", o.Alliance))
	}
	err = multierr.Append(err, o.StartPosition.Validate())
	if o.DriveSpeed <= 0 || o.DriveSpeed > 1 {
		err = multierr.Append(err, errors.Errorf("drive_speed must be within (0, 1], got %v", o.DriveSpeed))
	}
	if o.LiftSpeed <= 0 || o.LiftSpeed > 1 {
		err = multierr.Append(err, errors.Errorf("lift_speed must be within (0, 1], got %v", o.LiftSpeed))
	}
	if o.RampUpSeconds < 0 || o.StartDelay < 0 || o.ScanDwell < 0 || o.BackupDelay < 0 {
		err = multierr.Append(err, errors.New("routine delays cannot be negative"))
	}
	if o.MaxLiftLevel < 1 {
		err = multierr.Append(err, errors.Errorf("max_lift_level must be at least 1, got %d", o.MaxLiftLevel))
	}
	if o.PlaceLevel < 1 || o.PlaceLevel > o.MaxLiftLevel {
		err = multierr.Append(err, errors.Errorf("place_level must be within [1, %d], got %d", o.MaxLiftLevel, o.PlaceLevel))
	}
	if o.MatchDuration <= 0 {
		err = multierr.Append(err, errors.Errorf("match_duration must be positive, got %v", o.MatchDuration))
	}
	if o.MatchReserve < 0 {
		err = multierr.Append(err, errors.Errorf("match_reserve cannot be negative, got %v", o.MatchReserve))
	}
	return err
}

// StartLocation returns the field location the robot is placed at.
func (o Options) StartLocation() field.LocationID {
	if o.StartPosition == PositionBuilding {
		return field.BuildingStart
	}
	return field.LoadingStart
}

// LiftTicksForLevel returns the lift encoder target for placing on level.
func (o Options) LiftTicksForLevel(level int) int {
	return o.LiftBaseTicks + level*o.LiftTicksPerLevel
}
