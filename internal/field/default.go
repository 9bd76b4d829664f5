package field

import "fmt"

// Locations of the default field, in inches with the origin at field centre.
const (
	LoadingStart         LocationID = "loading_start"
	BuildingStart        LocationID = "building_start"
	ScanNear             LocationID = "scan_near"
	ScanFar              LocationID = "scan_far"
	Bridge               LocationID = "bridge"
	BuildZone            LocationID = "build_zone"
	FoundationAlignment  LocationID = "foundation_alignment"
	FoundationDropOff    LocationID = "foundation_drop_off"
	ParkInner            LocationID = "park_inner"
	ParkOuter            LocationID = "park_outer"
	SimpleAlignmentInner LocationID = "simple_alignment_inner"
)

// StoneCount is the number of positions the target stone can occupy.
const StoneCount = 3

const (
	alignStonePrefix = "align_stone"
	grabStonePrefix  = "grab_stone"
	stoneSpacing     = 8.0
	stoneRowY        = -24.0
	firstStoneX      = -60.0
)

// AlignStone is the location in front of stone index i.
func AlignStone(i int) LocationID { return fmt.Sprintf("%s_%d", alignStonePrefix, i) }

// GrabStone is the location touching stone index i.
func GrabStone(i int) LocationID { return fmt.Sprintf("%s_%d", grabStonePrefix, i) }

// ScanLocations maps each stone index a scan can confirm to the location it is
// confirmed from. Stone 0 is inferred when neither scan sees the target.
func ScanLocations() map[int]LocationID {
	return map[int]LocationID{2: ScanNear, 1: ScanFar}
}

// DefaultField returns the loading and building routine field for the red
// alliance.
func DefaultField() FieldData {
	stoneX := func(i int) float64 { return firstStoneX + float64(i)*stoneSpacing }

	data := FieldData{
		Locations: []Location{
			{ID: LoadingStart, X: -36, Y: -63, Heading: 90},
			{ID: BuildingStart, X: 36, Y: -63, Heading: 90},
			{ID: ScanNear, X: stoneX(2), Y: -44, Heading: 90},
			{ID: ScanFar, X: stoneX(1), Y: -44, Heading: 90},
			{ID: Bridge, X: 0, Y: -40, Heading: 0},
			{ID: BuildZone, X: 24, Y: -40, Heading: 0},
			{ID: FoundationAlignment, X: 48, Y: -40, Heading: 90},
			{ID: FoundationDropOff, X: 48, Y: -32, Heading: 90},
			{ID: ParkInner, X: 0, Y: -36, Heading: 90},
			{ID: ParkOuter, X: 0, Y: -63, Heading: 90},
			{ID: SimpleAlignmentInner, X: -36, Y: -40, Heading: 90},
		},
		Lanes: []Lane{
			{From: LoadingStart, To: ScanNear},
			{From: ScanNear, To: ScanFar},
			{From: Bridge, To: BuildZone},
			{From: BuildZone, To: FoundationAlignment},
			{From: FoundationAlignment, To: FoundationDropOff},
			{From: FoundationAlignment, To: ParkInner},
			{From: LoadingStart, To: SimpleAlignmentInner},
			{From: SimpleAlignmentInner, To: ParkInner},
			{From: LoadingStart, To: ParkOuter},
			{From: BuildingStart, To: ParkOuter},
			{From: ParkOuter, To: ParkInner},
			{From: FoundationAlignment, To: ParkOuter},
		},
	}
	for i := 0; i < StoneCount; i++ {
		data.Locations = append(data.Locations,
			Location{ID: AlignStone(i), X: stoneX(i), Y: -40, Heading: 90},
			Location{ID: GrabStone(i), X: stoneX(i), Y: stoneRowY - 8, Heading: 90},
		)
		data.Lanes = append(data.Lanes,
			Lane{From: ScanFar, To: AlignStone(i)},
			Lane{From: AlignStone(i), To: GrabStone(i)},
			Lane{From: AlignStone(i), To: Bridge},
		)
	}
	return data
}
