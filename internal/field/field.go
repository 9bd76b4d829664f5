// Package field holds the named locations of the playing field and plans routes
// between them over declared lanes.
//
// Locations are declared for the red alliance. A Map built for blue mirrors every
// location across the field's x axis (y → −y, heading → −heading).
package field

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/cxd309/mecanum-engine/internal/geometry"
)

// LocationID names a location on the field.
type LocationID = string

// Alliance selects which side of the field the robot plays.
type Alliance string

const (
	AllianceRed  Alliance = "red"
	AllianceBlue Alliance = "blue"
)

// Location is a named pose on the red side of the field. Heading is in degrees.
type Location struct {
	ID      LocationID `json:"id"`
	X       float64    `json:"x"`
	Y       float64    `json:"y"`
	Heading float64    `json:"heading"`
}

// Lane is a drivable straight line between two locations. Lanes are traversable
// both ways unless OneWay is set.
type Lane struct {
	From   LocationID `json:"from"`
	To     LocationID `json:"to"`
	OneWay bool       `json:"one_way,omitempty"`
}

// FieldData is the serialisable form of a field map.
type FieldData struct {
	Locations []Location `json:"locations"`
	Lanes     []Lane     `json:"lanes"`
}

// Map resolves locations for one alliance and plans routes between them.
type Map struct {
	alliance  Alliance
	locations map[LocationID]Location
	nodes     map[LocationID]int64
	ids       map[int64]LocationID
	g         *simple.WeightedDirectedGraph
	// Shortest-path trees by start location; cleared whenever a lane is added.
	trees map[LocationID]path.Shortest
}

// NewMap builds a Map for alliance from data, returning an error if any
// location or lane is invalid.
func NewMap(data FieldData, alliance Alliance) (*Map, error) {
	if alliance != AllianceRed && alliance != AllianceBlue {
		return nil, errors.Errorf("unknown alliance %q", alliance)
	}
	m := &Map{
		alliance:  alliance,
		locations: make(map[LocationID]Location),
		nodes:     make(map[LocationID]int64),
		ids:       make(map[int64]LocationID),
		g:         simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		trees:     make(map[LocationID]path.Shortest),
	}
	for _, l := range data.Locations {
		if err := m.AddLocation(l); err != nil {
			return nil, err
		}
	}
	for _, l := range data.Lanes {
		if err := m.AddLane(l); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Alliance returns the alliance the map resolves for.
func (m *Map) Alliance() Alliance { return m.alliance }

// AddLocation adds a location. Returns an error if the ID already exists.
func (m *Map) AddLocation(l Location) error {
	if l.ID == "" {
		return errors.New("location with empty id")
	}
	if _, exists := m.locations[l.ID]; exists {
		return errors.Errorf("location %q already exists", l.ID)
	}
	n := m.g.NewNode()
	m.g.AddNode(n)
	m.locations[l.ID] = l
	m.nodes[l.ID] = n.ID()
	m.ids[n.ID()] = l.ID
	return nil
}

// AddLane adds a lane weighted by its straight-line length. Returns an error if
// either end is missing or both ends are the same location.
func (m *Map) AddLane(l Lane) error {
	from, ok := m.locations[l.From]
	if !ok {
		return errors.Errorf("lane %s->%s: location %q not found", l.From, l.To, l.From)
	}
	to, ok := m.locations[l.To]
	if !ok {
		return errors.Errorf("lane %s->%s: location %q not found", l.From, l.To, l.To)
	}
	if l.From == l.To {
		return errors.Errorf("lane %s->%s: ends are the same location", l.From, l.To)
	}
	length := math.Hypot(to.X-from.X, to.Y-from.Y)
	u, v := m.g.Node(m.nodes[l.From]), m.g.Node(m.nodes[l.To])
	m.g.SetWeightedEdge(m.g.NewWeightedEdge(u, v, length))
	if !l.OneWay {
		m.g.SetWeightedEdge(m.g.NewWeightedEdge(v, u, length))
	}
	m.trees = make(map[LocationID]path.Shortest)
	return nil
}

// Has reports whether id is a known location.
func (m *Map) Has(id LocationID) bool {
	_, ok := m.locations[id]
	return ok
}

// Waypoint returns location id as a waypoint for the map's alliance.
func (m *Map) Waypoint(id LocationID) (geometry.Waypoint, error) {
	l, ok := m.locations[id]
	if !ok {
		return geometry.Waypoint{}, errors.Errorf("location %q not found", id)
	}
	w := geometry.NewWaypoint(l.ID, l.X, l.Y, l.Heading)
	if m.alliance == AllianceBlue {
		w = Mirror(w)
	}
	return w, nil
}

// MustWaypoint is Waypoint for locations the caller knows exist. It panics
// otherwise.
func (m *Map) MustWaypoint(id LocationID) geometry.Waypoint {
	w, err := m.Waypoint(id)
	if err != nil {
		panic(err)
	}
	return w
}

// Route returns the waypoints along the shortest lane path from one location to
// another, excluding the start. A route from a location to itself is empty.
func (m *Map) Route(from, to LocationID) (geometry.Route, error) {
	if !m.Has(from) {
		return nil, errors.Errorf("route start %q not found", from)
	}
	if !m.Has(to) {
		return nil, errors.Errorf("route end %q not found", to)
	}
	tree, ok := m.trees[from]
	if !ok {
		tree = path.DijkstraFrom(m.g.Node(m.nodes[from]), m.g)
		m.trees[from] = tree
	}
	nodes, length := tree.To(m.nodes[to])
	if len(nodes) == 0 || math.IsInf(length, 1) {
		return nil, errors.Errorf("no lanes connect %q to %q", from, to)
	}
	return m.waypoints(nodes[1:])
}

func (m *Map) waypoints(nodes []graph.Node) (geometry.Route, error) {
	route := make(geometry.Route, 0, len(nodes))
	for _, n := range nodes {
		w, err := m.Waypoint(m.ids[n.ID()])
		if err != nil {
			return nil, err
		}
		route = append(route, w)
	}
	return route, nil
}

// Mirror reflects a waypoint across the field's x axis.
func Mirror(w geometry.Waypoint) geometry.Waypoint {
	w.Y = -w.Y
	w.Heading = geometry.NormalizeAngle(-w.Heading)
	return w
}
