package autodrive

import (
	"github.com/cxd309/mecanum-engine/internal/geometry"
)

// DriveFunc drives toward a single waypoint and reports arrival.
type DriveFunc func(target geometry.Waypoint, speed float64) bool

// RouteFollower sequences a route through a DriveFunc, one waypoint at a time.
type RouteFollower struct {
	routeID string
	index   int
}

// Drive drives toward the current waypoint of route. A routeID different from
// the previous call restarts at the first waypoint. On arrival at an
// intermediate waypoint the index advances and false is returned; the route is
// arrived only when the last waypoint is, and the index never moves past it. An
// empty route is trivially arrived.
func (f *RouteFollower) Drive(routeID string, speed float64, route geometry.Route, drive DriveFunc) bool {
	if routeID != f.routeID {
		f.routeID = routeID
		f.index = 0
	}
	if len(route) == 0 {
		return true
	}
	if f.index >= len(route) {
		f.index = len(route) - 1
	}
	if !drive(route[f.index], speed) {
		return false
	}
	if f.index < len(route)-1 {
		f.index++
		return false
	}
	return true
}

// CurrentWaypoint returns the index of the waypoint being driven to.
func (f *RouteFollower) CurrentWaypoint() int { return f.index }

// RouteID returns the route being followed.
func (f *RouteFollower) RouteID() string { return f.routeID }

// Reset forgets the route so the next Drive starts from the first waypoint.
func (f *RouteFollower) Reset() {
	f.routeID = ""
	f.index = 0
}

// MultiWaypointDrive follows route with rotate-then-drive at each waypoint.
func (c *Controller) MultiWaypointDrive(routeID string, speed float64, route geometry.Route) bool {
	return c.route.Drive(routeID, speed, route, c.RotateThenDriveToPosition)
}

// CurrentWaypoint returns the index within the route passed to
// MultiWaypointDrive. Callers compare it between cycles to detect a switch.
func (c *Controller) CurrentWaypoint() int { return c.route.CurrentWaypoint() }
