package guidance

import (
	"dronesim/pkg/sim"
)

// Pilot flies one leg of a mission on top of a shared Autopilot.
type Pilot interface {
	Name() string
	Tick(snap sim.Snapshot) sim.Controls
	Phase() Phase
	Ended() bool
}

// Lander is implemented by pilots that are landing at an airport. The
// occupancy registry treats such a drone as holding the airport.
type Lander interface {
	LandingAt() (airportID int, ok bool)
}
