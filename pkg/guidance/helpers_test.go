package guidance

import (
	"github.com/go-gl/mathgl/mgl64"

	"dronesim/pkg/config"
	"dronesim/pkg/sim"
)

type occupancyFunc func(airportID, gate int) bool

func (f occupancyFunc) IsFree(airportID, gate int) bool { return f(airportID, gate) }

var (
	alwaysFree = occupancyFunc(func(int, int) bool { return true })
	neverFree  = occupancyFunc(func(int, int) bool { return false })
)

func testAutopilot() *Autopilot {
	cfg := config.DefaultConfig()
	return NewAutopilot(cfg.Drone, cfg.Guidance)
}

func snapAt(elapsed float64, pos mgl64.Vec3, heading float64) sim.Snapshot {
	return sim.Snapshot{X: pos[0], Y: pos[1], Z: pos[2], Heading: heading, Elapsed: elapsed}
}
