package guidance

import (
	"dronesim/pkg/sim"
)

// TakeoffPilot rolls down the runway at full thrust and rotates once fast
// enough. It ends at the configured clearance above the ground.
type TakeoffPilot struct {
	ap      *Autopilot
	rest    float64
	phase   Phase
	started bool
	ended   bool
}

// NewTakeoffPilot takes off along the heading the drone faces on its first
// tick.
func NewTakeoffPilot(ap *Autopilot) *TakeoffPilot {
	return &TakeoffPilot{
		ap:    ap,
		rest:  sim.RestHeight(ap.drone),
		phase: Phase{Kind: TakeoffRoll},
	}
}

func (p *TakeoffPilot) Name() string { return "takeoff" }
func (p *TakeoffPilot) Phase() Phase { return p.phase }
func (p *TakeoffPilot) Ended() bool  { return p.ended }

func (p *TakeoffPilot) Tick(snap sim.Snapshot) sim.Controls {
	p.ap.Sense(snap)
	if !p.started {
		p.phase.Heading = snap.Heading
		p.started = true
	}
	if p.phase.Kind == TakeoffRoll && p.ap.GroundSpeed() > p.ap.guide.TakeoffSpeed {
		p.phase.Kind = Rotate
	}
	if p.phase.Kind == Rotate && snap.Y > p.rest+p.ap.guide.TakeoffClearance {
		p.ended = true
	}
	c, _ := p.ap.Step(&p.phase, snap)
	return c
}
