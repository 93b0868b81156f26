package guidance

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"dronesim/pkg/airport"
	"dronesim/pkg/approach"
	"dronesim/pkg/geo"
	"dronesim/pkg/logging"
	"dronesim/pkg/sim"
)

var (
	hardTurnError     = geo.Radians(8)
	softTurnError     = geo.Radians(5)
	verySoftTurnError = geo.Radians(2)
	interceptError    = geo.Radians(3.3)
	levelRollLimit    = geo.Radians(5)
)

const (
	altitudeBand     = 5.0
	climbOvershoot   = 2.0
	anchorVicinity   = 100.0
	stabilizeSeconds = 1.5
	requeryTicks     = 10.0
)

// FlyPilot cruises at a fixed height to the anchor of a destination
// runway, turns onto the final approach and holds there until the
// destination gate is free.
type FlyPilot struct {
	ap        *Autopilot
	dest      *airport.Airport
	gate      int
	occupancy airport.Occupancy
	height    float64
	arc       *approach.Arc
	log       *slog.Logger

	phase       Phase
	law         Kind
	vicinity    bool
	stableTime  float64
	counter     float64
	prevHeading float64
	ended       bool
}

// NewFlyPilot flies to dest at the given cruise height and lines up for
// a landing that ends at gate.
func NewFlyPilot(ap *Autopilot, dest *airport.Airport, gate int, height float64, occ airport.Occupancy, logger *slog.Logger) *FlyPilot {
	radius := float64(ap.guide.TurnRadius)
	anchor := approach.AnchorPoint(dest.Position, dest.Heading, approach.StandOff(height), height)
	return &FlyPilot{
		ap:          ap,
		dest:        dest,
		gate:        gate,
		occupancy:   occ,
		height:      height,
		arc:         approach.NewArc(anchor, dest.Heading, radius),
		log:         logging.OrDefault(logger),
		phase:       Phase{Kind: StableCruise},
		law:         StableCruise,
		vicinity:    true,
		counter:     -1,
		prevHeading: -1,
	}
}

func (f *FlyPilot) Name() string { return "fly" }

// Phase returns the phase reported for the last tick.
func (f *FlyPilot) Phase() Phase { return f.phase }

// Ended reports that the drone has stabilised on the final approach.
func (f *FlyPilot) Ended() bool { return f.ended }

// Arc exposes the approach geometry.
func (f *FlyPilot) Arc() *approach.Arc { return f.arc }

// Tick picks this tick's phase and flies it.
func (f *FlyPilot) Tick(snap sim.Snapshot) sim.Controls {
	f.ap.Sense(snap)
	pos := snap.Position()

	// a drone that starts near the anchor flies straight out first, unless
	// it is already on the circle at the tangent heading
	if !f.arc.Complete() && f.vicinity && pos.Sub(f.arc.Anchor).Len() < f.arc.Radius+anchorVicinity {
		f.arc.TangentHeading(pos, snap.Heading)
		if !f.arc.Complete() {
			f.law = StableCruise
			f.phase = Phase{Kind: ApproachArc, Law: StableCruise}
			c, _ := f.ap.Step(&f.phase, snap)
			return c
		}
	}
	f.vicinity = false

	if f.stableTime > 0 {
		f.law = StableCruise
		f.phase = Phase{Kind: Stabilize}
		f.stableTime -= f.ap.Dt()
		c, _ := f.ap.Step(&f.phase, snap)
		if f.stableTime <= 0 {
			f.ended = true
			f.log.Info("Final approach stabilised", "airport", f.dest.ID, "gate", f.gate)
		}
		return c
	}

	// arc completion and the hold check run at any height
	target := f.targetHeading(snap)
	switch {
	case f.height-snap.Y > altitudeBand:
		f.law = ClimbStrong
		if math.Abs(snap.Roll) > levelRollLimit {
			f.law = StableCruise
		}
	case snap.Y-f.height > altitudeBand:
		f.law = DescendStrong
		if math.Abs(snap.Roll) > levelRollLimit {
			f.law = StableCruise
		}
	case !(f.law == ClimbStrong && f.height-snap.Y > climbOvershoot):
		f.law = classifyHeading(snap.Heading, target)
	}

	wasComplete := f.phase.Kind == RunwayIntercept
	switch {
	case f.arc.Complete():
		f.law = TurnRight
		if f.arc.Side() == geo.Left {
			f.law = TurnLeft
		}
		f.phase = Phase{Kind: RunwayIntercept, Law: f.law}
		if !wasComplete {
			f.log.Debug("Approach arc complete", "airport", f.dest.ID, "side", f.arc.Side())
		}
	case f.law == ClimbStrong || f.law == DescendStrong:
		f.phase = Phase{Kind: f.law}
	default:
		f.phase = Phase{Kind: ApproachArc, Law: f.law}
	}

	c, _ := f.ap.Step(&f.phase, snap)
	if f.stableTime > 0 {
		f.law = StableCruise
		f.phase = Phase{Kind: Stabilize}
	}
	return c
}

// targetHeading returns the heading to steer for. Past the arc it also
// starts the stabilisation hold once the gate is free.
func (f *FlyPilot) targetHeading(snap sim.Snapshot) float64 {
	f.counter -= math.Abs(f.prevHeading) - snap.Heading
	f.prevHeading = snap.Heading

	if !f.arc.Complete() {
		return f.arc.TangentHeading(snap.Position(), snap.Heading)
	}

	h := f.arc.FinalHeading()
	if math.Abs(geo.NormalizeHeading(snap.Heading-h)) < interceptError {
		if f.counter <= 0 && f.occupancy.IsFree(f.dest.ID, f.gate) {
			f.stableTime = stabilizeSeconds
		}
		f.counter = requeryTicks
	}
	return h
}

// classifyHeading picks the turn law that brings heading onto target. A
// NaN target keeps the drone straight.
func classifyHeading(heading, target float64) Kind {
	if math.IsNaN(target) {
		return StableCruise
	}
	diff := math.Abs(geo.NormalizeHeading(target - heading))
	left := geo.HeadingSide(heading, target) == geo.Left
	switch {
	case diff > hardTurnError:
		return turnLaw(3, left)
	case diff > softTurnError:
		return turnLaw(2, left)
	case diff > verySoftTurnError:
		return turnLaw(1, left)
	}
	return StableCruise
}

// Anchor is the point the approach arc ends at.
func (f *FlyPilot) Anchor() mgl64.Vec3 { return f.arc.Anchor }
