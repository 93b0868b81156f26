package guidance

import (
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"dronesim/pkg/airport"
	"dronesim/pkg/geo"
	"dronesim/pkg/logging"
	"dronesim/pkg/sim"
)

// groundMargin is how far above rest height the drone still counts as
// rolling on its wheels.
const groundMargin = 0.3

// LandPilot follows a straight glide path onto runway 0 of the destination,
// flares, and brakes down to taxi speed.
type LandPilot struct {
	ap        *Autopilot
	dest      *airport.Airport
	touchdown mgl64.Vec3
	rest      float64
	log       *slog.Logger
	phase     Phase
	ended     bool
}

// NewLandPilot lands on dest, arriving from the runway 0 side.
func NewLandPilot(ap *Autopilot, dest *airport.Airport, logger *slog.Logger) *LandPilot {
	return &LandPilot{
		ap:        ap,
		dest:      dest,
		touchdown: dest.LaneCenter(0),
		rest:      sim.RestHeight(ap.drone),
		log:       logging.OrDefault(logger),
		phase:     Phase{Kind: Glide},
	}
}

func (p *LandPilot) Name() string { return "land" }
func (p *LandPilot) Phase() Phase { return p.phase }
func (p *LandPilot) Ended() bool  { return p.ended }

// LandingAt implements Lander.
func (p *LandPilot) LandingAt() (int, bool) { return p.dest.ID, !p.ended }

// GlideHeight is the glide-path height above a ground point.
func (p *LandPilot) GlideHeight(pos mgl64.Vec3) float64 {
	along := pos.Sub(p.touchdown).Dot(p.dest.Direction())
	if along < 0 {
		along = 0
	}
	return p.rest + along*math.Tan(float64(p.ap.guide.GlideAngle))
}

func (p *LandPilot) Tick(snap sim.Snapshot) sim.Controls {
	p.ap.Sense(snap)
	pos := snap.Position()
	heading := geo.HeadingTo(geo.Ground(pos), geo.Ground(p.dest.LaneEnd(1)))

	prev := p.phase.Kind
	switch {
	case prev == SlowDown || snap.Y < p.rest+groundMargin:
		p.phase = Phase{Kind: SlowDown}
		if p.ap.GroundSpeed() < p.ap.guide.TaxiNearSpeed {
			p.ended = true
		}
	case prev == Flare || snap.Y < p.rest+p.ap.guide.FlareHeight:
		p.phase = Phase{Kind: Flare, Heading: heading}
	default:
		p.phase = Phase{Kind: Glide, Heading: heading, Altitude: p.GlideHeight(pos)}
	}
	if p.phase.Kind != prev {
		p.log.Debug("Landing phase", "airport", p.dest.ID, "phase", p.phase.Kind)
	}

	c, _ := p.ap.Step(&p.phase, snap)
	return c
}
