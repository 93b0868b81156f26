package guidance

import (
	"github.com/go-gl/mathgl/mgl64"

	"dronesim/pkg/sim"
)

// TaxiPilot drives on the ground to a point and turns onto a final heading.
type TaxiPilot struct {
	ap    *Autopilot
	phase Phase
	ended bool
}

// NewTaxiPilot taxis to target and ends facing heading.
func NewTaxiPilot(ap *Autopilot, target mgl64.Vec3, heading float64) *TaxiPilot {
	return &TaxiPilot{
		ap:    ap,
		phase: Phase{Kind: Taxi, Target: target, Heading: heading},
	}
}

func (p *TaxiPilot) Name() string { return "taxi" }
func (p *TaxiPilot) Phase() Phase { return p.phase }
func (p *TaxiPilot) Ended() bool  { return p.ended }

func (p *TaxiPilot) Tick(snap sim.Snapshot) sim.Controls {
	if p.ended {
		c, _ := p.ap.Step(&p.phase, snap)
		return c
	}
	c, done := p.ap.Step(&p.phase, snap)
	if done {
		p.ended = true
		p.phase = Phase{Kind: Idle, Target: p.phase.Target, Heading: p.phase.Heading}
	}
	return c
}
