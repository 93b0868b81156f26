package guidance

import (
	"fmt"
	"log/slog"

	"dronesim/pkg/airport"
	"dronesim/pkg/logging"
	"dronesim/pkg/sim"
)

// Sequence runs pilots one after another on the same Autopilot. Once every
// leg has ended the drone stays parked with full brakes.
type Sequence struct {
	ap    *Autopilot
	legs  []Pilot
	idx   int
	log   *slog.Logger
	phase Phase
}

// NewSequence runs legs in order.
func NewSequence(ap *Autopilot, logger *slog.Logger, legs ...Pilot) *Sequence {
	s := &Sequence{ap: ap, legs: legs, log: logging.OrDefault(logger)}
	if len(legs) == 0 {
		s.phase = Phase{Kind: Parked}
	}
	return s
}

// Current returns the active pilot, or nil once the sequence is done.
func (s *Sequence) Current() Pilot {
	if s.idx >= len(s.legs) {
		return nil
	}
	return s.legs[s.idx]
}

// Done reports that every leg has ended.
func (s *Sequence) Done() bool { return s.idx >= len(s.legs) }

// Phase is the phase of the active pilot.
func (s *Sequence) Phase() Phase { return s.phase }

// Name describes the active leg, e.g. "fly: ApproachArc/TurnLeft".
func (s *Sequence) Name() string {
	if p := s.Current(); p != nil {
		return fmt.Sprintf("%s: %s", p.Name(), s.phase)
	}
	return s.phase.String()
}

// Landing returns the airport the drone is landing at, if any.
func (s *Sequence) Landing() (int, bool) {
	if l, ok := s.Current().(Lander); ok {
		return l.LandingAt()
	}
	return -1, false
}

// Tick flies the active leg and moves on when it ends. The next leg takes
// over on the following tick.
func (s *Sequence) Tick(snap sim.Snapshot) sim.Controls {
	p := s.Current()
	if p == nil {
		s.phase = Phase{Kind: Parked}
		c, _ := s.ap.Step(&s.phase, snap)
		return c
	}
	c := p.Tick(snap)
	s.phase = p.Phase()
	if p.Ended() {
		s.idx++
		s.ap.Reset()
		next := "parked"
		if n := s.Current(); n != nil {
			next = n.Name()
		}
		s.log.Debug("Leg complete", "leg", p.Name(), "next", next, "elapsed", snap.Elapsed)
	}
	return c
}

// Mission describes one delivery between two airport gates.
type Mission struct {
	From     int     `json:"from"`
	FromGate int     `json:"from_gate"`
	To       int     `json:"to"`
	ToGate   int     `json:"to_gate"`
	Height   float64 `json:"height"`
}

// Plan builds the legs of m: taxi to the runway, take off, fly the approach,
// land, and taxi to the destination gate.
func Plan(ap *Autopilot, airports airport.Set, occ airport.Occupancy, m Mission, logger *slog.Logger) (*Sequence, error) {
	from, ok := airports.ByID(m.From)
	if !ok {
		return nil, fmt.Errorf("mission: unknown origin airport %d", m.From)
	}
	to, ok := airports.ByID(m.To)
	if !ok {
		return nil, fmt.Errorf("mission: unknown destination airport %d", m.To)
	}
	if m.Height <= 0 {
		return nil, fmt.Errorf("mission: cruise height must be positive, got %.1f", m.Height)
	}

	lineup := from.Position.Add(from.Direction().Mul(from.Width / 2))
	return NewSequence(ap, logger,
		NewTaxiPilot(ap, lineup, from.RunwayHeading(0)),
		NewTakeoffPilot(ap),
		NewFlyPilot(ap, to, m.ToGate, m.Height, occ, logger),
		NewLandPilot(ap, to, logger),
		NewTaxiPilot(ap, to.Gate(m.ToGate), to.RunwayHeading(0)),
	), nil
}
