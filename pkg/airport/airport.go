// Package airport models the paved rectangles drones take off from and land
// on: two runway lanes either side of a central gate area holding two gates.
package airport

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"

	"dronesim/pkg/config"
	"dronesim/pkg/geo"
)

// Location classifies a point on an airport.
type Location int

const (
	None Location = iota
	Lane0
	Lane1
	Gate0
	Gate1
)

var locationNames = [...]string{"", "Lane 0", "Lane 1", "Gate 0", "Gate 1"}

func (l Location) String() string {
	if l < None || l > Gate1 {
		return "unknown"
	}
	return locationNames[l]
}

// GateLocation maps a gate index to its Location.
func GateLocation(gate int) Location {
	if gate == 0 {
		return Gate0
	}
	return Gate1
}

// Airport is immutable after New.
type Airport struct {
	ID       int
	Position mgl64.Vec3
	Heading  float64
	Width    float64
	Length   float64

	direction mgl64.Vec3
	perp      mgl64.Vec3
	gates     [2]mgl64.Vec3
	footprint orb.Polygon
}

// New derives gates, lanes and the footprint from the centre, heading and
// dimensions. Runway 0 lies along the heading.
func New(id int, pos mgl64.Vec3, heading, width, length float64) *Airport {
	a := &Airport{
		ID:       id,
		Position: mgl64.Vec3{pos[0], 0, pos[2]},
		Heading:  heading,
		Width:    width,
		Length:   length,
	}
	a.direction = geo.Forward(heading)
	a.perp = mgl64.Vec3{-math.Cos(heading), 0, math.Sin(heading)}
	a.gates = [2]mgl64.Vec3{
		a.Position.Add(a.perp.Mul(width / 2)),
		a.Position.Sub(a.perp.Mul(width / 2)),
	}
	a.footprint = geo.Rect(
		geo.Ground(a.Position),
		geo.Ground(a.direction),
		geo.Ground(a.perp),
		width/2+length,
		width,
	)
	return a
}

// FromConfig builds every airport of the world section.
func FromConfig(w *config.WorldConfig) []*Airport {
	out := make([]*Airport, 0, len(w.Airports))
	for i, ac := range w.Airports {
		out = append(out, New(i, mgl64.Vec3{ac.X, 0, ac.Z}, ac.HeadingRadians(), w.AirportWidth, w.AirportLength))
	}
	return out
}

// Direction is the unit vector from the centre towards runway 0.
func (a *Airport) Direction() mgl64.Vec3 { return a.direction }

// Perpendicular is the unit vector from the centre towards gate 0.
func (a *Airport) Perpendicular() mgl64.Vec3 { return a.perp }

// Gate returns the centre of gate 0 or 1.
func (a *Airport) Gate(i int) mgl64.Vec3 { return a.gates[i&1] }

// Footprint is the full airport rectangle as a ground polygon.
func (a *Airport) Footprint() orb.Polygon { return a.footprint }

// RunwayHeading is the heading that faces runway lane (0 or 1) from the gates.
func (a *Airport) RunwayHeading(lane int) float64 {
	if lane == 0 {
		return geo.NormalizeHeading(a.Heading)
	}
	return geo.NormalizeHeading(a.Heading + math.Pi)
}

// LaneCenter returns the midpoint of runway lane 0 or 1.
func (a *Airport) LaneCenter(lane int) mgl64.Vec3 {
	off := a.direction.Mul(a.Width/2 + a.Length/2)
	if lane == 0 {
		return a.Position.Add(off)
	}
	return a.Position.Sub(off)
}

// LaneEnd returns the far end of runway lane 0 or 1.
func (a *Airport) LaneEnd(lane int) mgl64.Vec3 {
	off := a.direction.Mul(a.Width/2 + a.Length)
	if lane == 0 {
		return a.Position.Add(off)
	}
	return a.Position.Sub(off)
}

// local splits pos into its runway-axis and gate-axis components.
func (a *Airport) local(pos mgl64.Vec3) (along, across float64) {
	diff := pos.Sub(a.Position)
	diff[1] = 0
	return diff.Dot(a.direction), diff.Dot(a.perp)
}

// Locate classifies pos. It does not check that pos is on the airport at all;
// pair it with OnFullAirport.
func (a *Airport) Locate(pos mgl64.Vec3) Location {
	along, across := a.local(pos)
	switch {
	case along > a.Width/2:
		return Lane0
	case along < -a.Width/2:
		return Lane1
	case across > 0:
		return Gate0
	default:
		return Gate1
	}
}

// OnFullAirport reports whether pos lies on the airport rectangle.
func (a *Airport) OnFullAirport(pos mgl64.Vec3) bool {
	return geo.Contains(a.footprint, geo.Ground(pos))
}

// OnPaved is the certification test applied to loaded wheels. It is looser
// than OnFullAirport along the runway axis.
func (a *Airport) OnPaved(pos mgl64.Vec3) bool {
	along, across := a.local(pos)
	return math.Abs(along) <= a.Width+a.Length && math.Abs(across) <= a.Width
}

// SpawnHeading returns the heading of a drone parked on a gate with its nose
// towards runway 0 or 1.
func (a *Airport) SpawnHeading(pointingToRunway int) float64 {
	return a.RunwayHeading(pointingToRunway)
}

// Set is the collection of airports in the world. It answers the paved
// surface query the engine needs.
type Set []*Airport

// OnPaved reports whether pos is on the paved surface of any airport.
func (s Set) OnPaved(pos mgl64.Vec3) bool {
	for _, a := range s {
		if a.OnPaved(pos) {
			return true
		}
	}
	return false
}

// At returns the first airport whose full rectangle contains pos.
func (s Set) At(pos mgl64.Vec3) (*Airport, bool) {
	for _, a := range s {
		if a.OnFullAirport(pos) {
			return a, true
		}
	}
	return nil, false
}

// ByID returns the airport with the given id.
func (s Set) ByID(id int) (*Airport, bool) {
	for _, a := range s {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}
