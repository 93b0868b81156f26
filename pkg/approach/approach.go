// Package approach computes the turn that lines a drone up with a runway:
// an arc of fixed radius ending at an anchor point on the extended
// centreline, flown on the reciprocal of the runway heading.
package approach

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"dronesim/pkg/geo"
)

// Turn is the winding of three ground points.
type Turn int

const (
	Collinear Turn = iota
	Clockwise
	CounterClockwise
)

func (t Turn) String() string {
	switch t {
	case Clockwise:
		return "clockwise"
	case CounterClockwise:
		return "counter-clockwise"
	}
	return "collinear"
}

// Orientation classifies the ground-plane turn p → q → r.
func Orientation(p, q, r mgl64.Vec3) Turn {
	val := (p[2]-q[2])*(r[0]-q[0]) - (q[0]-p[0])*(q[2]-r[2])
	switch {
	case val == 0:
		return Collinear
	case val > 0:
		return Clockwise
	}
	return CounterClockwise
}

// StandOff is the anchor distance from the airport for a cruise height.
func StandOff(flyHeight float64) float64 {
	return 1300 + (flyHeight-50)*10
}

// AnchorPoint is the point dist out along runway 0 of an airport at
// airportPos with the given heading, raised to height.
func AnchorPoint(airportPos mgl64.Vec3, heading, dist, height float64) mgl64.Vec3 {
	return mgl64.Vec3{
		airportPos[0] + math.Sin(math.Pi+heading)*dist,
		height,
		airportPos[2] + math.Cos(math.Pi+heading)*dist,
	}
}

// PlusMinZ steps one unit from p along heading h.
func PlusMinZ(p mgl64.Vec3, h float64) mgl64.Vec3 {
	return p.Add(mgl64.Vec3{math.Sin(-h), 0, -math.Cos(-h)})
}

// PlusX steps a units from p perpendicular to heading h.
func PlusX(p mgl64.Vec3, h, a float64) mgl64.Vec3 {
	return p.Add(mgl64.Vec3{math.Cos(-h) * a, 0, math.Sin(-h) * a})
}

const (
	radiusTolerance  = 5.0
	headingTolerance = 0.1
)

// Arc is the approach turn towards one anchor. It remembers the last valid
// tangent heading and whether the drone has rolled out onto the anchor
// circle.
type Arc struct {
	Anchor  mgl64.Vec3
	Heading float64 // runway heading
	Radius  float64

	memo     float64
	side     geo.Side
	complete bool
}

// NewArc creates an arc ending at anchor. Until the first tangent is
// computed the remembered heading is the final approach heading.
func NewArc(anchor mgl64.Vec3, runwayHeading, radius float64) *Arc {
	a := &Arc{Anchor: anchor, Heading: runwayHeading, Radius: radius}
	a.memo = a.FinalHeading()
	return a
}

// Complete reports whether the drone has reached the anchor circle on the
// tangent heading.
func (a *Arc) Complete() bool { return a.complete }

// Side is the direction of the final turn, decided on the last call to
// TangentHeading.
func (a *Arc) Side() geo.Side { return a.side }

// LastHeading returns the last valid tangent heading.
func (a *Arc) LastHeading() float64 { return a.memo }

// FinalHeading is the heading flown after the arc, towards the runway.
func (a *Arc) FinalHeading() float64 {
	return geo.NormalizeHeading(a.Heading + math.Pi)
}

// Center returns the centre of the anchor circle for a drone at pos.
func (a *Arc) Center(pos mgl64.Vec3) mgl64.Vec3 {
	if Orientation(a.Anchor, PlusMinZ(a.Anchor, a.Heading), pos) == Clockwise {
		return PlusX(a.Anchor, a.Heading, a.Radius)
	}
	return PlusX(a.Anchor, a.Heading, -a.Radius)
}

// TangentHeading returns the heading that puts a drone at pos on a tangent
// to the anchor circle. It first checks completion against the heading it
// returned on the previous call.
func (a *Arc) TangentHeading(pos mgl64.Vec3, heading float64) float64 {
	h := a.Heading
	side := Orientation(a.Anchor, PlusMinZ(a.Anchor, h), pos)
	offset := -a.Radius
	a.side = geo.Right
	if side == Clockwise {
		offset = a.Radius
		a.side = geo.Left
	}
	center := PlusX(a.Anchor, h, offset)

	dist := pos.Sub(center).Len()
	if dist > a.Radius-radiusTolerance && dist < a.Radius+radiusTolerance &&
		math.Abs(geo.NormalizeHeading(a.memo-heading)) < headingTolerance {
		a.complete = true
	}

	dm := a.Radius
	dg := geo.PlanarDistance(a.Anchor, pos)
	mg := geo.PlanarDistance(center, pos)
	big := math.Acos((dg*dg - dm*dm - mg*mg) / (-2 * dm * mg))
	if Orientation(a.Anchor, PlusX(a.Anchor, h, 1), pos) == Clockwise {
		big = 2*math.Pi - big
	}
	corner := big - math.Acos(a.Radius/mg)

	var out float64
	switch side {
	case Clockwise:
		out = h - corner + math.Pi
	case CounterClockwise:
		out = h + corner + math.Pi
	default:
		out = h + math.Pi
	}
	if math.IsNaN(out) {
		return out
	}
	a.memo = geo.NormalizeHeading(out)
	return a.memo
}
