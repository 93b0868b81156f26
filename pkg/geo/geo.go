// Package geo holds ground-plane geometry shared by the engine, the airports
// and the guidance code. The world is flat: X and Z span the ground, Y is up.
// Heading 0 faces -Z and grows towards -X.
package geo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Point is a position on the ground plane.
type Point struct {
	X float64
	Z float64
}

// Ground drops the height of a world vector.
func Ground(v mgl64.Vec3) Point {
	return Point{X: v[0], Z: v[2]}
}

// Vec3 lifts p to height y.
func (p Point) Vec3(y float64) mgl64.Vec3 {
	return mgl64.Vec3{p.X, y, p.Z}
}

// Distance is the planar distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	return math.Hypot(p2.X-p1.X, p2.Z-p1.Z)
}

// PlanarDistance ignores the height of two world vectors.
func PlanarDistance(a, b mgl64.Vec3) float64 {
	return math.Hypot(b[0]-a[0], b[2]-a[2])
}

// Forward returns the unit ground vector for heading h.
func Forward(h float64) mgl64.Vec3 {
	return mgl64.Vec3{-math.Sin(h), 0, -math.Cos(h)}
}

// DestinationPoint moves dist meters from start along heading h (radians).
func DestinationPoint(start Point, dist, h float64) Point {
	return Point{
		X: start.X - math.Sin(h)*dist,
		Z: start.Z - math.Cos(h)*dist,
	}
}

// HeadingTo returns the heading that points from p1 towards p2.
func HeadingTo(p1, p2 Point) float64 {
	return math.Atan2(p1.X-p2.X, p1.Z-p2.Z)
}

// NormalizeHeading maps any finite angle into (-π, π].
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 2*math.Pi)
	if h > math.Pi {
		h -= 2 * math.Pi
	} else if h <= -math.Pi {
		h += 2 * math.Pi
	}
	return h
}

// Side is the turn direction that brings one heading onto another.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// HeadingSide decides which way to turn from current to target. It takes the
// y component of (cos c, 0, -sin c) × (cos t, 0, -sin t); zero counts as left.
func HeadingSide(current, target float64) Side {
	a := mgl64.Vec3{math.Cos(current), 0, -math.Sin(current)}
	b := mgl64.Vec3{math.Cos(target), 0, -math.Sin(target)}
	if a.Cross(b)[1] >= 0 {
		return Left
	}
	return Right
}
