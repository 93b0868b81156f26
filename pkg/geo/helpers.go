package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"golang.org/x/exp/constraints"
)

// Number covers the scalar types the helpers accept.
type Number interface {
	constraints.Integer | constraints.Float
}

// Clamp limits v to [lo, hi]. Reversed bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Abs returns |v|.
func Abs[T Number](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Radians converts degrees.
func Radians[T Number](deg T) float64 {
	return float64(deg) * math.Pi / 180
}

// Degrees converts radians.
func Degrees[T Number](rad T) float64 {
	return float64(rad) * 180 / math.Pi
}

// OrbPoint converts to the orb representation (x, z).
func (p Point) OrbPoint() orb.Point {
	return orb.Point{p.X, p.Z}
}

// Rect builds the polygon of a rectangle centred on c, with half extents
// alongHalf along axis and acrossHalf along the perpendicular axis.
// axis and perp must be unit ground vectors given as points.
func Rect(c, axis, perp Point, alongHalf, acrossHalf float64) orb.Polygon {
	corner := func(sa, sp float64) orb.Point {
		return orb.Point{
			c.X + axis.X*alongHalf*sa + perp.X*acrossHalf*sp,
			c.Z + axis.Z*alongHalf*sa + perp.Z*acrossHalf*sp,
		}
	}
	ring := orb.Ring{
		corner(1, 1),
		corner(1, -1),
		corner(-1, -1),
		corner(-1, 1),
		corner(1, 1),
	}
	return orb.Polygon{ring}
}

// Contains reports whether p lies inside poly or on its boundary. orb's ray
// casting is not consistent on edges, so those are tested separately.
func Contains(poly orb.Polygon, p Point) bool {
	pt := p.OrbPoint()
	if planar.PolygonContains(poly, pt) {
		return true
	}
	return onBoundary(poly, pt)
}

func onBoundary(poly orb.Polygon, p orb.Point) bool {
	const eps = 1e-9
	for _, ring := range poly {
		for i := 0; i+1 < len(ring); i++ {
			if distanceToSegment(p, ring[i], ring[i+1]) <= eps {
				return true
			}
		}
	}
	return false
}

// distanceToSegment calculates the minimum distance from a point to a line segment.
func distanceToSegment(p, a, b orb.Point) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	if dx == 0 && dy == 0 {
		return planar.Distance(p, a)
	}

	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / (dx*dx + dy*dy)
	switch {
	case t < 0:
		return planar.Distance(p, a)
	case t > 1:
		return planar.Distance(p, b)
	}
	proj := orb.Point{a[0] + t*dx, a[1] + t*dy}
	return planar.Distance(p, proj)
}
