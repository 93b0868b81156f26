package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"dronesim/pkg/config"
)

// A surface only stalls the airframe when it carries more than this load.
const stallForce = 50

// liftSurface is a flat plate hinged about axis at offset from the centre
// of mass. mask drops the velocity component along the span.
type liftSurface struct {
	name      string
	axis      mgl64.Vec3
	offset    mgl64.Vec3
	mask      mgl64.Vec3
	slope     float64
	incidence float64
}

func newSurfaces(cfg config.DroneConfig) [4]liftSurface {
	spanX := mgl64.Vec3{0, 1, 1}
	return [4]liftSurface{
		{name: "left wing", axis: unitX, offset: mgl64.Vec3{-cfg.WingX, 0, 0}, mask: spanX, slope: cfg.WingLiftSlope},
		{name: "right wing", axis: unitX, offset: mgl64.Vec3{cfg.WingX, 0, 0}, mask: spanX, slope: cfg.WingLiftSlope},
		{name: "horizontal stabilizer", axis: unitX, offset: mgl64.Vec3{0, 0, cfg.TailSize}, mask: spanX, slope: cfg.HorStabLiftSlope},
		{name: "vertical stabilizer", axis: unitY, offset: mgl64.Vec3{0, 0, cfg.TailSize}, mask: mgl64.Vec3{1, 0, 1}, slope: cfg.VerStabLiftSlope},
	}
}

// attack is the chord direction for the current incidence.
func (s *liftSurface) attack() mgl64.Vec3 {
	sin, cos := math.Sincos(s.incidence)
	if s.axis == unitY {
		return mgl64.Vec3{-sin, 0, -cos}
	}
	return mgl64.Vec3{0, sin, -cos}
}

// force returns the body-frame lift and the angle of attack for a drone
// moving at bodyVel and spinning at angVel.
func (s *liftSurface) force(bodyVel, angVel mgl64.Vec3) (mgl64.Vec3, float64) {
	attack := s.attack()
	normal := s.axis.Cross(attack)
	v := hadamard(bodyVel.Add(angVel.Cross(s.offset)), s.mask)

	aoa := -math.Atan2(v.Dot(normal), v.Dot(attack))
	speed := v.Len()
	return normal.Mul(s.slope * aoa * speed * speed), aoa
}
