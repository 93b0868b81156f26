package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"dronesim/pkg/config"
)

type wheel struct {
	name    string
	offset  mgl64.Vec3
	lateral bool // rear wheels resist sideways slip
}

func newWheels(cfg config.DroneConfig) [3]wheel {
	return [3]wheel{
		{name: "left wheel", offset: mgl64.Vec3{-cfg.RearWheelX, cfg.WheelY, cfg.RearWheelZ}, lateral: true},
		{name: "front wheel", offset: mgl64.Vec3{0, cfg.WheelY, cfg.FrontWheelZ}},
		{name: "right wheel", offset: mgl64.Vec3{cfg.RearWheelX, cfg.WheelY, cfg.RearWheelZ}, lateral: true},
	}
}

// contact is the body-frame load one wheel puts on the airframe.
type contact struct {
	arm      mgl64.Vec3
	spring   mgl64.Vec3
	brake    mgl64.Vec3
	friction mgl64.Vec3
}

func (c contact) total() mgl64.Vec3 {
	return c.spring.Add(c.brake).Add(c.friction)
}

func (c contact) torque() mgl64.Vec3 {
	return c.arm.Cross(c.total())
}

// wheelContact evaluates wheel i. acc is the force accumulated so far,
// used to hold a stationary drone against other loads.
func (e *Engine) wheelContact(i int, brake float64, acc mgl64.Vec3, dt float64) (contact, error) {
	var c contact
	w := e.wheels[i]
	s := &e.state
	r := s.Orientation
	rt := r.Transpose()

	world := s.Position.Add(r.Mul3x1(w.offset))
	d := e.cfg.TyreRadius - world[1]
	if d >= e.cfg.TyreRadius {
		return c, fail(GroundContactViolation, w.name, d, "wheel below ground")
	}
	if d <= 0 {
		e.depth[i] = 0
		e.loaded[i] = false
		return c, nil
	}
	e.loaded[i] = true

	ground := mgl64.Vec3{world[0], 0, world[2]}
	c.arm = rt.Mul3x1(ground.Sub(s.Position))

	fy := e.cfg.TyreSlope * d
	if dt > 0 {
		fy += e.cfg.DampSlope * (d - e.depth[i]) / dt
	}
	e.depth[i] = d
	if fy > 0 {
		c.spring = rt.Mul3x1(mgl64.Vec3{0, fy, 0})
	} else {
		fy = 0
	}

	worldVel := s.Velocity.Add(r.Mul3x1(s.AngularVelocity.Cross(w.offset)))
	worldVel[1] = 0
	bodyVel := rt.Mul3x1(worldVel)
	if bodyVel.Len() > 0 {
		c.brake = bodyVel.Normalize().Mul(-brake)
	} else {
		h := r.Mul3x1(acc)
		h[1] = 0
		hb := rt.Mul3x1(h)
		if n := hb.Len(); n > 0 {
			c.brake = hb.Normalize().Mul(-min(n, brake))
		}
	}

	if w.lateral {
		xDir := r.Mul3x1(unitX)
		xDir[1] = 0
		lateralVel := worldVel.Dot(xDir)
		if xb := rt.Mul3x1(xDir); xb.Len() > 0 {
			c.friction = xb.Normalize().Mul(-e.cfg.FcMax * lateralVel * fy)
		}
	}

	if e.opts.Surface != nil && !e.opts.Surface.OnPaved(ground) {
		return c, fail(GroundContactViolation, w.name, d, "wheel left the paved surface")
	}
	return c, nil
}
