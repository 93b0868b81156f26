package sim

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"dronesim/pkg/config"
	"dronesim/pkg/logging"
)

// Surface answers whether a ground point is certified pavement.
type Surface interface {
	OnPaved(p mgl64.Vec3) bool
}

// Options tune an Engine beyond the airframe constants.
type Options struct {
	CheckAOA bool
	Surface  Surface // nil accepts any ground
	Logger   *slog.Logger
}

// wing inclination before the first command
const initialIncidence = 10 * math.Pi / 180

var (
	unitX = mgl64.Vec3{1, 0, 0}
	unitY = mgl64.Vec3{0, 1, 0}
	unitZ = mgl64.Vec3{0, 0, 1}
)

// Engine owns one drone's state. It is not safe for concurrent use; the
// fleet steps each engine from a single goroutine per tick.
type Engine struct {
	cfg  config.DroneConfig
	opts Options
	log  *slog.Logger

	state    DroneState
	controls Controls

	mass       float64
	inertia    mgl64.Vec3 // diagonal
	enginePos  mgl64.Vec3
	surfaces   [4]liftSurface
	wheels     [3]wheel
	depth      [3]float64
	loaded     [3]bool
	lastForce  mgl64.Vec3
	lastTorque mgl64.Vec3
}

// RestHeight is the centre-of-mass height at which the wheels just touch
// the ground without load.
func RestHeight(cfg config.DroneConfig) float64 {
	return cfg.TyreRadius - cfg.WheelY
}

// engineOffset places the engine ahead of the centre of mass so it balances
// the tail.
func engineOffset(cfg config.DroneConfig) float64 {
	return cfg.TailMass / cfg.EngineMass * cfg.TailSize
}

// Inertia returns the diagonal moment of inertia of the airframe.
func Inertia(cfg config.DroneConfig) mgl64.Vec3 {
	engineZ := engineOffset(cfg)
	ixx := engineZ*engineZ*cfg.EngineMass + cfg.TailSize*cfg.TailSize*cfg.TailMass
	izz := 2 * cfg.WingX * cfg.WingX * cfg.WingMass
	return mgl64.Vec3{ixx, ixx + izz, izz}
}

// New builds an engine at pos with velocity vel, facing heading. It
// evaluates the initial forces once with dt = 0.
func New(cfg config.DroneConfig, pos, vel mgl64.Vec3, heading float64, opts Options) (*Engine, error) {
	e := &Engine{
		cfg:  cfg,
		opts: opts,
		log:  logging.OrDefault(opts.Logger),
		mass: cfg.TotalMass(),
	}
	e.state.Position = pos
	e.state.Velocity = vel
	e.state.Orientation = mgl64.Rotate3DY(heading)

	e.enginePos = mgl64.Vec3{0, 0, -engineOffset(cfg)}
	e.inertia = Inertia(cfg)
	if e.inertia[0] <= 0 || e.inertia[2] <= 0 {
		return nil, fmt.Errorf("airframe: non-positive moment of inertia (%g, %g)", e.inertia[0], e.inertia[2])
	}

	e.surfaces = newSurfaces(cfg)
	e.wheels = newWheels(cfg)

	if err := e.Advance(Controls{LeftWing: initialIncidence, RightWing: initialIncidence}, 0); err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}
	return e, nil
}

// Advance applies c and integrates dt seconds. A non-nil error is always a
// *Failure and leaves the engine unusable.
func (e *Engine) Advance(c Controls, dt float64) error {
	if err := e.checkControls(c); err != nil {
		return err
	}
	e.controls = c
	e.surfaces[0].incidence = c.LeftWing
	e.surfaces[1].incidence = c.RightWing
	e.surfaces[2].incidence = c.HorStab
	e.surfaces[3].incidence = c.VerStab

	e.rotate(dt)
	e.deriveAttitude()

	force, torque, err := e.loads(dt)
	if err != nil {
		return err
	}
	e.lastForce, e.lastTorque = force, torque

	s := &e.state
	s.Position = s.Position.Add(s.Velocity.Mul(dt))
	s.Velocity = s.Velocity.Add(s.Orientation.Mul3x1(force).Mul(dt / e.mass))

	w := s.AngularVelocity
	iw := hadamard(e.inertia, w)
	rhs := torque.Sub(w.Cross(iw))
	accel := mgl64.Vec3{rhs[0] / e.inertia[0], rhs[1] / e.inertia[1], rhs[2] / e.inertia[2]}
	s.AngularVelocity = w.Add(accel.Mul(dt))
	s.Elapsed += dt

	logging.Trace(e.log, "Step",
		"t", s.Elapsed,
		"pos", s.Position,
		"heading", s.Heading,
		"pitch", s.Pitch,
		"roll", s.Roll,
	)

	return e.checkStructure()
}

func (e *Engine) checkControls(c Controls) error {
	if c.Thrust < 0 || c.Thrust > e.cfg.MaxThrust || math.IsNaN(c.Thrust) {
		return fail(ControlLimitViolation, "engine", c.Thrust, "thrust out of range")
	}
	for _, b := range []struct {
		part  string
		value float64
	}{
		{"left brake", c.LeftBrake},
		{"front brake", c.FrontBrake},
		{"right brake", c.RightBrake},
	} {
		if b.value < 0 || b.value > e.cfg.RMax || math.IsNaN(b.value) {
			return fail(ControlLimitViolation, b.part, b.value, "brake out of range")
		}
	}
	return nil
}

// rotate applies the body-frame rotation |ω·dt| about ω to the orientation.
func (e *Engine) rotate(dt float64) {
	w := e.state.AngularVelocity
	angle := w.Len() * dt
	if angle == 0 {
		return
	}
	inc := mgl64.QuatRotate(angle, w.Normalize()).Mat4().Mat3()
	e.state.Orientation = orthonormalize(e.state.Orientation.Mul3(inc))
}

func (e *Engine) deriveAttitude() {
	r := e.state.Orientation
	fwd := r.Mul3x1(unitZ.Mul(-1))
	right := r.Mul3x1(unitX)

	h := mgl64.Vec3{fwd[0], 0, fwd[2]}
	if h.Len() > 0 {
		h = h.Normalize()
	}
	r0 := h.Cross(unitY)
	u0 := r0.Cross(fwd)

	e.state.Heading = math.Atan2(-h[0], -h[2])
	e.state.Pitch = math.Atan2(fwd[1], fwd.Dot(h))
	e.state.Roll = math.Atan2(right.Dot(u0), right.Dot(r0))
}

// loads sums body-frame force and torque from surfaces, thrust, weight and
// wheels.
func (e *Engine) loads(dt float64) (mgl64.Vec3, mgl64.Vec3, error) {
	rt := e.state.Orientation.Transpose()
	bodyVel := rt.Mul3x1(e.state.Velocity)

	var force, torque mgl64.Vec3
	for i := range e.surfaces {
		f, aoa := e.surfaces[i].force(bodyVel, e.state.AngularVelocity)
		if e.opts.CheckAOA && dt != 0 && f.Len() > stallForce && math.Abs(aoa) > float64(e.cfg.MaxAOA) {
			return force, torque, fail(AerodynamicEnvelopeViolation, e.surfaces[i].name, aoa, "angle of attack beyond envelope")
		}
		force = force.Add(f)
		torque = torque.Add(e.surfaces[i].offset.Cross(f))
	}

	force = force.Add(mgl64.Vec3{0, 0, -e.controls.Thrust})
	force = force.Add(rt.Mul3x1(mgl64.Vec3{0, -e.cfg.Gravity * e.mass, 0}))

	brakes := [3]float64{e.controls.LeftBrake, e.controls.FrontBrake, e.controls.RightBrake}
	for i := range e.wheels {
		c, err := e.wheelContact(i, brakes[i], force, dt)
		if err != nil {
			return force, torque, err
		}
		force = force.Add(c.total())
		torque = torque.Add(c.torque())
	}
	return force, torque, nil
}

func (e *Engine) checkStructure() error {
	points := []struct {
		part string
		p    mgl64.Vec3
	}{
		{"left wingtip", e.surfaces[0].offset},
		{"right wingtip", e.surfaces[1].offset},
		{"tail", e.surfaces[2].offset},
		{"engine", e.enginePos},
	}
	for _, pt := range points {
		y := e.state.Position[1] + e.state.Orientation.Mul3x1(pt.p)[1]
		if y <= 0 {
			return fail(StructuralContactViolation, pt.part, y, "touched the ground")
		}
	}
	return nil
}

// State returns a copy of the full physical state.
func (e *Engine) State() DroneState {
	return e.state
}

// Controls returns the last accepted controls.
func (e *Engine) Controls() Controls {
	return e.controls
}

// Snapshot returns the sensor view of the current state.
func (e *Engine) Snapshot() Snapshot {
	s := e.state
	return Snapshot{
		X:       s.Position[0],
		Y:       s.Position[1],
		Z:       s.Position[2],
		Heading: s.Heading,
		Pitch:   s.Pitch,
		Roll:    s.Roll,
		Elapsed: s.Elapsed,
	}
}

// OnGround reports whether any wheel carried load in the last step.
func (e *Engine) OnGround() bool {
	return e.loaded[0] || e.loaded[1] || e.loaded[2]
}

// Loads returns the body-frame force and torque of the last step.
func (e *Engine) Loads() (force, torque mgl64.Vec3) {
	return e.lastForce, e.lastTorque
}

func hadamard(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// orthonormalize runs Gram-Schmidt over the columns of m.
func orthonormalize(m mgl64.Mat3) mgl64.Mat3 {
	x := m.Col(0).Normalize()
	y := m.Col(1)
	y = y.Sub(x.Mul(x.Dot(y))).Normalize()
	z := x.Cross(y)
	return mgl64.Mat3FromCols(x, y, z)
}
