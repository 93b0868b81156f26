package guidance

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"dronesim/pkg/config"
	"dronesim/pkg/control"
	"dronesim/pkg/geo"
	"dronesim/pkg/sim"
)

var (
	strongDescentPitch = geo.Radians(-3)
	risePitch          = geo.Radians(4)
	slowDownWing       = geo.Radians(2)
	flarePitch         = geo.Radians(3)
	glideBankLimit     = geo.Radians(10)
	climbMargin        = geo.Radians(4)

	taxiFinalTolerance = geo.Radians(0.5)
	taxiTrackTolerance = geo.Radians(2)
	taxiSettledRate    = geo.Radians(0.1)
)

// Vertical speed targets, m/s.
const (
	cruiseClimbRate = 0.4
	strongClimbRate = 6.0
	riseRate        = 2.0
	strongSinkRate  = -2.0
	turnClimbRate   = 0.37
	flareSinkRate   = -0.5
	glideMaxSink    = -3.0
	glideMaxClimb   = 1.0
	glideGain       = 0.5
	glideBankGain   = 2.0

	pivotThrust   = 50.0
	taxiStopSpeed = 1.0
)

// Autopilot is the per-drone controller state shared by every pilot the
// drone runs: the axis loops, the velocity estimate and the last outputs.
type Autopilot struct {
	drone config.DroneConfig
	guide config.GuidanceConfig
	loops *control.Loops
	est   *sim.VelocityEstimator

	sensed  bool
	last    sim.Snapshot
	dt      float64
	vel     mgl64.Vec3
	yawRate float64
	out     sim.Controls
}

// NewAutopilot builds the controller for one drone.
func NewAutopilot(drone config.DroneConfig, guide config.GuidanceConfig) *Autopilot {
	return &Autopilot{
		drone: drone,
		guide: guide,
		loops: control.NewLoops(drone),
		est:   sim.NewVelocityEstimator(0),
	}
}

// Loops exposes the axis controllers.
func (a *Autopilot) Loops() *control.Loops { return a.loops }

// Sense ingests a snapshot once per simulated instant. Repeated calls with
// the same elapsed time are ignored.
func (a *Autopilot) Sense(snap sim.Snapshot) {
	if a.sensed && snap.Elapsed == a.last.Elapsed {
		return
	}
	a.dt = 0
	a.yawRate = 0
	if a.sensed {
		a.dt = snap.Elapsed - a.last.Elapsed
		if a.dt > 0 {
			a.yawRate = geo.NormalizeHeading(snap.Heading-a.last.Heading) / a.dt
		}
	}
	a.vel = a.est.Snapshot(snap)
	a.last = snap
	a.sensed = true
}

// Dt is the simulated time since the previous snapshot.
func (a *Autopilot) Dt() float64 { return a.dt }

// Velocity is the estimated world velocity.
func (a *Autopilot) Velocity() mgl64.Vec3 { return a.vel }

// GroundSpeed is the estimated horizontal speed.
func (a *Autopilot) GroundSpeed() float64 { return sim.GroundSpeed(a.vel) }

// YawRate is the estimated heading rate in rad/s.
func (a *Autopilot) YawRate() float64 { return a.yawRate }

// Output returns the last controls Step produced.
func (a *Autopilot) Output() sim.Controls { return a.out }

// Reset clears the loops, e.g. when a new pilot takes over.
func (a *Autopilot) Reset() {
	a.loops.Reset()
}

// Step flies phase p for one tick. The boolean reports that the phase has
// finished its job.
func (a *Autopilot) Step(p *Phase, snap sim.Snapshot) (sim.Controls, bool) {
	a.Sense(snap)

	var (
		c    sim.Controls
		done bool
	)
	switch p.Kind {
	case StableCruise, Stabilize, ClimbStrong, Climb, DescendStrong, Descend,
		TurnLeft, TurnRight, SoftTurnLeft, SoftTurnRight, VerySoftTurnLeft, VerySoftTurnRight,
		SlowDown:
		c = a.fly(p.Kind, snap)
	case ApproachArc, RunwayIntercept:
		c = a.fly(p.Law, snap)
	case TakeoffRoll, Rotate:
		c = a.takeoff(p, snap)
	case Glide, Flare:
		c = a.glide(p, snap)
	case Taxi:
		c, done = a.taxi(p, snap)
	case Parked:
		c = sim.Brakes(a.drone.RMax)
	case Idle:
		c, done = sim.Controls{}, true
	default:
		// unknown kinds stop the drone rather than guess
		c, done = sim.Brakes(a.drone.RMax), true
	}
	a.out = c
	return c, done
}

// fly applies the in-flight control law table.
func (a *Autopilot) fly(law Kind, snap sim.Snapshot) sim.Controls {
	c := a.out
	c.VerStab = 0
	c.LeftBrake, c.FrontBrake, c.RightBrake = a.drone.RMax, a.drone.RMax, a.drone.RMax

	l, dt := a.loops, a.dt
	vb := control.BodyVelocity(a.vel, snap.Heading, snap.Pitch, snap.Roll)
	vs := a.vel[1]

	turn := func(bank float64) {
		c.LeftWing, c.RightWing = l.Wings(bank, snap.Roll, false, dt)
		c.Thrust = l.EngineThrust(turnClimbRate, vs, dt)
		c.HorStab = l.HorStab(0, snap.Pitch, vb, dt)
	}

	switch law {
	case StableCruise, Stabilize:
		c.LeftWing, c.RightWing = l.Wings(0, snap.Roll, false, dt)
		c.HorStab = l.HorStab(0, snap.Pitch, vb, dt)
		c.Thrust = l.EngineThrust(cruiseClimbRate, vs, dt)
	case ClimbStrong:
		c.LeftWing, c.RightWing = l.Wings(0, snap.Roll, true, dt)
		c.HorStab = l.HorStab(a.climbPitch(float64(a.guide.ClimbAngle)), snap.Pitch, vb, dt)
		c.Thrust = l.EngineThrust(strongClimbRate, vs, dt)
	case Climb:
		c.HorStab = l.HorStab(risePitch, snap.Pitch, vb, dt)
		c.Thrust = l.EngineThrust(riseRate, vs, dt)
	case DescendStrong:
		c.LeftWing, c.RightWing = l.Wings(0, snap.Roll, false, dt)
		c.HorStab = l.HorStab(strongDescentPitch, snap.Pitch, vb, dt)
		c.Thrust = l.EngineThrust(strongSinkRate, vs, dt)
	case Descend:
		c.HorStab = l.HorStab(0, snap.Pitch, vb, dt)
	case TurnLeft:
		turn(geo.Radians(20))
	case TurnRight:
		turn(geo.Radians(-20))
	case SoftTurnLeft:
		turn(geo.Radians(10))
	case SoftTurnRight:
		turn(geo.Radians(-10))
	case VerySoftTurnLeft:
		turn(geo.Radians(4))
	case VerySoftTurnRight:
		turn(geo.Radians(-4))
	case SlowDown:
		l.Wings(0, snap.Roll, false, dt)
		c.LeftWing, c.RightWing = slowDownWing, slowDownWing
		c.HorStab = l.HorStab(0, snap.Pitch, vb, dt)
		c.Thrust = 0
	}
	return c
}

// takeoff runs the ground roll and rotation at full thrust, holding the
// runway heading with the fin.
func (a *Autopilot) takeoff(p *Phase, snap sim.Snapshot) sim.Controls {
	l, dt := a.loops, a.dt
	vb := control.BodyVelocity(a.vel, snap.Heading, snap.Pitch, snap.Roll)

	c := sim.Controls{Thrust: a.drone.MaxThrust}
	c.LeftWing, c.RightWing = l.Wings(0, snap.Roll, false, dt)
	pitch := 0.0
	if p.Kind == Rotate {
		pitch = a.climbPitch(float64(a.guide.ClimbAngle))
	}
	c.HorStab = l.HorStab(pitch, snap.Pitch, vb, dt)
	c.VerStab = l.VerStab(p.Heading, snap.Heading, vb, dt)
	return c
}

// climbPitch caps a nose-up pitch target at the flight path plus
// climbMargin, so the wings stay inside the envelope while the path catches
// up.
func (a *Autopilot) climbPitch(target float64) float64 {
	path := math.Atan2(a.vel[1], a.GroundSpeed())
	return math.Min(target, path+climbMargin)
}

// glide tracks p.Heading and the glide-path height in p.Altitude, or
// flares for touchdown.
func (a *Autopilot) glide(p *Phase, snap sim.Snapshot) sim.Controls {
	l, dt := a.loops, a.dt
	vb := control.BodyVelocity(a.vel, snap.Heading, snap.Pitch, snap.Roll)

	c := sim.Brakes(a.drone.RMax)
	bank := geo.Clamp(glideBankGain*geo.NormalizeHeading(p.Heading-snap.Heading), -glideBankLimit, glideBankLimit)
	c.LeftWing, c.RightWing = l.Wings(bank, snap.Roll, false, dt)

	pitch, sink := 0.0, flareSinkRate
	if p.Kind == Glide {
		sink = geo.Clamp(glideGain*(p.Altitude-snap.Y), glideMaxSink, glideMaxClimb)
	} else {
		pitch = flarePitch
	}
	c.HorStab = l.HorStab(pitch, snap.Pitch, vb, dt)
	c.Thrust = l.EngineThrust(sink, a.vel[1], dt)
	return c
}

// taxi drives towards p.Target, then turns in place onto p.Heading.
func (a *Autopilot) taxi(p *Phase, snap sim.Snapshot) (sim.Controls, bool) {
	rMax := a.drone.RMax
	pos := snap.Position()
	dist := geo.PlanarDistance(pos, p.Target)
	speed := a.GroundSpeed()

	target := a.guide.TaxiFarSpeed
	if dist < float64(a.guide.TaxiNearDistance) {
		target = a.guide.TaxiNearSpeed
	}

	var c sim.Controls
	if speed <= target {
		c.Thrust = a.loops.TaxiThrust(target, speed, a.dt)
	} else {
		c = sim.Brakes(rMax)
	}

	if dist < float64(a.guide.TaxiStopDistance) {
		switch {
		case speed > taxiStopSpeed:
			return sim.Brakes(rMax), false
		case math.Abs(geo.NormalizeHeading(p.Heading-snap.Heading)) > taxiFinalTolerance:
			return a.pivot(p.Heading, snap.Heading), false
		case math.Abs(a.yawRate) > taxiSettledRate:
			return sim.Brakes(rMax), false
		default:
			return sim.Controls{}, true
		}
	}

	track := geo.HeadingTo(geo.Ground(pos), geo.Ground(p.Target))
	if math.Abs(geo.NormalizeHeading(track-snap.Heading)) > taxiTrackTolerance {
		return a.pivot(track, snap.Heading), false
	}
	return c, false
}

// pivot turns in place by braking the inner wheel.
func (a *Autopilot) pivot(target, heading float64) sim.Controls {
	c := sim.Controls{Thrust: pivotThrust}
	if geo.HeadingSide(heading, target) == geo.Left {
		c.LeftBrake = a.drone.RMax
	} else {
		c.RightBrake = a.drone.RMax
	}
	return c
}
