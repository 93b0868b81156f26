package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"dronesim/pkg/config"
	"dronesim/pkg/geo"
)

var (
	// WingTrim is the wing incidence with no roll correction.
	WingTrim    = geo.Radians(7)
	rollLimit   = geo.Radians(2.5)
	yawDeadband = geo.Radians(1)

	// stabMargin keeps the commanded tail angle this far inside MaxAOA.
	stabMargin = geo.Radians(2)
)

// Loops is the per-drone set of axis controllers.
type Loops struct {
	cfg config.DroneConfig

	Roll   *PID
	Pitch  *PID
	Thrust *PID
	Yaw    *PID
	Taxi   *PID
}

// NewLoops builds the axis controllers for one airframe.
func NewLoops(cfg config.DroneConfig) *Loops {
	l := &Loops{
		cfg:    cfg,
		Roll:   NewPID(0.3, 0, 0),
		Pitch:  NewPID(0.5, 0.005, 0.005),
		Thrust: NewPID(600, 60, 0),
		Yaw:    NewPID(0.2, 0, 0),
		Taxi:   NewPID(100, 0.1, 0.1),
	}
	l.Roll.SetSymmetricLimit(rollLimit)
	l.Thrust.SetLimits(0, cfg.MaxThrust)
	l.Taxi.SetLimits(0, cfg.MaxThrust)
	return l
}

// Reset clears every loop.
func (l *Loops) Reset() {
	for _, p := range []*PID{l.Roll, l.Pitch, l.Thrust, l.Yaw, l.Taxi} {
		p.Reset()
	}
}

// Wings returns the left and right wing incidences that drive roll to
// target. halved softens the correction while climbing hard.
func (l *Loops) Wings(target, roll float64, halved bool, dt float64) (left, right float64) {
	out := l.Roll.Update(target, roll, dt)
	if halved {
		out *= 0.5
	}
	return WingTrim - out, WingTrim + out
}

// HorStab returns the horizontal stabilizer incidence that drives pitch to
// target. vb is the estimated body-frame velocity; the bounds keep the
// stabilizer's angle of attack a little inside MaxAOA.
func (l *Loops) HorStab(target, pitch float64, vb mgl64.Vec3, dt float64) float64 {
	flow := math.Atan2(vb[1], -vb[2])
	aoa := float64(l.cfg.MaxAOA) - stabMargin
	l.Pitch.SetLimits(-flow-aoa, -flow+aoa)
	return -l.Pitch.Update(target, pitch, dt)
}

// EngineThrust returns the thrust that drives vertical speed to target.
func (l *Loops) EngineThrust(target, verticalSpeed, dt float64) float64 {
	return l.Thrust.Update(target, verticalSpeed, dt)
}

// VerStab returns the vertical stabilizer incidence that turns the nose to
// target. Within a degree of the target the fin trails the airflow.
func (l *Loops) VerStab(target, heading float64, vb mgl64.Vec3, dt float64) float64 {
	slip := math.Atan2(vb[0], -vb[2])
	if math.Abs(geo.NormalizeHeading(target-heading)) < yawDeadband {
		return -slip
	}
	aoa := float64(l.cfg.MaxAOA)
	l.Yaw.SetLimits(slip-aoa, slip+aoa)
	return -l.Yaw.Update(0, -geo.NormalizeHeading(target-heading), dt)
}

// TaxiThrust returns the thrust that drives ground speed to target.
func (l *Loops) TaxiThrust(target, speed, dt float64) float64 {
	return l.Taxi.Update(target, speed, dt)
}

// BodyVelocity rotates a world-frame velocity into the body frame given
// by heading, pitch and roll.
func BodyVelocity(v mgl64.Vec3, heading, pitch, roll float64) mgl64.Vec3 {
	r := mgl64.Rotate3DY(heading).Mul3(mgl64.Rotate3DX(pitch)).Mul3(mgl64.Rotate3DZ(roll))
	return r.Transpose().Mul3x1(v)
}
