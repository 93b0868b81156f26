// Package control holds the feedback loops that turn guidance targets into
// surface incidences and thrust.
package control

import (
	"time"

	"go.einride.tech/pid"

	"dronesim/pkg/geo"
)

// PID is a clamped PID loop. Integration pauses while the output sits on a
// bound, and the first update after a reset has no derivative kick.
type PID struct {
	Setpoint float64

	ctrl    pid.Controller
	lo, hi  float64
	bounded bool
	primed  bool
	out     float64
}

// NewPID returns an unbounded loop with the given gains.
func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		ctrl: pid.Controller{
			Config: pid.ControllerConfig{
				ProportionalGain: kp,
				IntegralGain:     ki,
				DerivativeGain:   kd,
			},
		},
	}
}

// SetLimits bounds the output. Reversed bounds are swapped.
func (p *PID) SetLimits(lo, hi float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	p.lo, p.hi, p.bounded = lo, hi, true
}

// SetSymmetricLimit bounds the output to [-l, l].
func (p *PID) SetSymmetricLimit(l float64) {
	p.SetLimits(-l, l)
}

// Limits returns the current bounds and whether any are set.
func (p *PID) Limits() (lo, hi float64, ok bool) {
	return p.lo, p.hi, p.bounded
}

// Update runs one step towards setpoint. With dt <= 0 it returns the
// previous output unchanged.
func (p *PID) Update(setpoint, actual, dt float64) float64 {
	p.Setpoint = setpoint
	if dt <= 0 {
		return p.out
	}
	if !p.primed {
		p.ctrl.State.ControlError = setpoint - actual
		p.primed = true
	}

	integral := p.ctrl.State.ControlErrorIntegral
	p.ctrl.Update(pid.ControllerInput{
		ReferenceSignal:  setpoint,
		ActualSignal:     actual,
		SamplingInterval: time.Duration(dt * float64(time.Second)),
	})

	out := p.ctrl.State.ControlSignal
	if p.bounded {
		if c := geo.Clamp(out, p.lo, p.hi); c != out {
			p.ctrl.State.ControlErrorIntegral = integral
			out = c
		}
	}
	p.out = out
	return out
}

// Output returns the last output.
func (p *PID) Output() float64 {
	return p.out
}

// Saturated reports whether the last output sat on a bound.
func (p *PID) Saturated() bool {
	return p.bounded && (p.out <= p.lo || p.out >= p.hi)
}

// Reset clears the integral, the previous error and the output. Bounds are
// kept.
func (p *PID) Reset() {
	p.ctrl.Reset()
	p.primed = false
	p.out = 0
}
