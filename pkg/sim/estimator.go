package sim

import (
	"github.com/go-gl/mathgl/mgl64"
)

// VelocityEstimator differences recent positions to estimate world
// velocity. Guidance never reads the engine's velocity directly.
type VelocityEstimator struct {
	samples []posSample
	window  float64 // seconds of simulated time
}

type posSample struct {
	t   float64
	pos mgl64.Vec3
}

// NewVelocityEstimator keeps samples for window seconds. A zero window
// differences the last two samples only.
func NewVelocityEstimator(window float64) *VelocityEstimator {
	return &VelocityEstimator{window: window}
}

// Update adds a sample and returns the velocity over the window.
func (b *VelocityEstimator) Update(elapsed float64, pos mgl64.Vec3) mgl64.Vec3 {
	b.samples = append(b.samples, posSample{t: elapsed, pos: pos})

	cutoff := elapsed - b.window
	for len(b.samples) > 2 && b.samples[1].t <= cutoff {
		b.samples = b.samples[1:]
	}

	if len(b.samples) < 2 {
		return mgl64.Vec3{}
	}
	first := b.samples[0]
	last := b.samples[len(b.samples)-1]
	dt := last.t - first.t
	if dt <= 0 {
		return mgl64.Vec3{}
	}
	return last.pos.Sub(first.pos).Mul(1 / dt)
}

// Snapshot is Update for a sensor snapshot.
func (b *VelocityEstimator) Snapshot(s Snapshot) mgl64.Vec3 {
	return b.Update(s.Elapsed, s.Position())
}

// Reset clears the buffer.
func (b *VelocityEstimator) Reset() {
	b.samples = nil
}

// GroundSpeed is the horizontal magnitude of v.
func GroundSpeed(v mgl64.Vec3) float64 {
	return mgl64.Vec2{v[0], v[2]}.Len()
}
