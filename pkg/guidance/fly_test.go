package guidance

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronesim/pkg/airport"
	"dronesim/pkg/approach"
	"dronesim/pkg/geo"
	"dronesim/pkg/logging"
)

func newFlyPilot(occ airport.Occupancy) *FlyPilot {
	dest := airport.New(0, mgl64.Vec3{}, 0, 60, 300)
	return NewFlyPilot(testAutopilot(), dest, 1, 50, occ, logging.Discard())
}

func TestFlyPilot_Anchor(t *testing.T) {
	f := newFlyPilot(alwaysFree)
	assert.InDelta(t, 0, f.Anchor()[0], 1e-9)
	assert.InDelta(t, 50, f.Anchor()[1], 1e-9)
	assert.InDelta(t, -approach.StandOff(50), f.Anchor()[2], 1e-9)
	assert.Equal(t, "fly", f.Name())
}

func TestFlyPilot_PhaseSelection(t *testing.T) {
	far := mgl64.Vec3{300, 50, -5000}

	tests := []struct {
		name string
		pos  mgl64.Vec3
		roll float64
		want Phase
	}{
		{"NearAnchorFliesStraight", mgl64.Vec3{0, 20, -1200}, 0, Phase{Kind: ApproachArc, Law: StableCruise}},
		{"TooLow", far.Sub(mgl64.Vec3{0, 20, 0}), 0, Phase{Kind: ClimbStrong}},
		{"TooLowBanked", far.Sub(mgl64.Vec3{0, 20, 0}), geo.Radians(8), Phase{Kind: ApproachArc, Law: StableCruise}},
		{"TooLowBankedOtherWay", far.Sub(mgl64.Vec3{0, 20, 0}), geo.Radians(-8), Phase{Kind: ApproachArc, Law: StableCruise}},
		{"TooHigh", far.Add(mgl64.Vec3{0, 20, 0}), 0, Phase{Kind: DescendStrong}},
		{"TooHighBankedOtherWay", far.Add(mgl64.Vec3{0, 20, 0}), geo.Radians(-8), Phase{Kind: ApproachArc, Law: StableCruise}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFlyPilot(alwaysFree)
			snap := snapAt(0, tt.pos, math.Pi)
			snap.Roll = tt.roll
			c := f.Tick(snap)
			assert.Equal(t, tt.want, f.Phase())
			assert.False(t, f.Ended())
			assert.Equal(t, f.ap.drone.RMax, c.LeftBrake)
		})
	}
}

func TestFlyPilot_TurnsTowardsTangent(t *testing.T) {
	f := newFlyPilot(alwaysFree)
	pos := mgl64.Vec3{300, 50, -5000}
	f.Tick(snapAt(0, pos, 0))

	p := f.Phase()
	require.Equal(t, ApproachArc, p.Kind)
	want := classifyHeading(0, f.Arc().LastHeading())
	assert.Equal(t, want, p.Law)
	assert.NotEqual(t, StableCruise, p.Law, "heading 0 points away from the anchor")
}

func TestFlyPilot_StartsOnFinalBehindAnchor(t *testing.T) {
	f := newFlyPilot(alwaysFree)
	pos := f.Anchor().Add(mgl64.Vec3{0, 0, -30})
	f.Tick(snapAt(0, pos, math.Pi))

	assert.True(t, f.Arc().Complete())
	assert.Equal(t, RunwayIntercept, f.Phase().Kind)
	assert.False(t, f.Ended())
}

// completeArc leaves the vicinity once, then holds a point just behind the
// anchor on the tangent heading until the arc completes. It returns the
// next elapsed time.
func completeArc(t *testing.T, f *FlyPilot) float64 {
	t.Helper()
	f.Tick(snapAt(0, mgl64.Vec3{300, 50, -5000}, math.Pi))

	center := approach.PlusX(f.Anchor(), 0, f.Arc().Radius)
	r := f.Arc().Radius + 2
	pos := center.Add(mgl64.Vec3{-r * math.Cos(0.2), 0, r * math.Sin(0.2)})

	elapsed := 1.0
	for i := 0; i < 5 && !f.Arc().Complete(); i++ {
		f.Tick(snapAt(elapsed, pos, f.Arc().LastHeading()))
		elapsed++
	}
	require.True(t, f.Arc().Complete())
	return elapsed
}

func TestFlyPilot_ArcCompletionStartsIntercept(t *testing.T) {
	f := newFlyPilot(alwaysFree)
	completeArc(t, f)

	assert.Equal(t, geo.Left, f.Arc().Side())
	assert.Equal(t, Phase{Kind: RunwayIntercept, Law: TurnLeft}, f.Phase())
}

func TestFlyPilot_HoldsWhileGateTaken(t *testing.T) {
	f := newFlyPilot(neverFree)
	elapsed := completeArc(t, f)
	pos := mgl64.Vec3{0, 50, -1000}

	// swing away from the runway heading, then come back onto it
	for i := 0; i < 10; i++ {
		f.Tick(snapAt(elapsed, pos, -2))
		elapsed++
	}
	for i := 0; i < 10; i++ {
		f.Tick(snapAt(elapsed, pos, -math.Pi+0.01))
		elapsed++
		assert.Equal(t, RunwayIntercept, f.Phase().Kind)
	}
	assert.False(t, f.Ended())
}

func TestFlyPilot_StabilisesWhenGateFree(t *testing.T) {
	f := newFlyPilot(alwaysFree)
	elapsed := completeArc(t, f)
	pos := mgl64.Vec3{0, 50, -1000}

	for i := 0; i < 10; i++ {
		f.Tick(snapAt(elapsed, pos, -2))
		elapsed++
	}
	f.Tick(snapAt(elapsed, pos, -math.Pi+0.01))
	require.Equal(t, Stabilize, f.Phase().Kind)

	// the 1.5 s hold runs down in three half-second ticks
	for i := 0; i < 3; i++ {
		assert.False(t, f.Ended())
		elapsed += 0.5
		f.Tick(snapAt(elapsed, pos, -math.Pi+0.01))
		assert.Equal(t, Stabilize, f.Phase().Kind)
	}
	assert.True(t, f.Ended())
}
