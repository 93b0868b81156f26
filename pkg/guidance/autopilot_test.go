package guidance

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronesim/pkg/config"
	"dronesim/pkg/control"
	"dronesim/pkg/geo"
	"dronesim/pkg/sim"
)

// cruising feeds two snapshots of level flight at 40 m/s along heading 0.
func cruising(ap *Autopilot, y float64) sim.Snapshot {
	ap.Sense(snapAt(0, mgl64.Vec3{0, y, 0}, 0))
	return snapAt(0.01, mgl64.Vec3{0, y, -0.4}, 0)
}

func TestStep_FlightLawsHoldBrakes(t *testing.T) {
	rMax := config.DefaultConfig().Drone.RMax
	kinds := []Kind{
		StableCruise, Stabilize, ClimbStrong, Climb, DescendStrong, Descend,
		TurnLeft, TurnRight, SoftTurnLeft, SoftTurnRight, VerySoftTurnLeft, VerySoftTurnRight,
		SlowDown,
	}
	for _, k := range kinds {
		t.Run(k.String(), func(t *testing.T) {
			ap := testAutopilot()
			c, done := ap.Step(&Phase{Kind: k}, cruising(ap, 50))
			assert.False(t, done)
			assert.Equal(t, rMax, c.LeftBrake)
			assert.Equal(t, rMax, c.FrontBrake)
			assert.Equal(t, rMax, c.RightBrake)
			assert.Zero(t, c.VerStab)
		})
	}
}

func TestStep_SlowDown(t *testing.T) {
	ap := testAutopilot()
	c, _ := ap.Step(&Phase{Kind: SlowDown}, cruising(ap, 1))
	assert.Zero(t, c.Thrust)
	assert.InDelta(t, geo.Radians(2), c.LeftWing, 1e-12)
	assert.InDelta(t, geo.Radians(2), c.RightWing, 1e-12)
}

func TestStep_TurnsBankTheRightWay(t *testing.T) {
	tests := []struct {
		kind      Kind
		leftLower bool
	}{
		{TurnLeft, true},
		{SoftTurnLeft, true},
		{VerySoftTurnLeft, true},
		{TurnRight, false},
		{SoftTurnRight, false},
		{VerySoftTurnRight, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			ap := testAutopilot()
			c, _ := ap.Step(&Phase{Kind: tt.kind}, cruising(ap, 50))
			// a positive roll target lowers the left wing incidence
			assert.Equal(t, tt.leftLower, c.LeftWing < c.RightWing)
		})
	}
}

func TestStep_ArcKindsFlyTheirLaw(t *testing.T) {
	a, b := testAutopilot(), testAutopilot()
	viaArc, _ := a.Step(&Phase{Kind: ApproachArc, Law: SoftTurnLeft}, cruising(a, 50))
	direct, _ := b.Step(&Phase{Kind: SoftTurnLeft}, cruising(b, 50))
	assert.Equal(t, direct, viaArc)
}

func TestStep_CruiseStaysInsideLimits(t *testing.T) {
	cfg := config.DefaultConfig().Drone
	ap := testAutopilot()
	ap.Sense(snapAt(0, mgl64.Vec3{0, 50, 0}, 0))

	p := Phase{Kind: StableCruise}
	for i := 1; i <= 200; i++ {
		snap := snapAt(float64(i)*0.01, mgl64.Vec3{0, 50, -0.4 * float64(i)}, 0)
		c, _ := ap.Step(&p, snap)

		assert.InDelta(t, control.WingTrim, c.LeftWing, geo.Radians(2.5)+1e-9)
		assert.InDelta(t, control.WingTrim, c.RightWing, geo.Radians(2.5)+1e-9)
		assert.LessOrEqual(t, math.Abs(c.HorStab), float64(cfg.MaxAOA)+1e-9)
		assert.GreaterOrEqual(t, c.Thrust, 0.0)
		assert.LessOrEqual(t, c.Thrust, cfg.MaxThrust)
	}
}

func TestStep_TerminalKinds(t *testing.T) {
	rMax := config.DefaultConfig().Drone.RMax
	tests := []struct {
		name     string
		kind     Kind
		want     sim.Controls
		wantDone bool
	}{
		{"Idle", Idle, sim.Controls{}, true},
		{"Parked", Parked, sim.Brakes(rMax), false},
		{"Unknown", Kind(99), sim.Brakes(rMax), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ap := testAutopilot()
			c, done := ap.Step(&Phase{Kind: tt.kind}, snapAt(0, mgl64.Vec3{}, 0))
			assert.Equal(t, tt.want, c)
			assert.Equal(t, tt.wantDone, done)
		})
	}
}

func TestStep_TaxiNearThreshold(t *testing.T) {
	cfg := config.DefaultConfig()
	near := float64(cfg.Guidance.TaxiNearDistance)
	ap := testAutopilot()

	// 5 m/s along heading 0 towards the origin, from 26 m in to 24 m
	var crossed bool
	for k := 0; k <= 42; k++ {
		dist := 26.05 - 0.05*float64(k)
		c, done := ap.Step(&Phase{Kind: Taxi}, snapAt(0.01*float64(k), mgl64.Vec3{0, 0, dist}, 0))
		require.False(t, done)
		if k == 0 || math.Abs(dist-near) < 0.01 {
			continue
		}
		require.InDelta(t, 5.0, ap.GroundSpeed(), 1e-6)

		if dist > near {
			assert.Greater(t, c.Thrust, 0.0, "below %v m/s the speed loop drives at %.2f m", cfg.Guidance.TaxiFarSpeed, dist)
			assert.Zero(t, c.LeftBrake)
			continue
		}
		crossed = true
		assert.Equal(t, sim.Brakes(cfg.Drone.RMax), c, "above %v m/s inside %v m brakes at %.2f m", cfg.Guidance.TaxiNearSpeed, near, dist)
	}
	assert.True(t, crossed)
}

func TestStep_TaxiFinal(t *testing.T) {
	rMax := config.DefaultConfig().Drone.RMax

	tests := []struct {
		name     string
		heading  float64
		want     sim.Controls
		wantDone bool
	}{
		{"Aligned", 0, sim.Controls{}, true},
		{"PivotLeft", geo.Radians(10), sim.Controls{Thrust: pivotThrust, LeftBrake: rMax}, false},
		{"PivotRight", geo.Radians(-10), sim.Controls{Thrust: pivotThrust, RightBrake: rMax}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ap := testAutopilot()
			pos := mgl64.Vec3{0, 0, 5}
			ap.Sense(snapAt(0, pos, 0))
			c, done := ap.Step(&Phase{Kind: Taxi, Heading: tt.heading}, snapAt(0.01, pos, 0))
			assert.Equal(t, tt.want, c)
			assert.Equal(t, tt.wantDone, done)
		})
	}
}

func TestStep_TaxiTurnsTowardsTarget(t *testing.T) {
	rMax := config.DefaultConfig().Drone.RMax
	ap := testAutopilot()
	pos := mgl64.Vec3{0, 0, 100}
	ap.Sense(snapAt(0, pos, 0))

	// target off to the -X side: heading grows, a left turn
	c, done := ap.Step(&Phase{Kind: Taxi, Target: mgl64.Vec3{-100, 0, 0}}, snapAt(0.01, pos, 0))
	assert.False(t, done)
	assert.Equal(t, sim.Controls{Thrust: pivotThrust, LeftBrake: rMax}, c)
}

func TestSense_IgnoresRepeatedSnapshot(t *testing.T) {
	ap := testAutopilot()
	ap.Sense(snapAt(0, mgl64.Vec3{}, 0))
	s := snapAt(0.5, mgl64.Vec3{0, 0, -5}, geo.Radians(5))
	ap.Sense(s)
	ap.Sense(s)

	assert.InDelta(t, 0.5, ap.Dt(), 1e-12)
	assert.InDelta(t, 10.0, ap.GroundSpeed(), 1e-9)
	assert.InDelta(t, geo.Radians(10), ap.YawRate(), 1e-9)
}
