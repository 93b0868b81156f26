package core

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronesim/pkg/airport"
	"dronesim/pkg/config"
	"dronesim/pkg/guidance"
	"dronesim/pkg/logging"
	"dronesim/pkg/sim"
)

func testFleet(t *testing.T, cfg *config.Config) (*Fleet, *airport.Registry) {
	t.Helper()
	reg := airport.NewRegistry(airport.FromConfig(&cfg.World))
	f := NewFleet(cfg, reg, logging.Discard())
	for _, s := range cfg.World.Drones {
		_, err := f.Spawn(s)
		require.NoError(t, err)
	}
	return f, reg
}

func TestFleet_Spawn(t *testing.T) {
	cfg := config.DefaultConfig()
	f, reg := testFleet(t, cfg)

	drones := f.Drones()
	require.Len(t, drones, 2)
	assert.NotEqual(t, drones[0].ID, drones[1].ID)
	assert.Equal(t, 0, drones[0].Index)
	assert.Equal(t, 1, drones[1].Index)
	assert.True(t, drones[0].Idle())
	assert.Equal(t, "Parked", drones[0].Phase())

	a, loc, ok := reg.Where(drones[1].ID)
	require.True(t, ok)
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, airport.Gate1, loc)

	tel := drones[0].Telemetry()
	assert.InDelta(t, sim.RestHeight(cfg.Drone), tel.Y, 1e-9)

	_, err := f.Spawn(config.DroneSpawn{Airport: 9})
	assert.Error(t, err)
}

func TestFleet_ParkedDronesStayPut(t *testing.T) {
	cfg := config.DefaultConfig()
	f, _ := testFleet(t, cfg)
	start := f.Drones()[0].Telemetry().Position()

	for i := 0; i < 100; i++ {
		require.NoError(t, f.Tick(context.Background(), cfg.Sim.Tick.Seconds()))
	}
	assert.Empty(t, f.Failures())
	require.Len(t, f.Drones(), 2)

	end := f.Drones()[0].Telemetry().Position()
	assert.Less(t, end.Sub(start).Len(), 0.1)
	assert.InDelta(t, 1.0, f.Elapsed(), 1e-9)

	views := f.Views()
	require.Len(t, views, 2)
	assert.Equal(t, "Parked", views[0].Phase)
	assert.Nil(t, views[0].Mission)
	assert.Equal(t, cfg.Drone.RMax, views[0].Controls.LeftBrake)
}

func TestFleet_FailureIsTerminal(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.World.Drones = nil
	f, reg := testFleet(t, cfg)

	d, err := f.Add(mgl64.Vec3{0, 100, 2000}, 0)
	require.NoError(t, err)

	for i := 0; i < 2000 && len(f.Drones()) > 0; i++ {
		require.NoError(t, f.Tick(context.Background(), 0.01))
	}
	require.Empty(t, f.Drones(), "a drone dropped from 100 m with idle controls does not survive")

	failures := f.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, d.ID, failures[0].DroneID)
	assert.NotZero(t, failures[0].Kind)
	assert.NotEmpty(t, failures[0].Part)
	assert.Positive(t, failures[0].Tick)

	_, _, ok := reg.Where(d.ID)
	assert.False(t, ok)
}

func TestFleet_AssignAndInbound(t *testing.T) {
	cfg := config.DefaultConfig()
	f, _ := testFleet(t, cfg)
	d := f.Drones()[0]

	m := guidance.Mission{From: 0, To: 1, ToGate: 0, Height: 50}
	require.NoError(t, f.Assign(d, m))
	assert.False(t, d.Idle())
	assert.True(t, f.Inbound(1, 0))
	assert.False(t, f.Inbound(1, 1))
	got, ok := d.Mission()
	assert.True(t, ok)
	assert.Equal(t, m, got)

	assert.Error(t, f.Assign(d, m), "busy drones refuse a second mission")

	require.NoError(t, f.Tick(context.Background(), 0.01))
	assert.Contains(t, d.Phase(), "taxi")
}

func TestFleet_CancelledContext(t *testing.T) {
	cfg := config.DefaultConfig()
	f, _ := testFleet(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.Tick(ctx, 0.01), context.Canceled)
}
