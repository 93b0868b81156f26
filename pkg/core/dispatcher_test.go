package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronesim/pkg/config"
	"dronesim/pkg/logging"
)

func TestDispatcher(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		name        string
		missions    []config.MissionConfig
		wantStarted int
		wantPending int
		wantHeights map[int]float64 // drone index -> cruise height
	}{
		{
			name:        "PickupGate",
			missions:    []config.MissionConfig{{From: 0, FromGate: 0, To: 1, ToGate: 0}},
			wantStarted: 1,
			wantHeights: map[int]float64{0: 50},
		},
		{
			name:        "SameAirportOtherGate",
			missions:    []config.MissionConfig{{From: 1, FromGate: 0, To: 0, ToGate: 1}},
			wantStarted: 1,
			wantHeights: map[int]float64{1: 57},
		},
		{
			name: "DestinationAlreadyInbound",
			missions: []config.MissionConfig{
				{From: 0, FromGate: 0, To: 1, ToGate: 0},
				{From: 1, FromGate: 1, To: 1, ToGate: 0},
			},
			wantStarted: 1,
			wantPending: 1,
			wantHeights: map[int]float64{0: 50},
		},
		{
			name:        "NoDroneAtPickup",
			missions:    []config.MissionConfig{{From: 0, FromGate: 0, To: 1, ToGate: 0}, {From: 0, FromGate: 1, To: 1, ToGate: 1}},
			wantStarted: 1,
			wantPending: 1,
			wantHeights: map[int]float64{0: 50},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := testFleet(t, cfg)
			d := NewDispatcher(f, cfg.Guidance, logging.Discard())
			for _, m := range tt.missions {
				d.Enqueue(m)
			}

			assert.Equal(t, tt.wantStarted, d.Dispatch())
			assert.Len(t, d.Pending(), tt.wantPending)
			for _, drone := range f.Drones() {
				m, ok := drone.Mission()
				want, busy := tt.wantHeights[drone.Index]
				require.Equal(t, busy, ok, "drone %d", drone.Index)
				if busy {
					assert.InDelta(t, want, m.Height, 1e-9)
				}
			}
		})
	}
}

func TestDispatcher_Job(t *testing.T) {
	cfg := config.DefaultConfig()
	f, _ := testFleet(t, cfg)
	d := NewDispatcher(f, cfg.Guidance, logging.Discard())
	d.Enqueue(cfg.World.Missions[0])

	job := d.Job(1)
	assert.Equal(t, "Dispatcher", job.Name())

	frame := Frame{Tick: 1, Elapsed: 0.5}
	assert.False(t, job.ShouldFire(&frame))
	frame = Frame{Tick: 2, Elapsed: 1.5}
	require.True(t, job.ShouldFire(&frame))
	job.Run(context.Background(), &frame)
	assert.Empty(t, d.Pending())
}
