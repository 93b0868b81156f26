package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"

	"dronesim/pkg/sim"
)

func TestCodec_IDs(t *testing.T) {
	c := NewCodec(0x100)
	assert.Equal(t, uint32(0x100), c.ID(0, FrameSurfaces))
	assert.Equal(t, uint32(0x109), c.ID(1, FrameDrive))

	index, def, err := c.Locate(0x10c)
	require.NoError(t, err)
	assert.Equal(t, 1, index)
	assert.Equal(t, "attitude", def.Name)

	tests := []struct {
		name string
		id   uint32
	}{
		{"BelowBase", 0x0ff},
		{"UnusedOffset", 0x106},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.Locate(tt.id)
			assert.ErrorIs(t, err, ErrUnknownFrame)
		})
	}
}

func TestCodec_Controls(t *testing.T) {
	c := NewCodec(0x100)
	in := sim.Controls{
		LeftWing: 0.1222, RightWing: 0.0221, HorStab: -0.05, VerStab: 0.0173,
		Thrust: 1234.5, LeftBrake: 1500, FrontBrake: 0, RightBrake: 750.25,
	}
	frames, err := c.EncodeControls(2, in)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, uint32(0x110), frames[0].ID)

	got, err := c.DecodeAll(frames)
	require.NoError(t, err)
	out := got[2].Controls
	assert.InDelta(t, in.LeftWing, out.LeftWing, 1e-4)
	assert.InDelta(t, in.HorStab, out.HorStab, 1e-4)
	assert.InDelta(t, in.Thrust, out.Thrust, 0.05)
	assert.InDelta(t, in.RightBrake, out.RightBrake, 0.05)
	assert.Zero(t, out.FrontBrake)
}

func TestCodec_Saturates(t *testing.T) {
	c := NewCodec(0x100)
	frames, err := c.EncodeControls(0, sim.Controls{Thrust: 1e6, LeftBrake: -1e6})
	require.NoError(t, err)
	got, err := c.DecodeAll(frames)
	require.NoError(t, err)
	assert.InDelta(t, 3276.7, got[0].Controls.Thrust, 1e-9)
	assert.InDelta(t, -3276.8, got[0].Controls.LeftBrake, 1e-9)

	frames, err = c.EncodeSnapshot(0, sim.Snapshot{Elapsed: -5})
	require.NoError(t, err)
	got, err = c.DecodeAll(frames)
	require.NoError(t, err)
	assert.Zero(t, got[0].Snapshot.Elapsed, "elapsed is unsigned")
}

func TestCodec_Snapshot(t *testing.T) {
	c := NewCodec(0x100)
	in := sim.Snapshot{X: -1234.567, Y: 57.25, Z: -4012.003, Heading: 3.1, Pitch: -0.2, Roll: 0.35, Elapsed: 812.345}
	frames, err := c.EncodeSnapshot(1, in)
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, uint8(6), frames[2].Length)

	got, err := c.DecodeAll(frames)
	require.NoError(t, err)
	out := got[1].Snapshot
	assert.InDelta(t, in.X, out.X, 0.005)
	assert.InDelta(t, in.Y, out.Y, 0.005)
	assert.InDelta(t, in.Z, out.Z, 0.005)
	assert.InDelta(t, in.Heading, out.Heading, 1e-4)
	assert.InDelta(t, in.Roll, out.Roll, 1e-4)
	assert.InDelta(t, in.Elapsed, out.Elapsed, 5e-4)
}

func TestCodec_Errors(t *testing.T) {
	c := NewCodec(0x7fc)
	_, err := c.EncodeSnapshot(0, sim.Snapshot{})
	assert.Error(t, err, "attitude frame id 0x800 does not fit 11 bits")

	_, _, _, err = NewCodec(0x100).Decode(can.Frame{ID: 0x104, Length: 2})
	assert.Error(t, err, "short frame")
}
