// Package wire puts controls and snapshots on a CAN bus and records them
// to a msgpack stream for replay.
package wire

import (
	"errors"
	"fmt"
	"math"

	"go.einride.tech/can"

	"dronesim/pkg/sim"
)

// Each drone owns a block of idsPerDrone consecutive frame ids.
const idsPerDrone = 8

// Frame offsets inside a drone's id block.
const (
	FrameSurfaces uint32 = iota
	FrameDrive
	FramePosition
	FrameHeightTime
	FrameAttitude
)

// ErrUnknownFrame is returned when decoding an id the codec does not own.
var ErrUnknownFrame = errors.New("unknown frame id")

// Signal is one scaled integer field of a frame: phys = raw*Factor + Offset.
type Signal struct {
	Name      string
	StartBit  uint8
	BitLength uint8
	Signed    bool
	Factor    float64
	Offset    float64
}

// FrameDef describes one frame layout.
type FrameDef struct {
	Name    string
	Offset  uint32
	DLC     uint8
	Signals []Signal
}

func int16Signal(name string, start uint8, factor float64) Signal {
	return Signal{Name: name, StartBit: start, BitLength: 16, Signed: true, Factor: factor}
}

func int32Signal(name string, start uint8, factor float64) Signal {
	return Signal{Name: name, StartBit: start, BitLength: 32, Signed: true, Factor: factor}
}

// Layout is the frame set every drone publishes.
var Layout = []FrameDef{
	{Name: "surfaces", Offset: FrameSurfaces, DLC: 8, Signals: []Signal{
		int16Signal("left_wing", 0, 1e-4),
		int16Signal("right_wing", 16, 1e-4),
		int16Signal("hor_stab", 32, 1e-4),
		int16Signal("ver_stab", 48, 1e-4),
	}},
	{Name: "drive", Offset: FrameDrive, DLC: 8, Signals: []Signal{
		int16Signal("thrust", 0, 0.1),
		int16Signal("left_brake", 16, 0.1),
		int16Signal("front_brake", 32, 0.1),
		int16Signal("right_brake", 48, 0.1),
	}},
	{Name: "position", Offset: FramePosition, DLC: 8, Signals: []Signal{
		int32Signal("x", 0, 0.01),
		int32Signal("z", 32, 0.01),
	}},
	{Name: "height_time", Offset: FrameHeightTime, DLC: 8, Signals: []Signal{
		int32Signal("y", 0, 0.01),
		{Name: "elapsed", StartBit: 32, BitLength: 32, Factor: 0.001},
	}},
	{Name: "attitude", Offset: FrameAttitude, DLC: 6, Signals: []Signal{
		int16Signal("heading", 0, 1e-4),
		int16Signal("pitch", 16, 1e-4),
		int16Signal("roll", 32, 1e-4),
	}},
}

// Codec maps drones onto frame ids starting at a base id.
type Codec struct {
	base uint32
}

// NewCodec creates a codec whose first drone starts at base.
func NewCodec(base uint32) *Codec {
	return &Codec{base: base}
}

// ID returns the frame id of a frame offset for a drone index.
func (c *Codec) ID(index int, offset uint32) uint32 {
	return c.base + uint32(index)*idsPerDrone + offset
}

// Locate splits a frame id into drone index and frame definition.
func (c *Codec) Locate(id uint32) (int, *FrameDef, error) {
	if id < c.base {
		return 0, nil, fmt.Errorf("%w: 0x%x", ErrUnknownFrame, id)
	}
	rel := id - c.base
	off := rel % idsPerDrone
	for i := range Layout {
		if Layout[i].Offset == off {
			return int(rel / idsPerDrone), &Layout[i], nil
		}
	}
	return 0, nil, fmt.Errorf("%w: 0x%x", ErrUnknownFrame, id)
}

// Encode packs values into the frame def for a drone. Missing values
// encode as zero; out of range values saturate.
func (c *Codec) Encode(index int, def *FrameDef, values map[string]float64) (can.Frame, error) {
	f := can.Frame{ID: c.ID(index, def.Offset), Length: def.DLC}
	for _, s := range def.Signals {
		raw := math.Round((values[s.Name] - s.Offset) / s.Factor)
		if s.Signed {
			f.Data.SetSignedBitsLittleEndian(s.StartBit, s.BitLength, clampSigned(raw, s.BitLength))
		} else {
			f.Data.SetUnsignedBitsLittleEndian(s.StartBit, s.BitLength, clampUnsigned(raw, s.BitLength))
		}
	}
	if err := f.Validate(); err != nil {
		return can.Frame{}, fmt.Errorf("frame %s: %w", def.Name, err)
	}
	return f, nil
}

// Decode unpacks a frame into its drone index, definition and values.
func (c *Codec) Decode(f can.Frame) (int, *FrameDef, map[string]float64, error) {
	index, def, err := c.Locate(f.ID)
	if err != nil {
		return 0, nil, nil, err
	}
	if f.Length < def.DLC {
		return 0, nil, nil, fmt.Errorf("frame %s expects DLC %d, got %d", def.Name, def.DLC, f.Length)
	}
	out := make(map[string]float64, len(def.Signals))
	for _, s := range def.Signals {
		var raw float64
		if s.Signed {
			raw = float64(f.Data.SignedBitsLittleEndian(s.StartBit, s.BitLength))
		} else {
			raw = float64(f.Data.UnsignedBitsLittleEndian(s.StartBit, s.BitLength))
		}
		out[s.Name] = raw*s.Factor + s.Offset
	}
	return index, def, out, nil
}

func clampSigned(raw float64, bits uint8) int64 {
	hi := float64(int64(1)<<(bits-1) - 1)
	lo := -hi - 1
	return int64(math.Max(lo, math.Min(hi, raw)))
}

func clampUnsigned(raw float64, bits uint8) uint64 {
	hi := float64(uint64(1)<<bits - 1)
	return uint64(math.Max(0, math.Min(hi, raw)))
}

// EncodeControls packs c into the surfaces and drive frames.
func (c *Codec) EncodeControls(index int, ctl sim.Controls) ([]can.Frame, error) {
	values := map[string]float64{
		"left_wing":   ctl.LeftWing,
		"right_wing":  ctl.RightWing,
		"hor_stab":    ctl.HorStab,
		"ver_stab":    ctl.VerStab,
		"thrust":      ctl.Thrust,
		"left_brake":  ctl.LeftBrake,
		"front_brake": ctl.FrontBrake,
		"right_brake": ctl.RightBrake,
	}
	return c.encodeAll(index, values, FrameSurfaces, FrameDrive)
}

// EncodeSnapshot packs s into the position, height/time and attitude frames.
func (c *Codec) EncodeSnapshot(index int, s sim.Snapshot) ([]can.Frame, error) {
	values := map[string]float64{
		"x":       s.X,
		"y":       s.Y,
		"z":       s.Z,
		"elapsed": s.Elapsed,
		"heading": s.Heading,
		"pitch":   s.Pitch,
		"roll":    s.Roll,
	}
	return c.encodeAll(index, values, FramePosition, FrameHeightTime, FrameAttitude)
}

func (c *Codec) encodeAll(index int, values map[string]float64, offsets ...uint32) ([]can.Frame, error) {
	out := make([]can.Frame, 0, len(offsets))
	for _, off := range offsets {
		f, err := c.Encode(index, &Layout[off], values)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Decoded accumulates frames of one drone back into controls and a
// snapshot.
type Decoded struct {
	Index    int
	Controls sim.Controls
	Snapshot sim.Snapshot
}

// DecodeAll folds frames into one Decoded per drone index.
func (c *Codec) DecodeAll(frames []can.Frame) (map[int]*Decoded, error) {
	out := make(map[int]*Decoded)
	for _, f := range frames {
		index, def, v, err := c.Decode(f)
		if err != nil {
			return nil, err
		}
		d, ok := out[index]
		if !ok {
			d = &Decoded{Index: index}
			out[index] = d
		}
		switch def.Offset {
		case FrameSurfaces:
			d.Controls.LeftWing, d.Controls.RightWing = v["left_wing"], v["right_wing"]
			d.Controls.HorStab, d.Controls.VerStab = v["hor_stab"], v["ver_stab"]
		case FrameDrive:
			d.Controls.Thrust = v["thrust"]
			d.Controls.LeftBrake, d.Controls.FrontBrake, d.Controls.RightBrake = v["left_brake"], v["front_brake"], v["right_brake"]
		case FramePosition:
			d.Snapshot.X, d.Snapshot.Z = v["x"], v["z"]
		case FrameHeightTime:
			d.Snapshot.Y, d.Snapshot.Elapsed = v["y"], v["elapsed"]
		case FrameAttitude:
			d.Snapshot.Heading, d.Snapshot.Pitch, d.Snapshot.Roll = v["heading"], v["pitch"], v["roll"]
		}
	}
	return out, nil
}
