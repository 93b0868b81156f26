package wire

import (
	"context"
	"errors"
	"fmt"
)

// Publisher sends every sample to the bus and, when set, to a recorder.
type Publisher struct {
	codec    *Codec
	bus      FrameWriter
	recorder *Recorder
}

// NewPublisher creates a publisher. Either bus or recorder may be nil.
func NewPublisher(codec *Codec, bus FrameWriter, recorder *Recorder) *Publisher {
	return &Publisher{codec: codec, bus: bus, recorder: recorder}
}

// Publish encodes and sends one tick.
func (p *Publisher) Publish(ctx context.Context, rec *Record) error {
	if p.bus != nil {
		if err := p.send(ctx, rec); err != nil {
			return err
		}
	}
	if p.recorder != nil {
		return p.recorder.Write(rec)
	}
	return nil
}

func (p *Publisher) send(ctx context.Context, rec *Record) error {
	for _, s := range rec.Samples {
		ctl, err := p.codec.EncodeControls(s.Index, s.Controls)
		if err != nil {
			return fmt.Errorf("drone %s: %w", s.ID, err)
		}
		snap, err := p.codec.EncodeSnapshot(s.Index, s.Snapshot)
		if err != nil {
			return fmt.Errorf("drone %s: %w", s.ID, err)
		}
		for _, f := range append(ctl, snap...) {
			if err := p.bus.WriteFrame(ctx, f); err != nil {
				return fmt.Errorf("drone %s: write frame 0x%x: %w", s.ID, f.ID, err)
			}
		}
	}
	return nil
}

// Close closes the bus and the recorder.
func (p *Publisher) Close() error {
	var errs []error
	if p.bus != nil {
		if err := p.bus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.recorder != nil {
		if err := p.recorder.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
