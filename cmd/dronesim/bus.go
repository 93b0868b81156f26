package main

import (
	"context"
	"fmt"
	"log/slog"

	"dronesim/pkg/config"
	"dronesim/pkg/core"
	"dronesim/pkg/wire"
)

// busExporter samples the fleet every few ticks and hands the result to the
// CAN bus and the recorder.
type busExporter struct {
	cfg       *config.BusConfig
	fleet     *core.Fleet
	publisher *wire.Publisher
	logger    *slog.Logger
	failed    bool // first publish error already logged
}

// newBusExporter returns nil when neither the bus nor the recording is
// enabled.
func newBusExporter(ctx context.Context, cfg *config.BusConfig, fleet *core.Fleet, logger *slog.Logger) (*busExporter, error) {
	if !cfg.Enabled && cfg.RecordPath == "" {
		return nil, nil
	}

	var writer wire.FrameWriter
	if cfg.Enabled {
		if cfg.Interface != "" {
			w, err := wire.DialSocketCAN(ctx, cfg.Interface)
			if err != nil {
				return nil, fmt.Errorf("bus: %w", err)
			}
			writer = w
			logger.Info("CAN bus connected", "interface", cfg.Interface, "base_id", fmt.Sprintf("0x%x", cfg.BaseID))
		} else {
			writer = wire.NewLogWriter(logger)
		}
	}

	var recorder *wire.Recorder
	if cfg.RecordPath != "" {
		r, err := wire.CreateRecorder(cfg.RecordPath)
		if err != nil {
			if writer != nil {
				_ = writer.Close()
			}
			return nil, fmt.Errorf("bus: %w", err)
		}
		recorder = r
		logger.Info("Recording", "path", cfg.RecordPath)
	}

	return &busExporter{
		cfg:       cfg,
		fleet:     fleet,
		publisher: wire.NewPublisher(wire.NewCodec(cfg.BaseID), writer, recorder),
		logger:    logger,
	}, nil
}

// Job fires every cfg.Every ticks.
func (b *busExporter) Job() *core.TickJob {
	return core.NewTickJob("Bus", b.cfg.Every, func(ctx context.Context, f core.Frame) {
		if err := b.publisher.Publish(ctx, sample(f, b.fleet.Views())); err != nil && !b.failed {
			b.failed = true
			b.logger.Error("Bus publish failed", "tick", f.Tick, "error", err)
		}
	})
}

func (b *busExporter) Close() error {
	return b.publisher.Close()
}

func sample(f core.Frame, views []core.DroneView) *wire.Record {
	rec := &wire.Record{
		Tick:    f.Tick,
		Elapsed: f.Elapsed,
		Samples: make([]wire.Sample, 0, len(views)),
	}
	for _, v := range views {
		rec.Samples = append(rec.Samples, wire.Sample{
			ID:       v.ID,
			Index:    v.Index,
			Phase:    v.Phase,
			Stage:    v.Telemetry.Stage,
			Snapshot: v.Telemetry.Snapshot,
			Controls: v.Controls,
		})
	}
	return rec
}
