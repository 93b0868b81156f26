package core

import (
	"context"
	"log/slog"
	"time"

	"dronesim/pkg/config"
	"dronesim/pkg/logging"
)

// Scheduler advances simulated time at a fixed step and evaluates jobs after
// every tick. Jobs run on the scheduler goroutine and see a settled fleet.
type Scheduler struct {
	cfg   config.SimConfig
	fleet *Fleet
	jobs  []Job
	log   *slog.Logger

	tick    uint64
	elapsed float64
}

// NewScheduler creates a new Scheduler.
func NewScheduler(cfg config.SimConfig, fleet *Fleet, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:   cfg,
		fleet: fleet,
		log:   logging.OrDefault(logger),
	}
}

// AddJob registers a job.
func (s *Scheduler) AddJob(j Job) {
	s.jobs = append(s.jobs, j)
}

// Step runs one tick and the jobs that are due.
func (s *Scheduler) Step(ctx context.Context) error {
	dt := s.cfg.Tick.Seconds()
	if err := s.fleet.Tick(ctx, dt); err != nil {
		return err
	}
	s.tick++
	s.elapsed += dt

	f := Frame{Tick: s.tick, Elapsed: s.elapsed, Dt: dt}
	for _, job := range s.jobs {
		if job.ShouldFire(&f) {
			job.Run(ctx, &f)
		}
	}
	return nil
}

// Run steps until ctx is cancelled or the configured duration has passed.
// In realtime mode each tick waits for the wall clock.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.Tick)
	limit := s.cfg.Duration.Seconds()

	var ticker *time.Ticker
	if s.cfg.Realtime {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}

	s.log.Info("Scheduler started", "tick", interval, "realtime", s.cfg.Realtime, "duration", time.Duration(s.cfg.Duration))
	for {
		if limit > 0 && s.elapsed >= limit-1e-9 {
			s.log.Info("Scheduler finished", "ticks", s.tick, "elapsed", s.elapsed)
			return nil
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				s.log.Info("Scheduler stopped", "ticks", s.tick)
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			s.log.Info("Scheduler stopped", "ticks", s.tick)
			return nil
		}

		if err := s.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if len(s.fleet.Drones()) == 0 && len(s.fleet.Failures()) > 0 {
			s.log.Warn("Every drone has failed, stopping", "ticks", s.tick)
			return nil
		}
	}
}

// Elapsed is the simulated time since Run started.
func (s *Scheduler) Elapsed() float64 { return s.elapsed }

// Ticks is the number of completed ticks.
func (s *Scheduler) Ticks() uint64 { return s.tick }
