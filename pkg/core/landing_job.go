package core

import (
	"context"
	"log/slog"
	"sync"

	"dronesim/pkg/airport"
	"dronesim/pkg/logging"
)

// Flight is one leg from lift-off until the drone rolls slower than the
// landing speed.
type Flight struct {
	DroneID   string  `json:"drone_id"`
	Index     int     `json:"index"`
	TakeOff   float64 `json:"takeoff"`
	Landed    float64 `json:"landed"`
	MaxHeight float64 `json:"max_height"`
	Airport   int     `json:"airport"` // -1 when it came down off any airport
}

// Duration is the airborne time plus the roll-out.
func (f Flight) Duration() float64 { return f.Landed - f.TakeOff }

// ViewSource yields the current state of every drone.
type ViewSource interface {
	Views() []DroneView
}

// LandingJob watches every drone for a lift-off followed by a slow roll on
// the ground and keeps a log of completed flights.
type LandingJob struct {
	BaseJob
	src      ViewSource
	airports airport.Set
	slow     float64
	log      *slog.Logger

	mu       sync.RWMutex
	airborne map[string]*Flight
	flights  []Flight
}

// NewLandingJob creates a job that closes a flight once ground speed drops
// below slow.
func NewLandingJob(src ViewSource, airports airport.Set, slow float64, logger *slog.Logger) *LandingJob {
	return &LandingJob{
		BaseJob:  NewBaseJob("LandingJob"),
		src:      src,
		airports: airports,
		slow:     slow,
		log:      logging.OrDefault(logger),
		airborne: make(map[string]*Flight),
	}
}

// ShouldFire is true on every tick; a touchdown can happen at any time.
func (j *LandingJob) ShouldFire(*Frame) bool { return true }

func (j *LandingJob) Run(_ context.Context, f *Frame) {
	if !j.TryLock() {
		return
	}
	defer j.Unlock()

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, v := range j.src.Views() {
		t := &v.Telemetry
		fl, flying := j.airborne[v.ID]

		if !t.IsOnGround {
			if !flying {
				fl = &Flight{DroneID: v.ID, Index: v.Index, TakeOff: f.Elapsed, Airport: -1}
				j.airborne[v.ID] = fl
				j.log.Debug("Drone airborne", "drone", v.Index, "t", f.Elapsed)
			}
			fl.MaxHeight = max(fl.MaxHeight, t.Y)
			continue
		}
		if !flying || t.GroundSpeed > j.slow {
			continue
		}

		fl.Landed = f.Elapsed
		if a, ok := j.airports.At(t.Position()); ok {
			fl.Airport = a.ID
		}
		delete(j.airborne, v.ID)
		j.flights = append(j.flights, *fl)
		j.log.Info("Drone landed",
			"drone", v.Index,
			"airport", fl.Airport,
			"duration", fl.Duration(),
			"max_height", fl.MaxHeight)
	}
}

// Flights returns the completed flights, oldest first.
func (j *LandingJob) Flights() []Flight {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Flight, len(j.flights))
	copy(out, j.flights)
	return out
}
