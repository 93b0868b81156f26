package core

import (
	"context"
	"log/slog"
	"sync"

	"dronesim/pkg/airport"
	"dronesim/pkg/config"
	"dronesim/pkg/guidance"
	"dronesim/pkg/logging"
)

// Dispatcher hands queued deliveries to idle drones. Missions it cannot
// place stay queued for the next cycle.
type Dispatcher struct {
	fleet *Fleet
	guide config.GuidanceConfig
	log   *slog.Logger

	mu    sync.Mutex
	queue []config.MissionConfig
}

// NewDispatcher creates a dispatcher with an empty queue.
func NewDispatcher(fleet *Fleet, guide config.GuidanceConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		fleet: fleet,
		guide: guide,
		log:   logging.OrDefault(logger),
	}
}

// Enqueue adds a delivery to the back of the queue.
func (d *Dispatcher) Enqueue(m config.MissionConfig) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, m)
	d.log.Debug("Mission queued", "from", m.From, "from_gate", m.FromGate, "to", m.To, "to_gate", m.ToGate)
}

// Pending returns the queued deliveries.
func (d *Dispatcher) Pending() []config.MissionConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]config.MissionConfig, len(d.queue))
	copy(out, d.queue)
	return out
}

// Dispatch runs one scheduling cycle and returns how many missions started.
func (d *Dispatcher) Dispatch() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	started := 0
	kept := d.queue[:0]
	for _, m := range d.queue {
		if d.fleet.Inbound(m.To, m.ToGate) {
			d.log.Debug("Mission deferred, destination gate has inbound traffic", "to", m.To, "to_gate", m.ToGate)
			kept = append(kept, m)
			continue
		}
		drone := d.chooseDrone(m.From, m.FromGate)
		if drone == nil {
			d.log.Debug("Mission deferred, no idle drone", "from", m.From, "from_gate", m.FromGate)
			kept = append(kept, m)
			continue
		}
		mission := guidance.Mission{
			From:     m.From,
			FromGate: m.FromGate,
			To:       m.To,
			ToGate:   m.ToGate,
			Height:   d.guide.CruiseAltitude + float64(drone.Index)*d.guide.AltitudeSlice,
		}
		if err := d.fleet.Assign(drone, mission); err != nil {
			d.log.Warn("Mission assignment failed", "drone", drone.ID, "error", err)
			kept = append(kept, m)
			continue
		}
		started++
	}
	d.queue = kept
	return started
}

// chooseDrone prefers an idle drone on the pickup gate, then any idle drone
// on the pickup airport.
func (d *Dispatcher) chooseDrone(airportID, gate int) *Drone {
	var fallback *Drone
	for _, drone := range d.fleet.Drones() {
		if !drone.Idle() {
			continue
		}
		a, loc, ok := d.fleet.registry.Where(drone.ID)
		if !ok || a.ID != airportID {
			continue
		}
		if loc == airport.GateLocation(gate) {
			return drone
		}
		if fallback == nil {
			fallback = drone
		}
	}
	return fallback
}

// Job wraps Dispatch in a job firing every interval of simulated time.
func (d *Dispatcher) Job(interval float64) *SimTimeJob {
	return NewSimTimeJob("Dispatcher", interval, func(context.Context, Frame) {
		d.Dispatch()
	})
}
