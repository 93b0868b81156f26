package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dronesim/pkg/airport"
	"dronesim/pkg/config"
	"dronesim/pkg/geo"
	"dronesim/pkg/guidance"
	"dronesim/pkg/logging"
	"dronesim/pkg/sim"
)

const (
	// telemetryWindow is the simulated time the published speeds average over.
	telemetryWindow = 1.0
	trackSamples    = 25
)

// Drone is one airframe with its autopilot and current mission.
type Drone struct {
	ID    string
	Index int

	engine  *sim.Engine
	ap      *guidance.Autopilot
	seq     *guidance.Sequence
	mission *guidance.Mission
	est     *sim.VelocityEstimator
	stage   *sim.StageTracker
	track   *geo.TrackBuffer
	tel     sim.Telemetry
	err     error
}

// Idle reports whether the drone has no mission left to fly.
func (d *Drone) Idle() bool {
	return d.seq == nil || d.seq.Done()
}

// Mission returns the mission being flown, if any.
func (d *Drone) Mission() (guidance.Mission, bool) {
	if d.mission == nil || d.Idle() {
		return guidance.Mission{}, false
	}
	return *d.mission, true
}

// Telemetry returns the record published for the last tick.
func (d *Drone) Telemetry() sim.Telemetry { return d.tel }

// Controls returns the outputs applied on the last tick.
func (d *Drone) Controls() sim.Controls { return d.engine.Controls() }

// Phase describes what the autopilot is doing.
func (d *Drone) Phase() string {
	if d.seq == nil {
		return guidance.Parked.String()
	}
	return d.seq.Name()
}

func (d *Drone) step(dt, rMax float64) error {
	snap := d.engine.Snapshot()
	c := sim.Brakes(rMax)
	if d.seq != nil {
		c = d.seq.Tick(snap)
	}
	if err := d.engine.Advance(c, dt); err != nil {
		return err
	}
	d.publish()
	return nil
}

func (d *Drone) publish() {
	snap := d.engine.Snapshot()
	v := d.est.Snapshot(snap)
	d.tel = sim.Telemetry{
		Snapshot:      snap,
		GroundSpeed:   sim.GroundSpeed(v),
		VerticalSpeed: v[1],
		Thrust:        d.engine.Controls().Thrust,
		IsOnGround:    d.engine.OnGround(),
		Track:         d.track.Push(geo.Ground(snap.Position()), snap.Heading),
	}
	d.tel.Stage = d.stage.Update(&d.tel)
}

// FailureRecord is kept for every drone removed after a failure.
type FailureRecord struct {
	DroneID string          `json:"drone_id"`
	Kind    sim.FailureKind `json:"kind"`
	Part    string          `json:"part"`
	Message string          `json:"message"`
	Tick    uint64          `json:"tick"`
	Elapsed float64         `json:"elapsed"`
}

// Fleet steps every active drone once per tick.
type Fleet struct {
	cfg      *config.Config
	airports airport.Set
	registry *airport.Registry
	log      *slog.Logger

	mu       sync.RWMutex
	drones   []*Drone
	failures []FailureRecord
	spawned  int
	tick     uint64
	elapsed  float64
}

// NewFleet creates an empty fleet over the registry's airports.
func NewFleet(cfg *config.Config, registry *airport.Registry, logger *slog.Logger) *Fleet {
	return &Fleet{
		cfg:      cfg,
		airports: registry.Airports(),
		registry: registry,
		log:      logging.OrDefault(logger),
	}
}

// Spawn parks a new drone on a gate.
func (f *Fleet) Spawn(s config.DroneSpawn) (*Drone, error) {
	a, ok := f.airports.ByID(s.Airport)
	if !ok {
		return nil, fmt.Errorf("spawn: unknown airport %d", s.Airport)
	}
	pos := a.Gate(s.Gate)
	pos[1] = sim.RestHeight(f.cfg.Drone)
	return f.Add(pos, a.SpawnHeading(s.PointingToRunway))
}

// Add places a drone at pos, at rest, facing heading.
func (f *Fleet) Add(pos mgl64.Vec3, heading float64) (*Drone, error) {
	id := uuid.NewString()
	eng, err := sim.New(f.cfg.Drone, pos, mgl64.Vec3{}, heading, sim.Options{
		CheckAOA: f.cfg.Sim.CheckAOA,
		Surface:  f.airports,
		Logger:   f.log.With("drone", id),
	})
	if err != nil {
		return nil, fmt.Errorf("drone %s: %w", id, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	d := &Drone{
		ID:     id,
		Index:  f.spawned,
		engine: eng,
		ap:     guidance.NewAutopilot(f.cfg.Drone, f.cfg.Guidance),
		est:    sim.NewVelocityEstimator(telemetryWindow),
		stage:  sim.NewStageTracker(),
		track:  geo.NewTrackBuffer(trackSamples),
	}
	d.publish()
	f.spawned++
	f.drones = append(f.drones, d)
	f.registry.Update(id, pos)
	f.log.Info("Drone spawned", "drone", id, "index", d.Index, "x", pos[0], "z", pos[2])
	return d, nil
}

// Assign starts mission m on d. The drone must be idle.
func (f *Fleet) Assign(d *Drone, m guidance.Mission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !d.Idle() {
		return fmt.Errorf("drone %s is busy", d.ID)
	}
	d.ap.Reset()
	seq, err := guidance.Plan(d.ap, f.airports, f.registry, m, f.log.With("drone", d.ID))
	if err != nil {
		return err
	}
	d.seq = seq
	d.mission = &m
	f.log.Info("Mission assigned", "drone", d.ID, "from", m.From, "to", m.To, "to_gate", m.ToGate, "height", m.Height)
	return nil
}

// Tick advances every drone by dt seconds. Drone failures are recorded and
// the drone is dropped; only context cancellation is returned.
func (f *Fleet) Tick(ctx context.Context, dt float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rMax := f.cfg.Drone.RMax
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Sim.Workers)
	for _, d := range f.drones {
		d := d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d.err = d.step(dt, rMax)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.tick++
	f.elapsed += dt
	alive := f.drones[:0]
	for _, d := range f.drones {
		if d.err != nil {
			f.fail(d)
			continue
		}
		alive = append(alive, d)
		f.registry.Update(d.ID, d.engine.Snapshot().Position())
		id := -1
		if d.seq != nil {
			if a, ok := d.seq.Landing(); ok {
				id = a
			}
		}
		f.registry.SetLanding(d.ID, id)
	}
	for i := len(alive); i < len(f.drones); i++ {
		f.drones[i] = nil
	}
	f.drones = alive
	return nil
}

func (f *Fleet) fail(d *Drone) {
	rec := FailureRecord{
		DroneID: d.ID,
		Message: d.err.Error(),
		Tick:    f.tick,
		Elapsed: f.elapsed,
	}
	var fe *sim.Failure
	if errors.As(d.err, &fe) {
		rec.Kind = fe.Kind
		rec.Part = fe.Part
	}
	f.failures = append(f.failures, rec)
	f.registry.Remove(d.ID)
	f.log.Error("Drone lost", "drone", d.ID, "tick", f.tick, "phase", d.Phase(), "error", d.err)
}

// Drones returns the active drones. The slice is a copy; the drones are
// shared and must only be read between ticks.
func (f *Fleet) Drones() []*Drone {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Drone, len(f.drones))
	copy(out, f.drones)
	return out
}

// Failures returns the failure records in the order they happened.
func (f *Fleet) Failures() []FailureRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]FailureRecord, len(f.failures))
	copy(out, f.failures)
	return out
}

// Inbound reports whether some drone is flying a mission to the gate.
func (f *Fleet) Inbound(airportID, gate int) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, d := range f.drones {
		if m, ok := d.Mission(); ok && m.To == airportID && m.ToGate == gate {
			return true
		}
	}
	return false
}

// Elapsed is the simulated time since the fleet started.
func (f *Fleet) Elapsed() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.elapsed
}

// DroneView is a read-only copy of one drone for the API and the bus.
type DroneView struct {
	ID        string            `json:"id"`
	Index     int               `json:"index"`
	Telemetry sim.Telemetry     `json:"telemetry"`
	Controls  sim.Controls      `json:"controls"`
	Phase     string            `json:"phase"`
	Mission   *guidance.Mission `json:"mission,omitempty"`
}

// Views copies the state of every active drone.
func (f *Fleet) Views() []DroneView {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]DroneView, 0, len(f.drones))
	for _, d := range f.drones {
		v := DroneView{
			ID:        d.ID,
			Index:     d.Index,
			Telemetry: d.tel,
			Controls:  d.engine.Controls(),
			Phase:     d.Phase(),
		}
		if m, ok := d.Mission(); ok {
			v.Mission = &m
		}
		out = append(out, v)
	}
	return out
}
