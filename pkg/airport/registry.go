package airport

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Occupancy answers whether an approach to a gate may proceed. It has no
// side effects on guidance or physics.
type Occupancy interface {
	IsFree(airportID, gate int) bool
}

type tracked struct {
	pos     mgl64.Vec3
	placed  bool
	landing int // airport id, or -1
}

// Registry tracks drone positions and landing intents. The fleet updates it
// once per tick; guidance queries it through Occupancy.
type Registry struct {
	mu       sync.RWMutex
	airports Set
	drones   map[string]*tracked
}

// NewRegistry creates an empty registry over the given airports.
func NewRegistry(airports Set) *Registry {
	return &Registry{
		airports: airports,
		drones:   make(map[string]*tracked),
	}
}

// Airports returns the airports the registry was built with.
func (r *Registry) Airports() Set {
	return r.airports
}

// Update records the latest position of a drone.
func (r *Registry) Update(id string, pos mgl64.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drones[id]
	if !ok {
		d = &tracked{landing: -1}
		r.drones[id] = d
	}
	d.pos = pos
	d.placed = true
}

// SetLanding marks a drone as landing at airportID, or clears the mark when
// airportID is negative.
func (r *Registry) SetLanding(id string, airportID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drones[id]
	if !ok {
		d = &tracked{}
		r.drones[id] = d
	}
	d.landing = airportID
}

// Remove forgets a drone, e.g. after a fatal failure.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drones, id)
}

// Where returns the airport and location a drone is standing on.
func (r *Registry) Where(id string) (*Airport, Location, bool) {
	r.mu.RLock()
	d, ok := r.drones[id]
	var pos mgl64.Vec3
	if ok {
		pos = d.pos
		ok = d.placed
	}
	r.mu.RUnlock()
	if !ok {
		return nil, None, false
	}
	a, ok := r.airports.At(pos)
	if !ok {
		return nil, None, false
	}
	return a, a.Locate(pos), true
}

// IsFree implements Occupancy. A gate is taken when some drone stands on that
// gate or on either runway lane, or when some drone is landing at the airport.
func (r *Registry) IsFree(airportID, gate int) bool {
	a, ok := r.airports.ByID(airportID)
	if !ok {
		return false
	}
	want := GateLocation(gate)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.drones {
		if d.placed && a.OnFullAirport(d.pos) {
			switch a.Locate(d.pos) {
			case want, Lane0, Lane1:
				return false
			}
		}
		if d.landing == airportID {
			return false
		}
	}
	return true
}
