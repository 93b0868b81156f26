package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"

	"dronesim/pkg/airport"
	"dronesim/pkg/config"
	"dronesim/pkg/geo"
	"dronesim/pkg/sim"
)

// Preflight returns the standard checks for cfg.
func Preflight(cfg *config.Config) []Probe {
	return []Probe{
		{Name: "Config", Critical: true, Check: func(context.Context) error { return cfg.Validate() }},
		{Name: "Airports", Critical: true, Check: func(context.Context) error { return checkAirports(&cfg.World) }},
		{Name: "Drone placement", Critical: true, Check: func(context.Context) error { return checkPlacement(cfg) }},
		{Name: "Inertia", Critical: true, Check: func(context.Context) error { return checkInertia(cfg.Drone) }},
		{Name: "Log file", Critical: false, Check: func(context.Context) error { return checkLogFile(cfg.Log.Path) }},
	}
}

func checkAirports(w *config.WorldConfig) error {
	if len(w.Airports) == 0 {
		return errors.New("no airports defined")
	}
	set := airport.FromConfig(w)
	for i, a := range set {
		for _, b := range set[i+1:] {
			if geo.Contains(a.Footprint(), geo.Ground(b.Position)) || geo.Contains(b.Footprint(), geo.Ground(a.Position)) {
				return fmt.Errorf("airports %d and %d overlap", a.ID, b.ID)
			}
		}
	}
	return nil
}

// checkPlacement spawns every drone on paper: its gate must be paved and no
// two drones may share a gate.
func checkPlacement(cfg *config.Config) error {
	set := airport.Set(airport.FromConfig(&cfg.World))
	rest := sim.RestHeight(cfg.Drone)
	taken := make(map[[2]int]int)

	var errs []error
	for i, d := range cfg.World.Drones {
		a, ok := set.ByID(d.Airport)
		if !ok {
			errs = append(errs, fmt.Errorf("drone %d: unknown airport %d", i, d.Airport))
			continue
		}
		pos := a.Gate(d.Gate).Add(mgl64.Vec3{0, rest, 0})
		if !set.OnPaved(pos) || !a.OnFullAirport(pos) {
			errs = append(errs, fmt.Errorf("drone %d: gate %d of airport %d is not paved", i, d.Gate, d.Airport))
		}
		key := [2]int{d.Airport, d.Gate}
		if other, dup := taken[key]; dup {
			errs = append(errs, fmt.Errorf("drones %d and %d share gate %d of airport %d", other, i, d.Gate, d.Airport))
			continue
		}
		taken[key] = i
	}
	return errors.Join(errs...)
}

func checkInertia(d config.DroneConfig) error {
	in := sim.Inertia(d)
	for axis, v := range in {
		if !(v > 0) {
			return fmt.Errorf("moment of inertia about axis %d is %g", axis, v)
		}
	}
	return nil
}

func checkLogFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
