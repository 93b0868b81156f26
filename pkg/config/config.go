package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Drone    DroneConfig    `yaml:"drone"`
	Sim      SimConfig      `yaml:"sim"`
	Guidance GuidanceConfig `yaml:"guidance"`
	World    WorldConfig    `yaml:"world"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Bus      BusConfig      `yaml:"bus"`
}

// DroneConfig holds the static physical constants of the airframe. It is
// shared by every drone and never changes once the engines are built.
type DroneConfig struct {
	Gravity     float64 `yaml:"gravity"`
	WingX       float64 `yaml:"wing_x"`
	TailSize    float64 `yaml:"tail_size"`
	WheelY      float64 `yaml:"wheel_y"`
	FrontWheelZ float64 `yaml:"front_wheel_z"`
	RearWheelZ  float64 `yaml:"rear_wheel_z"`
	RearWheelX  float64 `yaml:"rear_wheel_x"`
	TyreSlope   float64 `yaml:"tyre_slope"`
	DampSlope   float64 `yaml:"damp_slope"`
	TyreRadius  float64 `yaml:"tyre_radius"`
	RMax        float64 `yaml:"r_max"`
	FcMax       float64 `yaml:"fc_max"`
	EngineMass  float64 `yaml:"engine_mass"`
	WingMass    float64 `yaml:"wing_mass"`
	TailMass    float64 `yaml:"tail_mass"`
	MaxThrust   float64 `yaml:"max_thrust"`
	MaxAOA      Angle   `yaml:"max_aoa"`

	WingLiftSlope    float64 `yaml:"wing_lift_slope"`
	HorStabLiftSlope float64 `yaml:"hor_stab_lift_slope"`
	VerStabLiftSlope float64 `yaml:"ver_stab_lift_slope"`
}

// TotalMass returns engine + two wings + tail.
func (d DroneConfig) TotalMass() float64 {
	return d.EngineMass + 2*d.WingMass + d.TailMass
}

// SimConfig holds the stepping parameters.
type SimConfig struct {
	Tick             Duration `yaml:"tick"`
	Duration         Duration `yaml:"duration"` // 0 runs until cancelled
	Workers          int      `yaml:"workers"`
	CheckAOA         bool     `yaml:"check_aoa"`
	Realtime         bool     `yaml:"realtime"`
	DispatchInterval Duration `yaml:"dispatch_interval"`
}

// GuidanceConfig holds autopilot tuning that is not part of the airframe.
type GuidanceConfig struct {
	CruiseAltitude   float64  `yaml:"cruise_altitude"`
	AltitudeSlice    float64  `yaml:"altitude_slice"`
	TurnRadius       Distance `yaml:"turn_radius"`
	ClimbAngle       Angle    `yaml:"climb_angle"`
	TakeoffSpeed     float64  `yaml:"takeoff_speed"`
	TakeoffClearance float64  `yaml:"takeoff_clearance"`
	GlideAngle       Angle    `yaml:"glide_angle"`
	FlareHeight      float64  `yaml:"flare_height"`
	TaxiFarSpeed     float64  `yaml:"taxi_far_speed"`
	TaxiNearSpeed    float64  `yaml:"taxi_near_speed"`
	TaxiNearDistance Distance `yaml:"taxi_near_distance"`
	TaxiStopDistance Distance `yaml:"taxi_stop_distance"`
}

// WorldConfig describes airports, the initial drone placement and the
// delivery missions handed to the dispatcher.
type WorldConfig struct {
	AirportWidth  float64         `yaml:"airport_width"`
	AirportLength float64         `yaml:"airport_length"`
	Airports      []AirportConfig `yaml:"airports"`
	Drones        []DroneSpawn    `yaml:"drones"`
	Missions      []MissionConfig `yaml:"missions"`
}

// AirportConfig places one airport. Either Heading or CenterToRunway0 is used;
// a non-zero CenterToRunway0 wins.
type AirportConfig struct {
	X               float64    `yaml:"x"`
	Z               float64    `yaml:"z"`
	Heading         Angle      `yaml:"heading"`
	CenterToRunway0 [2]float64 `yaml:"center_to_runway0,flow"`
}

// HeadingRadians returns the airport heading.
func (a AirportConfig) HeadingRadians() float64 {
	if a.CenterToRunway0 != [2]float64{} {
		return math.Atan2(-a.CenterToRunway0[0], -a.CenterToRunway0[1])
	}
	return float64(a.Heading)
}

// DroneSpawn puts a drone on a gate, nose towards runway 0 or runway 1.
type DroneSpawn struct {
	Airport          int `yaml:"airport"`
	Gate             int `yaml:"gate"`
	PointingToRunway int `yaml:"pointing_to_runway"`
}

// MissionConfig is one delivery leg.
type MissionConfig struct {
	From     int `yaml:"from" json:"from"`
	FromGate int `yaml:"from_gate" json:"from_gate"`
	To       int `yaml:"to" json:"to"`
	ToGate   int `yaml:"to_gate" json:"to_gate"`
}

// Validate checks m against a world of the given number of airports.
func (m MissionConfig) Validate(airports int) error {
	if m.From < 0 || m.From >= airports || m.To < 0 || m.To >= airports {
		return errors.New("unknown airport")
	}
	if m.FromGate < 0 || m.FromGate > 1 || m.ToGate < 0 || m.ToGate > 1 {
		return errors.New("gate must be 0 or 1")
	}
	return nil
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path       string `yaml:"path"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ServerConfig holds the telemetry HTTP server settings.
type ServerConfig struct {
	Address        string   `yaml:"address"`
	StreamInterval Duration `yaml:"stream_interval"`
}

// BusConfig controls export of controls and snapshots to the actuator bus
// and the msgpack recording.
type BusConfig struct {
	Enabled    bool   `yaml:"enabled"`
	BaseID     uint32 `yaml:"base_id"`
	Interface  string `yaml:"interface"` // socketcan interface, empty logs frames only
	RecordPath string `yaml:"record_path"`
	Every      int    `yaml:"every"` // ticks between frames
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Drone: DroneConfig{
			Gravity:          9.81,
			WingX:            4.2,
			TailSize:         4.2,
			WheelY:           -1.21,
			FrontWheelZ:      -1.6,
			RearWheelZ:       0.5,
			RearWheelX:       1.2,
			TyreSlope:        50000,
			DampSlope:        5000,
			TyreRadius:       0.2,
			RMax:             1500,
			FcMax:            0.7,
			EngineMass:       180,
			WingMass:         100,
			TailMass:         100,
			MaxThrust:        2000,
			MaxAOA:           Deg(15),
			WingLiftSlope:    10,
			HorStabLiftSlope: 5,
			VerStabLiftSlope: 5,
		},
		Sim: SimConfig{
			Tick:             Duration(10 * time.Millisecond),
			Workers:          4,
			CheckAOA:         true,
			DispatchInterval: Duration(time.Second),
		},
		Guidance: GuidanceConfig{
			CruiseAltitude:   50,
			AltitudeSlice:    7,
			TurnRadius:       556,
			ClimbAngle:       Deg(25),
			TakeoffSpeed:     40,
			TakeoffClearance: 20,
			GlideAngle:       Deg(3),
			FlareHeight:      3,
			TaxiFarSpeed:     10,
			TaxiNearSpeed:    3,
			TaxiNearDistance: 25,
			TaxiStopDistance: 12.5,
		},
		World: WorldConfig{
			AirportWidth:  60,
			AirportLength: 300,
			Airports: []AirportConfig{
				{X: 0, Z: 0},
				{X: 0, Z: -4000},
			},
			Drones: []DroneSpawn{
				{Airport: 0, Gate: 0, PointingToRunway: 0},
				{Airport: 1, Gate: 1, PointingToRunway: 0},
			},
			Missions: []MissionConfig{
				{From: 0, FromGate: 0, To: 1, ToGate: 0},
			},
		},
		Log: LogConfig{
			Path:       "logs/dronesim.log",
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Server: ServerConfig{
			Address:        "localhost:1921",
			StreamInterval: Duration(200 * time.Millisecond),
		},
		Bus: BusConfig{
			BaseID: 0x100,
			Every:  10,
		},
	}
}

// Load reads configuration from path, writing defaults if the file is missing.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create config directory: %w", err)
			}
		}
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path with a short header describing the units.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# dronesim configuration
# ---------------------
# Supported Units:
#   Duration: ns, us, ms, s, m, h (bare numbers are seconds)
#   Distance: m, km, ft (bare numbers are meters)
#   Angle:    deg, rad (bare numbers are degrees)

`)
	data = append(header, data...)

	reLevel := regexp.MustCompile(`(?m)^(\s+)level:`)
	data = reLevel.ReplaceAll(data, []byte("${1}# Options: TRACE, DEBUG, INFO, WARN, ERROR\n${1}level:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Sentinel validation errors.
var (
	ErrNoAirports  = errors.New("no airports defined")
	ErrBadAirframe = errors.New("airframe constants out of range")
)

// Validate checks the invariants the engine and guidance rely on.
func (c *Config) Validate() error {
	d := c.Drone
	switch {
	case d.EngineMass <= 0 || d.WingMass <= 0 || d.TailMass <= 0:
		return fmt.Errorf("%w: masses must be positive", ErrBadAirframe)
	case d.WingX <= 0 || d.TailSize <= 0:
		return fmt.Errorf("%w: wing_x and tail_size must be positive", ErrBadAirframe)
	case d.TyreRadius <= 0:
		return fmt.Errorf("%w: tyre_radius must be positive", ErrBadAirframe)
	case d.MaxThrust <= 0 || d.RMax < 0:
		return fmt.Errorf("%w: max_thrust must be positive and r_max non-negative", ErrBadAirframe)
	case d.MaxAOA <= 0:
		return fmt.Errorf("%w: max_aoa must be positive", ErrBadAirframe)
	}

	if c.Sim.Tick <= 0 {
		return fmt.Errorf("sim.tick must be positive, got %v", time.Duration(c.Sim.Tick))
	}
	if c.Sim.Workers < 1 {
		return fmt.Errorf("sim.workers must be at least 1, got %d", c.Sim.Workers)
	}
	if c.Guidance.TurnRadius <= 0 {
		return fmt.Errorf("guidance.turn_radius must be positive")
	}

	w := c.World
	if len(w.Airports) == 0 {
		return ErrNoAirports
	}
	if w.AirportWidth <= 0 || w.AirportLength <= 0 {
		return fmt.Errorf("world airport dimensions must be positive")
	}
	for i, s := range w.Drones {
		if s.Airport < 0 || s.Airport >= len(w.Airports) {
			return fmt.Errorf("drone %d: unknown airport %d", i, s.Airport)
		}
		if s.Gate != 0 && s.Gate != 1 {
			return fmt.Errorf("drone %d: gate must be 0 or 1, got %d", i, s.Gate)
		}
		if s.PointingToRunway != 0 && s.PointingToRunway != 1 {
			return fmt.Errorf("drone %d: pointing_to_runway must be 0 or 1, got %d", i, s.PointingToRunway)
		}
	}
	if c.Bus.Enabled && int(c.Bus.BaseID)+8*len(w.Drones) > 0x7ff {
		return fmt.Errorf("bus.base_id 0x%x leaves no room for %d drones in the 11-bit id space", c.Bus.BaseID, len(w.Drones))
	}
	for i, m := range w.Missions {
		if err := m.Validate(len(w.Airports)); err != nil {
			return fmt.Errorf("mission %d: %w", i, err)
		}
	}
	return nil
}
