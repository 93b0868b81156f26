package sim

// Telemetry is the per-tick record the fleet publishes to the API, the bus
// and the stage tracker. Speeds are estimated, not read from the engine.
type Telemetry struct {
	Snapshot
	GroundSpeed   float64 `json:"ground_speed" msgpack:"gs"`   // m/s
	VerticalSpeed float64 `json:"vertical_speed" msgpack:"vs"` // m/s
	Track         float64 `json:"track" msgpack:"tr"` // ground track, heading convention
	Thrust        float64 `json:"thrust" msgpack:"t"`
	IsOnGround    bool    `json:"on_ground" msgpack:"g"`
	Stage         string  `json:"stage" msgpack:"s"`
}

// EngineOn reports whether the engine is producing thrust.
func (t *Telemetry) EngineOn() bool {
	return t.Thrust > 0
}
