package sim

import (
	"strings"
)

const (
	StageOnGround = "on_the_ground"
	StageParked   = "parked"
	StageTaxi     = "taxi"
	StageHold     = "hold"
	StageTakeOff  = "take-off"
	StageAirborne = "airborne"
	StageClimb    = "climb"
	StageCruise   = "cruise"
	StageDescend  = "descend"
	StageLanded   = "landed"
)

// Stage thresholds in m/s and m/s².
const (
	rollSpeed     = 20.0
	taxiMinSpeed  = 1.0
	taxiMaxSpeed  = 15.0
	standingSpeed = 0.5
	climbRate     = 1.5
	levelRate     = 1.0
	accelRate     = 0.5
	groundRecency = 600.0 // s of simulated time
)

// StageTracker classifies telemetry into flight stages for display. A new
// stage has to be seen on two consecutive updates before it is adopted.
type StageTracker struct {
	current         string
	candidate       string
	confirmations   int
	wasOnGround     bool
	wasAirborne     bool
	lastGroundSpeed float64
	lastElapsed     float64
	isAccelerating  bool
	isDecelerating  bool
	lastTransition  map[string]float64
}

// NewStageTracker creates a tracker in an uninitialized state.
func NewStageTracker() *StageTracker {
	return &StageTracker{
		lastTransition: make(map[string]float64),
	}
}

// Update evaluates telemetry and returns the current stage.
func (m *StageTracker) Update(t *Telemetry) string {
	if m.current != "" {
		dt := t.Elapsed - m.lastElapsed
		if dt > 0 {
			rate := (t.GroundSpeed - m.lastGroundSpeed) / dt
			m.isAccelerating = rate > accelRate
			m.isDecelerating = rate < -accelRate
		}
	}
	m.lastGroundSpeed = t.GroundSpeed
	m.lastElapsed = t.Elapsed

	if m.current == "" {
		if t.IsOnGround {
			m.current = StageOnGround
			m.wasOnGround = true
		} else {
			m.current = StageAirborne
			m.wasAirborne = true
		}
		return m.current
	}

	candidate := m.detectCandidate(t)

	switch {
	case candidate == m.current:
		m.candidate = ""
		m.confirmations = 0
	case candidate == m.candidate:
		m.confirmations++
		if m.confirmations >= 1 {
			m.current = candidate
			m.lastTransition[m.current] = t.Elapsed
			m.candidate = ""
			m.confirmations = 0
		}
	default:
		m.candidate = candidate
		m.confirmations = 0
	}

	if t.IsOnGround {
		m.wasOnGround = true
	} else {
		m.wasAirborne = true
	}

	switch m.current {
	case StageClimb, StageCruise:
		m.wasOnGround = false
	case StageTaxi, StageHold, StageParked:
		m.wasAirborne = false
	}

	return m.current
}

func (m *StageTracker) Current() string {
	return m.current
}

// LastTransition returns the simulated time of the last transition into
// stage, and whether there was one.
func (m *StageTracker) LastTransition(stage string) (float64, bool) {
	at, ok := m.lastTransition[stage]
	return at, ok
}

// recentlyOnTaxiway reports whether the drone taxied or held within the
// recency window before now.
func (m *StageTracker) recentlyOnTaxiway(now float64) bool {
	for _, s := range []string{StageTaxi, StageHold} {
		if at, ok := m.lastTransition[s]; ok && now-at < groundRecency {
			return true
		}
	}
	return false
}

func (m *StageTracker) detectCandidate(t *Telemetry) string {
	if t.IsOnGround {
		return m.detectGroundCandidate(t)
	}
	return m.detectAirborneCandidate(t)
}

func (m *StageTracker) detectGroundCandidate(t *Telemetry) string {
	if m.wasAirborne {
		if m.isDecelerating || t.GroundSpeed < rollSpeed {
			return StageLanded
		}
	}

	if t.GroundSpeed > rollSpeed && m.isAccelerating && m.recentlyOnTaxiway(t.Elapsed) {
		return StageTakeOff
	}

	if !t.EngineOn() && t.GroundSpeed < standingSpeed {
		return StageParked
	}
	if t.EngineOn() {
		if t.GroundSpeed >= taxiMinSpeed && t.GroundSpeed <= taxiMaxSpeed {
			return StageTaxi
		}
		if t.GroundSpeed < standingSpeed {
			return StageHold
		}
	}

	switch m.current {
	case StageParked, StageTaxi, StageHold, StageTakeOff, StageLanded:
		return m.current
	}
	return StageOnGround
}

func (m *StageTracker) detectAirborneCandidate(t *Telemetry) string {
	switch {
	case t.VerticalSpeed > climbRate:
		return StageClimb
	case t.VerticalSpeed < -climbRate:
		return StageDescend
	case t.VerticalSpeed > -levelRate && t.VerticalSpeed < levelRate:
		return StageCruise
	}

	if m.wasOnGround && m.recentlyOnTaxiway(t.Elapsed) {
		return StageTakeOff
	}

	switch m.current {
	case StageAirborne, StageClimb, StageCruise, StageDescend, StageTakeOff:
		return m.current
	}
	return StageAirborne
}

// FlightDuration returns the simulated seconds since take-off, or 0.
func (m *StageTracker) FlightDuration(now float64) float64 {
	at, ok := m.lastTransition[StageTakeOff]
	if !ok {
		return 0
	}
	return now - at
}

// FormatStage returns a human-readable title for the stage.
func FormatStage(s string) string {
	if s == "" {
		return "Unknown"
	}
	return titleCase(titleCase(strings.ReplaceAll(s, "_", " "), " "), "-")
}

func titleCase(s, sep string) string {
	parts := strings.Split(s, sep)
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, sep)
}
