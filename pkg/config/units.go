package config

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can carry "10ms", "1s" or "2m30s".
type Duration time.Duration

// Seconds returns the duration as floating point seconds, the unit the
// simulation integrates in.
func (d Duration) Seconds() float64 {
	return time.Duration(d).Seconds()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ParseDuration accepts Go duration syntax plus bare numbers, read as seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// Distance is a length in meters.
type Distance float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Distance) UnmarshalYAML(value *yaml.Node) error {
	var f float64
	if err := value.Decode(&f); err == nil {
		*d = Distance(f)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dist, err := ParseDistance(s)
	if err != nil {
		return err
	}
	*d = Distance(dist)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Distance) MarshalYAML() (interface{}, error) {
	return strconv.FormatFloat(float64(d), 'f', -1, 64) + "m", nil
}

var unitPattern = regexp.MustCompile(`^([-+]?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)\s*([a-z]*)$`)

var distanceUnits = map[string]float64{
	"":   1,
	"m":  1,
	"km": 1000,
	"ft": 0.3048,
}

// ParseDistance parses "556m", "1.3km" or "500" (meters).
func ParseDistance(s string) (float64, error) {
	val, unit, err := splitUnit(s)
	if err != nil {
		return 0, fmt.Errorf("invalid distance: %w", err)
	}
	mult, ok := distanceUnits[unit]
	if !ok {
		return 0, fmt.Errorf("invalid distance: unknown unit %q", unit)
	}
	return val * mult, nil
}

// Angle is an angle in radians. YAML accepts "25deg", "0.4rad" or a bare
// number, which is read as degrees.
type Angle float64

// Deg builds an Angle from degrees.
func Deg(v float64) Angle {
	return Angle(v * math.Pi / 180)
}

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Angle) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParseAngle(s)
	if err != nil {
		return err
	}
	*a = Angle(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (a Angle) MarshalYAML() (interface{}, error) {
	return strconv.FormatFloat(math.Round(a.Degrees()*1e6)/1e6, 'f', -1, 64) + "deg", nil
}

// ParseAngle parses an angle string and returns radians.
func ParseAngle(s string) (float64, error) {
	val, unit, err := splitUnit(s)
	if err != nil {
		return 0, fmt.Errorf("invalid angle: %w", err)
	}
	switch unit {
	case "", "deg":
		return val * math.Pi / 180, nil
	case "rad":
		return val, nil
	default:
		return 0, fmt.Errorf("invalid angle: unknown unit %q", unit)
	}
}

func splitUnit(s string) (float64, string, error) {
	m := unitPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, "", fmt.Errorf("cannot parse %q", s)
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", err
	}
	return val, m[2], nil
}
