package config

import (
	"math"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"10ms", 10 * time.Millisecond, false},
		{"1s", time.Second, false},
		{"2m30s", 150 * time.Second, false},
		{"0.5", 500 * time.Millisecond, false},
		{"", 0, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestParseDistance(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"556m", 556, false},
		{"1.3km", 1300, false},
		{"100ft", 30.48, false},
		{"500", 500, false},
		{"10x", 0, true},
		{"m", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDistance(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDistance(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("ParseDistance(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestParseAngle(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"180deg", math.Pi, false},
		{"25", 25 * math.Pi / 180, false},
		{"0.5rad", 0.5, false},
		{"-90deg", -math.Pi / 2, false},
		{"3grad", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAngle(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAngle(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("ParseAngle(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestUnitsYAMLRoundTrip(t *testing.T) {
	type wrapper struct {
		Tick   Duration `yaml:"tick"`
		Radius Distance `yaml:"radius"`
		Climb  Angle    `yaml:"climb"`
	}

	in := wrapper{
		Tick:   Duration(20 * time.Millisecond),
		Radius: 556,
		Climb:  Deg(25),
	}
	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out wrapper
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Tick != in.Tick {
		t.Errorf("tick: got %v, want %v", out.Tick, in.Tick)
	}
	if out.Radius != in.Radius {
		t.Errorf("radius: got %v, want %v", out.Radius, in.Radius)
	}
	if math.Abs(float64(out.Climb-in.Climb)) > 1e-9 {
		t.Errorf("climb: got %v, want %v", out.Climb, in.Climb)
	}
}

func TestDistanceAcceptsNumbers(t *testing.T) {
	var out struct {
		D Distance `yaml:"d"`
	}
	if err := yaml.Unmarshal([]byte("d: 12.5\n"), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.D != 12.5 {
		t.Errorf("got %v, want 12.5", out.D)
	}
}
