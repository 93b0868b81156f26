// Package sim is the rigid-body model of a twin-wing drone: four lifting
// surfaces, one engine and three wheels, advanced with forward Euler.
package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DroneState is the full physical state of one drone.
type DroneState struct {
	Position        mgl64.Vec3 // world
	Velocity        mgl64.Vec3 // world
	AngularVelocity mgl64.Vec3 // body
	Orientation     mgl64.Mat3 // body to world
	Heading         float64
	Pitch           float64
	Roll            float64
	Elapsed         float64 // simulated seconds
}

// Controls is one set of actuator commands. Surface inclinations are radians.
type Controls struct {
	LeftWing   float64 `msgpack:"lw"`
	RightWing  float64 `msgpack:"rw"`
	HorStab    float64 `msgpack:"hs"`
	VerStab    float64 `msgpack:"vs"`
	Thrust     float64 `msgpack:"t"`
	LeftBrake  float64 `msgpack:"lb"`
	FrontBrake float64 `msgpack:"fb"`
	RightBrake float64 `msgpack:"rb"`
}

// Brakes returns controls with only the three brakes set to b.
func Brakes(b float64) Controls {
	return Controls{LeftBrake: b, FrontBrake: b, RightBrake: b}
}

// Snapshot is what guidance is allowed to see. It is a value and never
// aliases engine state.
type Snapshot struct {
	X       float64 `json:"x" msgpack:"x"`
	Y       float64 `json:"y" msgpack:"y"`
	Z       float64 `json:"z" msgpack:"z"`
	Heading float64 `json:"heading" msgpack:"h"`
	Pitch   float64 `json:"pitch" msgpack:"p"`
	Roll    float64 `json:"roll" msgpack:"r"`
	Elapsed float64 `json:"elapsed" msgpack:"e"`
}

// Position returns the snapshot position as a vector.
func (s Snapshot) Position() mgl64.Vec3 {
	return mgl64.Vec3{s.X, s.Y, s.Z}
}

// Valid reports whether every field is finite.
func (s Snapshot) Valid() bool {
	for _, v := range []float64{s.X, s.Y, s.Z, s.Heading, s.Pitch, s.Roll, s.Elapsed} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
