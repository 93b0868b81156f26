// Package guidance turns sensor snapshots into control outputs. Each drone
// runs one active Phase at a time; pilots pick the phase and Step flies it.
package guidance

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Kind names a guidance behaviour.
type Kind int

const (
	StableCruise Kind = iota
	ClimbStrong
	Climb
	DescendStrong
	Descend
	TurnLeft
	TurnRight
	SoftTurnLeft
	SoftTurnRight
	VerySoftTurnLeft
	VerySoftTurnRight
	SlowDown
	ApproachArc
	RunwayIntercept
	Stabilize
	Taxi
	Idle
	TakeoffRoll
	Rotate
	Glide
	Flare
	Parked
)

var kindNames = [...]string{
	StableCruise:      "StableCruise",
	ClimbStrong:       "ClimbStrong",
	Climb:             "Climb",
	DescendStrong:     "DescendStrong",
	Descend:           "Descend",
	TurnLeft:          "TurnLeft",
	TurnRight:         "TurnRight",
	SoftTurnLeft:      "SoftTurnLeft",
	SoftTurnRight:     "SoftTurnRight",
	VerySoftTurnLeft:  "VerySoftTurnLeft",
	VerySoftTurnRight: "VerySoftTurnRight",
	SlowDown:          "SlowDown",
	ApproachArc:       "ApproachArc",
	RunwayIntercept:   "RunwayIntercept",
	Stabilize:         "Stabilize",
	Taxi:              "Taxi",
	Idle:              "Idle",
	TakeoffRoll:       "TakeoffRoll",
	Rotate:            "Rotate",
	Glide:             "Glide",
	Flare:             "Flare",
	Parked:            "Parked",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Phase is the active behaviour of one drone. Only the fields its Kind
// reads are meaningful.
type Phase struct {
	Kind Kind

	// Law is the control law flown under ApproachArc and RunwayIntercept.
	Law Kind

	// Target is the taxi destination.
	Target mgl64.Vec3

	// Heading is the final taxi heading, the runway heading for the
	// take-off roll and the track to hold while gliding.
	Heading float64

	// Altitude is the height the glide path asks for.
	Altitude float64
}

// String renders the phase with its law when it has one.
func (p Phase) String() string {
	switch p.Kind {
	case ApproachArc, RunwayIntercept:
		return p.Kind.String() + "/" + p.Law.String()
	}
	return p.Kind.String()
}

// turnLaw maps a turn severity and side to a turn kind.
func turnLaw(severity int, left bool) Kind {
	switch {
	case severity >= 3 && left:
		return TurnLeft
	case severity >= 3:
		return TurnRight
	case severity == 2 && left:
		return SoftTurnLeft
	case severity == 2:
		return SoftTurnRight
	case left:
		return VerySoftTurnLeft
	}
	return VerySoftTurnRight
}
