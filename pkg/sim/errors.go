package sim

import (
	"errors"
	"fmt"
)

// FailureKind classifies a fatal step failure.
type FailureKind int

const (
	// ControlLimitViolation: a commanded thrust or brake is out of range.
	ControlLimitViolation FailureKind = iota + 1
	// AerodynamicEnvelopeViolation: a lifting surface stalled under load.
	AerodynamicEnvelopeViolation
	// GroundContactViolation: a wheel went underground or touched grass.
	GroundContactViolation
	// StructuralContactViolation: a wingtip, the tail or the engine hit the ground.
	StructuralContactViolation
)

var (
	ErrControlLimit      = errors.New("control limit violation")
	ErrAeroEnvelope      = errors.New("aerodynamic envelope violation")
	ErrGroundContact     = errors.New("ground contact violation")
	ErrStructuralContact = errors.New("structural contact violation")
)

func (k FailureKind) sentinel() error {
	switch k {
	case ControlLimitViolation:
		return ErrControlLimit
	case AerodynamicEnvelopeViolation:
		return ErrAeroEnvelope
	case GroundContactViolation:
		return ErrGroundContact
	case StructuralContactViolation:
		return ErrStructuralContact
	}
	return nil
}

func (k FailureKind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Failure is returned by Engine.Advance. It is terminal for the drone.
type Failure struct {
	Kind  FailureKind
	Part  string
	Value float64
	Msg   string
}

func (f *Failure) Error() string {
	if f.Msg == "" {
		return fmt.Sprintf("%s: %s (%.3f)", f.Kind, f.Part, f.Value)
	}
	return fmt.Sprintf("%s: %s: %s (%.3f)", f.Kind, f.Part, f.Msg, f.Value)
}

// Is matches the sentinel of the failure's kind.
func (f *Failure) Is(target error) bool {
	s := f.Kind.sentinel()
	return s != nil && target == s
}

func fail(kind FailureKind, part string, value float64, msg string) *Failure {
	return &Failure{Kind: kind, Part: part, Value: value, Msg: msg}
}
