package model

import "fmt"

// TemporalType is the ordering constraint between two activities.
type TemporalType string

const (
	TemporalNone         TemporalType = "none"
	TemporalDirect       TemporalType = "direct"
	TemporalEventual     TemporalType = "eventual"
	TemporalIndependence TemporalType = "independence"
)

// IsValid reports whether the temporal type is a known value.
func (t TemporalType) IsValid() bool {
	switch t {
	case TemporalNone, TemporalDirect, TemporalEventual, TemporalIndependence:
		return true
	}
	return false
}

// ExistentialType is the co-occurrence constraint between two activities.
// Independence is the "no constraint" value.
type ExistentialType string

const (
	ExistentialIndependence       ExistentialType = "independence"
	ExistentialImplication        ExistentialType = "implication"
	ExistentialEquivalence        ExistentialType = "equivalence"
	ExistentialNegatedEquivalence ExistentialType = "negated_equivalence"
	ExistentialNand               ExistentialType = "nand"
	ExistentialOr                 ExistentialType = "or"
)

// legacyNegatedEquivalence is the spelling used by older exports.
const legacyNegatedEquivalence ExistentialType = "negated equivalence"

// IsValid reports whether the existential type is a known value.
func (e ExistentialType) IsValid() bool {
	switch e {
	case ExistentialIndependence, ExistentialImplication, ExistentialEquivalence,
		ExistentialNegatedEquivalence, ExistentialNand, ExistentialOr:
		return true
	}
	return false
}

// Direction says which way a constraint is read.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
	DirectionBoth     Direction = "both"
)

// IsValid reports whether the direction is a known value.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionForward, DirectionBackward, DirectionBoth:
		return true
	}
	return false
}

// TemporalTypes lists every temporal type in display order.
var TemporalTypes = []TemporalType{TemporalNone, TemporalDirect, TemporalEventual, TemporalIndependence}

// ExistentialTypes lists every existential type in display order.
var ExistentialTypes = []ExistentialType{
	ExistentialIndependence, ExistentialImplication, ExistentialEquivalence,
	ExistentialNegatedEquivalence, ExistentialNand, ExistentialOr,
}

// ParseTemporal converts s to a TemporalType.
func ParseTemporal(s string) (TemporalType, error) {
	t := TemporalType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown temporal type %q", s)
	}
	return t, nil
}

// ParseExistential converts s to an ExistentialType. The older spelling
// "negated equivalence" is accepted.
func ParseExistential(s string) (ExistentialType, error) {
	e := ExistentialType(s)
	if e == legacyNegatedEquivalence {
		return ExistentialNegatedEquivalence, nil
	}
	if !e.IsValid() {
		return "", fmt.Errorf("unknown existential type %q", s)
	}
	return e, nil
}

// ParseDirection converts s to a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if !d.IsValid() {
		return "", fmt.Errorf("unknown direction %q (want forward, backward or both)", s)
	}
	return d, nil
}

// symmetricTypes are the type values whose direction defaults to both.
// Temporal and existential values share one namespace here.
var symmetricTypes = map[string]bool{
	string(ExistentialEquivalence):        true,
	string(ExistentialNegatedEquivalence): true,
	string(legacyNegatedEquivalence):      true,
	string(ExistentialNand):               true,
	string(ExistentialOr):                 true,
	string(ExistentialIndependence):       true,
	string(TemporalNone):                  true,
}

// DefaultDirectionFor returns the direction an input form should preselect
// when typ is chosen. It accepts temporal and existential values alike.
// The registry never applies it; callers decide.
func DefaultDirectionFor(typ string) Direction {
	if symmetricTypes[typ] {
		return DirectionBoth
	}
	return DirectionForward
}

// Dependency relates two activities with a temporal and an existential
// constraint.
type Dependency struct {
	From                 string          `json:"from"`
	To                   string          `json:"to"`
	Temporal             TemporalType    `json:"temporal"`
	TemporalDirection    Direction       `json:"temporal_direction"`
	Existential          ExistentialType `json:"existential"`
	ExistentialDirection Direction       `json:"existential_direction"`
}

// Summary renders d on one line, the way the dependency list shows it.
func (d Dependency) Summary() string {
	return fmt.Sprintf("From: %s To: %s Temporal: %s (%s) Existential: %s (%s)",
		d.From, d.To, d.Temporal, d.TemporalDirection, d.Existential, d.ExistentialDirection)
}
