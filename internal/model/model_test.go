package model

import "testing"

func TestDefaultDirectionFor(t *testing.T) {
	for _, tc := range []struct {
		typ  string
		want Direction
	}{
		{"none", DirectionBoth},
		{"direct", DirectionForward},
		{"eventual", DirectionForward},
		{"independence", DirectionBoth},
		{"implication", DirectionForward},
		{"equivalence", DirectionBoth},
		{"negated_equivalence", DirectionBoth},
		{"negated equivalence", DirectionBoth},
		{"nand", DirectionBoth},
		{"or", DirectionBoth},
		{"", DirectionForward},
	} {
		t.Run(tc.typ, func(t *testing.T) {
			if got := DefaultDirectionFor(tc.typ); got != tc.want {
				t.Errorf("DefaultDirectionFor(%q) = %q, want %q", tc.typ, got, tc.want)
			}
		})
	}
}

func TestSymbols(t *testing.T) {
	temporal := map[TemporalType]string{
		TemporalDirect:       "≺_d",
		TemporalEventual:     "≺_e",
		TemporalIndependence: "-",
		TemporalNone:         "",
	}
	for typ, want := range temporal {
		if got := TemporalSymbol(typ); got != want {
			t.Errorf("TemporalSymbol(%q) = %q, want %q", typ, got, want)
		}
	}

	existential := map[ExistentialType]string{
		ExistentialImplication:        "⇒",
		ExistentialEquivalence:        "⇔",
		ExistentialNegatedEquivalence: "<=/=>",
		ExistentialNand:               "|",
		ExistentialOr:                 "v",
		ExistentialIndependence:       "-",
		"unknown":                     "",
	}
	for typ, want := range existential {
		if got := ExistentialSymbol(typ); got != want {
			t.Errorf("ExistentialSymbol(%q) = %q, want %q", typ, got, want)
		}
	}
}

func TestParseExistential_LegacySpelling(t *testing.T) {
	got, err := ParseExistential("negated equivalence")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ExistentialNegatedEquivalence {
		t.Errorf("got %q, want %q", got, ExistentialNegatedEquivalence)
	}
}

func TestParse_Unknown(t *testing.T) {
	if _, err := ParseTemporal("later"); err == nil {
		t.Error("expected error for unknown temporal type")
	}
	if _, err := ParseExistential("none"); err == nil {
		t.Error("expected error: none is not an existential type")
	}
	if _, err := ParseDirection("up"); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestTypeListsAreValid(t *testing.T) {
	for _, typ := range TemporalTypes {
		if !typ.IsValid() {
			t.Errorf("TemporalTypes contains invalid %q", typ)
		}
	}
	for _, typ := range ExistentialTypes {
		if !typ.IsValid() {
			t.Errorf("ExistentialTypes contains invalid %q", typ)
		}
	}
}

func TestDependency_Summary(t *testing.T) {
	d := Dependency{
		From: "A", To: "B",
		Temporal: TemporalEventual, TemporalDirection: DirectionForward,
		Existential: ExistentialOr, ExistentialDirection: DirectionBoth,
	}
	want := "From: A To: B Temporal: eventual (forward) Existential: or (both)"
	if got := d.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
