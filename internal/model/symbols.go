package model

var temporalSymbols = map[TemporalType]string{
	TemporalDirect:       "≺_d",
	TemporalEventual:     "≺_e",
	TemporalIndependence: "-",
}

var existentialSymbols = map[ExistentialType]string{
	ExistentialImplication:        "⇒",
	ExistentialEquivalence:        "⇔",
	ExistentialNegatedEquivalence: "<=/=>",
	ExistentialNand:               "|",
	ExistentialOr:                 "v",
	ExistentialIndependence:       "-",
}

// TemporalSymbol returns the display glyph for t, or "" when t has none.
func TemporalSymbol(t TemporalType) string {
	return temporalSymbols[t]
}

// ExistentialSymbol returns the display glyph for e, or "" when e has none.
func ExistentialSymbol(e ExistentialType) string {
	return existentialSymbols[e]
}
