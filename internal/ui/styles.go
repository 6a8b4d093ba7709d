package ui

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/admatrix/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorError  = 203 // red
)

var noColor bool

func paint(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return paint(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return paint(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return paint(colorCmd, s) }

// RenderError returns s in the error (red) color.
func RenderError(s string) string { return paint(colorError, s) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// DependencyLine renders one numbered dependency for a list view:
//
//	  1. A → B  temporal: direct ≺_d (forward)  existential: nand | (both)
//
// n is the number shown to the user.
func DependencyLine(n int, d model.Dependency) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%3d. %s %s %s", n, RenderAccent(d.From), RenderMuted("→"), RenderAccent(d.To))
	fmt.Fprintf(&b, "  %s %s", RenderMuted("temporal:"), relation(string(d.Temporal), model.TemporalSymbol(d.Temporal), d.TemporalDirection))
	fmt.Fprintf(&b, "  %s %s", RenderMuted("existential:"), relation(string(d.Existential), model.ExistentialSymbol(d.Existential), d.ExistentialDirection))
	return b.String()
}

func relation(typ, symbol string, dir model.Direction) string {
	s := typ
	if symbol != "" {
		s += " " + RenderCommand(symbol)
	}
	return s + " " + RenderMuted("("+string(dir)+")")
}
