package ui

import (
	"fmt"

	"github.com/alfredjeanlab/landreg/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorOK     = 114 // green
	colorWarn   = 179 // amber
	colorFail   = 204 // red
)

var noColor bool

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderError returns s in red.
func RenderError(s string) string { return render(colorFail, s) }

// RenderStatus colors a land status by how far along the workflow it is.
func RenderStatus(s model.LandStatus) string {
	switch s {
	case model.StatusVerified:
		return render(colorOK, s.String())
	case model.StatusForSale:
		return render(colorAccent, s.String())
	case model.StatusPending:
		return render(colorWarn, s.String())
	case model.StatusRejected:
		return render(colorFail, s.String())
	default:
		return render(colorMuted, s.String())
	}
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
