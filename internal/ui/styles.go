package ui

import (
	"fmt"

	"github.com/nojaja/wbs-manager-mcp-sub001/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent  = 74  // blue
	colorCmd     = 250 // light gray
	colorMuted   = 245 // medium gray
	colorWarn    = 179 // amber
	colorSuccess = 114 // green
)

var noColor bool

// statusColors maps each task status to its display color.
var statusColors = map[model.Status]int{
	model.StatusDraft:      colorMuted,
	model.StatusPending:    colorWarn,
	model.StatusInProgress: colorAccent,
	model.StatusCompleted:  colorSuccess,
}

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	return render(colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return render(colorMuted, s)
}

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string {
	return render(colorCmd, s)
}

// RenderStatus returns the status name in its status color. Unknown values
// are returned as-is.
func RenderStatus(s model.Status) string {
	code, ok := statusColors[s]
	if !ok {
		return string(s)
	}
	return render(code, string(s))
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// Configure enables or disables color output based on ShouldUseColor.
func Configure() {
	noColor = !ShouldUseColor()
}
