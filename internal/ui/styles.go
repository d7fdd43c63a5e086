// Package ui renders terminal output for the tablefn CLI.
package ui

import "fmt"

// ANSI256 color codes.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorOK     = 114 // green
	colorWarn   = 179 // amber
	colorFail   = 167 // red
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

// RenderStatus colors an HTTP status line by class: 2xx green, 4xx amber,
// anything else red.
func RenderStatus(code int, s string) string {
	switch {
	case code >= 200 && code < 300:
		return paint(colorOK, s)
	case code >= 400 && code < 500:
		return paint(colorWarn, s)
	default:
		return paint(colorFail, s)
	}
}

// RenderAction colors an event action name.
func RenderAction(action string) string {
	switch action {
	case "saved", "login":
		return paint(colorOK, action)
	case "updated":
		return paint(colorAccent, action)
	case "deleted":
		return paint(colorFail, action)
	default:
		return paint(colorMuted, action)
	}
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
