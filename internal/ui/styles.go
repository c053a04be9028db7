package ui

import "github.com/charmbracelet/lipgloss"

// Theme colors used throughout the UI
const (
	ColorAccent = "86"  // Cyan/green - titles, done states
	ColorDanger = "196" // Red - errors
	ColorMuted  = "241" // Gray - hints, dimmed text
	ColorText   = "252" // Light gray - normal text
	ColorWarn   = "208" // Orange - paused/stopped states, drop reports
)

// Styles contains shared style definitions used across the task list.
var Styles = struct {
	Title    lipgloss.Style // Bold accent color - header
	Selected lipgloss.Style // Marker for the selected row
	Normal   lipgloss.Style // Normal text
	Muted    lipgloss.Style // Hints and dimmed text
	Danger   lipgloss.Style // Error text
	Warn     lipgloss.Style // Paused/stopped states, drop reports
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	Selected: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Danger: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorDanger)),
	Warn: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorWarn)),
}
