// Package theme provides the Lip Gloss palette and shared styles of the
// terminal client. It has no internal imports.
package theme

import "github.com/charmbracelet/lipgloss"

// Phase colors.
var (
	ColorWaiting  = lipgloss.Color("#9ca3af")
	ColorStarting = lipgloss.Color("#d97706")
	ColorInGame   = lipgloss.Color("#22c55e")
	ColorEnding   = lipgloss.Color("#a855f7")
)

// Verdict colors.
var (
	ColorAllow    = lipgloss.Color("#22c55e")
	ColorDeny     = lipgloss.Color("#dc2626")
	ColorRedirect = lipgloss.Color("#3b82f6")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorGold    = lipgloss.Color("#f59e0b")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// PhaseColor returns the color for a phase name.
func PhaseColor(phase string) lipgloss.Color {
	switch phase {
	case "waiting":
		return ColorWaiting
	case "starting":
		return ColorStarting
	case "ingame":
		return ColorInGame
	case "ending":
		return ColorEnding
	default:
		return ColorDimmed
	}
}

// VerdictColor returns the color for a verdict name.
func VerdictColor(verdict string) lipgloss.Color {
	switch verdict {
	case "allow":
		return ColorAllow
	case "deny":
		return ColorDeny
	case "redirect":
		return ColorRedirect
	default:
		return ColorDimmed
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGold)
)
