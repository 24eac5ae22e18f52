package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/ludos/server/internal/session"
	"github.com/ludos/server/internal/viewer/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected bool
	Name      string
	Phase     session.Phase
	Playing   bool
	Position  session.Point
	ActionBar string
	Width     int
}

func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := max(m.Width, 40)

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● " + m.Name)
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	}

	phase := lipgloss.NewStyle().Foreground(theme.PhaseColor(m.Phase.String())).Render(m.Phase.String())
	team := "spectating"
	if m.Playing {
		team = "playing"
	}
	pos := fmt.Sprintf("%.1f %.1f %.1f", m.Position.X, m.Position.Y, m.Position.Z)

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr + sep + phase + sep + team + sep + pos
	if m.ActionBar != "" {
		content += sep + theme.StyleSelected.Render(m.ActionBar)
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
