// Package sidebar renders the status panel the server maintains for the
// player.
package sidebar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ludos/server/internal/panel"
	"github.com/ludos/server/internal/viewer/theme"
	"github.com/ludos/server/internal/ws"
)

const minWidth = 24

// Model mirrors one server panel. Only the most recently created handle is
// shown; messages for other handles are ignored.
type Model struct {
	Handle panel.Handle
	Title  string
	Lines  []string
}

// Visible reports whether a panel is currently shown.
func (m Model) Visible() bool {
	return m.Handle != ""
}

// Apply updates the model from a panel_* message.
func (m *Model) Apply(typ ws.MessageType, p ws.PanelPayload) {
	if typ == ws.MsgPanelCreate {
		*m = Model{Handle: p.Handle}
		return
	}
	if p.Handle != m.Handle || m.Handle == "" {
		return
	}
	switch typ {
	case ws.MsgPanelTitle:
		m.Title = p.Title
	case ws.MsgPanelLines:
		m.Lines = append([]string(nil), p.Lines...)
	case ws.MsgPanelLine:
		if p.Index >= 0 && p.Index < len(m.Lines) {
			m.Lines[p.Index] = p.Text
		}
	case ws.MsgPanelDestroy:
		*m = Model{}
	}
}

// View renders the panel, or nothing when hidden.
func (m Model) View() string {
	if !m.Visible() {
		return ""
	}
	width := minWidth
	for _, l := range m.Lines {
		width = max(width, lipgloss.Width(l))
	}
	title := lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.StyleHeader.Foreground(theme.ColorGold).Render(m.Title))
	body := strings.Join(m.Lines, "\n")
	return theme.StyleBorder.Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}
