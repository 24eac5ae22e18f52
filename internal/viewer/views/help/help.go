// Package help renders the key reference overlay from Markdown.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/ludos/server/internal/viewer/theme"
)

const intro = `Each key sends one action to the server, which allows, denies or
redirects it depending on the session phase and your team.`

// Markdown builds the key reference document.
func Markdown(bindings []key.Binding) string {
	var b strings.Builder
	b.WriteString("# Controls\n\n")
	b.WriteString(intro)
	b.WriteString("\n\n| Key | Action |\n| --- | --- |\n")
	for _, k := range bindings {
		h := k.Help()
		if h.Key == "" {
			continue
		}
		fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	return b.String()
}

// Model caches the rendered overlay per width.
type Model struct {
	bindings []key.Binding
	width    int
	rendered string
}

func New(bindings []key.Binding) Model {
	return Model{bindings: bindings}
}

// View renders the overlay. Rendering failures fall back to the raw
// Markdown.
func (m *Model) View(width int) string {
	wrap := max(width-8, 20)
	if m.rendered == "" || m.width != wrap {
		md := Markdown(m.bindings)
		out, err := render(md, wrap)
		if err != nil {
			out = md
		}
		m.width = wrap
		m.rendered = out
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(strings.TrimSpace(m.rendered) + "\n\n" + theme.StyleDimmed.Render("esc:close"))
}

func render(md string, wrap int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return "", fmt.Errorf("help renderer: %w", err)
	}
	return r.Render(md)
}
