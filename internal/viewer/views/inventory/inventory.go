// Package inventory renders the chest-style menus the server opens and the
// hotbar of items the player was given.
package inventory

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ludos/server/internal/viewer/theme"
	"github.com/ludos/server/internal/ws"
)

const (
	rowWidth  = 9
	cellWidth = 14
)

// Model is an open menu with a slot cursor.
type Model struct {
	Title  string
	Size   int
	Items  map[int]ws.MenuItemPayload
	Cursor int
	open   bool
}

// Open replaces the model with the menu in p and puts the cursor on the
// first occupied slot.
func (m *Model) Open(p ws.MenuOpenPayload) {
	*m = Model{
		Title: p.Title,
		Size:  p.Size,
		Items: make(map[int]ws.MenuItemPayload, len(p.Items)),
		open:  true,
	}
	m.Cursor = -1
	for _, it := range p.Items {
		m.Items[it.Slot] = it
		if m.Cursor < 0 || it.Slot < m.Cursor {
			m.Cursor = it.Slot
		}
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m *Model) Close() {
	*m = Model{}
}

func (m Model) IsOpen() bool {
	return m.open
}

// Move shifts the cursor by dx columns and dy rows, clamped to the grid.
func (m *Model) Move(dx, dy int) {
	if m.Size <= 0 {
		return
	}
	rows := (m.Size + rowWidth - 1) / rowWidth
	row := m.Cursor/rowWidth + dy
	col := m.Cursor%rowWidth + dx
	row = min(max(row, 0), rows-1)
	col = min(max(col, 0), rowWidth-1)
	m.Cursor = min(row*rowWidth+col, m.Size-1)
}

// Selected returns the item under the cursor.
func (m Model) Selected() (ws.MenuItemPayload, bool) {
	it, ok := m.Items[m.Cursor]
	return it, ok
}

func (m Model) View() string {
	if !m.open {
		return ""
	}
	var rows []string
	for start := 0; start < m.Size; start += rowWidth {
		cells := make([]string, 0, rowWidth)
		for slot := start; slot < start+rowWidth && slot < m.Size; slot++ {
			cells = append(cells, m.cell(slot))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	detail := theme.StyleDimmed.Render("empty slot")
	if it, ok := m.Selected(); ok {
		detail = theme.StyleHeader.Render(it.Name)
		if len(it.Description) > 0 {
			detail += "\n" + theme.StyleDimmed.Render(strings.Join(it.Description, "\n"))
		}
	}
	help := theme.StyleDimmed.Render("arrows:move  enter:click  esc:close")

	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.StyleHeader.Render(m.Title),
		strings.Join(rows, "\n"),
		"",
		detail,
		help,
	)
	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(body)
}

func (m Model) cell(slot int) string {
	label := "·"
	if it, ok := m.Items[slot]; ok {
		label = truncate(it.Name, cellWidth-2)
	}
	style := lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	if slot == m.Cursor {
		return style.Inherit(theme.StyleSelected).Render("[" + label + "]")
	}
	return style.Render(label)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Hotbar lists the items given to the player, newest last.
type Hotbar struct {
	Items    []ws.MenuItemPayload
	Selected int
}

// Give adds an item, replacing one with the same token.
func (h *Hotbar) Give(it ws.MenuItemPayload) {
	for i := range h.Items {
		if h.Items[i].Token == it.Token {
			h.Items[i] = it
			return
		}
	}
	h.Items = append(h.Items, it)
}

// Next moves the selection to the following item, wrapping around.
func (h *Hotbar) Next() {
	if len(h.Items) > 0 {
		h.Selected = (h.Selected + 1) % len(h.Items)
	}
}

// Current returns the selected item.
func (h Hotbar) Current() (ws.MenuItemPayload, bool) {
	if h.Selected < 0 || h.Selected >= len(h.Items) {
		return ws.MenuItemPayload{}, false
	}
	return h.Items[h.Selected], true
}

func (h Hotbar) View() string {
	if len(h.Items) == 0 {
		return theme.StyleDimmed.Render("no items")
	}
	parts := make([]string, len(h.Items))
	for i, it := range h.Items {
		label := fmt.Sprintf("%d:%s", i+1, it.Name)
		if i == h.Selected {
			parts[i] = theme.StyleSelected.Render("[" + label + "]")
		} else {
			parts[i] = label
		}
	}
	return strings.Join(parts, "  ")
}
