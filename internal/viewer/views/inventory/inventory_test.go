package inventory

import (
	"strings"
	"testing"

	"github.com/ludos/server/internal/ws"
)

func voteMenu() ws.MenuOpenPayload {
	return ws.MenuOpenPayload{
		Title: "Vote for a map",
		Size:  18,
		Items: []ws.MenuItemPayload{
			{Slot: 4, Token: "t4", Name: "glacier", Description: []string{"0 vote(s)"}},
			{Slot: 2, Token: "t2", Name: "desert"},
		},
	}
}

func TestOpenPutsCursorOnFirstItem(t *testing.T) {
	var m Model
	m.Open(voteMenu())
	if !m.IsOpen() || m.Cursor != 2 {
		t.Fatalf("open = %v cursor = %d", m.IsOpen(), m.Cursor)
	}
	it, ok := m.Selected()
	if !ok || it.Token != "t2" {
		t.Errorf("selected = %+v, %v", it, ok)
	}

	m.Close()
	if m.IsOpen() || m.View() != "" {
		t.Error("menu still open")
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		dx, dy int
		want   int
	}{
		{"right", 2, 2, 0, 4},
		{"down", 2, 0, 1, 11},
		{"clamp left", 0, -1, 0, 0},
		{"clamp bottom", 11, 0, 5, 11},
		{"clamp right", 8, 3, 0, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Model
			m.Open(voteMenu())
			m.Cursor = tt.start
			m.Move(tt.dx, tt.dy)
			if m.Cursor != tt.want {
				t.Errorf("cursor = %d, want %d", m.Cursor, tt.want)
			}
		})
	}
}

func TestViewShowsSelection(t *testing.T) {
	var m Model
	m.Open(voteMenu())
	m.Move(2, 0)
	v := m.View()
	for _, want := range []string{"Vote for a map", "[glacier]", "desert", "0 vote(s)"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
}

func TestHotbar(t *testing.T) {
	var h Hotbar
	if _, ok := h.Current(); ok {
		t.Error("empty hotbar has a current item")
	}
	h.Give(ws.MenuItemPayload{Token: "a", Name: "Map vote"})
	h.Give(ws.MenuItemPayload{Token: "b", Name: "Kits"})
	h.Give(ws.MenuItemPayload{Token: "a", Name: "Map vote (open)"})
	if len(h.Items) != 2 {
		t.Fatalf("items = %+v", h.Items)
	}

	h.Next()
	if it, _ := h.Current(); it.Token != "b" {
		t.Errorf("current = %+v", it)
	}
	h.Next()
	if it, _ := h.Current(); it.Name != "Map vote (open)" {
		t.Errorf("current after wrap = %+v", it)
	}
	if v := h.View(); !strings.Contains(v, "2:Kits") {
		t.Errorf("view = %q", v)
	}
}
