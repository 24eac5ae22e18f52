// Package menu implements token-addressed interactive menus and the
// per-player dispatcher that routes clicks to them.
package menu

import (
	"sort"
	"sync"
)

// Menu is an ordered set of items addressable by slot and by token.
// Slots are not range-checked; callers keep them within Size().
type Menu struct {
	title string
	rows  int

	mu      sync.RWMutex
	bySlot  map[int]*Item
	byToken map[Token]*Item
}

// New returns an empty menu with rows*9 slots.
func New(title string, rows int) *Menu {
	return &Menu{
		title:   title,
		rows:    rows,
		bySlot:  make(map[int]*Item),
		byToken: make(map[Token]*Item),
	}
}

func (m *Menu) Title() string { return m.title }

func (m *Menu) Size() int { return m.rows * 9 }

// Add places an item at slot, replacing whatever was there, and returns it.
func (m *Menu) Add(slot int, label Label, onClick ClickFunc) *Item {
	it := &Item{token: newToken(), slot: slot, label: label, onClick: onClick}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.bySlot[slot]; ok {
		delete(m.byToken, old.token)
	}
	m.bySlot[slot] = it
	m.byToken[it.token] = it
	return it
}

// Remove deletes the item at slot.
func (m *Menu) Remove(slot int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.bySlot[slot]; ok {
		delete(m.byToken, old.token)
		delete(m.bySlot, slot)
	}
}

func (m *Menu) ItemAt(slot int) (*Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.bySlot[slot]
	return it, ok
}

func (m *Menu) ItemByToken(t Token) (*Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.byToken[t]
	return it, ok
}

// Items returns the items ordered by slot.
func (m *Menu) Items() []*Item {
	m.mu.RLock()
	items := make([]*Item, 0, len(m.bySlot))
	for _, it := range m.bySlot {
		items = append(items, it)
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].slot < items[j].slot })
	return items
}
