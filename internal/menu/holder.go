package menu

import (
	"sort"
	"sync"
)

// Holder is a player's menu state: at most one open menu plus any items
// attached outside a menu (hotbar items carrying a token).
type Holder struct {
	mu       sync.Mutex
	active   *Menu
	attached map[Token]*Item
}

// Open makes m the active menu and returns the one it replaced.
func (h *Holder) Open(m *Menu) (previous *Menu) {
	h.mu.Lock()
	defer h.mu.Unlock()
	previous = h.active
	h.active = m
	return previous
}

// Close clears the active menu. It reports whether a menu was open.
func (h *Holder) Close() (*Menu, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.active
	h.active = nil
	return m, m != nil
}

// CloseIf clears the active menu only if it is still m.
func (h *Holder) CloseIf(m *Menu) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active != m || m == nil {
		return false
	}
	h.active = nil
	return true
}

func (h *Holder) Active() *Menu {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Attach registers an item so Use can resolve its token while no menu
// holds it.
func (h *Holder) Attach(it *Item) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.attached == nil {
		h.attached = make(map[Token]*Item)
	}
	h.attached[it.token] = it
}

func (h *Holder) Detach(t Token) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.attached, t)
}

// Reset drops the active menu and every attached item.
func (h *Holder) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = nil
	h.attached = nil
}

// resolve looks a token up in the active menu first, then in attached items.
func (h *Holder) resolve(t Token) (*Menu, *Item, bool) {
	h.mu.Lock()
	active := h.active
	attached := h.attached[t]
	h.mu.Unlock()

	if active != nil {
		if it, ok := active.ItemByToken(t); ok {
			return active, it, true
		}
	}
	if attached != nil {
		return nil, attached, true
	}
	return nil, nil, false
}

// Attached returns the attached items ordered by name.
func (h *Holder) Attached() []*Item {
	h.mu.Lock()
	items := make([]*Item, 0, len(h.attached))
	for _, it := range h.attached {
		items = append(items, it)
	}
	h.mu.Unlock()
	sort.Slice(items, func(i, j int) bool { return items[i].Name() < items[j].Name() })
	return items
}
