package menu

import "log"

// Target is a player that can hold menus.
type Target interface {
	ID() string
	Menus() *Holder
}

// Presenter shows and hides menus on the player's client.
type Presenter interface {
	ShowMenu(viewerID string, m *Menu) error
	HideMenu(viewerID string) error
}

// ItemPresenter is implemented by presenters that can also show items
// given outside a menu.
type ItemPresenter interface {
	GiveItem(viewerID string, it *Item) error
}

// Outcome is the result of routing an action through the dispatcher.
// Cancel means the default action must not happen.
type Outcome struct {
	Cancel  bool
	Invoked bool
}

// Dispatcher enforces one open menu per player and routes clicks.
type Dispatcher struct {
	presenter Presenter
}

// NewDispatcher returns a dispatcher. presenter may be nil when menus are
// only ever driven server-side (tests, bots).
func NewDispatcher(presenter Presenter) *Dispatcher {
	return &Dispatcher{presenter: presenter}
}

// Open replaces the target's active menu with m. The previous menu stops
// receiving clicks as soon as Open returns.
func (d *Dispatcher) Open(t Target, m *Menu) {
	t.Menus().Open(m)
	if d.presenter != nil {
		if err := d.presenter.ShowMenu(t.ID(), m); err != nil {
			log.Printf("menu: show %q to %s: %v", m.Title(), t.ID(), err)
		}
	}
}

// Close handles the client's close signal: the active menu is dropped and
// later clicks are no-ops.
func (d *Dispatcher) Close(t Target) bool {
	_, ok := t.Menus().Close()
	return ok
}

// Dismiss closes the active menu from the server side and hides it on the
// client.
func (d *Dispatcher) Dismiss(t Target) bool {
	_, ok := t.Menus().Close()
	if ok && d.presenter != nil {
		// The client may already be gone.
		_ = d.presenter.HideMenu(t.ID())
	}
	return ok
}

// Give attaches it to the target so its token resolves while no menu is
// open, and shows it on the client when the presenter supports items.
func (d *Dispatcher) Give(t Target, it *Item) {
	t.Menus().Attach(it)
	if ip, ok := d.presenter.(ItemPresenter); ok {
		if err := ip.GiveItem(t.ID(), it); err != nil {
			log.Printf("menu: give %q to %s: %v", it.Name(), t.ID(), err)
		}
	}
}

// Click routes a click on slot of the active menu. With no menu open the
// click is left to the default handling.
func (d *Dispatcher) Click(t Target, slot int) Outcome {
	m := t.Menus().Active()
	if m == nil {
		return Outcome{}
	}
	it, ok := m.ItemAt(slot)
	if !ok {
		return Outcome{Cancel: true}
	}
	it.invoke(Click{Viewer: t, Menu: m, Item: it})
	return Outcome{Cancel: true, Invoked: true}
}

// Use routes an action carrying a token (an item used from the hotbar or a
// click on an item that embeds its token). Any non-empty token cancels the
// default action, even a stale one.
func (d *Dispatcher) Use(t Target, token Token) Outcome {
	if token == "" {
		return Outcome{}
	}
	m, it, ok := t.Menus().resolve(token)
	if !ok {
		return Outcome{Cancel: true}
	}
	it.invoke(Click{Viewer: t, Menu: m, Item: it})
	return Outcome{Cancel: true, Invoked: true}
}
