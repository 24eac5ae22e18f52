package menu

import (
	"strings"

	"github.com/google/uuid"
)

// Token identifies a menu item across the transport. Tokens are unique for
// the lifetime of the process.
type Token string

func newToken() Token {
	return Token(uuid.NewString())
}

// Display is the rendered text of an item.
type Display struct {
	Name        string   `json:"name"`
	Description []string `json:"description,omitempty"`
}

// Label produces an item's display text. It is either Static or Dynamic.
type Label interface {
	display() Display
}

type staticLabel struct {
	d Display
}

func (l staticLabel) display() Display {
	return Display{Name: l.d.Name, Description: append([]string(nil), l.d.Description...)}
}

type dynamicLabel struct {
	source func() Display
}

func (l dynamicLabel) display() Display {
	return l.source()
}

// Static returns a fixed label. The description is split on newlines.
func Static(name, description string) Label {
	d := Display{Name: name}
	if description != "" {
		d.Description = strings.Split(description, "\n")
	}
	return staticLabel{d: d}
}

// Dynamic returns a label recomputed from source on every read. The result
// is never cached.
func Dynamic(source func() Display) Label {
	return dynamicLabel{source: source}
}

// ClickFunc handles a click on an item.
type ClickFunc func(c Click)

// Click describes a dispatched interaction.
type Click struct {
	Viewer Target
	Menu   *Menu // nil for attached items used outside a menu
	Item   *Item
}

// Item is a clickable entry. Items belong to the menu (or holder) that
// created them.
type Item struct {
	token   Token
	slot    int
	label   Label
	onClick ClickFunc
}

// NewItem builds an item that is not part of a menu, for Holder.Attach.
func NewItem(label Label, onClick ClickFunc) *Item {
	return &Item{token: newToken(), slot: -1, label: label, onClick: onClick}
}

func (it *Item) Token() Token { return it.token }

// Slot is the item's position in its menu, or -1 for attached items.
func (it *Item) Slot() int { return it.slot }

// Display evaluates the label.
func (it *Item) Display() Display {
	if it.label == nil {
		return Display{}
	}
	return it.label.display()
}

func (it *Item) Name() string { return it.Display().Name }

func (it *Item) Description() []string { return it.Display().Description }

func (it *Item) invoke(c Click) {
	if it.onClick != nil {
		it.onClick(c)
	}
}
