package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the viewer.
type KeyMap struct {
	Forward   key.Binding
	Back      key.Binding
	Left      key.Binding
	Right     key.Binding
	Jump      key.Binding
	Use       key.Binding
	NextItem  key.Binding
	Drop      key.Binding
	Void      key.Binding
	Panel     key.Binding
	NextPhase key.Binding
	Log       key.Binding
	Help      key.Binding
	ScrollUp  key.Binding
	ScrollDn  key.Binding
	Enter     key.Binding
	Escape    key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Forward: key.NewBinding(
			key.WithKeys("w", "up"),
			key.WithHelp("w/↑", "forward"),
		),
		Back: key.NewBinding(
			key.WithKeys("s", "down"),
			key.WithHelp("s/↓", "back"),
		),
		Left: key.NewBinding(
			key.WithKeys("a", "left"),
			key.WithHelp("a/←", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("d", "right"),
			key.WithHelp("d/→", "right"),
		),
		Jump: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "jump"),
		),
		Use: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "use item"),
		),
		NextItem: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next item"),
		),
		Drop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "drop"),
		),
		Void: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "fall into void"),
		),
		Panel: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "toggle panel"),
		),
		NextPhase: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next phase"),
		),
		Log: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "event log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "scroll up"),
		),
		ScrollDn: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j", "scroll down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "click slot"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Bindings lists every binding in help order.
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{
		k.Forward, k.Back, k.Left, k.Right, k.Jump,
		k.Use, k.NextItem, k.Drop, k.Void,
		k.Panel, k.NextPhase, k.Log, k.Help,
		k.Enter, k.Escape, k.Quit,
	}
}
