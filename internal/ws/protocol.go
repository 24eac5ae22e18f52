package ws

import (
	"encoding/json"

	"github.com/ludos/server/internal/gateway"
	"github.com/ludos/server/internal/menu"
	"github.com/ludos/server/internal/panel"
	"github.com/ludos/server/internal/session"
)

type MessageType string

// Client to server.
const (
	MsgMove            MessageType = "move"
	MsgDamage          MessageType = "damage"
	MsgDeath           MessageType = "death"
	MsgRespawn         MessageType = "respawn"
	MsgPostRespawn     MessageType = "post_respawn"
	MsgInteract        MessageType = "interact"
	MsgPortal          MessageType = "portal"
	MsgHunger          MessageType = "hunger"
	MsgDrop            MessageType = "drop"
	MsgClick           MessageType = "click"
	MsgPanelVisibility MessageType = "panel_visibility"
)

// Server to client. MsgMenuClose travels both ways.
const (
	MsgWelcome      MessageType = "welcome"
	MsgKick         MessageType = "kick"
	MsgDecision     MessageType = "decision"
	MsgActionBar    MessageType = "action_bar"
	MsgPanelCreate  MessageType = "panel_create"
	MsgPanelTitle   MessageType = "panel_title"
	MsgPanelLines   MessageType = "panel_lines"
	MsgPanelLine    MessageType = "panel_line"
	MsgPanelDestroy MessageType = "panel_destroy"
	MsgMenuOpen     MessageType = "menu_open"
	MsgItemGive     MessageType = "item_give"
	MsgMenuClose    MessageType = "menu_close"
	MsgError        MessageType = "error"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Inbound is a client action. Seq is echoed in the decision so the client
// can match replies to its requests.
type Inbound struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type MovePayload struct {
	From session.Point `json:"from"`
	To   session.Point `json:"to"`
}

// DamagePayload is damage observed by the client. An empty TargetID means
// the sender itself.
type DamagePayload struct {
	TargetID       string              `json:"targetId,omitempty"`
	TargetIsPlayer bool                `json:"targetIsPlayer,omitempty"`
	Cause          gateway.DamageCause `json:"cause"`
}

type DeathPayload struct {
	Cause   string `json:"cause"`
	Message string `json:"message,omitempty"`
}

type PanelVisibilityPayload struct {
	Visible bool `json:"visible"`
}

type WelcomePayload struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Phase    session.Phase     `json:"phase"`
	Playing  bool              `json:"playing"`
	Minigame *session.Minigame `json:"minigame,omitempty"`
	Spawn    *session.Point    `json:"spawn,omitempty"`
}

type KickPayload struct {
	Reason string `json:"reason"`
}

type DecisionPayload struct {
	Seq      uint64           `json:"seq,omitempty"`
	Action   MessageType      `json:"action"`
	Decision gateway.Decision `json:"decision"`
}

type ActionBarPayload struct {
	Text string `json:"text"`
}

type PanelPayload struct {
	Handle panel.Handle `json:"handle"`
	Title  string       `json:"title,omitempty"`
	Lines  []string     `json:"lines,omitempty"`
	Index  int          `json:"index,omitempty"`
	Text   string       `json:"text,omitempty"`
}

type MenuItemPayload struct {
	Slot        int        `json:"slot"`
	Token       menu.Token `json:"token"`
	Name        string     `json:"name"`
	Description []string   `json:"description,omitempty"`
}

type MenuOpenPayload struct {
	Title string            `json:"title"`
	Size  int               `json:"size"`
	Items []MenuItemPayload `json:"items"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func menuPayload(m *menu.Menu) MenuOpenPayload {
	items := m.Items()
	out := MenuOpenPayload{
		Title: m.Title(),
		Size:  m.Size(),
		Items: make([]MenuItemPayload, 0, len(items)),
	}
	for _, it := range items {
		out.Items = append(out.Items, itemPayload(it))
	}
	return out
}

func itemPayload(it *menu.Item) MenuItemPayload {
	d := it.Display()
	return MenuItemPayload{
		Slot:        it.Slot(),
		Token:       it.Token(),
		Name:        d.Name,
		Description: d.Description,
	}
}
