// Package gateway applies the session-phase and team rules to every raw
// player action delivered by the transport.
//
// Every rule reads one session snapshot and decides synchronously; the
// gateway never changes the phase. Movement containment is enforced both
// while the game is starting (any cell change is cancelled) and in game
// (leaving the map bounds is cancelled).
package gateway

import (
	"fmt"
	"log"

	"github.com/ludos/server/internal/menu"
	"github.com/ludos/server/internal/player"
	"github.com/ludos/server/internal/session"
)

// User-visible messages.
const (
	MsgGameFull  = "The game is already full!"
	MsgLeaveMap  = "You cannot leave the map!"
	lobbyOffsetX = -0.5
	lobbyOffsetZ = -0.5
)

// SessionSource gives read access to the session lifecycle.
type SessionSource interface {
	Snapshot() session.Snapshot
}

// PlayerFactory builds the Player registered on join. It typically attaches
// a status panel.
type PlayerFactory func(id, name string, snap session.Snapshot) (*player.Player, error)

// DefaultPlayerFactory puts players joining the lobby on the playing team
// and everyone joining later on the spectator team.
func DefaultPlayerFactory(id, name string, snap session.Snapshot) (*player.Player, error) {
	p := player.New(id, name)
	if snap.Phase == session.Waiting {
		p.SetTeam(player.Players)
	}
	return p, nil
}

type Gateway struct {
	session   SessionSource
	players   *player.Registry
	menus     *menu.Dispatcher
	newPlayer PlayerFactory
}

// New returns a gateway. A nil factory means DefaultPlayerFactory.
func New(src SessionSource, players *player.Registry, menus *menu.Dispatcher, factory PlayerFactory) *Gateway {
	if factory == nil {
		factory = DefaultPlayerFactory
	}
	return &Gateway{
		session:   src,
		players:   players,
		menus:     menus,
		newPlayer: factory,
	}
}

// Admit decides whether a new connection may enter. Only a full lobby
// refuses connections; running games accept spectators.
func (g *Gateway) Admit(id string) Decision {
	snap := g.session.Snapshot()
	if snap.Phase != session.Waiting || snap.Minigame == nil {
		return allow()
	}
	playing := g.players.ActivePlayerCount(player.Playing)
	if playing >= snap.Minigame.MaxPlayers {
		log.Printf("gateway: refused %s, %s is full (%d/%d)", id, snap.Minigame.Name, playing, snap.Minigame.MaxPlayers)
		return deny(MsgGameFull)
	}
	return allow()
}

// Spawn places a joining player: the lobby while waiting, the map centre
// otherwise.
func (g *Gateway) Spawn(id string) Decision {
	snap := g.session.Snapshot()
	if snap.Phase == session.Waiting || snap.Map == nil {
		return redirect(snap.Lobby.Add(lobbyOffsetX, 0, lobbyOffsetZ))
	}
	return redirect(snap.Map.Center)
}

// Join registers the player. The default join broadcast is always
// suppressed.
func (g *Gateway) Join(id, name string) (Decision, error) {
	d := Decision{Verdict: Allow, SuppressBroadcast: true}
	p, err := g.newPlayer(id, name, g.session.Snapshot())
	if err != nil {
		d.Verdict = Deny
		return d, fmt.Errorf("join %s: %w", id, err)
	}
	if err := g.players.Register(p); err != nil {
		if cerr := p.Close(); cerr != nil {
			log.Printf("gateway: discard %s: %v", id, cerr)
		}
		d.Verdict = Deny
		return d, fmt.Errorf("join %s: %w", id, err)
	}
	log.Printf("gateway: %s joined as %s (%s)", name, id, p.Team().Name)
	return d, nil
}

// Quit unregisters the player. The default quit broadcast is always
// suppressed.
func (g *Gateway) Quit(id string) Decision {
	if p, ok := g.players.Unregister(id); ok {
		log.Printf("gateway: %s left (%s)", p.Name(), id)
	}
	return Decision{Verdict: Allow, SuppressBroadcast: true}
}

// Move gates a movement from one position to another. Moves inside the same
// horizontal cell are always allowed so players can still jump.
func (g *Gateway) Move(id string, from, to session.Point) Decision {
	if from.Cell() == to.Cell() {
		return allow()
	}
	p, ok := g.players.PlayerFor(id)
	if !ok || !p.IsPlaying() {
		return allow()
	}
	snap := g.session.Snapshot()
	switch snap.Phase {
	case session.Starting:
		return deny("")
	case session.InGame:
		if snap.Map != nil && !snap.Map.Bounds.ContainsXZ(to) {
			return deny(MsgLeaveMap)
		}
	}
	return allow()
}

// DamageCause names what hurt an entity.
type DamageCause string

const (
	CauseVoid   DamageCause = "void"
	CauseFall   DamageCause = "fall"
	CauseEntity DamageCause = "entity"
	CauseOther  DamageCause = "other"
)

// DamageEvent describes damage dealt to an entity.
type DamageEvent struct {
	TargetID       string      `json:"targetId"`
	TargetIsPlayer bool        `json:"targetIsPlayer"`
	Cause          DamageCause `json:"cause"`
}

// Damage cancels damage to players outside the game. A player falling into
// the void is sent back to the lobby spawn.
func (g *Gateway) Damage(ev DamageEvent) Decision {
	if !ev.TargetIsPlayer {
		return allow()
	}
	snap := g.session.Snapshot()
	if snap.Phase == session.InGame {
		return allow()
	}
	d := deny("")
	if ev.Cause == CauseVoid {
		lobby := snap.Lobby
		d.Location = &lobby
	}
	return d
}

// Death hands the death to the player's minigame hooks.
func (g *Gateway) Death(id string, ev player.DeathEvent) Decision {
	if p, ok := g.players.PlayerFor(id); ok {
		p.Death(&ev)
	}
	return allow()
}

// Respawn hands the respawn to the player's minigame hooks. A location
// chosen by the hooks becomes a redirect.
func (g *Gateway) Respawn(id string) Decision {
	p, ok := g.players.PlayerFor(id)
	if !ok {
		return allow()
	}
	if at, ok := p.Respawn(); ok {
		return redirect(at)
	}
	return allow()
}

func (g *Gateway) PostRespawn(id string) Decision {
	if p, ok := g.players.PlayerFor(id); ok {
		p.PostRespawn()
	}
	return allow()
}

// InteractAction is the kind of interaction.
type InteractAction string

const (
	LeftClickAir    InteractAction = "left_click_air"
	LeftClickBlock  InteractAction = "left_click_block"
	RightClickAir   InteractAction = "right_click_air"
	RightClickBlock InteractAction = "right_click_block"
	Physical        InteractAction = "physical"
)

// InteractEvent is a generic world interaction, optionally with an item in
// hand that carries a menu token.
type InteractEvent struct {
	PlayerID string         `json:"-"`
	Action   InteractAction `json:"action"`
	Token    menu.Token     `json:"token,omitempty"`
}

// Interact routes right-clicks with a menu item to the dispatcher, then
// cancels every other interaction outside the game.
func (g *Gateway) Interact(ev InteractEvent) Decision {
	if ev.Token != "" && (ev.Action == RightClickAir || ev.Action == RightClickBlock) {
		if p, ok := g.players.PlayerFor(ev.PlayerID); ok {
			if out := g.menus.Use(p, ev.Token); out.Cancel {
				return deny("")
			}
		}
	}
	if g.session.Snapshot().Phase != session.InGame {
		return deny("")
	}
	return allow()
}

// ClickEvent is a click in the player's inventory UI.
type ClickEvent struct {
	PlayerID string     `json:"-"`
	Slot     int        `json:"slot"`
	Token    menu.Token `json:"token,omitempty"`
}

// Click routes an inventory click to the open menu, or to the item's token
// when no menu is open.
func (g *Gateway) Click(ev ClickEvent) Decision {
	p, ok := g.players.PlayerFor(ev.PlayerID)
	if !ok {
		return allow()
	}
	out := g.menus.Click(p, ev.Slot)
	if !out.Cancel && ev.Token != "" {
		out = g.menus.Use(p, ev.Token)
	}
	if out.Cancel {
		return deny("")
	}
	return allow()
}

// CloseMenu handles the client's close signal.
func (g *Gateway) CloseMenu(id string) {
	if p, ok := g.players.PlayerFor(id); ok {
		g.menus.Close(p)
	}
}

// Portal cancels every dimension transition.
func (g *Gateway) Portal(id string) Decision {
	return deny("")
}

// Hunger freezes food levels in the lobby.
func (g *Gateway) Hunger(id string) Decision {
	if g.session.Snapshot().Phase == session.Waiting {
		return deny("")
	}
	return allow()
}

// Drop cancels item drops outside the game.
func (g *Gateway) Drop(id string) Decision {
	if g.session.Snapshot().Phase != session.InGame {
		return deny("")
	}
	return allow()
}
