package player

import (
	"sync"

	"github.com/ludos/server/internal/menu"
	"github.com/ludos/server/internal/panel"
	"github.com/ludos/server/internal/session"
)

// Team groups players. Only members of a playing team are subject to the
// movement, damage and interaction restrictions.
type Team struct {
	Name    string `json:"name"`
	Playing bool   `json:"playing"`
}

// IsPlayingTeam reports whether members of t are competitors.
func (t *Team) IsPlayingTeam() bool {
	return t != nil && t.Playing
}

// Default teams.
var (
	Players    = &Team{Name: "players", Playing: true}
	Spectators = &Team{Name: "spectators"}
)

// DeathEvent carries what is known about a player's death.
type DeathEvent struct {
	Cause   string
	Message string
}

// Hooks lets the running minigame react to a player's death and respawn.
type Hooks interface {
	OnDeath(p *Player, ev *DeathEvent)
	// OnRespawn may return a location to respawn at.
	OnRespawn(p *Player) (session.Point, bool)
	OnPostRespawn(p *Player)
}

// Player is a connected participant.
type Player struct {
	id   string
	name string

	menus menu.Holder

	mu    sync.RWMutex
	team  *Team
	hooks Hooks
	panel *panel.Panel
}

// New returns a player on the spectator team.
func New(id, name string) *Player {
	return &Player{id: id, name: name, team: Spectators}
}

func (p *Player) ID() string   { return p.id }
func (p *Player) Name() string { return p.name }

// Menus returns the player's menu state.
func (p *Player) Menus() *menu.Holder { return &p.menus }

func (p *Player) Team() *Team {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.team
}

func (p *Player) SetTeam(t *Team) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.team = t
}

// IsPlaying reports whether the player's team is a playing team.
func (p *Player) IsPlaying() bool {
	return p.Team().IsPlayingTeam()
}

func (p *Player) SetHooks(h Hooks) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = h
}

func (p *Player) Panel() *panel.Panel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.panel
}

// AttachPanel gives the player its status panel. A previous panel is torn
// down.
func (p *Player) AttachPanel(pn *panel.Panel) error {
	p.mu.Lock()
	old := p.panel
	p.panel = pn
	p.mu.Unlock()
	if old != nil && old != pn {
		return old.Close()
	}
	return nil
}

func (p *Player) hooksSnapshot() Hooks {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hooks
}

// Death forwards a death to the minigame hooks.
func (p *Player) Death(ev *DeathEvent) {
	if h := p.hooksSnapshot(); h != nil {
		h.OnDeath(p, ev)
	}
}

// Respawn forwards a respawn to the minigame hooks and returns the
// location they chose, if any.
func (p *Player) Respawn() (session.Point, bool) {
	if h := p.hooksSnapshot(); h != nil {
		return h.OnRespawn(p)
	}
	return session.Point{}, false
}

// PostRespawn runs once the player is back in the world.
func (p *Player) PostRespawn() {
	if h := p.hooksSnapshot(); h != nil {
		h.OnPostRespawn(p)
	}
}

// Close releases everything the player owns. It is safe to call twice.
func (p *Player) Close() error {
	p.menus.Reset()
	p.mu.Lock()
	pn := p.panel
	p.panel = nil
	p.mu.Unlock()
	if pn != nil {
		return pn.Close()
	}
	return nil
}
