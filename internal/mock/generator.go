// Package mock drives a demo session in place of a real minigame: it walks
// the lifecycle through its phases, keeps every status panel current and
// runs a map vote from a lobby item.
package mock

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/ludos/server/internal/menu"
	"github.com/ludos/server/internal/panel"
	"github.com/ludos/server/internal/player"
	"github.com/ludos/server/internal/session"
)

// Notifier shows a transient message to one player.
type Notifier interface {
	ActionBar(id, text string) error
}

// Timing controls how long each phase lasts.
type Timing struct {
	Countdown time.Duration
	Round     time.Duration
	Ending    time.Duration
	Tick      time.Duration
}

// Panel field positions.
const (
	fieldPhase = iota
	fieldPlayers
	fieldClock
	fieldMap
	fieldTeam
)

const minPlayers = 1

type Generator struct {
	life    *session.Lifecycle
	players *player.Registry
	menus   *menu.Dispatcher
	notify  Notifier
	timing  Timing
	maps    []session.GameMap

	mu         sync.Mutex
	phaseStart time.Time
	votes      map[string]string
	equipped   map[string]bool
	vote       *menu.Menu
}

// NewGenerator returns a generator voting between maps. The first map is
// used when nobody votes. notify may be nil.
func NewGenerator(life *session.Lifecycle, players *player.Registry, menus *menu.Dispatcher, notify Notifier, timing Timing, maps []session.GameMap) *Generator {
	if timing.Tick <= 0 {
		timing.Tick = 500 * time.Millisecond
	}
	g := &Generator{
		life:     life,
		players:  players,
		menus:    menus,
		notify:   notify,
		timing:   timing,
		maps:     maps,
		votes:    make(map[string]string),
		equipped: make(map[string]bool),
	}
	g.vote = g.buildVoteMenu()
	return g
}

func (g *Generator) Start(ctx context.Context) {
	g.mu.Lock()
	g.phaseStart = time.Now()
	g.mu.Unlock()
	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(g.timing.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			g.Step(now)
		}
	}
}

// Step advances the demo to now: it moves the phase along when its time is
// up, hands out lobby items and rewrites every panel.
func (g *Generator) Step(now time.Time) {
	g.mu.Lock()
	if g.phaseStart.IsZero() {
		g.phaseStart = now
	}
	elapsed := now.Sub(g.phaseStart)
	g.mu.Unlock()

	phase := g.life.CurrentPhase()
	playing := g.players.ActivePlayerCount(player.Playing)

	switch phase {
	case session.Waiting:
		if playing >= minPlayers {
			g.transition(session.Starting, now)
		}
	case session.Starting:
		if playing < minPlayers {
			g.transition(session.Waiting, now)
		} else if elapsed >= g.timing.Countdown {
			g.loadWinningMap()
			g.transition(session.InGame, now)
		}
	case session.InGame:
		if playing == 0 || elapsed >= g.timing.Round {
			g.transition(session.Ending, now)
		}
	case session.Ending:
		if elapsed >= g.timing.Ending {
			g.resetRound()
			g.transition(session.Waiting, now)
		}
	}

	g.updatePlayers(now)
}

func (g *Generator) transition(to session.Phase, now time.Time) {
	g.mu.Lock()
	g.phaseStart = now
	g.mu.Unlock()

	from := g.life.SetPhase(to)
	log.Printf("mock: %s -> %s", from, to)

	if to == session.InGame {
		for _, p := range g.players.All() {
			g.menus.Dismiss(p)
		}
	}
}

// resetRound puts everyone back on the playing team for the next round.
func (g *Generator) resetRound() {
	for _, p := range g.players.All() {
		p.SetTeam(player.Players)
	}
	g.mu.Lock()
	clear(g.votes)
	g.mu.Unlock()
}

func (g *Generator) updatePlayers(now time.Time) {
	snap := g.life.Snapshot()
	playing := g.players.ActivePlayerCount(player.Playing)
	capacity := "-"
	if snap.Minigame != nil {
		capacity = fmt.Sprint(snap.Minigame.MaxPlayers)
	}

	g.mu.Lock()
	remaining := g.remainingLocked(snap.Phase, now)
	g.mu.Unlock()

	all := g.players.All()
	g.prune(all)
	for _, p := range all {
		g.equip(p)

		pn := p.Panel()
		if pn == nil {
			continue
		}
		if snap.Minigame != nil {
			pn.SetTitle(snap.Minigame.Name)
		}
		pn.SetField(fieldPhase, panel.Field{Name: "Phase", Value: phaseLabel(snap.Phase)})
		pn.SetField(fieldPlayers, panel.Field{Name: "Players", Value: fmt.Sprintf("%d/%s", playing, capacity), OneLine: true})
		if remaining > 0 {
			pn.SetField(fieldClock, panel.Field{Name: "Time", Value: formatClock(remaining), OneLine: true})
		} else {
			pn.RemoveField(fieldClock)
		}
		if snap.Map != nil {
			pn.SetField(fieldMap, panel.Field{Name: "Map", Value: snap.Map.Name})
		} else {
			pn.RemoveField(fieldMap)
		}
		pn.SetField(fieldTeam, panel.Field{Name: "Team", Value: p.Team().Name, OneLine: true})
	}
}

func (g *Generator) remainingLocked(phase session.Phase, now time.Time) time.Duration {
	var total time.Duration
	switch phase {
	case session.Starting:
		total = g.timing.Countdown
	case session.InGame:
		total = g.timing.Round
	case session.Ending:
		total = g.timing.Ending
	default:
		return 0
	}
	return total - now.Sub(g.phaseStart)
}

func phaseLabel(p session.Phase) string {
	switch p {
	case session.Waiting:
		return "Waiting for players"
	case session.Starting:
		return "Starting"
	case session.InGame:
		return "In game"
	case session.Ending:
		return "Game over"
	}
	return p.String()
}

func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// equip gives p the lobby vote item once.
func (g *Generator) equip(p *player.Player) {
	g.mu.Lock()
	if g.equipped[p.ID()] {
		g.mu.Unlock()
		return
	}
	g.equipped[p.ID()] = true
	g.mu.Unlock()

	g.menus.Give(p, menu.NewItem(
		menu.Static("Map vote", "Right-click to choose\nthe next map"),
		func(c menu.Click) {
			if g.life.CurrentPhase() != session.Waiting && g.life.CurrentPhase() != session.Starting {
				g.tell(c.Viewer.ID(), "Voting is closed")
				return
			}
			g.menus.Open(c.Viewer, g.vote)
		},
	))
}

// prune drops per-player state of players who left.
func (g *Generator) prune(present []*player.Player) {
	ids := make(map[string]bool, len(present))
	for _, p := range present {
		ids[p.ID()] = true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for id := range g.equipped {
		if !ids[id] {
			delete(g.equipped, id)
		}
	}
	for id := range g.votes {
		if !ids[id] {
			delete(g.votes, id)
		}
	}
}

func (g *Generator) buildVoteMenu() *menu.Menu {
	rows := (len(g.maps) + 8) / 9
	if rows == 0 {
		rows = 1
	}
	m := menu.New("Vote for a map", rows)
	for i, gm := range g.maps {
		name := gm.Name
		m.Add(i, menu.Dynamic(func() menu.Display {
			return menu.Display{
				Name:        name,
				Description: []string{fmt.Sprintf("%d vote(s)", g.VotesFor(name))},
			}
		}), func(c menu.Click) {
			g.castVote(c.Viewer.ID(), name)
			g.menus.Dismiss(c.Viewer)
			g.tell(c.Viewer.ID(), "You voted for "+name)
		})
	}
	return m
}

func (g *Generator) castVote(id, mapName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.votes[id] = mapName
}

// VotesFor counts the votes cast for mapName this round.
func (g *Generator) VotesFor(mapName string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, v := range g.votes {
		if v == mapName {
			n++
		}
	}
	return n
}

// winner returns the map with the most votes; ties go to the earlier map.
func (g *Generator) winner() (session.GameMap, bool) {
	if len(g.maps) == 0 {
		return session.GameMap{}, false
	}
	g.mu.Lock()
	counts := make(map[string]int, len(g.votes))
	for _, v := range g.votes {
		counts[v]++
	}
	g.mu.Unlock()

	order := make([]int, len(g.maps))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[g.maps[order[a]].Name] > counts[g.maps[order[b]].Name]
	})
	return g.maps[order[0]], true
}

func (g *Generator) loadWinningMap() {
	gm, ok := g.winner()
	if !ok {
		return
	}
	g.life.LoadMap(&gm)
	log.Printf("mock: playing on %s", gm.Name)
}

func (g *Generator) tell(id, text string) {
	if g.notify == nil {
		return
	}
	if err := g.notify.ActionBar(id, text); err != nil {
		log.Printf("mock: notify %s: %v", id, err)
	}
}
