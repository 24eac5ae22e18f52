package player

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
)

// ErrDuplicate is returned when an identity is already registered.
var ErrDuplicate = errors.New("player already registered")

// Registry maps connection ids to live players. There is at most one
// Player per id.
type Registry struct {
	mu      sync.RWMutex
	players map[string]*Player
}

func NewRegistry() *Registry {
	return &Registry{
		players: make(map[string]*Player),
	}
}

func (r *Registry) PlayerFor(id string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

func (r *Registry) Register(p *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[p.id]; ok {
		return fmt.Errorf("register %s: %w", p.id, ErrDuplicate)
	}
	r.players[p.id] = p
	return nil
}

// Unregister removes the player and releases its panel and menus.
func (r *Registry) Unregister(id string) (*Player, bool) {
	r.mu.Lock()
	p, ok := r.players[id]
	delete(r.players, id)
	r.mu.Unlock()

	if !ok {
		return nil, false
	}
	if err := p.Close(); err != nil {
		log.Printf("player: teardown %s: %v", id, err)
	}
	return p, true
}

// ActivePlayerCount counts players matching pred. A nil pred counts all.
func (r *Registry) ActivePlayerCount(pred func(*Player) bool) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if pred == nil {
		return len(r.players)
	}
	n := 0
	for _, p := range r.players {
		if pred(p) {
			n++
		}
	}
	return n
}

// Playing is the predicate for players on a playing team.
func Playing(p *Player) bool {
	return p.IsPlaying()
}

// All returns every player ordered by id.
func (r *Registry) All() []*Player {
	r.mu.RLock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
