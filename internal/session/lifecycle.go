package session

import "sync"

// Minigame describes the game currently configured on this server.
type Minigame struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
}

// GameMap is the arena the current minigame is played on.
type GameMap struct {
	Name   string `json:"name"`
	Bounds Region `json:"bounds"`
	Center Point  `json:"center"`
}

// Snapshot is a consistent copy of the lifecycle state. Gates take one
// snapshot per action and never re-read the lifecycle while deciding.
type Snapshot struct {
	Phase    Phase     `json:"phase"`
	Minigame *Minigame `json:"minigame,omitempty"`
	Map      *GameMap  `json:"map,omitempty"`
	Lobby    Point     `json:"lobby"`
}

// PhaseListener is notified after the phase changed.
type PhaseListener func(from, to Phase)

// Lifecycle holds the session phase and the active map. It is owned by the
// game orchestration layer; everything else only reads it.
type Lifecycle struct {
	mu        sync.RWMutex
	phase     Phase
	minigame  *Minigame
	gameMap   *GameMap
	lobby     Point
	listeners []PhaseListener
}

func NewLifecycle(lobby Point) *Lifecycle {
	return &Lifecycle{
		phase: Waiting,
		lobby: lobby,
	}
}

// Snapshot returns a copy of the current state.
func (l *Lifecycle) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	snap := Snapshot{Phase: l.phase, Lobby: l.lobby}
	if l.minigame != nil {
		mg := *l.minigame
		snap.Minigame = &mg
	}
	if l.gameMap != nil {
		gm := *l.gameMap
		snap.Map = &gm
	}
	return snap
}

func (l *Lifecycle) CurrentPhase() Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// ActiveMinigameCapacity returns the player capacity of the loaded
// minigame. ok is false when no minigame is loaded.
func (l *Lifecycle) ActiveMinigameCapacity() (capacity int, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.minigame == nil {
		return 0, false
	}
	return l.minigame.MaxPlayers, true
}

func (l *Lifecycle) CurrentMapBounds() (Region, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.gameMap == nil {
		return Region{}, false
	}
	return l.gameMap.Bounds, true
}

func (l *Lifecycle) LobbySpawnPoint() Point {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lobby
}

func (l *Lifecycle) MapCenterPoint() (Point, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.gameMap == nil {
		return Point{}, false
	}
	return l.gameMap.Center, true
}

// SetPhase moves the session to p and returns the previous phase.
// Listeners run on the caller's goroutine after the lock is released.
func (l *Lifecycle) SetPhase(p Phase) Phase {
	l.mu.Lock()
	prev := l.phase
	l.phase = p
	listeners := append([]PhaseListener(nil), l.listeners...)
	l.mu.Unlock()

	if prev != p {
		for _, fn := range listeners {
			fn(prev, p)
		}
	}
	return prev
}

// LoadMinigame replaces the configured minigame. nil unloads it.
func (l *Lifecycle) LoadMinigame(mg *Minigame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if mg == nil {
		l.minigame = nil
		return
	}
	c := *mg
	l.minigame = &c
}

// LoadMap replaces the active map. nil unloads it.
func (l *Lifecycle) LoadMap(gm *GameMap) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gm == nil {
		l.gameMap = nil
		return
	}
	c := *gm
	l.gameMap = &c
}

// SetLobbySpawn moves the lobby spawn point.
func (l *Lifecycle) SetLobbySpawn(p Point) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lobby = p
}

// OnPhaseChange registers fn to be called on every phase transition.
func (l *Lifecycle) OnPhaseChange(fn PhaseListener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}
