package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/ludos/server/internal/menu"
	"github.com/ludos/server/internal/player"
	"github.com/ludos/server/internal/session"
)

var lobby = session.Point{X: 10, Y: 64, Z: 10}

type fixture struct {
	life    *session.Lifecycle
	players *player.Registry
	menus   *menu.Dispatcher
	gw      *Gateway
}

func newFixture(t *testing.T, phase session.Phase) *fixture {
	t.Helper()
	life := session.NewLifecycle(lobby)
	life.LoadMinigame(&session.Minigame{Name: "spleef", MaxPlayers: 4})
	life.LoadMap(&session.GameMap{
		Name:   "arena",
		Bounds: session.Region{Min: session.Point{X: 0, Z: 0}, Max: session.Point{X: 50, Z: 50}},
		Center: session.Point{X: 25, Y: 70, Z: 25},
	})
	life.SetPhase(phase)

	players := player.NewRegistry()
	menus := menu.NewDispatcher(nil)
	return &fixture{
		life:    life,
		players: players,
		menus:   menus,
		gw:      New(life, players, menus, nil),
	}
}

func (f *fixture) add(t *testing.T, id string, team *player.Team) *player.Player {
	t.Helper()
	p := player.New(id, id)
	p.SetTeam(team)
	if err := f.players.Register(p); err != nil {
		t.Fatal(err)
	}
	return p
}

var allPhases = []session.Phase{session.Waiting, session.Starting, session.InGame, session.Ending}

func TestAdmitCapacity(t *testing.T) {
	tests := []struct {
		name    string
		phase   session.Phase
		playing int
		want    Verdict
	}{
		{"waiting below capacity", session.Waiting, 3, Allow},
		{"waiting at capacity", session.Waiting, 4, Deny},
		{"waiting over capacity", session.Waiting, 5, Deny},
		{"starting at capacity", session.Starting, 4, Allow},
		{"ingame at capacity", session.InGame, 4, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.phase)
			for i := 0; i < tt.playing; i++ {
				f.add(t, fmt.Sprintf("p%d", i), player.Players)
			}
			// Spectators never count towards capacity.
			f.add(t, "watcher", player.Spectators)

			d := f.gw.Admit("newcomer")
			if d.Verdict != tt.want {
				t.Errorf("Admit verdict = %v, want %v", d.Verdict, tt.want)
			}
			if tt.want == Deny && d.Message != MsgGameFull {
				t.Errorf("Admit message = %q", d.Message)
			}
		})
	}
}

func TestAdmitWithoutMinigame(t *testing.T) {
	f := newFixture(t, session.Waiting)
	f.life.LoadMinigame(nil)
	for i := 0; i < 10; i++ {
		f.add(t, fmt.Sprintf("p%d", i), player.Players)
	}
	if d := f.gw.Admit("x"); d.Verdict != Allow {
		t.Errorf("Admit without minigame = %v, want allow", d.Verdict)
	}
}

func TestSpawn(t *testing.T) {
	for _, phase := range allPhases {
		t.Run(phase.String(), func(t *testing.T) {
			f := newFixture(t, phase)
			d := f.gw.Spawn("p1")
			if d.Verdict != Redirect || d.Location == nil {
				t.Fatalf("Spawn = %+v, want redirect", d)
			}
			want := session.Point{X: 25, Y: 70, Z: 25}
			if phase == session.Waiting {
				want = session.Point{X: 9.5, Y: 64, Z: 9.5}
			}
			if *d.Location != want {
				t.Errorf("Spawn location = %+v, want %+v", *d.Location, want)
			}
		})
	}
}

func TestSpawnWithoutMapFallsBackToLobby(t *testing.T) {
	f := newFixture(t, session.InGame)
	f.life.LoadMap(nil)
	d := f.gw.Spawn("p1")
	if d.Location == nil || *d.Location != lobby.Add(-0.5, 0, -0.5) {
		t.Errorf("Spawn without map = %+v", d)
	}
}

func TestJoinAndQuit(t *testing.T) {
	f := newFixture(t, session.Waiting)

	d, err := f.gw.Join("c1", "alice")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !d.SuppressBroadcast || d.Verdict != Allow {
		t.Errorf("Join decision = %+v", d)
	}
	p, ok := f.players.PlayerFor("c1")
	if !ok || !p.IsPlaying() {
		t.Fatal("joining the lobby should register a playing player")
	}

	if _, err := f.gw.Join("c1", "alice"); !errors.Is(err, player.ErrDuplicate) {
		t.Errorf("duplicate Join error = %v", err)
	}

	q := f.gw.Quit("c1")
	if !q.SuppressBroadcast {
		t.Error("Quit did not suppress the broadcast")
	}
	if _, ok := f.players.PlayerFor("c1"); ok {
		t.Error("player still registered after Quit")
	}
	if q := f.gw.Quit("c1"); !q.SuppressBroadcast || q.Verdict != Allow {
		t.Errorf("Quit of unknown player = %+v", q)
	}
}

func TestJoinMidGameSpectates(t *testing.T) {
	f := newFixture(t, session.InGame)
	if _, err := f.gw.Join("c1", "late"); err != nil {
		t.Fatal(err)
	}
	p, _ := f.players.PlayerFor("c1")
	if p.IsPlaying() {
		t.Error("player joining mid-game was put on the playing team")
	}
}

func TestJoinFactoryError(t *testing.T) {
	f := newFixture(t, session.Waiting)
	boom := errors.New("no panel")
	gw := New(f.life, f.players, f.menus, func(string, string, session.Snapshot) (*player.Player, error) {
		return nil, boom
	})
	d, err := gw.Join("c1", "alice")
	if !errors.Is(err, boom) || d.Verdict != Deny || !d.SuppressBroadcast {
		t.Errorf("Join = %+v, %v", d, err)
	}
}

func TestMoveRules(t *testing.T) {
	inside := session.Point{X: 10.2, Y: 70, Z: 10.2}
	tests := []struct {
		name    string
		phase   session.Phase
		team    *player.Team
		from    session.Point
		to      session.Point
		want    Verdict
		message string
	}{
		// Same cell is always a no-op, whatever the phase or team.
		{"jump waiting", session.Waiting, player.Players, inside, inside.Add(0, 1.2, 0), Allow, ""},
		{"jump starting", session.Starting, player.Players, inside, inside.Add(0.5, 1, 0.5), Allow, ""},
		{"jump ingame outside", session.InGame, player.Players, session.Point{X: 60.1, Z: 60.1}, session.Point{X: 60.9, Y: 2, Z: 60.9}, Allow, ""},

		{"waiting walk", session.Waiting, player.Players, inside, inside.Add(1, 0, 0), Allow, ""},
		{"starting walk", session.Starting, player.Players, inside, inside.Add(1, 0, 0), Deny, ""},
		{"starting spectator", session.Starting, player.Spectators, inside, inside.Add(1, 0, 0), Allow, ""},
		{"ingame walk inside", session.InGame, player.Players, inside, inside.Add(1, 0, 0), Allow, ""},
		{"ingame leave map", session.InGame, player.Players, session.Point{X: 49, Z: 10}, session.Point{X: 51, Z: 10}, Deny, MsgLeaveMap},
		{"ingame spectator leave map", session.InGame, player.Spectators, session.Point{X: 49, Z: 10}, session.Point{X: 51, Z: 10}, Allow, ""},
		{"ending leave map", session.Ending, player.Players, session.Point{X: 49, Z: 10}, session.Point{X: 51, Z: 10}, Allow, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.phase)
			f.add(t, "p1", tt.team)
			d := f.gw.Move("p1", tt.from, tt.to)
			if d.Verdict != tt.want || d.Message != tt.message {
				t.Errorf("Move = %+v, want %v %q", d, tt.want, tt.message)
			}
		})
	}
}

func TestMoveUnknownPlayer(t *testing.T) {
	f := newFixture(t, session.Starting)
	if d := f.gw.Move("ghost", session.Point{}, session.Point{X: 5}); d.Verdict != Allow {
		t.Errorf("Move of unknown player = %v", d.Verdict)
	}
}

func TestLeavingMapScenario(t *testing.T) {
	f := newFixture(t, session.InGame)
	f.add(t, "p1", player.Players)

	pos := session.Point{X: 49.5, Y: 70, Z: 10.5}
	d := f.gw.Move("p1", pos, session.Point{X: 51.5, Y: 70, Z: 10.5})
	if !d.Cancelled() {
		t.Fatal("leaving the map was not cancelled")
	}
	if d.Message != MsgLeaveMap {
		t.Errorf("message = %q", d.Message)
	}
	// The transport keeps the player where it was; the next move from
	// there inside the map is fine.
	if d := f.gw.Move("p1", pos, pos.Add(-1, 0, 0)); d.Cancelled() {
		t.Error("moving back inside was cancelled")
	}
}

func TestDamageRules(t *testing.T) {
	for _, phase := range allPhases {
		for _, cause := range []DamageCause{CauseVoid, CauseFall} {
			t.Run(phase.String()+"/"+string(cause), func(t *testing.T) {
				f := newFixture(t, phase)
				d := f.gw.Damage(DamageEvent{TargetID: "p1", TargetIsPlayer: true, Cause: cause})
				if phase == session.InGame {
					if d.Verdict != Allow || d.Location != nil {
						t.Errorf("in-game damage = %+v, want allow", d)
					}
					return
				}
				if d.Verdict != Deny {
					t.Errorf("damage outside game = %v, want deny", d.Verdict)
				}
				if cause == CauseVoid {
					if d.Location == nil || *d.Location != lobby {
						t.Errorf("void damage teleport = %v, want lobby", d.Location)
					}
				} else if d.Location != nil {
					t.Errorf("fall damage teleported to %v", d.Location)
				}
			})
		}
	}

	f := newFixture(t, session.Waiting)
	if d := f.gw.Damage(DamageEvent{TargetID: "zombie", Cause: CauseEntity}); d.Verdict != Allow {
		t.Error("damage to non-player was cancelled")
	}
}

type hooks struct {
	deaths, respawns, posts int
	to                      *session.Point
}

func (h *hooks) OnDeath(*player.Player, *player.DeathEvent) { h.deaths++ }
func (h *hooks) OnRespawn(*player.Player) (session.Point, bool) {
	h.respawns++
	if h.to != nil {
		return *h.to, true
	}
	return session.Point{}, false
}
func (h *hooks) OnPostRespawn(*player.Player) { h.posts++ }

func TestDeathAndRespawnDelegate(t *testing.T) {
	f := newFixture(t, session.InGame)
	p := f.add(t, "p1", player.Players)
	to := session.Point{X: 1, Y: 2, Z: 3}
	h := &hooks{to: &to}
	p.SetHooks(h)

	f.gw.Death("p1", player.DeathEvent{Cause: "fall"})
	d := f.gw.Respawn("p1")
	f.gw.PostRespawn("p1")

	if h.deaths != 1 || h.respawns != 1 || h.posts != 1 {
		t.Errorf("hooks = %+v", h)
	}
	if d.Verdict != Redirect || *d.Location != to {
		t.Errorf("Respawn = %+v", d)
	}

	h.to = nil
	if d := f.gw.Respawn("p1"); d.Verdict != Allow {
		t.Errorf("Respawn without override = %v", d.Verdict)
	}
	// Unknown players are ignored.
	f.gw.Death("ghost", player.DeathEvent{})
	f.gw.PostRespawn("ghost")
}

func TestPhaseOnlyRules(t *testing.T) {
	tests := []struct {
		name string
		run  func(g *Gateway) Decision
		deny map[session.Phase]bool
	}{
		{
			name: "interact",
			run: func(g *Gateway) Decision {
				return g.Interact(InteractEvent{PlayerID: "p1", Action: RightClickBlock})
			},
			deny: map[session.Phase]bool{session.Waiting: true, session.Starting: true, session.Ending: true},
		},
		{
			name: "portal",
			run:  func(g *Gateway) Decision { return g.Portal("p1") },
			deny: map[session.Phase]bool{session.Waiting: true, session.Starting: true, session.InGame: true, session.Ending: true},
		},
		{
			name: "hunger",
			run:  func(g *Gateway) Decision { return g.Hunger("p1") },
			deny: map[session.Phase]bool{session.Waiting: true},
		},
		{
			name: "drop",
			run:  func(g *Gateway) Decision { return g.Drop("p1") },
			deny: map[session.Phase]bool{session.Waiting: true, session.Starting: true, session.Ending: true},
		},
	}
	for _, tt := range tests {
		for _, phase := range allPhases {
			for _, team := range []*player.Team{player.Players, player.Spectators} {
				t.Run(fmt.Sprintf("%s/%s/%s", tt.name, phase, team.Name), func(t *testing.T) {
					f := newFixture(t, phase)
					f.add(t, "p1", team)
					d := tt.run(f.gw)
					if d.Cancelled() != tt.deny[phase] {
						t.Errorf("cancelled = %v, want %v", d.Cancelled(), tt.deny[phase])
					}
				})
			}
		}
	}
}

func TestInteractWithMenuToken(t *testing.T) {
	f := newFixture(t, session.InGame)
	p := f.add(t, "p1", player.Players)

	var used int
	item := menu.NewItem(menu.Static("Game selector", ""), func(menu.Click) { used++ })
	p.Menus().Attach(item)

	d := f.gw.Interact(InteractEvent{PlayerID: "p1", Action: RightClickAir, Token: item.Token()})
	if !d.Cancelled() || used != 1 {
		t.Errorf("right-click with token: cancelled=%v used=%d", d.Cancelled(), used)
	}

	// Left clicks never reach the menu system.
	d = f.gw.Interact(InteractEvent{PlayerID: "p1", Action: LeftClickAir, Token: item.Token()})
	if d.Cancelled() || used != 1 {
		t.Errorf("left-click with token: cancelled=%v used=%d", d.Cancelled(), used)
	}
}

func TestClickRouting(t *testing.T) {
	f := newFixture(t, session.InGame)
	p := f.add(t, "p1", player.Players)

	// No menu open, no token: default handling.
	if d := f.gw.Click(ClickEvent{PlayerID: "p1", Slot: 3}); d.Cancelled() {
		t.Error("plain inventory click was cancelled")
	}

	var clicked []int
	m := menu.New("shop", 1)
	m.Add(3, menu.Static("sword", ""), func(c menu.Click) { clicked = append(clicked, c.Item.Slot()) })
	f.menus.Open(p, m)

	if d := f.gw.Click(ClickEvent{PlayerID: "p1", Slot: 3}); !d.Cancelled() {
		t.Error("menu click was not cancelled")
	}
	if d := f.gw.Click(ClickEvent{PlayerID: "p1", Slot: 4}); !d.Cancelled() {
		t.Error("empty menu slot click was not cancelled")
	}
	if len(clicked) != 1 || clicked[0] != 3 {
		t.Errorf("clicked = %v", clicked)
	}

	f.gw.CloseMenu("p1")
	if d := f.gw.Click(ClickEvent{PlayerID: "p1", Slot: 3}); d.Cancelled() {
		t.Error("click after close was cancelled")
	}
	if len(clicked) != 1 {
		t.Error("click after close reached the menu")
	}

	hotbar := menu.NewItem(menu.Static("compass", ""), func(menu.Click) { clicked = append(clicked, -1) })
	p.Menus().Attach(hotbar)
	if d := f.gw.Click(ClickEvent{PlayerID: "p1", Slot: 0, Token: hotbar.Token()}); !d.Cancelled() {
		t.Error("click on a token item was not cancelled")
	}
	if len(clicked) != 2 || clicked[1] != -1 {
		t.Errorf("token click not dispatched: %v", clicked)
	}

	if d := f.gw.Click(ClickEvent{PlayerID: "ghost", Slot: 1}); d.Cancelled() {
		t.Error("click from unknown player was cancelled")
	}
}

func TestDecisionsArePureFunctionsOfSnapshot(t *testing.T) {
	f := newFixture(t, session.InGame)
	f.add(t, "p1", player.Players)
	from, to := session.Point{X: 49, Z: 10}, session.Point{X: 51, Z: 10}

	first := f.gw.Move("p1", from, to)
	for i := 0; i < 10; i++ {
		if d := f.gw.Move("p1", from, to); d != first {
			t.Fatalf("decision changed between identical evaluations: %+v vs %+v", d, first)
		}
	}

	f.life.SetPhase(session.Waiting)
	if d := f.gw.Move("p1", from, to); d.Cancelled() {
		t.Error("decision ignored the new phase")
	}
}

func TestDecisionJSON(t *testing.T) {
	at := session.Point{X: 1, Y: 2, Z: 3}
	in := Decision{Verdict: Redirect, Location: &at}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"verdict":"redirect","location":{"x":1,"y":2,"z":3}}`; string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var out Decision
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Verdict != Redirect || out.Location == nil || *out.Location != at {
		t.Errorf("Unmarshal = %+v", out)
	}
	if err := json.Unmarshal([]byte(`{"verdict":"maybe"}`), &out); err == nil {
		t.Error("unknown verdict accepted")
	}
}
