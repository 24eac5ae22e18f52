// Package app is the root Bubble Tea model of the terminal client. It
// plays one player: keys become actions, server decisions move the player
// and the status panel, menus and hotbar mirror what the server shows.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ludos/server/internal/gateway"
	"github.com/ludos/server/internal/session"
	"github.com/ludos/server/internal/viewer/client"
	"github.com/ludos/server/internal/viewer/theme"
	"github.com/ludos/server/internal/viewer/views/eventlog"
	"github.com/ludos/server/internal/viewer/views/help"
	"github.com/ludos/server/internal/viewer/views/inventory"
	"github.com/ludos/server/internal/viewer/views/sidebar"
	"github.com/ludos/server/internal/viewer/views/status"
	"github.com/ludos/server/internal/ws"
)

const (
	statusPollInterval = 2 * time.Second
	actionBarDuration  = 3 * time.Second
)

// Conn is the websocket side of the client.
type Conn interface {
	Listen(ctx context.Context) tea.Cmd
	ReadLoop(ctx context.Context) tea.Cmd
	Send(typ ws.MessageType, payload interface{}) (uint64, error)
}

// API is the REST side of the client.
type API interface {
	FetchStatus() tea.Cmd
	ChangePhase(p session.Phase) tea.Cmd
}

type pollMsg struct{}

type clearBarMsg struct{ gen int }

// Model is the root Bubble Tea model.
type Model struct {
	conn   Conn
	api    API
	ctx    context.Context
	cancel context.CancelFunc

	keys   KeyMap
	width  int
	height int

	id       string
	pos      session.Point
	pending  map[uint64]session.Point // move targets awaiting a decision
	showLog  bool
	showHelp bool
	barGen   int
	kicked   string
	panelOff bool

	statusBar status.Model
	sidebar   sidebar.Model
	inventory inventory.Model
	hotbar    inventory.Hotbar
	log       eventlog.Model
	help      help.Model
}

// New creates the root model. api may be nil.
func New(conn Conn, api API) Model {
	ctx, cancel := context.WithCancel(context.Background())
	keys := DefaultKeyMap()
	return Model{
		conn:      conn,
		api:       api,
		ctx:       ctx,
		cancel:    cancel,
		keys:      keys,
		pending:   make(map[uint64]session.Point),
		statusBar: status.New(),
		log:       eventlog.New(),
		help:      help.New(keys.Bindings()),
	}
}

// Kicked returns the reason the server gave for disconnecting the player.
func (m Model) Kicked() string {
	return m.kicked
}

// Position returns where the client believes the player stands.
func (m Model) Position() session.Point {
	return m.pos
}

// Init starts the WebSocket connection.
func (m Model) Init() tea.Cmd {
	return m.conn.Listen(m.ctx)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		if m.showHelp {
			m.help.View(m.width)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.ConnectedMsg:
		m.statusBar.Connected = true
		m.log.Add("sys", "connected")
		return m, tea.Batch(m.conn.ReadLoop(m.ctx), m.poll())

	case client.DisconnectedMsg:
		m.statusBar.Connected = false
		m.sidebar = sidebar.Model{}
		m.inventory.Close()
		m.hotbar = inventory.Hotbar{}
		clear(m.pending)
		if msg.Err != nil {
			m.log.Add("sys", "disconnected: "+msg.Err.Error())
		}
		if m.kicked != "" {
			m.cancel()
			return m, tea.Quit
		}
		return m, m.conn.Listen(m.ctx)

	case client.WelcomeMsg:
		m.id = msg.Payload.ID
		m.statusBar.Name = msg.Payload.Name
		m.statusBar.Phase = msg.Payload.Phase
		m.statusBar.Playing = msg.Payload.Playing
		if msg.Payload.Spawn != nil {
			m.setPos(*msg.Payload.Spawn)
		}
		m.log.Add("sys", fmt.Sprintf("joined as %s (%s)", msg.Payload.Name, msg.Payload.Phase))
		return m, m.conn.ReadLoop(m.ctx)

	case client.KickMsg:
		m.kicked = msg.Payload.Reason
		m.log.Add("sys", "kicked: "+msg.Payload.Reason)
		return m, m.conn.ReadLoop(m.ctx)

	case client.DecisionMsg:
		m.applyDecision(msg.Payload)
		return m, m.conn.ReadLoop(m.ctx)

	case client.ActionBarMsg:
		m.statusBar.ActionBar = msg.Payload.Text
		m.log.Add("bar", msg.Payload.Text)
		m.barGen++
		gen := m.barGen
		return m, tea.Batch(m.conn.ReadLoop(m.ctx), tea.Tick(actionBarDuration, func(time.Time) tea.Msg {
			return clearBarMsg{gen: gen}
		}))

	case clearBarMsg:
		if msg.gen == m.barGen {
			m.statusBar.ActionBar = ""
		}
		return m, nil

	case client.PanelMsg:
		m.sidebar.Apply(msg.Type, msg.Payload)
		return m, m.conn.ReadLoop(m.ctx)

	case client.MenuOpenMsg:
		m.inventory.Open(msg.Payload)
		return m, m.conn.ReadLoop(m.ctx)

	case client.MenuCloseMsg:
		m.inventory.Close()
		return m, m.conn.ReadLoop(m.ctx)

	case client.ItemGiveMsg:
		m.hotbar.Give(msg.Payload)
		return m, m.conn.ReadLoop(m.ctx)

	case client.ErrorMsg:
		m.log.Add("err", msg.Payload.Message)
		return m, m.conn.ReadLoop(m.ctx)

	case pollMsg:
		if m.api == nil || !m.statusBar.Connected {
			return m, nil
		}
		return m, m.api.FetchStatus()

	case client.StatusMsg:
		if msg.Err == nil {
			m.statusBar.Phase = msg.Status.Phase
		}
		return m, tea.Tick(statusPollInterval, func(time.Time) tea.Msg { return pollMsg{} })

	case client.PhaseChangedMsg:
		if msg.Err != nil {
			m.log.Add("err", msg.Err.Error())
			return m, nil
		}
		m.statusBar.Phase = msg.Change.To
		m.log.Add("sys", fmt.Sprintf("phase %s -> %s", msg.Change.From, msg.Change.To))
		return m, nil
	}

	return m, nil
}

func (m Model) poll() tea.Cmd {
	if m.api == nil {
		return nil
	}
	return m.api.FetchStatus()
}

func (m *Model) setPos(p session.Point) {
	m.pos = p
	m.statusBar.Position = p
}

// applyDecision moves the player as the server decided. An allowed move
// lands on its target; any decision carrying a location teleports there.
func (m *Model) applyDecision(p ws.DecisionPayload) {
	d := p.Decision
	target, isMove := m.pending[p.Seq]
	delete(m.pending, p.Seq)

	switch {
	case d.Location != nil:
		m.setPos(*d.Location)
	case isMove && d.Verdict == gateway.Allow:
		m.setPos(target)
	}

	text := string(p.Action)
	if d.Message != "" {
		text += ": " + d.Message
	}
	if d.Location != nil {
		text += fmt.Sprintf(" -> %.1f %.1f %.1f", d.Location.X, d.Location.Y, d.Location.Z)
	}
	m.log.Add(d.Verdict.String(), text)
}

func (m *Model) send(typ ws.MessageType, payload interface{}) (uint64, bool) {
	seq, err := m.conn.Send(typ, payload)
	if err != nil {
		m.log.Add("err", fmt.Sprintf("%s: %v", typ, err))
		return 0, false
	}
	return seq, true
}

func (m Model) move(dx, dy, dz float64) Model {
	to := m.pos.Add(dx, dy, dz)
	if seq, ok := m.send(ws.MsgMove, ws.MovePayload{From: m.pos, To: to}); ok {
		m.pending[seq] = to
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Help) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.showLog {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Log):
			m.showLog = false
		case key.Matches(msg, m.keys.ScrollUp):
			m.log.ScrollUp(1)
		case key.Matches(msg, m.keys.ScrollDn):
			m.log.ScrollDown(1)
		}
		return m, nil
	}

	if m.inventory.IsOpen() {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.inventory.Close()
			m.send(ws.MsgMenuClose, nil)
		case key.Matches(msg, m.keys.Enter):
			if it, ok := m.inventory.Selected(); ok {
				m.send(ws.MsgClick, gateway.ClickEvent{Slot: it.Slot, Token: it.Token})
			} else {
				m.send(ws.MsgClick, gateway.ClickEvent{Slot: m.inventory.Cursor})
			}
		case key.Matches(msg, m.keys.Forward):
			m.inventory.Move(0, -1)
		case key.Matches(msg, m.keys.Back):
			m.inventory.Move(0, 1)
		case key.Matches(msg, m.keys.Left):
			m.inventory.Move(-1, 0)
		case key.Matches(msg, m.keys.Right):
			m.inventory.Move(1, 0)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Forward):
		return m.move(0, 0, -1), nil
	case key.Matches(msg, m.keys.Back):
		return m.move(0, 0, 1), nil
	case key.Matches(msg, m.keys.Left):
		return m.move(-1, 0, 0), nil
	case key.Matches(msg, m.keys.Right):
		return m.move(1, 0, 0), nil
	case key.Matches(msg, m.keys.Jump):
		return m.move(0, 1, 0), nil

	case key.Matches(msg, m.keys.Use):
		ev := gateway.InteractEvent{Action: gateway.RightClickAir}
		if it, ok := m.hotbar.Current(); ok {
			ev.Token = it.Token
		}
		m.send(ws.MsgInteract, ev)
	case key.Matches(msg, m.keys.NextItem):
		m.hotbar.Next()
	case key.Matches(msg, m.keys.Drop):
		m.send(ws.MsgDrop, nil)
	case key.Matches(msg, m.keys.Void):
		m.send(ws.MsgDamage, ws.DamagePayload{Cause: gateway.CauseVoid})
	case key.Matches(msg, m.keys.Panel):
		m.panelOff = !m.panelOff
		m.send(ws.MsgPanelVisibility, ws.PanelVisibilityPayload{Visible: !m.panelOff})
	case key.Matches(msg, m.keys.NextPhase):
		if m.api != nil {
			next := session.Phase((int(m.statusBar.Phase) + 1) % 4)
			return m, m.api.ChangePhase(next)
		}
	case key.Matches(msg, m.keys.Log):
		m.showLog = true
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.help.View(m.width)
	}
	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.help.View(m.width))
	}
	if m.showLog {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.log.View(m.width, m.height))
	}

	world := lipgloss.JoinVertical(lipgloss.Left,
		theme.StyleHeader.Render("LUDOS"),
		"",
		m.hotbar.View(),
		"",
		theme.StyleDimmed.Render(m.helpLine()),
	)
	content := world
	if m.sidebar.Visible() {
		content = lipgloss.JoinHorizontal(lipgloss.Top, world, "  ", m.sidebar.View())
	}
	if m.inventory.IsOpen() {
		content = m.inventory.View()
	}

	bar := m.statusBar.View()
	bodyH := max(m.height-lipgloss.Height(bar), 0)
	body := lipgloss.Place(m.width, bodyH, lipgloss.Left, lipgloss.Top, content)
	return lipgloss.JoinVertical(lipgloss.Left, body, bar)
}

func (m Model) helpLine() string {
	k := m.keys
	bindings := []key.Binding{k.Forward, k.Use, k.NextItem, k.Log, k.Help, k.Quit}
	out := ""
	for i, b := range bindings {
		if i > 0 {
			out += "  "
		}
		out += b.Help().Key + ":" + b.Help().Desc
	}
	return out
}
