// Package client connects the terminal client to a ludos server and turns
// server messages into Bubble Tea messages.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/ludos/server/internal/ws"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// WSClient manages the websocket connection of one player.
type WSClient struct {
	url string

	mu      sync.Mutex
	writeMu sync.Mutex // serialises all conn writes
	conn    *websocket.Conn
	seq     uint64
	pingCtx context.CancelFunc
}

// NewWSClient creates a client for the given websocket URL, which carries
// the player name and token as query parameters.
func NewWSClient(url string) *WSClient {
	return &WSClient{url: url}
}

// --- Bubble Tea messages ---

type ConnectedMsg struct{}

type DisconnectedMsg struct{ Err error }

type WelcomeMsg struct{ Payload ws.WelcomePayload }

type KickMsg struct{ Payload ws.KickPayload }

type DecisionMsg struct{ Payload ws.DecisionPayload }

type ActionBarMsg struct{ Payload ws.ActionBarPayload }

// PanelMsg is any of the panel_* messages.
type PanelMsg struct {
	Type    ws.MessageType
	Payload ws.PanelPayload
}

type MenuOpenMsg struct{ Payload ws.MenuOpenPayload }

type MenuCloseMsg struct{}

type ItemGiveMsg struct{ Payload ws.MenuItemPayload }

type ErrorMsg struct{ Payload ws.ErrorPayload }

// Listen returns a command that connects, retrying with backoff until it
// succeeds or ctx is cancelled.
func (c *WSClient) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := reconnectBaseDelay
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
			if err != nil {
				log.Printf("ws dial error: %v (retry in %v)", err, delay)
				time.Sleep(delay)
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			c.mu.Lock()
			if c.pingCtx != nil {
				c.pingCtx()
			}
			pingCtx, pingCancel := context.WithCancel(ctx)
			c.conn = conn
			c.pingCtx = pingCancel
			c.mu.Unlock()

			go c.pingLoop(pingCtx, conn)

			return ConnectedMsg{}
		}
	}
}

// ReadLoop returns a command that reads until the next message the UI
// cares about. It must be re-issued after every message it returns.
func (c *WSClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return DisconnectedMsg{Err: fmt.Errorf("no connection")}
		}

		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.mu.Lock()
				if c.conn == conn {
					c.conn = nil
				}
				c.mu.Unlock()
				conn.Close()
				return DisconnectedMsg{Err: err}
			}

			var msg struct {
				Type    ws.MessageType  `json:"type"`
				Payload json.RawMessage `json:"payload"`
			}
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if teaMsg := Decode(msg.Type, msg.Payload); teaMsg != nil {
				return teaMsg
			}
		}
	}
}

func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Send writes an action and returns the sequence number the server will
// echo in its decision.
func (c *WSClient) Send(typ ws.MessageType, payload interface{}) (uint64, error) {
	c.mu.Lock()
	conn := c.conn
	c.seq++
	seq := c.seq
	c.mu.Unlock()
	if conn == nil {
		return 0, fmt.Errorf("not connected")
	}

	in := ws.Inbound{Type: typ, Seq: seq}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("marshal %s: %w", typ, err)
		}
		in.Payload = raw
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(in); err != nil {
		return 0, err
	}
	return seq, nil
}

// Decode maps one server message to a Bubble Tea message. Unknown or
// malformed messages yield nil.
func Decode(typ ws.MessageType, payload json.RawMessage) tea.Msg {
	switch typ {
	case ws.MsgWelcome:
		var p ws.WelcomePayload
		if json.Unmarshal(payload, &p) == nil {
			return WelcomeMsg{Payload: p}
		}
	case ws.MsgKick:
		var p ws.KickPayload
		if json.Unmarshal(payload, &p) == nil {
			return KickMsg{Payload: p}
		}
	case ws.MsgDecision:
		var p ws.DecisionPayload
		if json.Unmarshal(payload, &p) == nil {
			return DecisionMsg{Payload: p}
		}
	case ws.MsgActionBar:
		var p ws.ActionBarPayload
		if json.Unmarshal(payload, &p) == nil {
			return ActionBarMsg{Payload: p}
		}
	case ws.MsgPanelCreate, ws.MsgPanelTitle, ws.MsgPanelLines, ws.MsgPanelLine, ws.MsgPanelDestroy:
		var p ws.PanelPayload
		if json.Unmarshal(payload, &p) == nil {
			return PanelMsg{Type: typ, Payload: p}
		}
	case ws.MsgMenuOpen:
		var p ws.MenuOpenPayload
		if json.Unmarshal(payload, &p) == nil {
			return MenuOpenMsg{Payload: p}
		}
	case ws.MsgMenuClose:
		return MenuCloseMsg{}
	case ws.MsgItemGive:
		var p ws.MenuItemPayload
		if json.Unmarshal(payload, &p) == nil {
			return ItemGiveMsg{Payload: p}
		}
	case ws.MsgError:
		var p ws.ErrorPayload
		if json.Unmarshal(payload, &p) == nil {
			return ErrorMsg{Payload: p}
		}
	}
	return nil
}
