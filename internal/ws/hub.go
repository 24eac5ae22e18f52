package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ludos/server/internal/menu"
	"github.com/ludos/server/internal/panel"
)

// ErrTooManyConnections is returned by AddClient when the hub is full.
var ErrTooManyConnections = errors.New("too many connections")

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func newClient(id string, conn *websocket.Conn) *client {
	c := &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub owns the connected clients and the panels shown on them. It is the
// panel backend and menu presenter for the websocket transport.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client
	panels   map[panel.Handle]string
	maxConns int
}

// NewHub returns a hub accepting at most maxConns clients; zero means no
// limit.
func NewHub(maxConns int) *Hub {
	return &Hub{
		clients:  make(map[string]*client),
		panels:   make(map[panel.Handle]string),
		maxConns: maxConns,
	}
}

func (h *Hub) AddClient(id string, conn *websocket.Conn) (*client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxConns > 0 && len(h.clients) >= h.maxConns {
		return nil, ErrTooManyConnections
	}
	if _, ok := h.clients[id]; ok {
		return nil, fmt.Errorf("client %s already connected", id)
	}
	c := newClient(id, conn)
	h.clients[id] = c
	return c, nil
}

// RemoveClient closes the client's send queue and forgets its panels.
func (h *Hub) RemoveClient(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	close(c.send)
	for handle, owner := range h.panels {
		if owner == id {
			delete(h.panels, handle)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send queues msg for one client. It returns panel.ErrGone when the client
// is not connected. A client whose queue is full is disconnected.
func (h *Hub) Send(id string, msg WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}

	h.mu.RLock()
	c, ok := h.clients[id]
	if !ok {
		h.mu.RUnlock()
		return panel.ErrGone
	}
	select {
	case c.send <- data:
		h.mu.RUnlock()
		return nil
	default:
	}
	h.mu.RUnlock()

	log.Printf("ws: client %s too slow, disconnecting", id)
	h.RemoveClient(id)
	return panel.ErrGone
}

// ActionBar shows a transient message to the player.
func (h *Hub) ActionBar(id, text string) error {
	return h.Send(id, WSMessage{Type: MsgActionBar, Payload: ActionBarPayload{Text: text}})
}

func (h *Hub) ownerOf(handle panel.Handle) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	owner, ok := h.panels[handle]
	return owner, ok
}

func (h *Hub) sendPanel(handle panel.Handle, t MessageType, p PanelPayload) error {
	owner, ok := h.ownerOf(handle)
	if !ok {
		return panel.ErrGone
	}
	p.Handle = handle
	return h.Send(owner, WSMessage{Type: t, Payload: p})
}

func (h *Hub) CreatePanel(owner string) (panel.Handle, error) {
	handle := panel.Handle(uuid.NewString())
	h.mu.Lock()
	if _, ok := h.clients[owner]; !ok {
		h.mu.Unlock()
		return "", panel.ErrGone
	}
	h.panels[handle] = owner
	h.mu.Unlock()

	if err := h.Send(owner, WSMessage{Type: MsgPanelCreate, Payload: PanelPayload{Handle: handle}}); err != nil {
		return "", err
	}
	return handle, nil
}

func (h *Hub) SetTitle(handle panel.Handle, title string) error {
	return h.sendPanel(handle, MsgPanelTitle, PanelPayload{Title: title})
}

func (h *Hub) SetLines(handle panel.Handle, lines []string) error {
	return h.sendPanel(handle, MsgPanelLines, PanelPayload{Lines: lines})
}

func (h *Hub) UpdateLine(handle panel.Handle, index int, text string) error {
	return h.sendPanel(handle, MsgPanelLine, PanelPayload{Index: index, Text: text})
}

// Destroy removes the panel. Unknown handles are ignored.
func (h *Hub) Destroy(handle panel.Handle) error {
	h.mu.Lock()
	owner, ok := h.panels[handle]
	delete(h.panels, handle)
	h.mu.Unlock()
	if !ok {
		return nil
	}
	err := h.Send(owner, WSMessage{Type: MsgPanelDestroy, Payload: PanelPayload{Handle: handle}})
	if errors.Is(err, panel.ErrGone) {
		return nil
	}
	return err
}

func (h *Hub) ShowMenu(viewerID string, m *menu.Menu) error {
	return h.Send(viewerID, WSMessage{Type: MsgMenuOpen, Payload: menuPayload(m)})
}

func (h *Hub) HideMenu(viewerID string) error {
	return h.Send(viewerID, WSMessage{Type: MsgMenuClose})
}

func (h *Hub) GiveItem(viewerID string, it *menu.Item) error {
	return h.Send(viewerID, WSMessage{Type: MsgItemGive, Payload: itemPayload(it)})
}

var (
	_ panel.Backend      = (*Hub)(nil)
	_ menu.Presenter     = (*Hub)(nil)
	_ menu.ItemPresenter = (*Hub)(nil)
)
