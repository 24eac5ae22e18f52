package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ludos/server/internal/gateway"
	"github.com/ludos/server/internal/player"
	"github.com/ludos/server/internal/session"
)

const (
	maxMessageSize = 4096
	pongTimeout    = 2 * pingInterval
	maxNameLength  = 16

	shutdownTimeout = 5 * time.Second
)

type Server struct {
	gateway        *gateway.Gateway
	lifecycle      *session.Lifecycle
	players        *player.Registry
	hub            *Hub
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	authToken      string
}

func NewServer(gw *gateway.Gateway, life *session.Lifecycle, players *player.Registry, hub *Hub, allowedOrigins []string, authToken string) *Server {
	s := &Server{
		gateway:        gw,
		lifecycle:      life,
		players:        players,
		hub:            hub,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		authToken:      authToken,
	}

	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/phase", s.handlePhase)
}

// Handler returns the routes wrapped with the security headers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return securityHeaders(mux)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func playerName(r *http.Request, id string) string {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		return "player-" + id[:8]
	}
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return name
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade error: %v", err)
		return
	}

	id := uuid.NewString()
	name := playerName(r, id)

	if d := s.gateway.Admit(id); d.Cancelled() {
		kick(conn, d.Message)
		return
	}

	if _, err := s.hub.AddClient(id, conn); err != nil {
		log.Printf("ws: rejecting %s: %v", r.RemoteAddr, err)
		kick(conn, "Server is full")
		return
	}

	if _, err := s.gateway.Join(id, name); err != nil {
		log.Printf("ws: %v", err)
		s.hub.Send(id, WSMessage{Type: MsgKick, Payload: KickPayload{Reason: "Could not join"}})
		s.hub.RemoveClient(id)
		return
	}

	log.Printf("ws: %s connected from %s", name, r.RemoteAddr)
	s.welcome(id, name)

	go func() {
		defer func() {
			s.gateway.Quit(id)
			s.hub.RemoveClient(id)
			log.Printf("ws: %s disconnected", name)
		}()
		s.readLoop(id, conn)
	}()
}

// kick writes a kick message and closes a connection that never made it
// into the hub.
func kick(conn *websocket.Conn, reason string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	conn.WriteJSON(WSMessage{Type: MsgKick, Payload: KickPayload{Reason: reason}})
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
	conn.Close()
}

func (s *Server) welcome(id, name string) {
	snap := s.lifecycle.Snapshot()
	spawn := s.gateway.Spawn(id)
	payload := WelcomePayload{
		ID:       id,
		Name:     name,
		Phase:    snap.Phase,
		Minigame: snap.Minigame,
		Spawn:    spawn.Location,
	}
	if p, ok := s.players.PlayerFor(id); ok {
		payload.Playing = p.IsPlaying()
	}
	s.hub.Send(id, WSMessage{Type: MsgWelcome, Payload: payload})
}

func (s *Server) readLoop(id string, conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read %s: %v", id, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			s.hub.Send(id, WSMessage{Type: MsgError, Payload: ErrorPayload{Message: "malformed message"}})
			continue
		}
		s.handle(id, in)
	}
}

// handle runs one inbound action through the gateway and reports the
// decision back to the sender.
func (s *Server) handle(id string, in Inbound) {
	d, err := s.dispatch(id, in)
	if err != nil {
		s.hub.Send(id, WSMessage{Type: MsgError, Payload: ErrorPayload{Message: err.Error()}})
		return
	}
	s.hub.Send(id, WSMessage{Type: MsgDecision, Payload: DecisionPayload{
		Seq:      in.Seq,
		Action:   in.Type,
		Decision: d,
	}})
	if d.Message != "" {
		s.hub.ActionBar(id, d.Message)
	}
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

var allowed = gateway.Decision{Verdict: gateway.Allow}

func (s *Server) dispatch(id string, in Inbound) (gateway.Decision, error) {
	switch in.Type {
	case MsgMove:
		var p MovePayload
		if err := decode(in.Payload, &p); err != nil {
			return allowed, fmt.Errorf("move: %w", err)
		}
		return s.gateway.Move(id, p.From, p.To), nil

	case MsgDamage:
		var p DamagePayload
		if err := decode(in.Payload, &p); err != nil {
			return allowed, fmt.Errorf("damage: %w", err)
		}
		ev := gateway.DamageEvent{TargetID: p.TargetID, TargetIsPlayer: p.TargetIsPlayer, Cause: p.Cause}
		if ev.TargetID == "" {
			ev.TargetID = id
			ev.TargetIsPlayer = true
		}
		return s.gateway.Damage(ev), nil

	case MsgDeath:
		var p DeathPayload
		if err := decode(in.Payload, &p); err != nil {
			return allowed, fmt.Errorf("death: %w", err)
		}
		return s.gateway.Death(id, player.DeathEvent{Cause: p.Cause, Message: p.Message}), nil

	case MsgRespawn:
		return s.gateway.Respawn(id), nil

	case MsgPostRespawn:
		return s.gateway.PostRespawn(id), nil

	case MsgInteract:
		var ev gateway.InteractEvent
		if err := decode(in.Payload, &ev); err != nil {
			return allowed, fmt.Errorf("interact: %w", err)
		}
		ev.PlayerID = id
		return s.gateway.Interact(ev), nil

	case MsgClick:
		var ev gateway.ClickEvent
		if err := decode(in.Payload, &ev); err != nil {
			return allowed, fmt.Errorf("click: %w", err)
		}
		ev.PlayerID = id
		return s.gateway.Click(ev), nil

	case MsgMenuClose:
		s.gateway.CloseMenu(id)
		return allowed, nil

	case MsgPortal:
		return s.gateway.Portal(id), nil

	case MsgHunger:
		return s.gateway.Hunger(id), nil

	case MsgDrop:
		return s.gateway.Drop(id), nil

	case MsgPanelVisibility:
		var p PanelVisibilityPayload
		if err := decode(in.Payload, &p); err != nil {
			return allowed, fmt.Errorf("panel_visibility: %w", err)
		}
		return allowed, s.setPanelVisible(id, p.Visible)
	}
	return allowed, fmt.Errorf("unknown message type %q", in.Type)
}

func (s *Server) setPanelVisible(id string, visible bool) error {
	p, ok := s.players.PlayerFor(id)
	if !ok {
		return nil
	}
	pn := p.Panel()
	if pn == nil {
		return errors.New("no status panel")
	}
	return pn.SetVisible(visible)
}

// StatusPayload is the body of GET /api/status.
type StatusPayload struct {
	Phase       session.Phase     `json:"phase"`
	Minigame    *session.Minigame `json:"minigame,omitempty"`
	Map         *session.GameMap  `json:"map,omitempty"`
	Lobby       session.Point     `json:"lobby"`
	Players     int               `json:"players"`
	Playing     int               `json:"playing"`
	Connections int               `json:"connections"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	snap := s.lifecycle.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusPayload{
		Phase:       snap.Phase,
		Minigame:    snap.Minigame,
		Map:         snap.Map,
		Lobby:       snap.Lobby,
		Players:     s.players.ActivePlayerCount(nil),
		Playing:     s.players.ActivePlayerCount(player.Playing),
		Connections: s.hub.ClientCount(),
	})
}

type phaseRequest struct {
	Phase string `json:"phase"`
}

type phaseResponse struct {
	From session.Phase `json:"from"`
	To   session.Phase `json:"to"`
}

func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req phaseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	to, ok := session.ParsePhase(strings.ToLower(req.Phase))
	if !ok {
		http.Error(w, fmt.Sprintf("unknown phase %q", req.Phase), http.StatusBadRequest)
		return
	}

	from := s.lifecycle.SetPhase(to)
	log.Printf("ws: phase %s -> %s via api", from, to)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(phaseResponse{From: from, To: to})
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.authToken {
		return true
	}

	if r.Header.Get("X-Ludos-Token") == s.authToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}

	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Host == r.Host {
		return true
	}
	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// ListenAndServe serves handler until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, host string, port int, handler http.Handler) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
