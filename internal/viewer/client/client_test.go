package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ludos/server/internal/gateway"
	"github.com/ludos/server/internal/session"
	"github.com/ludos/server/internal/ws"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		typ     ws.MessageType
		payload string
		check   func(t *testing.T, msg interface{})
	}{
		{ws.MsgWelcome, `{"id":"a","name":"alice","phase":"starting","playing":true}`, func(t *testing.T, msg interface{}) {
			m, ok := msg.(WelcomeMsg)
			if !ok || m.Payload.Phase != session.Starting || !m.Payload.Playing {
				t.Errorf("got %#v", msg)
			}
		}},
		{ws.MsgDecision, `{"seq":3,"action":"move","decision":{"verdict":"redirect","location":{"x":1,"y":2,"z":3}}}`, func(t *testing.T, msg interface{}) {
			m, ok := msg.(DecisionMsg)
			if !ok || m.Payload.Seq != 3 || m.Payload.Decision.Verdict != gateway.Redirect || m.Payload.Decision.Location.Y != 2 {
				t.Errorf("got %#v", msg)
			}
		}},
		{ws.MsgPanelLine, `{"handle":"h","index":2,"text":"x"}`, func(t *testing.T, msg interface{}) {
			m, ok := msg.(PanelMsg)
			if !ok || m.Type != ws.MsgPanelLine || m.Payload.Index != 2 {
				t.Errorf("got %#v", msg)
			}
		}},
		{ws.MsgMenuClose, ``, func(t *testing.T, msg interface{}) {
			if _, ok := msg.(MenuCloseMsg); !ok {
				t.Errorf("got %#v", msg)
			}
		}},
		{ws.MsgItemGive, `{"slot":0,"token":"tok","name":"Map vote"}`, func(t *testing.T, msg interface{}) {
			m, ok := msg.(ItemGiveMsg)
			if !ok || m.Payload.Token != "tok" {
				t.Errorf("got %#v", msg)
			}
		}},
		{ws.MsgDecision, `{"decision":{"verdict":"maybe"}}`, func(t *testing.T, msg interface{}) {
			if msg != nil {
				t.Errorf("malformed decision decoded to %#v", msg)
			}
		}},
		{"nonsense", `{}`, func(t *testing.T, msg interface{}) {
			if msg != nil {
				t.Errorf("unknown type decoded to %#v", msg)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			tt.check(t, Decode(tt.typ, json.RawMessage(tt.payload)))
		})
	}
}

// echoServer replies to every inbound action with a decision carrying its
// seq, after sending one message the client ignores.
func echoServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var in ws.Inbound
			if err := conn.ReadJSON(&in); err != nil {
				return
			}
			conn.WriteJSON(ws.WSMessage{Type: "ignored"})
			conn.WriteJSON(ws.WSMessage{Type: ws.MsgDecision, Payload: ws.DecisionPayload{
				Seq:      in.Seq,
				Action:   in.Type,
				Decision: gateway.Decision{Verdict: gateway.Deny, Message: "no"},
			}})
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSendAndReadLoop(t *testing.T) {
	c := NewWSClient(echoServer(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := c.Send(ws.MsgHunger, nil); err == nil {
		t.Fatal("Send before connecting succeeded")
	}
	if msg := c.Listen(ctx)(); msg != (ConnectedMsg{}) {
		t.Fatalf("Listen = %#v", msg)
	}

	seq, err := c.Send(ws.MsgMove, ws.MovePayload{To: session.Point{X: 1}})
	if err != nil {
		t.Fatal(err)
	}
	msg := c.ReadLoop(ctx)()
	d, ok := msg.(DecisionMsg)
	if !ok {
		t.Fatalf("ReadLoop = %#v", msg)
	}
	if d.Payload.Seq != seq || d.Payload.Action != ws.MsgMove || !d.Payload.Decision.Cancelled() {
		t.Errorf("decision = %+v", d.Payload)
	}

	next, _ := c.Send(ws.MsgDrop, nil)
	if next != seq+1 {
		t.Errorf("seq = %d, want %d", next, seq+1)
	}
}

func TestReadLoopWithoutConnection(t *testing.T) {
	c := NewWSClient("ws://127.0.0.1:1/ws")
	if _, ok := c.ReadLoop(context.Background())().(DisconnectedMsg); !ok {
		t.Error("expected DisconnectedMsg")
	}
}

func TestHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/status":
			json.NewEncoder(w).Encode(ws.StatusPayload{Phase: session.InGame, Playing: 2})
		case "/api/phase":
			var req struct{ Phase string }
			json.NewDecoder(r.Body).Decode(&req)
			json.NewEncoder(w).Encode(map[string]string{"from": "ingame", "to": req.Phase})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret")
	s, err := c.GetStatus()
	if err != nil {
		t.Fatal(err)
	}
	if s.Phase != session.InGame || s.Playing != 2 {
		t.Errorf("status = %+v", s)
	}

	msg := c.ChangePhase(session.Ending)()
	pc, ok := msg.(PhaseChangedMsg)
	if !ok || pc.Err != nil || pc.Change.From != session.InGame || pc.Change.To != session.Ending {
		t.Errorf("ChangePhase = %#v", msg)
	}

	bad := NewHTTPClient(srv.URL, "wrong")
	if sm := bad.FetchStatus()().(StatusMsg); sm.Err == nil || !strings.Contains(sm.Err.Error(), "401") {
		t.Errorf("unauthorized status = %+v", sm)
	}
}
