package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ludos/server/internal/session"
	"github.com/ludos/server/internal/ws"
)

// HTTPClient calls the server's REST API.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// PhaseChange is the reply to SetPhase.
type PhaseChange struct {
	From session.Phase `json:"from"`
	To   session.Phase `json:"to"`
}

type StatusMsg struct {
	Status ws.StatusPayload
	Err    error
}

type PhaseChangedMsg struct {
	Change PhaseChange
	Err    error
}

// GetStatus fetches /api/status.
func (c *HTTPClient) GetStatus() (*ws.StatusPayload, error) {
	var s ws.StatusPayload
	if err := c.get("/api/status", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SetPhase sends POST /api/phase.
func (c *HTTPClient) SetPhase(p session.Phase) (*PhaseChange, error) {
	var out PhaseChange
	if err := c.post("/api/phase", map[string]string{"phase": p.String()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchStatus returns a command wrapping GetStatus.
func (c *HTTPClient) FetchStatus() tea.Cmd {
	return func() tea.Msg {
		s, err := c.GetStatus()
		if err != nil {
			return StatusMsg{Err: err}
		}
		return StatusMsg{Status: *s}
	}
}

// ChangePhase returns a command wrapping SetPhase.
func (c *HTTPClient) ChangePhase(p session.Phase) tea.Cmd {
	return func() tea.Msg {
		ch, err := c.SetPhase(p)
		if err != nil {
			return PhaseChangedMsg{Err: err}
		}
		return PhaseChangedMsg{Change: *ch}
	}
}

func (c *HTTPClient) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) post(path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
