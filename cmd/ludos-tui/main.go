package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ludos/server/internal/viewer/app"
	"github.com/ludos/server/internal/viewer/client"
)

func main() {
	wsURL := flag.String("url", "ws://127.0.0.1:8080/ws", "WebSocket URL of the ludos server")
	name := flag.String("name", "", "Player name (random if empty)")
	token := flag.String("token", "", "Auth token (if the server requires it)")
	flag.Parse()

	dialURL, httpBase, err := buildURLs(*wsURL, *name, *token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	m := app.New(client.NewWSClient(dialURL), client.NewHTTPClient(httpBase, *token))
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if fm, ok := final.(app.Model); ok && fm.Kicked() != "" {
		fmt.Fprintf(os.Stderr, "Kicked: %s\n", fm.Kicked())
		os.Exit(1)
	}
}

// buildURLs adds the player name and token to the websocket URL and derives
// the HTTP base URL (ws://host:port/ws -> http://host:port).
func buildURLs(wsURL, name, token string) (string, string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	if name != "" {
		q.Set("name", name)
	}
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()

	scheme := "http"
	if u.Scheme == "wss" {
		scheme = "https"
	}
	return u.String(), fmt.Sprintf("%s://%s", scheme, u.Host), nil
}
