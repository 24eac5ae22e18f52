package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ludos/server/internal/session"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  auth_token: secret
panel:
  title: "SPLEEF"
footer:
  address: "mc.example.org"
  interval: 250ms
session:
  lobby: {x: 5, y: 70, z: -5}
  minigame:
    name: tntrun
    max_players: 12
  map:
    name: desert
    bounds:
      min: {x: 0, y: 0, z: 0}
      max: {x: 100, y: 90, z: 40}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.AuthToken != "secret" {
		t.Errorf("Server.AuthToken = %q", cfg.Server.AuthToken)
	}
	if cfg.Panel.Title != "SPLEEF" {
		t.Errorf("Panel.Title = %q", cfg.Panel.Title)
	}
	if cfg.Footer.Interval != 250*time.Millisecond {
		t.Errorf("Footer.Interval = %v", cfg.Footer.Interval)
	}
	if cfg.Session.Lobby != (session.Point{X: 5, Y: 70, Z: -5}) {
		t.Errorf("Session.Lobby = %+v", cfg.Session.Lobby)
	}

	// Defaults should still be applied for unspecified fields.
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want default", cfg.Server.Host)
	}
	if cfg.Panel.RefreshInterval != 500*time.Millisecond {
		t.Errorf("Panel.RefreshInterval = %v, want default", cfg.Panel.RefreshInterval)
	}
	if cfg.Footer.Base == "" {
		t.Error("Footer.Base should have default")
	}

	mg := cfg.Minigame()
	if mg == nil || mg.Name != "tntrun" || mg.MaxPlayers != 12 {
		t.Errorf("Minigame() = %+v", mg)
	}
	gm := cfg.GameMap()
	if gm == nil || gm.Name != "desert" {
		t.Fatalf("GameMap() = %+v", gm)
	}
	if gm.Center != (session.Point{X: 50, Y: 0, Z: 20}) {
		t.Errorf("GameMap().Center = %+v, want middle of bounds", gm.Center)
	}
}

func TestLoadExplicitCenter(t *testing.T) {
	path := writeConfig(t, `
session:
  map:
    name: tower
    center: {x: 1, y: 100, z: 2}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c := cfg.GameMap().Center; c != (session.Point{X: 1, Y: 100, Z: 2}) {
		t.Errorf("Center = %+v", c)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() on missing file should return error")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not, a, map")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() with broken yaml should return error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LUDOS_PORT", "7000")
	t.Setenv("LUDOS_ADDRESS", "env.example.org")
	t.Setenv("LUDOS_MAX_PLAYERS", "3")
	t.Setenv("LUDOS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("LUDOS_FOOTER_INTERVAL", "50ms")

	path := writeConfig(t, "server:\n  port: 9090\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("env should win over file: port = %d", cfg.Server.Port)
	}
	if cfg.Footer.Address != "env.example.org" {
		t.Errorf("Footer.Address = %q", cfg.Footer.Address)
	}
	if cfg.Session.Minigame.MaxPlayers != 3 {
		t.Errorf("MaxPlayers = %d", cfg.Session.Minigame.MaxPlayers)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Footer.Interval != 50*time.Millisecond {
		t.Errorf("Footer.Interval = %v", cfg.Footer.Interval)
	}
}

func TestEnvParseError(t *testing.T) {
	t.Setenv("LUDOS_PORT", "not-a-number")
	_, err := LoadOrDefault("/nonexistent/config.yaml")
	if err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Errorf("err = %v, want parse env error", err)
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = 0
	cfg.Footer.Interval = 0
	cfg.Footer.Glow = "not-a-color"
	cfg.Session.Minigame.MaxPlayers = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	for _, want := range []string{"server.port", "footer.interval", "glow color", "max_players"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestNoMinigameOrMap(t *testing.T) {
	cfg := defaultConfig()
	cfg.Session.Minigame.Name = ""
	cfg.Session.Map.Name = ""
	if cfg.Minigame() != nil || cfg.GameMap() != nil {
		t.Error("empty names should yield nil minigame and map")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
