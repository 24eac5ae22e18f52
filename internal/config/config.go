package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ludos/server/internal/panel"
	"github.com/ludos/server/internal/session"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Panel   PanelConfig   `yaml:"panel"`
	Footer  FooterConfig  `yaml:"footer"`
	Session SessionConfig `yaml:"session"`
	Mock    MockConfig    `yaml:"mock"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" env:"LUDOS_PORT"`
	Host           string   `yaml:"host" env:"LUDOS_HOST"`
	AuthToken      string   `yaml:"auth_token" env:"LUDOS_AUTH_TOKEN"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"LUDOS_ALLOWED_ORIGINS" envSeparator:","`
	MaxConnections int      `yaml:"max_connections" env:"LUDOS_MAX_CONNECTIONS"`
}

type PanelConfig struct {
	Title           string        `yaml:"title" env:"LUDOS_PANEL_TITLE"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"LUDOS_PANEL_REFRESH"`
	ShowHostname    bool          `yaml:"show_hostname" env:"LUDOS_PANEL_HOSTNAME"`
}

// FooterConfig drives the animated line shared by every panel.
type FooterConfig struct {
	Address  string        `yaml:"address" env:"LUDOS_ADDRESS"`
	Interval time.Duration `yaml:"interval" env:"LUDOS_FOOTER_INTERVAL"`
	Fanout   int           `yaml:"fanout" env:"LUDOS_FOOTER_FANOUT"`
	Base     string        `yaml:"base" env:"LUDOS_FOOTER_BASE"`
	Glow     string        `yaml:"glow" env:"LUDOS_FOOTER_GLOW"`
	Head     string        `yaml:"head" env:"LUDOS_FOOTER_HEAD"`
}

// Palette returns the footer colors.
func (f FooterConfig) Palette() panel.Palette {
	return panel.Palette{Base: f.Base, Glow: f.Glow, Head: f.Head}
}

type SessionConfig struct {
	Lobby    session.Point  `yaml:"lobby"`
	Minigame MinigameConfig `yaml:"minigame"`
	Map      MapConfig      `yaml:"map"`
}

type MinigameConfig struct {
	Name       string `yaml:"name" env:"LUDOS_MINIGAME"`
	MaxPlayers int    `yaml:"max_players" env:"LUDOS_MAX_PLAYERS"`
}

// MapConfig describes the arena. A missing center defaults to the middle of
// the bounds.
type MapConfig struct {
	Name   string         `yaml:"name" env:"LUDOS_MAP"`
	Bounds session.Region `yaml:"bounds"`
	Center *session.Point `yaml:"center"`
}

// MockConfig times the demo orchestrator's phases.
type MockConfig struct {
	Countdown   time.Duration `yaml:"countdown" env:"LUDOS_MOCK_COUNTDOWN"`
	RoundLength time.Duration `yaml:"round_length" env:"LUDOS_MOCK_ROUND"`
	EndingHold  time.Duration `yaml:"ending_hold" env:"LUDOS_MOCK_ENDING"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "127.0.0.1",
			MaxConnections: 256,
		},
		Panel: PanelConfig{
			Title:           "LUDOS",
			RefreshInterval: 500 * time.Millisecond,
			ShowHostname:    true,
		},
		Footer: FooterConfig{
			Address:  "play.ludos.net",
			Interval: 100 * time.Millisecond,
			Fanout:   16,
			Base:     panel.DefaultPalette.Base,
			Glow:     panel.DefaultPalette.Glow,
			Head:     panel.DefaultPalette.Head,
		},
		Session: SessionConfig{
			Lobby: session.Point{X: 0, Y: 64, Z: 0},
			Minigame: MinigameConfig{
				Name:       "spleef",
				MaxPlayers: 8,
			},
			Map: MapConfig{
				Name: "arena",
				Bounds: session.Region{
					Min: session.Point{X: 0, Y: 60, Z: 0},
					Max: session.Point{X: 50, Y: 80, Z: 50},
				},
			},
		},
		Mock: MockConfig{
			Countdown:   5 * time.Second,
			RoundLength: 60 * time.Second,
			EndingHold:  5 * time.Second,
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads path over the defaults, then applies LUDOS_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadOrDefault behaves like Load but falls back to the defaults when path
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return finish(defaultConfig())
	}
	return cfg, err
}

func finish(cfg *Config) (*Config, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("server.max_connections must not be negative"))
	}
	if c.Panel.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("panel.refresh_interval must be positive"))
	}
	if c.Footer.Interval <= 0 {
		errs = append(errs, fmt.Errorf("footer.interval must be positive"))
	}
	if c.Footer.Fanout <= 0 {
		errs = append(errs, fmt.Errorf("footer.fanout must be positive"))
	}
	if err := c.Footer.Palette().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("footer: %w", err))
	}
	if c.Session.Minigame.Name != "" && c.Session.Minigame.MaxPlayers <= 0 {
		errs = append(errs, fmt.Errorf("session.minigame.max_players must be positive"))
	}
	return errors.Join(errs...)
}

// Minigame returns the configured minigame, or nil when none is set.
func (c *Config) Minigame() *session.Minigame {
	if c.Session.Minigame.Name == "" {
		return nil
	}
	return &session.Minigame{
		Name:       c.Session.Minigame.Name,
		MaxPlayers: c.Session.Minigame.MaxPlayers,
	}
}

// GameMap returns the configured map, or nil when none is set.
func (c *Config) GameMap() *session.GameMap {
	m := c.Session.Map
	if m.Name == "" {
		return nil
	}
	center := m.Bounds.Middle()
	if m.Center != nil {
		center = *m.Center
	}
	return &session.GameMap{Name: m.Name, Bounds: m.Bounds, Center: center}
}
