package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ludos/server/internal/config"
	"github.com/ludos/server/internal/gateway"
	"github.com/ludos/server/internal/menu"
	"github.com/ludos/server/internal/mock"
	"github.com/ludos/server/internal/panel"
	"github.com/ludos/server/internal/player"
	"github.com/ludos/server/internal/session"
	"github.com/ludos/server/internal/ws"
)

func main() {
	mockMode := flag.Bool("mock", false, "Drive a demo round instead of waiting for an external orchestrator")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	life := session.NewLifecycle(cfg.Session.Lobby)
	life.LoadMinigame(cfg.Minigame())
	life.LoadMap(cfg.GameMap())

	players := player.NewRegistry()
	footer, err := panel.NewFooter(cfg.Footer.Address, cfg.Footer.Palette(), cfg.Footer.Interval)
	if err != nil {
		log.Fatalf("Failed to build footer: %v", err)
	}
	footer.SetFanout(cfg.Footer.Fanout)
	footer.Start(ctx)
	defer footer.Stop()

	hub := ws.NewHub(cfg.Server.MaxConnections)
	menus := menu.NewDispatcher(hub)

	life.OnPhaseChange(func(from, to session.Phase) {
		log.Printf("session: %s -> %s", from, to)
		for _, p := range players.All() {
			if to == session.InGame {
				menus.Dismiss(p)
			}
			if pn := p.Panel(); pn != nil {
				pn.Refresh()
			}
		}
	})

	panelOpts := []panel.Option{
		panel.WithRefreshInterval(cfg.Panel.RefreshInterval),
		panel.WithTitle(cfg.Panel.Title),
	}
	if cfg.Panel.ShowHostname {
		panelOpts = append(panelOpts, panel.WithHostname(panel.CachedHostname(panel.SystemHostname)))
	}
	factory := func(id, name string, snap session.Snapshot) (*player.Player, error) {
		p, err := gateway.DefaultPlayerFactory(id, name, snap)
		if err != nil {
			return nil, err
		}
		pn, err := panel.New(id, hub, footer, panelOpts...)
		if err != nil {
			return nil, fmt.Errorf("status panel: %w", err)
		}
		if err := p.AttachPanel(pn); err != nil {
			log.Printf("player %s: replace panel: %v", id, err)
		}
		return p, nil
	}

	gw := gateway.New(life, players, menus, factory)
	server := ws.NewServer(gw, life, players, hub, cfg.Server.AllowedOrigins, cfg.Server.AuthToken)

	if *mockMode {
		log.Println("Starting in mock mode")
		timing := mock.Timing{
			Countdown: cfg.Mock.Countdown,
			Round:     cfg.Mock.RoundLength,
			Ending:    cfg.Mock.EndingHold,
		}
		gen := mock.NewGenerator(life, players, menus, hub, timing, demoMaps(cfg.GameMap()))
		gen.Start(ctx)
	} else {
		log.Println("Waiting for phase changes on /api/phase")
	}

	if err := ws.ListenAndServe(ctx, cfg.Server.Host, cfg.Server.Port, server.Handler()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Shutting down...")

	done := make(chan struct{})
	go func() {
		for _, p := range players.All() {
			gw.Quit(p.ID())
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Println("Timed out releasing players")
	}
}

// demoMaps returns the configured arena followed by two variants of it, so
// the mock map vote has something to choose between.
func demoMaps(base *session.GameMap) []session.GameMap {
	if base == nil {
		return nil
	}
	maps := []session.GameMap{*base}
	for i, name := range []string{"glacier", "canyon"} {
		shift := float64((i + 1) * 100)
		gm := session.GameMap{
			Name: name,
			Bounds: session.Region{
				Min: base.Bounds.Min.Add(shift, 0, 0),
				Max: base.Bounds.Max.Add(shift, 0, 0),
			},
			Center: base.Center.Add(shift, 0, 0),
		}
		maps = append(maps, gm)
	}
	return maps
}
