package main

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/larkvale/docdeck/internal/api"
	"github.com/larkvale/docdeck/internal/config"
	"github.com/larkvale/docdeck/internal/observability"
	"github.com/larkvale/docdeck/internal/session"
	"github.com/larkvale/docdeck/internal/tui"
)

func main() {
	cfg := config.LoadClientConfig()

	if err := observability.Setup(cfg.Log); err != nil {
		log.Fatalf("logging setup failed: %v", err)
	}

	store, err := session.Open(cfg.State)
	if err != nil {
		log.Fatalf("opening session store failed: %v", err)
	}
	defer store.Close()

	client := api.New(cfg.ServerURL, nil, store.TokenFunc(session.ScopeUser))
	model := tui.NewApp(cfg, client, store)

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("client exited: %v", err)
	}
}
