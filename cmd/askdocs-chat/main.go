// Command askdocs-chat starts the interactive terminal chat UI.
package main

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/askdocs/askdocs"
	"github.com/askdocs/askdocs/config"
	"github.com/askdocs/askdocs/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	store, err := askdocs.OpenStore(cfg)
	if err != nil {
		log.Fatalf("failed to open document store: %v", err)
	}
	defer store.Close()

	engine, err := askdocs.OpenEngine(cfg, store)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}

	p := tea.NewProgram(tui.New(engine, store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("chat UI error: %v", err)
	}
}
