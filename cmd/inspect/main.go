// inspect is a read-only snapshot browser for the persisted game state.
// It replaces the old "attach the store to the console" debugging habit
// with a proper inspection surface: load the snapshot from the
// configured backend and page through the adventure log and slices.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/jwebster45206/adventure-client/internal/config"
	"github.com/jwebster45206/adventure-client/internal/logger"
	"github.com/jwebster45206/adventure-client/internal/storage"
	"github.com/jwebster45206/adventure-client/pkg/state"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Setup(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	kv, err := storage.Open(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage backend: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = kv.Close()
	}()

	adapter := storage.NewAdapter(kv, log)
	store := state.NewStore(adapter, cfg.StateNamespace, log)
	if err := store.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load snapshot: %v\n", err)
		os.Exit(1)
	}

	gs := store.State()
	if gs.Session.SessionID == "" && gs.Messages.Count() == 0 {
		fmt.Println("No persisted state found.")
		return
	}

	p := tea.NewProgram(NewInspectUI(&gs), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
