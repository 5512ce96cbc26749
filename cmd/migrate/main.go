// migrate runs the legacy-storage hydration once against the configured
// backend: scattered pre-schema keys are folded into the versioned
// snapshot, then the superseded keys are removed.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jwebster45206/adventure-client/internal/config"
	"github.com/jwebster45206/adventure-client/internal/logger"
	"github.com/jwebster45206/adventure-client/internal/storage"
	"github.com/jwebster45206/adventure-client/pkg/legacy"
	"github.com/jwebster45206/adventure-client/pkg/notify"
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

	notify.SetHandler(func(level, message string) {
		fmt.Printf("[%s] %s\n", level, message)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	kv, err := storage.Open(cfg, log)
	if err != nil {
		log.Error("Failed to open storage backend", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Error("Failed to close storage backend", "error", err)
		}
	}()

	adapter := storage.NewAdapter(kv, log)

	store := state.NewStore(adapter, cfg.StateNamespace, log)
	if err := store.Load(ctx); err != nil {
		log.Error("Failed to load existing snapshot", "error", err)
		os.Exit(1)
	}

	hydrator := legacy.NewHydrator(adapter, log)
	result, err := hydrator.Migrate(ctx, store)
	if err != nil {
		log.Error("Migration failed", "error", err)
		os.Exit(1)
	}
	if result.Skipped {
		fmt.Println("Existing snapshot found; legacy keys left untouched.")
		return
	}
	if result.Empty() {
		fmt.Println("No legacy data found; nothing to migrate.")
		return
	}

	fmt.Printf("Migrated legacy data: session=%v character=%v world=%v messages=%d\n",
		result.HydratedSession, result.HydratedCharacter,
		result.HydratedWorld, result.MessageCount)
}
