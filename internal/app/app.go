// Package app wires the storage, config, and AI collaborator into a ready
// engine for the CLI and server entrypoints.
package app

import (
	"fmt"
	"os"

	"ventureline/internal/ai"
	"ventureline/internal/config"
	"ventureline/internal/db"
	"ventureline/internal/engine"
	"ventureline/internal/migrate"
	"ventureline/internal/store"
	"ventureline/internal/store/memory"
	"ventureline/internal/store/sqlite"
)

type Options struct {
	Workspace string
	// Memory selects the in-memory store; nothing is persisted.
	Memory bool
}

type App struct {
	Engine *engine.Engine
	Config *config.Config
	Store  store.Store
}

// Open loads config, opens the store (running migrations on the durable
// one), and builds the engine.
func Open(opts Options) (*App, error) {
	cfg, err := config.Load(opts.Workspace)
	if err != nil {
		return nil, err
	}

	var st store.Store
	if opts.Memory {
		st = memory.New()
	} else {
		conn, err := db.Open(opts.Workspace)
		if err != nil {
			return nil, err
		}
		if err := migrate.Migrate(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		st = sqlite.New(conn)
	}

	collaborator := ai.NewOpenAI(ai.Options{
		APIKey:      os.Getenv("OPENAI_API_KEY"),
		Model:       cfg.AI.Model,
		Timeout:     cfg.Timeout(),
		MaxRetries:  cfg.AI.MaxRetries,
		Temperature: cfg.AI.Temperature,
	})

	return &App{
		Engine: engine.New(st, collaborator, cfg),
		Config: cfg,
		Store:  st,
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
