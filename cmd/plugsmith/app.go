package main

import (
	"fmt"
	"path/filepath"

	"plugsmith/internal/config"
	"plugsmith/internal/deps"
	"plugsmith/internal/lifecycle"
	"plugsmith/internal/oracle"
	"plugsmith/internal/sandbox"
	"plugsmith/internal/store"
)

// App bundles the wired components of one plugsmith process.
type App struct {
	Config       config.Config
	Store        *store.PluginStore
	Deps         *deps.Manager
	Orchestrator *lifecycle.Orchestrator

	// Console owns the process's single stdin reader; every line read in
	// this process must go through it, or buffered input gets lost.
	Console *consoleIO
}

// bootApp loads configuration and wires store, oracle, sandbox and
// dependency manager into an orchestrator driven by the console.
func bootApp() (*App, error) {
	cfg, err := config.Load(resolveWorkspace())
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		cfg.Oracle.APIKey = apiKey
	}
	if cfg.Sandbox.GoPath == "" {
		dir, err := config.Dir(resolveWorkspace())
		if err != nil {
			return nil, err
		}
		cfg.Sandbox.GoPath = filepath.Join(dir, "deps")
	}

	dbPath, err := storePath()
	if err != nil {
		return nil, err
	}
	st, err := store.NewPluginStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin store: %w", err)
	}

	client, err := oracle.NewClient(cfg.Oracle)
	if err != nil {
		st.Close()
		return nil, err
	}

	manager := deps.NewManager(cfg.Deps, cfg.Sandbox.GoPath)
	console := newConsoleIO()
	orchestrator := lifecycle.New(
		oracle.NewConsultant(client, st, cfg.Limits),
		sandbox.NewExecutor(cfg.Sandbox),
		manager,
		st,
		console,
		cfg.Limits,
	)

	return &App{
		Config:       cfg,
		Store:        st,
		Deps:         manager,
		Orchestrator: orchestrator,
		Console:      console,
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
}
