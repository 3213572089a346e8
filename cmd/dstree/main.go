package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/seralvarez/dstree/internal/app"
	"github.com/seralvarez/dstree/internal/config"
	"github.com/seralvarez/dstree/internal/fetch"
	"github.com/seralvarez/dstree/internal/history"
	"github.com/seralvarez/dstree/internal/logging"
	"github.com/seralvarez/dstree/internal/models"
	"github.com/seralvarez/dstree/internal/notebook"
	"github.com/seralvarez/dstree/internal/request"
	"github.com/seralvarez/dstree/internal/sources"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load config: %v (using defaults)\n", err)
		cfg = config.GetDefaults()
	}

	logger, err := logging.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		log.Printf("Warning: Could not open log file: %v\n", err)
		logger = zap.NewNop()
	}
	defer logger.Sync()

	ctx := context.Background()

	store := models.NewStore()
	nb := notebook.New()

	mgr, err := sources.NewManager(config.Dir())
	if err != nil {
		logger.Warn("could not load saved connections", zap.Error(err))
		mgr, _ = sources.NewManager(os.TempDir())
	}

	for _, conn := range sources.InternalConnections() {
		store.Upsert(conn)
	}
	for _, def := range mgr.Definitions() {
		store.Upsert(def.Connection())
	}

	registry := request.NewRegistry()
	registry.Register(sources.MemoryEngineName, request.NewLocal(nb.Tables))

	if duck, err := request.NewDuckDB(ctx, cfg.General.DuckDBPath); err != nil {
		logger.Warn("embedded duckdb unavailable", zap.Error(err))
	} else {
		registry.Register(sources.DuckDBEngineName, duck)
	}

	engines := []string{sources.MemoryEngineName, sources.DuckDBEngineName}
	for _, def := range mgr.Definitions() {
		pg, err := request.NewPostgres(ctx, def.DSN)
		if err != nil {
			logger.Warn("connection unavailable",
				zap.String("name", def.Name), zap.Error(err))
			continue
		}
		registry.Register(def.Name, pg)
		engines = append(engines, def.Name)
	}
	defer registry.Close()

	var hist *history.Store
	if cfg.History.Enabled {
		hist, err = history.NewStore(filepath.Join(config.Dir(), "history.db"))
		if err != nil {
			logger.Warn("snippet history disabled", zap.Error(err))
		} else {
			defer hist.Close()
			if cfg.History.MaxEntries > 0 {
				if err := hist.Prune(cfg.History.MaxEntries); err != nil {
					logger.Warn("history prune failed", zap.Error(err))
				}
			}
		}
	}

	cache := fetch.New(store, registry, logger,
		time.Duration(cfg.Fetch.TimeoutMS)*time.Millisecond)

	a := app.New(app.Options{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Cache:    cache,
		Notebook: nb,
		History:  hist,
		Engines:  engines,
	})

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	p := tea.NewProgram(a, opts...)
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
