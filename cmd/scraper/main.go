// scraper polls an RIT market session and appends change records to JSONL
// logs, checkpointing its session memory after every cycle.
//
// Usage: go run ./cmd/scraper --config configs/scraper.local.yaml [--once]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/rickgao/rit-data/internal/api"
	"github.com/rickgao/rit-data/internal/auth"
	"github.com/rickgao/rit-data/internal/config"
	"github.com/rickgao/rit-data/internal/database"
	"github.com/rickgao/rit-data/internal/metrics"
	"github.com/rickgao/rit-data/internal/scraper"
	"github.com/rickgao/rit-data/internal/state"
	"github.com/rickgao/rit-data/internal/version"
	"github.com/rickgao/rit-data/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/scraper.local.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single poll cycle and exit")
	outDir := flag.String("out-dir", "", "override output directory")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting scraper",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *once {
		cfg.Poll.Once = true
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	// Resolve connection mode and endpoint
	mode := auth.ResolveMode(cfg.Creds, cfg.Mode)
	baseURL, err := auth.ResolveBaseURL(cfg.Creds, mode, cfg.API.BaseURL)
	if err != nil {
		logger.Error("failed to resolve base URL", "error", err)
		os.Exit(1)
	}
	headers, err := auth.Headers(cfg.Creds, mode)
	if err != nil {
		logger.Error("failed to build auth headers", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"mode", mode,
		"base_url", baseURL,
		"out_dir", cfg.Output.Dir,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Create API client
	newsParam := "since"
	if mode == auth.ModeDMA {
		newsParam = "after"
	}
	apiClient := api.NewClient(baseURL, headers,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryWait),
		api.WithNewsParam(newsParam),
	)

	// Restore session memory from the checkpoint
	outputs := writer.NewOutputs(cfg.Output.Dir)
	defer outputs.Close()

	st, err := state.Load(outputs.StatePath)
	if err != nil {
		logger.Error("failed to load checkpoint", "error", err)
		os.Exit(1)
	}

	s := scraper.New(cfg, apiClient, outputs, st, logger)

	// Optional Postgres mirror
	if cfg.Database.Enabled {
		runID := uuid.New()
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"database", cfg.Database.Postgres.Name,
			"run_id", runID,
		)

		pool, err := database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := writer.NewPostgres(pool, runID, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare database schema", "error", err)
			os.Exit(1)
		}
		s.Postgres = pg
	}

	// Optional metrics endpoint
	if cfg.Metrics.Enabled {
		metrics.Serve(cfg.Metrics.Port, cfg.Metrics.Path, logger)
	}

	if err := s.Run(ctx); err != nil {
		logger.Error("scraper stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("scraper stopped")
}
