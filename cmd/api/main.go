package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notes-retrieval/internal/app"
	"notes-retrieval/internal/config"
	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/http"
	"notes-retrieval/internal/syncer"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API provides semantic and hybrid search over a directory of markdown notes.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Notes Retrieval API
//   description: |
//     Search API over passages indexed from markdown notes.
//     Syncing embeds changed notes; search ranks passages by vector similarity
//     or by reciprocal rank fusion of lexical and vector rankings.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	slog.Debug("logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = contextutil.WithLogger(ctx, logger)

	// Unattended syncs never prompt; they run only below the cost ceiling.
	confirmer := syncer.ThresholdConfirmer{MaxCost: cfg.SyncAutoConfirmMaxCost}
	a, err := app.New(ctx, cfg, confirmer)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	if cfg.SyncSchedule != "" {
		stopSchedule, err := a.SyncService.Schedule(ctx, cfg.SyncSchedule)
		if err != nil {
			log.Fatalf("Failed to schedule sync: %v", err)
		}
		defer stopSchedule()
	}

	router := http.NewRouter(&http.Deps{
		SearchService: a.SearchService,
		SyncService:   a.SyncService,
		Health:        a.HealthHandler(),
	})

	if err := http.Serve(ctx, ":"+cfg.APIPort, router); err != nil {
		slog.Error("api server failed", "error", err)
	}
}
