// Package app wires the index, providers and services shared by the
// API server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"notes-retrieval/internal/config"
	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/embedding"
	"notes-retrieval/internal/handlers"
	"notes-retrieval/internal/indexer"
	"notes-retrieval/internal/retrieval"
	"notes-retrieval/internal/service"
	"notes-retrieval/internal/storage"
	"notes-retrieval/internal/syncer"
	"notes-retrieval/internal/vault"
	"notes-retrieval/internal/vectorstore"
)

// App holds the long-lived components built from a Config.
type App struct {
	Config       *config.Config
	Store        *storage.Store
	Source       *vault.Source
	Provider     embedding.Provider
	Orchestrator *syncer.Orchestrator
	Engine       *retrieval.Engine
	Mirror       *vectorstore.QdrantStore

	SearchService service.SearchService
	SyncService   service.SyncService
}

// New opens the index and builds every component. The confirmer gates
// sync cost; nil approves everything.
func New(ctx context.Context, cfg *config.Config, confirmer syncer.Confirmer) (*App, error) {
	logger := contextutil.LoggerFromContext(ctx)

	src, err := vault.NewSource(cfg.NotesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open notes directory: %w", err)
	}

	provider, err := embedding.NewProvider(embedding.Config{
		Provider:             cfg.EmbeddingProvider,
		BaseURL:              cfg.EmbeddingBaseURL,
		Model:                cfg.EmbeddingModel,
		APIKey:               cfg.EmbeddingAPIKey,
		Dimensions:           cfg.EmbeddingDimensions,
		MaxConcurrency:       cfg.EmbeddingMaxConcurrency,
		CostPerMillionTokens: cfg.EmbeddingCostPerMTok,
		RateLimitCooldown:    cfg.EmbeddingRateLimitCooldown,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}
	meta := provider.Metadata()
	logger.Info("embedding provider ready", "provider", cfg.EmbeddingProvider, "model", meta.Model, "dimensions", meta.Dimensions)

	store, err := storage.Open(ctx, storage.Options{Path: cfg.DBPath, IdleTimeout: cfg.StoreIdleTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	logger.Info("index opened", "path", cfg.DBPath)

	a := &App{
		Config:   cfg,
		Store:    store,
		Source:   src,
		Provider: provider,
	}

	var syncOpts []syncer.Option
	var engineOpts []retrieval.Option
	if cfg.QdrantEnabled {
		mirror, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("failed to create qdrant client: %w", err)
		}
		a.Mirror = mirror
		syncOpts = append(syncOpts, syncer.WithMirror(mirror))
		engineOpts = append(engineOpts, retrieval.WithMirror(mirror))
		logger.Info("qdrant mirror enabled", "url", cfg.QdrantURL, "collection", mirror.Collection())
	}

	chunker := indexer.NewMarkdownChunker(indexer.WithRebalanceFraction(cfg.ChunkRebalanceFraction))
	a.Orchestrator = syncer.NewOrchestrator(store, chunker, provider, confirmer, syncer.Config{
		Owner:            cfg.Owner,
		MaxTokens:        cfg.ChunkMaxTokens,
		BatchSize:        cfg.SyncBatchSize,
		StaleFraction:    cfg.SyncStaleFraction,
		ConfirmThreshold: cfg.SyncConfirmThreshold,
		EmbedBatchSize:   cfg.EmbeddingBatchSize,
		StateCacheTTL:    cfg.SyncStateCacheTTL,
	}, syncOpts...)

	cache, err := embedding.NewQueryCache(cfg.QueryCacheSize)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}
	engineOpts = append(engineOpts,
		retrieval.WithQueryCache(cache),
		retrieval.WithMinSimilarity(cfg.SearchMinSimilarity),
		retrieval.WithFusion(storage.FusionParams{
			LexicalWeight: cfg.HybridLexicalWeight,
			VectorWeight:  cfg.HybridVectorWeight,
			K:             cfg.HybridRRFK,
		}),
	)
	a.Engine, err = retrieval.NewEngine(store, provider, a.state, engineOpts...)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("failed to create retrieval engine: %w", err)
	}
	// Cached query vectors go with the connection.
	store.OnClose(cache.Purge)

	a.SearchService = service.NewSearchService(a.Engine, store)
	a.SyncService = service.NewSyncService(a.Orchestrator, src, store)
	return a, nil
}

func (a *App) state(ctx context.Context) (syncer.State, error) {
	return a.Orchestrator.State(ctx, a.Source)
}

// HealthHandler checks the index and, when enabled, the Qdrant mirror.
func (a *App) HealthHandler() *handlers.HealthHandler {
	h := handlers.NewHealthHandler(func(ctx context.Context) error {
		_, err := a.Store.Count(ctx)
		return err
	})
	if a.Mirror != nil {
		h.WithOptionalCheck("vector_store", func(ctx context.Context) error {
			_, err := a.Mirror.CollectionExists(ctx)
			return err
		})
	}
	return h
}

// Close waits for background syncs and releases every resource.
func (a *App) Close(ctx context.Context) error {
	if a.SyncService != nil {
		a.SyncService.Cancel()
		a.SyncService.Wait()
	}
	var errs []error
	if a.Mirror != nil {
		if err := a.Mirror.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close qdrant client: %w", err))
		}
	}
	if err := a.Store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close index: %w", err))
	}
	return errors.Join(errs...)
}
