package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/embedding"
	"notes-retrieval/internal/storage"
	"notes-retrieval/internal/syncer"
)

// Engine embeds queries and ranks passages against them.
type Engine struct {
	index         Index
	provider      embedding.Provider
	cache         *embedding.QueryCache
	state         StateFunc
	mirror        VectorMirror
	fusion        storage.FusionParams
	minSimilarity float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithMirror routes vector-only searches to m. Passages are still read
// from the index.
func WithMirror(m VectorMirror) Option {
	return func(e *Engine) {
		e.mirror = m
	}
}

// WithFusion overrides the hybrid ranking weights.
func WithFusion(p storage.FusionParams) Option {
	return func(e *Engine) {
		e.fusion = p
	}
}

// WithMinSimilarity drops vector results scoring below threshold.
func WithMinSimilarity(threshold float64) Option {
	return func(e *Engine) {
		e.minSimilarity = threshold
	}
}

// WithQueryCache shares a query embedding cache with the engine.
func WithQueryCache(c *embedding.QueryCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// NewEngine creates a retrieval engine. A nil state func treats the index
// as synced.
func NewEngine(index Index, provider embedding.Provider, state StateFunc, opts ...Option) (*Engine, error) {
	e := &Engine{
		index:    index,
		provider: provider,
		state:    state,
		fusion:   storage.DefaultFusion(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		cache, err := embedding.NewQueryCache(embedding.DefaultQueryCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create query cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Cache returns the query embedding cache.
func (e *Engine) Cache() *embedding.QueryCache {
	return e.cache
}

// Search returns the passages most similar to query.
func (e *Engine) Search(ctx context.Context, query string, filters storage.Filters, limit int) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	query, limit, err := e.prepare(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	vec, err := e.cache.Embed(ctx, e.provider, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var results []Result
	if e.mirror != nil {
		results, err = e.searchMirror(ctx, vec, filters, limit)
	} else {
		results, err = e.searchIndex(ctx, vec, filters, limit)
	}
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "vector search completed",
		"results", len(results),
		"limit", limit,
		"mirror", e.mirror != nil,
		"duration_ms", time.Since(start).Milliseconds())
	return results, nil
}

// HybridSearch fuses lexical and vector rankings for query. A nil
// queryVector is computed from query.
func (e *Engine) HybridSearch(ctx context.Context, query string, queryVector []float32, filters storage.Filters, limit int) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	query, limit, err := e.prepare(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if queryVector == nil {
		queryVector, err = e.cache.Embed(ctx, e.provider, query)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
	}

	hits, err := e.index.HybridSearch(ctx, query, queryVector, storage.HybridQuery{
		Filters:    filters,
		Limit:      limit,
		Normalized: e.provider.Metadata().Normalized,
		Fusion:     e.fusion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run hybrid search: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for i, h := range hits {
		results = append(results, Result{
			Passage:      h.Passage,
			Rank:         i + 1,
			Score:        h.Score,
			LexicalRank:  h.LexicalRank,
			VectorRank:   h.VectorRank,
			LexicalScore: h.LexicalScore,
			VectorScore:  h.VectorScore,
		})
	}

	logger.InfoContext(ctx, "hybrid search completed",
		"results", len(results),
		"limit", limit,
		"duration_ms", time.Since(start).Milliseconds())
	return results, nil
}

// prepare validates the query, clamps limit and checks the index is usable.
func (e *Engine) prepare(ctx context.Context, query string, limit int) (string, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", 0, ErrEmptyQuery
	}

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if e.state != nil {
		state, err := e.state(ctx)
		if err != nil {
			return "", 0, fmt.Errorf("failed to read sync state: %w", err)
		}
		if state == syncer.NotSynced {
			return "", 0, ErrNotSynced
		}
	}
	return query, limit, nil
}

func (e *Engine) searchIndex(ctx context.Context, vec []float32, filters storage.Filters, limit int) ([]Result, error) {
	hits, err := e.index.VectorSearch(ctx, vec, storage.VectorQuery{
		Filters:       filters,
		Limit:         limit,
		MinSimilarity: e.minSimilarity,
		Normalized:    e.provider.Metadata().Normalized,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run vector search: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for i, h := range hits {
		results = append(results, Result{Passage: h.Passage, Rank: i + 1, Score: h.Similarity})
	}
	return results, nil
}

// searchMirror queries the mirror and hydrates passages from the index.
// Hits the index no longer holds are dropped.
func (e *Engine) searchMirror(ctx context.Context, vec []float32, filters storage.Filters, limit int) ([]Result, error) {
	hits, err := e.mirror.Search(ctx, vec, filters, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search mirror: %w", err)
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if float64(h.Score) < e.minSimilarity {
			continue
		}
		ids = append(ids, h.PassageID)
	}
	passages, err := e.index.PassagesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load passages: %w", err)
	}

	byID := make(map[string]int, len(passages))
	for i, p := range passages {
		byID[p.ID] = i
	}

	results := make([]Result, 0, len(passages))
	for _, h := range hits {
		i, ok := byID[h.PassageID]
		if !ok {
			continue
		}
		results = append(results, Result{Passage: passages[i], Rank: len(results) + 1, Score: float64(h.Score)})
	}
	if dropped := len(ids) - len(results); dropped > 0 {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "mirror returned passages missing from index", "dropped", dropped)
	}
	return results, nil
}
