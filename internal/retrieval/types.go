// Package retrieval answers free-text queries against the passage index.
package retrieval

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retrieval.go -package=mocks notes-retrieval/internal/retrieval Index,VectorMirror

import (
	"context"
	"errors"

	"notes-retrieval/internal/indexer"
	"notes-retrieval/internal/storage"
	"notes-retrieval/internal/syncer"
	"notes-retrieval/internal/vectorstore"
)

var (
	// ErrNotSynced is returned when the index has never been built for the
	// current owner and model.
	ErrNotSynced = errors.New("index is not synced: run a sync first")
	// ErrEmptyQuery is returned for blank queries.
	ErrEmptyQuery = errors.New("query is empty")
)

const (
	// DefaultLimit is used when a search passes a non-positive limit.
	DefaultLimit = storage.DefaultLimit
	// MaxLimit caps the number of results a single search returns.
	MaxLimit = 100
)

// Index is the subset of storage.Store used for retrieval.
type Index interface {
	VectorSearch(ctx context.Context, queryVec []float32, q storage.VectorQuery) ([]storage.VectorResult, error)
	HybridSearch(ctx context.Context, queryText string, queryVec []float32, q storage.HybridQuery) ([]storage.HybridResult, error)
	PassagesByID(ctx context.Context, ids []string) ([]indexer.Passage, error)
}

// VectorMirror is an external vector database holding a copy of the index.
type VectorMirror interface {
	Search(ctx context.Context, query []float32, filters storage.Filters, limit int) ([]vectorstore.SearchResult, error)
}

// StateFunc reports the sync state of the index.
type StateFunc func(ctx context.Context) (syncer.State, error)

// Result is one retrieved passage.
type Result struct {
	Passage indexer.Passage
	Rank    int
	// Score is the similarity for vector search and the fused score for
	// hybrid search.
	Score float64
	// Ranking detail, set by hybrid search only. A zero rank means the
	// passage was absent from that ranking.
	LexicalRank  int
	VectorRank   int
	LexicalScore float64
	VectorScore  float64
}
