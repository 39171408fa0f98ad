package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search.go -package=mocks notes-retrieval/internal/service Searcher,PassageReader
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search_service.go -package=mocks -mock_names=SearchService=MockSearchService notes-retrieval/internal/service SearchService

import (
	"context"
	"strings"

	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/indexer"
	"notes-retrieval/internal/retrieval"
	"notes-retrieval/internal/storage"
)

// MaxQueryLength bounds the query text accepted by Search.
const MaxQueryLength = 2000

// Searcher runs ranked queries. Implemented by retrieval.Engine.
type Searcher interface {
	Search(ctx context.Context, query string, filters storage.Filters, limit int) ([]retrieval.Result, error)
	HybridSearch(ctx context.Context, query string, queryVector []float32, filters storage.Filters, limit int) ([]retrieval.Result, error)
}

// PassageReader loads single passages. Implemented by storage.Store.
type PassageReader interface {
	GetPassage(ctx context.Context, id string) (*indexer.Passage, error)
}

// SearchRequest represents a search request in the domain layer.
type SearchRequest struct {
	Query   string
	Hybrid  bool
	Limit   int
	Filters storage.Filters
	// QueryVector, when set, skips embedding the query in hybrid mode.
	QueryVector []float32
}

// SearchHit is one ranked passage.
type SearchHit struct {
	PassageID     string
	NoteID        string
	NoteTitle     string
	NoteTags      []string
	HeadingAnchor string
	Content       string
	Flags         indexer.Flags
	Rank          int
	Score         float64
	LexicalRank   int
	VectorRank    int
}

// SearchResponse represents a search response in the domain layer.
type SearchResponse struct {
	Mode    string
	Results []SearchHit
}

// SearchService answers queries against the index.
type SearchService interface {
	// Search runs a vector or hybrid query.
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)
	// Passage returns one stored passage by id.
	Passage(ctx context.Context, id string) (indexer.Passage, error)
}

type searchService struct {
	searcher Searcher
	passages PassageReader
}

// NewSearchService creates a new SearchService.
func NewSearchService(searcher Searcher, passages PassageReader) SearchService {
	return &searchService{
		searcher: searcher,
		passages: passages,
	}
}

// Search validates req and runs it.
func (s *searchService) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query := strings.TrimSpace(req.Query)
	switch {
	case query == "":
		logger.WarnContext(ctx, "empty query in search request")
		return SearchResponse{}, &ValidationError{Field: "query", Message: "cannot be empty"}
	case len(query) > MaxQueryLength:
		return SearchResponse{}, &ValidationError{Field: "query", Message: "is too long"}
	case req.Limit < 0:
		return SearchResponse{}, &ValidationError{Field: "limit", Message: "must not be negative"}
	case req.Limit > retrieval.MaxLimit:
		return SearchResponse{}, &ValidationError{Field: "limit", Message: "must be at most 100"}
	case len(req.QueryVector) > 0 && !req.Hybrid:
		return SearchResponse{}, &ValidationError{Field: "query_vector", Message: "only allowed for hybrid search"}
	}

	mode := "vector"
	var results []retrieval.Result
	var err error
	if req.Hybrid {
		mode = "hybrid"
		results, err = s.searcher.HybridSearch(ctx, query, req.QueryVector, req.Filters, req.Limit)
	} else {
		results, err = s.searcher.Search(ctx, query, req.Filters, req.Limit)
	}
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "mode", mode, "error", err)
		return SearchResponse{}, classify(err, "failed to search")
	}

	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, SearchHit{
			PassageID:     r.Passage.ID,
			NoteID:        r.Passage.NoteID,
			NoteTitle:     r.Passage.NoteTitle,
			NoteTags:      r.Passage.NoteTags,
			HeadingAnchor: r.Passage.HeadingAnchor,
			Content:       r.Passage.RawContent,
			Flags:         r.Passage.Flags,
			Rank:          r.Rank,
			Score:         r.Score,
			LexicalRank:   r.LexicalRank,
			VectorRank:    r.VectorRank,
		})
	}

	logger.InfoContext(ctx, "search request processed successfully",
		"mode", mode, "query_length", len(query), "results", len(hits))
	return SearchResponse{Mode: mode, Results: hits}, nil
}

// Passage returns one stored passage by id.
func (s *searchService) Passage(ctx context.Context, id string) (indexer.Passage, error) {
	if strings.TrimSpace(id) == "" {
		return indexer.Passage{}, &ValidationError{Field: "id", Message: "cannot be empty"}
	}
	p, err := s.passages.GetPassage(ctx, id)
	if err != nil {
		return indexer.Passage{}, classify(err, "failed to get passage")
	}
	return *p, nil
}
