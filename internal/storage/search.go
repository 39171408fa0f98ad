package storage

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"notes-retrieval/internal/contextutil"
	"notes-retrieval/internal/indexer"
	"notes-retrieval/internal/lexical"
)

// VectorSearch scores every stored vector against queryVec and returns the
// top matches at or above q.MinSimilarity. Flag filters run in SQL.
func (s *Store) VectorSearch(ctx context.Context, queryVec []float32, q VectorQuery) ([]VectorResult, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	where, args := q.Filters.where()
	passages, err := s.loadPassages(ctx, "vector IS NOT NULL"+where, args)
	if err != nil {
		return nil, err
	}

	results := make([]VectorResult, 0, len(passages))
	skipped := 0
	for _, p := range passages {
		if len(p.Vector) != len(queryVec) {
			skipped++
			continue
		}
		sim := similarity(queryVec, p.Vector, q.Normalized)
		if sim < q.MinSimilarity {
			continue
		}
		results = append(results, VectorResult{Passage: p, Similarity: sim})
	}
	if skipped > 0 {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "skipped passages with mismatched dimensions",
			"skipped", skipped, "query_dimensions", len(queryVec))
	}

	slices.SortFunc(results, func(a, b VectorResult) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.Passage.ID, b.Passage.ID)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// HybridSearch ranks passages lexically by stemmed term overlap with
// queryText and semantically by similarity to queryVec, then fuses both
// rankings with weighted Reciprocal Rank Fusion. Ranks are computed over
// the whole index; filters apply to the fused list.
func (s *Store) HybridSearch(ctx context.Context, queryText string, queryVec []float32, q HybridQuery) ([]HybridResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	params := normalizeFusion(q.Fusion)

	passages, err := s.loadPassages(ctx, "1 = 1", nil)
	if err != nil {
		return nil, err
	}

	terms := lexical.Terms(queryText)
	byID := make(map[string]*indexer.Passage, len(passages))
	lexScores := make(map[string]float64)
	vecScores := make(map[string]float64)
	var lexEntries, vecEntries []scored

	for i := range passages {
		p := &passages[i]
		byID[p.ID] = p

		if len(terms) > 0 {
			overlap := lexical.Overlap(terms, lexical.NewSet(lexical.Terms(lexicalText(p.ProcessedContent))))
			if overlap > 0 {
				lexScores[p.ID] = overlap
				lexEntries = append(lexEntries, scored{id: p.ID, score: overlap})
			}
		}
		if len(queryVec) > 0 && len(p.Vector) == len(queryVec) {
			sim := similarity(queryVec, p.Vector, q.Normalized)
			vecScores[p.ID] = sim
			vecEntries = append(vecEntries, scored{id: p.ID, score: sim})
		}
	}

	lexRanks := assignRanks(lexEntries)
	vecRanks := assignRanks(vecEntries)
	fused := fuse(lexRanks, vecRanks, params)

	results := make([]HybridResult, 0, len(fused))
	for id, score := range fused {
		p := byID[id]
		if !q.Filters.Match(p.Flags) {
			continue
		}
		results = append(results, HybridResult{
			Passage:      *p,
			Score:        score,
			LexicalRank:  lexRanks[id],
			VectorRank:   vecRanks[id],
			LexicalScore: lexScores[id],
			VectorScore:  vecScores[id],
		})
	}

	slices.SortFunc(results, func(a, b HybridResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Passage.ID, b.Passage.ID)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// frontMatterKeys are the labels the chunker writes ahead of a passage body.
var frontMatterKeys = []string{"title:", "tags:", "section:"}

// lexicalText drops the front matter labels from processed content, keeping
// their values and the body, so a query for "title" does not hit every passage.
func lexicalText(processed string) string {
	if !strings.HasPrefix(processed, "---\n") {
		return processed
	}
	end := strings.Index(processed[4:], "\n---\n")
	if end < 0 {
		return processed
	}
	header, body := processed[4:4+end], processed[4+end+5:]

	var b strings.Builder
	for _, line := range strings.Split(header, "\n") {
		for _, key := range frontMatterKeys {
			if rest, ok := strings.CutPrefix(line, key); ok {
				line = rest
				break
			}
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(body)
	return b.String()
}

func (s *Store) loadPassages(ctx context.Context, where string, args []any) ([]indexer.Passage, error) {
	var passages []indexer.Passage
	err := s.withDB(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, "SELECT "+passageColumns+" FROM passages WHERE "+where, args...)
		if err != nil {
			return err
		}
		passages, err = scanPassages(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load passages: %w", err)
	}
	return passages, nil
}
