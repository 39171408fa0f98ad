package embedding

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultRequestBatchSize is the number of texts sent per backend request.
const DefaultRequestBatchSize = 64

// EmbedAll embeds texts in request batches of batchSize, running at most
// Metadata().MaxConcurrency batches at once. Results keep input order.
// The first failing batch cancels the rest.
func EmbedAll(ctx context.Context, p Provider, texts []string, inputType InputType, batchSize int) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultRequestBatchSize
	}
	limit := p.Metadata().MaxConcurrency
	if limit <= 0 {
		limit = 1
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		g.Go(func() error {
			vectors, err := p.GenerateEmbedding(gctx, texts[start:end], inputType)
			if err != nil {
				return fmt.Errorf("failed to embed texts %d-%d: %w", start, end-1, err)
			}
			if len(vectors) != end-start {
				return fmt.Errorf("expected %d embeddings, got %d", end-start, len(vectors))
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
