package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const (
	// LocalModel identifies vectors produced by LocalProvider.
	LocalModel = "local-hash-v1"
	// LocalDimensions is the vector length of LocalProvider.
	LocalDimensions = 256
)

// LocalProvider is an on-device embedder that needs no network. It hashes
// lowercased word unigrams and bigrams into a fixed-size vector and
// normalizes it, so texts sharing vocabulary land close together.
type LocalProvider struct {
	dims int
}

// NewLocalProvider creates a LocalProvider. dims <= 0 selects LocalDimensions.
func NewLocalProvider(dims int) *LocalProvider {
	if dims <= 0 {
		dims = LocalDimensions
	}
	return &LocalProvider{dims: dims}
}

func (p *LocalProvider) Metadata() Metadata {
	return Metadata{
		Model:          LocalModel,
		Normalized:     true,
		MaxConcurrency: 1,
		Dimensions:     p.dims,
	}
}

func (p *LocalProvider) EstimateCost(int) float64 {
	return 0
}

func (p *LocalProvider) GenerateEmbedding(ctx context.Context, texts []string, _ InputType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = p.embed(text)
	}
	return out, nil
}

func (p *LocalProvider) embed(text string) []float32 {
	vec := make([]float32, p.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		p.add(vec, w, 1)
		if i > 0 {
			p.add(vec, words[i-1]+" "+w, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// Unit vector on a fixed axis keeps empty text comparable.
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (p *LocalProvider) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(p.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}
