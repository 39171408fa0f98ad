// Package embedding turns passage and query text into vectors through
// interchangeable backends.
package embedding

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_provider.go -package=mocks notes-retrieval/internal/embedding Provider

import (
	"context"
	"time"

	"notes-retrieval/internal/tokenizer"
)

// InputType distinguishes text being indexed from text being searched for.
// Some models expect a different instruction prefix for each.
type InputType string

const (
	InputPassage InputType = "passage"
	InputQuery   InputType = "query"
)

// Metadata describes a provider's model and operating limits.
type Metadata struct {
	// Model identifies the embedding model. Vectors from different models are
	// never comparable.
	Model string
	// CostPerMillionTokens is the published price, 0 for local backends.
	CostPerMillionTokens float64
	// Normalized reports whether returned vectors have unit length, which
	// lets similarity use a plain dot product.
	Normalized bool
	// MaxConcurrency bounds simultaneous requests to the backend.
	MaxConcurrency int
	// Dimensions is the expected vector length, 0 if not known up front.
	Dimensions int
}

// Provider is implemented by every embedding backend.
type Provider interface {
	Metadata() Metadata
	// EstimateCost returns the approximate price of embedding tokenCount tokens.
	EstimateCost(tokenCount int) float64
	// GenerateEmbedding returns one vector per input text, in order.
	GenerateEmbedding(ctx context.Context, texts []string, inputType InputType) ([][]float32, error)
}

// RetryPolicy controls how a provider reacts to rate limiting and oversized input.
type RetryPolicy struct {
	// RateLimitCooldown is waited once after a rate-limit error before the single retry.
	RateLimitCooldown time.Duration
	// MaxShrinkRetries bounds how many times oversized input is shortened and resent.
	MaxShrinkRetries int
	// ShrinkFactor is the fraction of each text kept on every shrink.
	ShrinkFactor float64
}

// DefaultRetryPolicy returns the policy used by hosted and self-hosted providers.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		RateLimitCooldown: 60 * time.Second,
		MaxShrinkRetries:  3,
		ShrinkFactor:      0.75,
	}
}

// EstimateTokens sums the token counts of texts.
func EstimateTokens(texts []string) int {
	total := 0
	for _, t := range texts {
		total += tokenizer.Count(t)
	}
	return total
}

func costFor(tokenCount int, perMillion float64) float64 {
	if tokenCount <= 0 || perMillion <= 0 {
		return 0
	}
	return float64(tokenCount) * perMillion / 1_000_000
}

func applyPrefix(texts []string, prefix string) []string {
	if prefix == "" {
		return texts
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = prefix + t
	}
	return out
}
