package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/semaphore"
)

// OpenAIConfig configures an OpenAI-compatible /v1/embeddings backend.
type OpenAIConfig struct {
	BaseURL              string
	APIKey               string
	Model                string
	Dimensions           int
	CostPerMillionTokens float64
	MaxConcurrency       int
	Retry                RetryPolicy
	HTTPClient           *http.Client
}

// OpenAIProvider is a client for hosted OpenAI-compatible embeddings APIs.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *http.Client
	sem    *semaphore.Weighted
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
// When cfg.Dimensions is set, every returned vector is validated against it.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenAIProvider{
		cfg:    cfg,
		client: newHTTPClient(cfg.HTTPClient),
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
	}
}

// openAIRequest represents the request payload for the embeddings API.
type openAIRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// openAIData represents a single embedding in the response.
type openAIData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// openAIResponse represents the response from the embeddings API.
type openAIResponse struct {
	Data []openAIData `json:"data"`
}

func (p *OpenAIProvider) Metadata() Metadata {
	return Metadata{
		Model:                p.cfg.Model,
		CostPerMillionTokens: p.cfg.CostPerMillionTokens,
		Normalized:           true,
		MaxConcurrency:       p.cfg.MaxConcurrency,
		Dimensions:           p.cfg.Dimensions,
	}
}

func (p *OpenAIProvider) EstimateCost(tokenCount int) float64 {
	return costFor(tokenCount, p.cfg.CostPerMillionTokens)
}

// GenerateEmbedding embeds texts. OpenAI models are symmetric, so inputType
// adds no prefix.
func (p *OpenAIProvider) GenerateEmbedding(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	return withRetry(ctx, p.cfg.Retry, texts, p.call)
}

func (p *OpenAIProvider) call(ctx context.Context, texts []string) ([][]float32, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	var resp openAIResponse
	url := fmt.Sprintf("%s/v1/embeddings", p.cfg.BaseURL)
	req := openAIRequest{Model: p.cfg.Model, Input: texts, Dimensions: p.cfg.Dimensions}
	if err := postJSON(ctx, p.client, url, p.cfg.APIKey, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	result := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		if p.cfg.Dimensions > 0 && len(data.Embedding) != p.cfg.Dimensions {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(data.Embedding), p.cfg.Dimensions)
		}
		slot := i
		if data.Index >= 0 && data.Index < len(result) && result[data.Index] == nil {
			slot = data.Index
		}
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		result[slot] = vec
	}
	return result, nil
}
