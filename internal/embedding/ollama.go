package embedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/semaphore"
)

// OllamaConfig configures a self-hosted Ollama /api/embed backend.
type OllamaConfig struct {
	Host           string
	Model          string
	Dimensions     int
	MaxConcurrency int
	// PassagePrefix and QueryPrefix are prepended to text of the matching
	// input type. Asymmetric retrieval models such as nomic-embed-text need them.
	PassagePrefix string
	QueryPrefix   string
	Retry         RetryPolicy
	HTTPClient    *http.Client
}

// OllamaProvider embeds text through a local or self-hosted Ollama server.
type OllamaProvider struct {
	cfg    OllamaConfig
	client *http.Client
	sem    *semaphore.Weighted
}

// NewOllamaProvider creates a new Ollama provider. Models in the nomic family
// get their documented search prefixes unless prefixes are already set.
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 2
	}
	if strings.Contains(strings.ToLower(cfg.Model), "nomic") && cfg.PassagePrefix == "" && cfg.QueryPrefix == "" {
		cfg.PassagePrefix = "search_document: "
		cfg.QueryPrefix = "search_query: "
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	return &OllamaProvider{
		cfg:    cfg,
		client: newHTTPClient(cfg.HTTPClient),
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
	}
}

// ollamaRequest is the request body for Ollama's /api/embed endpoint.
type ollamaRequest struct {
	Model    string   `json:"model"`
	Input    []string `json:"input"`
	Truncate bool     `json:"truncate"`
}

// ollamaResponse is the response from Ollama's /api/embed endpoint.
type ollamaResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (p *OllamaProvider) Metadata() Metadata {
	return Metadata{
		Model:          p.cfg.Model,
		Normalized:     true,
		MaxConcurrency: p.cfg.MaxConcurrency,
		Dimensions:     p.cfg.Dimensions,
	}
}

// EstimateCost is always 0: self-hosted inference has no per-token price.
func (p *OllamaProvider) EstimateCost(int) float64 {
	return 0
}

func (p *OllamaProvider) GenerateEmbedding(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	prefix := p.cfg.PassagePrefix
	if inputType == InputQuery {
		prefix = p.cfg.QueryPrefix
	}
	return withRetry(ctx, p.cfg.Retry, applyPrefix(texts, prefix), p.call)
}

func (p *OllamaProvider) call(ctx context.Context, texts []string) ([][]float32, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	var resp ollamaResponse
	req := ollamaRequest{Model: p.cfg.Model, Input: texts, Truncate: true}
	if err := postJSON(ctx, p.client, p.cfg.Host+"/api/embed", "", req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	for i, vec := range resp.Embeddings {
		if len(vec) == 0 {
			return nil, fmt.Errorf("ollama returned empty embedding %d", i)
		}
		if p.cfg.Dimensions > 0 && len(vec) != p.cfg.Dimensions {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(vec), p.cfg.Dimensions)
		}
	}
	return resp.Embeddings, nil
}
