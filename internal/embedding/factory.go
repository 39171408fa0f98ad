package embedding

import (
	"fmt"
	"strings"
	"time"
)

// Provider names accepted by NewProvider.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderLocal  = "local"
)

// Config selects and configures a provider.
type Config struct {
	Provider             string
	BaseURL              string
	Model                string
	APIKey               string
	Dimensions           int
	MaxConcurrency       int
	CostPerMillionTokens float64
	RateLimitCooldown    time.Duration
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(cfg Config) (Provider, error) {
	retry := DefaultRetryPolicy()
	if cfg.RateLimitCooldown > 0 {
		retry.RateLimitCooldown = cfg.RateLimitCooldown
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI:
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.openai.com"
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("embedding model is required for provider %q", cfg.Provider)
		}
		return NewOpenAIProvider(OpenAIConfig{
			BaseURL:              cfg.BaseURL,
			APIKey:               cfg.APIKey,
			Model:                cfg.Model,
			Dimensions:           cfg.Dimensions,
			CostPerMillionTokens: cfg.CostPerMillionTokens,
			MaxConcurrency:       cfg.MaxConcurrency,
			Retry:                retry,
		}), nil
	case ProviderOllama:
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434"
		}
		if cfg.Model == "" {
			cfg.Model = "nomic-embed-text"
		}
		return NewOllamaProvider(OllamaConfig{
			Host:           cfg.BaseURL,
			Model:          cfg.Model,
			Dimensions:     cfg.Dimensions,
			MaxConcurrency: cfg.MaxConcurrency,
			Retry:          retry,
		}), nil
	case ProviderLocal, "":
		return NewLocalProvider(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
