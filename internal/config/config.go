package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	DBPath    string
	NotesPath string
	// Owner identifies whose notes are indexed. Changing it invalidates the index.
	Owner string

	EmbeddingProvider          string
	EmbeddingBaseURL           string
	EmbeddingModel             string
	EmbeddingAPIKey            string
	EmbeddingDimensions        int
	EmbeddingMaxConcurrency    int
	EmbeddingBatchSize         int
	EmbeddingCostPerMTok       float64
	EmbeddingRateLimitCooldown time.Duration
	QueryCacheSize             int

	ChunkMaxTokens         int
	ChunkRebalanceFraction float64

	SyncBatchSize          int
	SyncStaleFraction      float64
	SyncConfirmThreshold   float64
	SyncAutoConfirmMaxCost float64
	SyncSchedule           string
	WatchDebounce          time.Duration
	SyncStateCacheTTL      time.Duration

	HybridLexicalWeight float64
	HybridVectorWeight  float64
	HybridRRFK          float64
	SearchMinSimilarity float64

	StoreIdleTimeout time.Duration

	QdrantEnabled    bool
	QdrantURL        string
	QdrantCollection string

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		DBPath:            getEnv("DB_PATH", "./data/notes-index.db"),
		NotesPath:         getEnv("NOTES_PATH", ""),
		Owner:             getEnv("NOTES_OWNER", defaultOwner()),
		EmbeddingProvider: strings.ToLower(getEnv("EMBEDDING_PROVIDER", "local")),
		EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
		EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", ""),
		SyncSchedule:      getEnv("SYNC_SCHEDULE", ""),
		QdrantURL:         getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:  getEnv("QDRANT_COLLECTION", "note_passages"),
		APIPort:           getEnv("API_PORT", "9000"),
		LogFormat:         strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	var err error
	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"EMBEDDING_DIMENSIONS", 0, &cfg.EmbeddingDimensions},
		{"EMBEDDING_MAX_CONCURRENCY", 0, &cfg.EmbeddingMaxConcurrency},
		{"EMBEDDING_BATCH_SIZE", 64, &cfg.EmbeddingBatchSize},
		{"QUERY_CACHE_SIZE", 256, &cfg.QueryCacheSize},
		{"CHUNK_MAX_TOKENS", 512, &cfg.ChunkMaxTokens},
		{"SYNC_BATCH_SIZE", 25, &cfg.SyncBatchSize},
	}
	for _, v := range ints {
		if *v.dest, err = getEnvInt(v.key, v.def); err != nil {
			return nil, err
		}
	}

	floats := []struct {
		key  string
		def  float64
		dest *float64
	}{
		{"EMBEDDING_COST_PER_MTOK", 0, &cfg.EmbeddingCostPerMTok},
		{"CHUNK_REBALANCE_FRACTION", 0.7, &cfg.ChunkRebalanceFraction},
		{"SYNC_STALE_FRACTION", 0.25, &cfg.SyncStaleFraction},
		{"SYNC_CONFIRM_THRESHOLD", 0, &cfg.SyncConfirmThreshold},
		{"SYNC_AUTO_CONFIRM_MAX_COST", 1.0, &cfg.SyncAutoConfirmMaxCost},
		{"HYBRID_LEXICAL_WEIGHT", 0.4, &cfg.HybridLexicalWeight},
		{"HYBRID_VECTOR_WEIGHT", 0.6, &cfg.HybridVectorWeight},
		{"HYBRID_RRF_K", 60, &cfg.HybridRRFK},
		{"SEARCH_MIN_SIMILARITY", 0, &cfg.SearchMinSimilarity},
	}
	for _, v := range floats {
		if *v.dest, err = getEnvFloat(v.key, v.def); err != nil {
			return nil, err
		}
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"EMBEDDING_RATE_LIMIT_COOLDOWN", 60 * time.Second, &cfg.EmbeddingRateLimitCooldown},
		{"STORE_IDLE_TIMEOUT", 3 * time.Minute, &cfg.StoreIdleTimeout},
		{"WATCH_DEBOUNCE", 2 * time.Second, &cfg.WatchDebounce},
		{"SYNC_STATE_CACHE_TTL", time.Minute, &cfg.SyncStateCacheTTL},
	}
	for _, v := range durations {
		if *v.dest, err = getEnvDuration(v.key, v.def); err != nil {
			return nil, err
		}
	}

	if cfg.QdrantEnabled, err = getEnvBool("QDRANT_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Create the data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.NotesPath == "" {
		return fmt.Errorf("NOTES_PATH is required")
	}
	switch c.EmbeddingProvider {
	case "local", "ollama":
	case "openai":
		if c.EmbeddingAPIKey == "" && c.EmbeddingBaseURL == "" {
			return fmt.Errorf("EMBEDDING_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be one of local, ollama, openai, got %q", c.EmbeddingProvider)
	}
	if c.ChunkMaxTokens <= 0 {
		return fmt.Errorf("CHUNK_MAX_TOKENS must be greater than 0")
	}
	if c.ChunkRebalanceFraction <= 0 || c.ChunkRebalanceFraction > 1 {
		return fmt.Errorf("CHUNK_REBALANCE_FRACTION must be in (0, 1]")
	}
	if c.SyncBatchSize <= 0 {
		return fmt.Errorf("SYNC_BATCH_SIZE must be greater than 0")
	}
	if c.SyncStaleFraction <= 0 || c.SyncStaleFraction > 1 {
		return fmt.Errorf("SYNC_STALE_FRACTION must be in (0, 1]")
	}
	if c.EmbeddingDimensions < 0 || c.EmbeddingMaxConcurrency < 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS and EMBEDDING_MAX_CONCURRENCY must not be negative")
	}
	if c.HybridLexicalWeight < 0 || c.HybridVectorWeight < 0 || c.HybridLexicalWeight+c.HybridVectorWeight == 0 {
		return fmt.Errorf("HYBRID_LEXICAL_WEIGHT and HYBRID_VECTOR_WEIGHT must be non-negative and not both 0")
	}
	if c.HybridRRFK <= 0 {
		return fmt.Errorf("HYBRID_RRF_K must be greater than 0")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// loadDotEnv loads .env from the working directory or the nearest parent
// holding one, up to five levels.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func defaultOwner() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error: %w", err)
	}
	return level, nil
}
