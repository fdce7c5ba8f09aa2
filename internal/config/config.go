package config

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/prdrag/internal/domain"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local" // offline hashing embedder
	ProviderEcho   = "echo"  // returns the prompt unchanged
)

// Config holds the prdrag service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Cache      CacheConfig      `yaml:"cache"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"` // covers a full generation call
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CorpusConfig locates the reference passages.
type CorpusConfig struct {
	Path   string `yaml:"path"`   // empty = built-in corpus
	Format string `yaml:"format"` // yaml, text, pdf, parquet; empty = by extension
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	Provider            string       `yaml:"provider"` // openai, local
	APIKey              string       `yaml:"api_key"`
	BaseURL             string       `yaml:"base_url"`
	Model               string       `yaml:"model"`
	Dimensions          int          `yaml:"dimensions"`
	DocumentInstruction string       `yaml:"document_instruction"`
	QueryInstruction    string       `yaml:"query_instruction"`
	MaxConcurrency      int64        `yaml:"max_concurrency"`
	Budget              BudgetConfig `yaml:"budget"`
}

// BreakerConfig holds generation circuit breaker settings.
type BreakerConfig struct {
	ConsecutiveFailures uint32 `yaml:"consecutive_failures"` // 0 disables the breaker
	OpenTimeoutSec      int    `yaml:"open_timeout_sec"`
	HalfOpenRequests    uint32 `yaml:"half_open_requests"`
}

// GenerationConfig holds generative model settings.
type GenerationConfig struct {
	Provider       string        `yaml:"provider"` // openai, echo
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	Temperature    float32       `yaml:"temperature"`
	MaxTokens      int           `yaml:"max_tokens"` // 0 = provider default
	MaxConcurrency int64         `yaml:"max_concurrency"`
	Breaker        BreakerConfig `yaml:"breaker"`
	Budget         BudgetConfig  `yaml:"budget"`
}

// PipelineConfig holds run settings.
type PipelineConfig struct {
	TopK         int    `yaml:"top_k"`
	EmptyContext string `yaml:"empty_context"` // fail (default), degrade
	Currency     string `yaml:"currency"`
}

// CacheConfig holds the Redis connection used for the embedding cache and budget counters.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	TTLSec           int      `yaml:"ttl_sec"`    // embedding cache entries; 0 = no expiry
	KeyPrefix        string   `yaml:"key_prefix"` // empty = "prdrag:"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	models := domain.DefaultModelConfig()

	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderLocal
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = models.EmbeddingModel
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = models.Dimensions
	}
	if c.Embedding.MaxConcurrency <= 0 {
		c.Embedding.MaxConcurrency = 8
	}

	if c.Generation.Provider == "" {
		c.Generation.Provider = ProviderEcho
	}
	if c.Generation.Model == "" {
		c.Generation.Model = models.GenerationModel
	}
	if c.Generation.MaxConcurrency <= 0 {
		c.Generation.MaxConcurrency = 4
	}
	if c.Generation.Breaker.OpenTimeoutSec <= 0 {
		c.Generation.Breaker.OpenTimeoutSec = 30
	}
	if c.Generation.Breaker.HalfOpenRequests == 0 {
		c.Generation.Breaker.HalfOpenRequests = 1
	}

	if c.Pipeline.TopK <= 0 {
		c.Pipeline.TopK = domain.DefaultTopK
	}
	if c.Pipeline.EmptyContext == "" {
		c.Pipeline.EmptyContext = "fail"
	}
	if c.Pipeline.Currency == "" {
		c.Pipeline.Currency = "IDR"
	}

	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch strings.ToLower(c.Corpus.Format) {
	case "", "yaml", "yml", "text", "txt", "pdf", "parquet":
	default:
		return fmt.Errorf("corpus.format must be yaml, text, pdf or parquet, got %q", c.Corpus.Format)
	}

	switch c.Embedding.Provider {
	case ProviderLocal:
	case ProviderOpenAI:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required for provider %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q", ProviderOpenAI, ProviderLocal, c.Embedding.Provider)
	}
	if err := validateBudget("embedding", c.Embedding.Budget); err != nil {
		return err
	}

	switch c.Generation.Provider {
	case ProviderEcho:
	case ProviderOpenAI:
		if c.Generation.APIKey == "" {
			return fmt.Errorf("generation.api_key is required for provider %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("generation.provider must be %q or %q, got %q", ProviderOpenAI, ProviderEcho, c.Generation.Provider)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %v", c.Generation.Temperature)
	}
	if c.Generation.MaxTokens < 0 {
		return fmt.Errorf("generation.max_tokens must not be negative, got %d", c.Generation.MaxTokens)
	}
	if err := validateBudget("generation", c.Generation.Budget); err != nil {
		return err
	}

	if c.Pipeline.TopK > 100 {
		return fmt.Errorf("pipeline.top_k must be between 1 and 100, got %d", c.Pipeline.TopK)
	}
	switch c.Pipeline.EmptyContext {
	case "fail", "degrade":
	default:
		return fmt.Errorf("pipeline.empty_context must be \"fail\" or \"degrade\", got %q", c.Pipeline.EmptyContext)
	}

	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache is enabled")
	}
	if c.Cache.TTLSec < 0 {
		return fmt.Errorf("cache.ttl_sec must not be negative, got %d", c.Cache.TTLSec)
	}
	return nil
}

func validateBudget(section string, b BudgetConfig) error {
	switch b.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("%s.budget.action must be \"warn\" or \"reject\", got %q", section, b.Action)
	}
	if b.DailyTokenLimit < 0 || b.MonthlyTokenLimit < 0 {
		return fmt.Errorf("%s.budget token limits must not be negative", section)
	}
	return nil
}
