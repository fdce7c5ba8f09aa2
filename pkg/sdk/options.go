package prdrag

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// EmptyContextPolicy controls what happens when retrieval returns no passages.
type EmptyContextPolicy string

// Empty context policies.
const (
	// FailOnEmptyContext aborts the run with ErrEmptyContext (default).
	FailOnEmptyContext EmptyContextPolicy = "fail"
	// DegradeOnEmptyContext assembles the prompt with a placeholder instead.
	DegradeOnEmptyContext EmptyContextPolicy = "degrade"
)

type clientConfig struct {
	embedder  Embedder
	generator Generator
	openai    *OpenAIConfig
	localDim  int

	topK           int
	policy         EmptyContextPolicy
	currency       string
	maxConcurrency int64

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// OpenAIConfig configures OpenAI-compatible embedding and generation.
// Empty models fall back to text-embedding-3-small and gpt-4o-mini.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string // empty = api.openai.com
	EmbeddingModel  string
	Dimensions      int // 0 = model default
	GenerationModel string
	Temperature     float32
	MaxTokens       int // 0 = provider default
}

// WithEmbedder sets a custom embedding provider for both corpus and queries.
// Takes precedence over WithOpenAI and WithLocalEmbedder.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator sets a custom generative model. Takes precedence over WithOpenAI.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithOpenAI uses OpenAI-compatible endpoints for embedding and generation.
func WithOpenAI(cfg OpenAIConfig) Option {
	return optionFunc(func(c *clientConfig) {
		c.openai = &cfg
	})
}

// WithLocalEmbedder uses the offline hashing embedder with the given dimension.
// This is the default (384 dimensions) when no other embedder is configured.
func WithLocalEmbedder(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.localDim = dim
	})
}

// WithTopK sets the number of passages retrieved per run. Default: 3.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithEmptyContextPolicy sets the behaviour when no passage is retrieved.
func WithEmptyContextPolicy(p EmptyContextPolicy) Option {
	return optionFunc(func(c *clientConfig) {
		c.policy = p
	})
}

// WithCurrency sets the currency named in the budget forecast section. Default: IDR.
func WithCurrency(code string) Option {
	return optionFunc(func(c *clientConfig) {
		c.currency = code
	})
}

// WithMaxConcurrency bounds concurrent embedding and generation calls.
// Default: unbounded.
func WithMaxConcurrency(n int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxConcurrency = n
	})
}

// WithRedisCache caches embeddings in Redis. ttl 0 keeps entries forever.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
