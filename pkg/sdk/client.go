package prdrag

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prdrag/internal/db"
	dbRedis "github.com/kailas-cloud/prdrag/internal/db/redis"
	"github.com/kailas-cloud/prdrag/internal/domain"
	"github.com/kailas-cloud/prdrag/internal/domain/document"
	"github.com/kailas-cloud/prdrag/internal/domain/prompt"
	"github.com/kailas-cloud/prdrag/internal/domain/search/request"
	"github.com/kailas-cloud/prdrag/internal/domain/search/result"
	"github.com/kailas-cloud/prdrag/internal/metrics"
	"github.com/kailas-cloud/prdrag/internal/repository/embcache"
	openaiProvider "github.com/kailas-cloud/prdrag/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/prdrag/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/prdrag/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/prdrag/internal/usecase/health"
	"github.com/kailas-cloud/prdrag/internal/usecase/pipeline"
	"github.com/kailas-cloud/prdrag/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/prdrag/internal/usecase/usage"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for mocks in tests.
type pipelineUseCase interface {
	Run(ctx context.Context, query string) (pipeline.Output, error)
	Prompt(ctx context.Context, query string) (pipeline.Draft, error)
	TopK() int
}

type retrieverUseCase interface {
	Retrieve(ctx context.Context, query string, topK int) ([]result.Result, error)
	Corpus() document.Corpus
}

// Client is the prdrag SDK entry point. Safe for concurrent use.
type Client struct {
	store     db.Store
	pipeline  pipelineUseCase
	retriever retrieverUseCase
	healthSvc healthUseCase
	usageSvc  usageUseCase
	obs       *observer
}

// New indexes the passages and returns a ready Client.
// Passage order defines the IDs; every passage is embedded exactly once.
func New(ctx context.Context, passages []Passage, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		topK:     domain.DefaultTopK,
		policy:   FailOnEmptyContext,
		currency: prompt.DefaultCurrency,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.topK <= 0 || cfg.topK > request.MaxTopK {
		return nil, fmt.Errorf("prdrag: top_k must be between 1 and %d, got %d: %w",
			request.MaxTopK, cfg.topK, ErrInvalidArgument)
	}

	corpus, err := document.NewCorpus(toEntries(passages))
	if err != nil {
		return nil, fmt.Errorf("prdrag: corpus: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store db.Store
	if len(cfg.cacheAddrs) > 0 {
		store, err = createStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	start := time.Now()
	c, err := wireClient(ctx, corpus, store, cfg, obs)
	obs.observe(opIndex, start, err)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.cacheAddrs,
		Password: cfg.cachePassword,
	})
	if err != nil {
		return nil, fmt.Errorf("prdrag: create redis store: %w", err)
	}
	if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("prdrag: redis not ready: %w", err)
	}
	return s, nil
}

func wireClient(
	ctx context.Context, corpus document.Corpus, store db.Store, cfg *clientConfig, obs *observer,
) (*Client, error) {
	nop := zap.NewNop()

	base, provider, model, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	embedder := base
	if store != nil {
		embedder = embcache.New(base, store, model, cfg.cacheTTL, metrics.EmbeddingCacheTotal, nop)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, provider, model, nil, cfg.maxConcurrency, nop)

	ret, err := retrieval.Build(ctx, corpus, embedder)
	if err != nil {
		return nil, fmt.Errorf("prdrag: index corpus: %w", err)
	}

	asm, err := prompt.NewAssembler(prompt.EmptyContextPolicy(cfg.policy), cfg.currency)
	if err != nil {
		return nil, fmt.Errorf("prdrag: %w", err)
	}

	genBase, genProvider, genModel := buildGenerator(cfg)
	gen := generationuc.NewInstrumentedGenerator(genBase, generationuc.Options{
		Provider:       genProvider,
		Model:          genModel,
		MaxConcurrency: cfg.maxConcurrency,
	}, nop)

	// Pass nil interface (not typed nil pointer!) when there is no cache.
	var cache healthuc.CachePinger
	if store != nil {
		cache = store
	}

	return &Client{
		store:     store,
		pipeline:  pipeline.New(ret, asm, gen, cfg.topK, nop),
		retriever: ret,
		healthSvc: healthuc.New(ret, nil, gen, cache),
		usageSvc:  usageuc.New(), // no budgets: every kind reports unlimited
		obs:       obs,
	}, nil
}

func buildEmbedder(cfg *clientConfig) (e domain.Embedder, provider, model string, err error) {
	switch {
	case cfg.embedder != nil:
		return toDomainEmbedder(cfg.embedder), "custom", "custom", nil
	case cfg.openai != nil:
		model := cfg.openai.EmbeddingModel
		if model == "" {
			model = domain.DefaultModelConfig().EmbeddingModel
		}
		return openaiProvider.NewEmbedder(&openaiProvider.Config{
			APIKey:     cfg.openai.APIKey,
			BaseURL:    cfg.openai.BaseURL,
			Model:      model,
			Dimensions: cfg.openai.Dimensions,
			Provider:   "openai",
		}), "openai", model, nil
	default:
		dim := cfg.localDim
		if dim == 0 {
			dim = domain.DefaultModelConfig().Dimensions
		}
		h, err := domain.NewHashingEmbedder(dim)
		if err != nil {
			return nil, "", "", fmt.Errorf("prdrag: local embedder: %w", err)
		}
		return h, "local", "hashing", nil
	}
}

func buildGenerator(cfg *clientConfig) (g domain.Generator, provider, model string) {
	switch {
	case cfg.generator != nil:
		return &generatorAdapter{inner: cfg.generator}, "custom", "custom"
	case cfg.openai != nil:
		model := cfg.openai.GenerationModel
		if model == "" {
			model = domain.DefaultModelConfig().GenerationModel
		}
		return openaiProvider.NewGenerator(&openaiProvider.GeneratorConfig{
			Config: openaiProvider.Config{
				APIKey:   cfg.openai.APIKey,
				BaseURL:  cfg.openai.BaseURL,
				Model:    model,
				Provider: "openai",
			},
			Temperature: cfg.openai.Temperature,
			MaxTokens:   cfg.openai.MaxTokens,
		}), "openai", model
	default:
		return domain.EchoGenerator{}, "echo", "echo"
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Run drafts a PRD for the query: retrieve, assemble, generate.
// Errors carry their stage; see FailedStage.
func (c *Client) Run(ctx context.Context, query string) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opRun, start, err) }()

	out, err := c.pipeline.Run(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("run: %w", err)
	}
	return Result{
		RunID:            out.RunID,
		Text:             out.Text,
		Model:            out.Model,
		Context:          fromResults(out.Retrieved),
		EmbeddingTokens:  out.EmbeddingTokens,
		GenerationTokens: out.GenerationTokens,
	}, nil
}

// Prompt retrieves and assembles without calling the generator.
func (c *Client) Prompt(ctx context.Context, query string) (d Draft, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opPrompt, start, err) }()

	draft, err := c.pipeline.Prompt(ctx, query)
	if err != nil {
		return Draft{}, fmt.Errorf("prompt: %w", err)
	}
	return Draft{RunID: draft.RunID, Prompt: draft.Prompt, Context: fromResults(draft.Retrieved)}, nil
}

// Retrieve returns up to topK passages closest to the query, closest first.
// topK <= 0 uses the client default.
func (c *Client) Retrieve(ctx context.Context, query string, topK int) (ms []Match, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opRetrieve, start, err) }()

	req, err := request.New(query, topK, c.pipeline.TopK())
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	rs, err := c.retriever.Retrieve(ctx, req.Query(), req.TopK())
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return fromResults(rs), nil
}

// Corpus returns the indexed passages in ID order.
func (c *Client) Corpus() []Passage {
	return fromCorpus(c.retriever.Corpus())
}
