package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prdrag/internal/config"
	"github.com/kailas-cloud/prdrag/internal/corpus"
	"github.com/kailas-cloud/prdrag/internal/db"
	dbRedis "github.com/kailas-cloud/prdrag/internal/db/redis"
	"github.com/kailas-cloud/prdrag/internal/domain"
	"github.com/kailas-cloud/prdrag/internal/domain/document"
	"github.com/kailas-cloud/prdrag/internal/domain/prompt"
	domusage "github.com/kailas-cloud/prdrag/internal/domain/usage"
	"github.com/kailas-cloud/prdrag/internal/metrics"
	budgetrepo "github.com/kailas-cloud/prdrag/internal/repository/budget"
	"github.com/kailas-cloud/prdrag/internal/repository/embcache"
	openaiProvider "github.com/kailas-cloud/prdrag/internal/transport/openai"
	budgetuc "github.com/kailas-cloud/prdrag/internal/usecase/budget"
	embeddinguc "github.com/kailas-cloud/prdrag/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/prdrag/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/prdrag/internal/usecase/health"
	"github.com/kailas-cloud/prdrag/internal/usecase/pipeline"
	"github.com/kailas-cloud/prdrag/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/prdrag/internal/usecase/usage"
)

// app is the wired service graph shared by every subcommand.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	store     db.Store // nil when the cache is disabled
	retriever *retrieval.Service
	pipeline  *pipeline.Service
	usage     *usageuc.Service
	health    *healthuc.Service
}

// newApp is the composition root: corpus, embedder chain, index, generator, pipeline.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.Register()
	a := &app{cfg: cfg, logger: logger}

	docs, err := loadCorpus(cfg.Corpus)
	if err != nil {
		return nil, err
	}
	logger.Info("Corpus loaded",
		zap.String("path", cfg.Corpus.Path),
		zap.Int("documents", docs.Len()),
	)

	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Cache.Addrs,
			Password:  cfg.Cache.Password,
			KeyPrefix: cfg.Cache.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		timeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("cache not ready: %w", err)
		}
		a.store = store
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	embBudget := a.newBudget(ctx, domusage.KindEmbedding, cfg.Embedding.Provider, cfg.Embedding.Budget)
	genBudget := a.newBudget(ctx, domusage.KindGeneration, cfg.Generation.Provider, cfg.Generation.Budget)

	// Pass nil interface (not typed nil pointer!) if a budget is not configured.
	var embChecker embeddinguc.BudgetChecker
	var genChecker generationuc.BudgetChecker
	var readers []usageuc.BudgetReader
	if embBudget != nil {
		embChecker = embBudget
		readers = append(readers, embBudget)
	}
	if genBudget != nil {
		genChecker = genBudget
		readers = append(readers, genBudget)
	}

	base, err := newBaseEmbedder(cfg.Embedding, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	docEmbedder := a.buildEmbedder(base, cfg.Embedding.DocumentInstruction, embChecker)
	queryEmbedder := a.buildEmbedder(base, cfg.Embedding.QueryInstruction, embChecker)

	ret, err := retrieval.Build(ctx, docs, docEmbedder)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("index corpus: %w", err)
	}
	a.retriever = ret.WithQueryEmbedder(queryEmbedder)
	logger.Info("Corpus indexed",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", ret.Dimensions()),
	)

	policy, err := prompt.ParsePolicy(cfg.Pipeline.EmptyContext)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("pipeline.empty_context: %w", err)
	}
	asm, err := prompt.NewAssembler(policy, cfg.Pipeline.Currency)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create assembler: %w", err)
	}

	gen := generationuc.NewInstrumentedGenerator(newBaseGenerator(cfg.Generation, logger), generationuc.Options{
		Provider:       cfg.Generation.Provider,
		Model:          cfg.Generation.Model,
		Budget:         genChecker,
		MaxConcurrency: cfg.Generation.MaxConcurrency,
		Breaker: generationuc.BreakerConfig{
			ConsecutiveFailures: cfg.Generation.Breaker.ConsecutiveFailures,
			OpenTimeout:         time.Duration(cfg.Generation.Breaker.OpenTimeoutSec) * time.Second,
			HalfOpenRequests:    cfg.Generation.Breaker.HalfOpenRequests,
		},
	}, logger)

	a.pipeline = pipeline.New(a.retriever, asm, gen, cfg.Pipeline.TopK, logger)
	a.usage = usageuc.New(readers...)

	var cache healthuc.CachePinger
	if a.store != nil {
		cache = a.store
	}
	a.health = healthuc.New(a.retriever, newEmbeddingHealthChecker(base), gen, cache)
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

func loadCorpus(cfg config.CorpusConfig) (docs document.Corpus, err error) {
	format, err := corpus.ParseFormat(cfg.Format)
	if err != nil {
		return docs, fmt.Errorf("corpus.format: %w", err)
	}
	docs, err = corpus.Load(cfg.Path, format)
	if err != nil {
		return docs, fmt.Errorf("load corpus: %w", err)
	}
	return docs, nil
}

// newBudget returns nil when neither limit is configured.
func (a *app) newBudget(ctx context.Context, kind domusage.Kind, provider string, cfg config.BudgetConfig) *budgetuc.Tracker {
	if cfg.DailyTokenLimit <= 0 && cfg.MonthlyTokenLimit <= 0 {
		return nil
	}
	action := budgetuc.ActionWarn
	if cfg.Action == string(budgetuc.ActionReject) {
		action = budgetuc.ActionReject
	}
	t := budgetuc.NewTracker(kind, provider, cfg.DailyTokenLimit, cfg.MonthlyTokenLimit, action, a.logger)
	if a.store != nil {
		// Connect persistence store: loads current counters from the cache.
		t.WithStore(ctx, budgetrepo.New(a.store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
	}
	return t
}

func newBaseEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (domain.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openaiProvider.NewEmbedder(&openaiProvider.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		}), nil
	default:
		e, err := domain.NewHashingEmbedder(cfg.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("create local embedder: %w", err)
		}
		return e, nil
	}
}

func newBaseGenerator(cfg config.GenerationConfig, logger *zap.Logger) domain.Generator {
	if cfg.Provider != config.ProviderOpenAI {
		return domain.EchoGenerator{}
	}
	return openaiProvider.NewGenerator(&openaiProvider.GeneratorConfig{
		Config: openaiProvider.Config{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Provider: cfg.Provider,
			Logger:   logger,
		},
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
}

// buildEmbedder assembles the decorator chain: provider -> cache -> instrumented -> instruction prefix.
func (a *app) buildEmbedder(base domain.Embedder, instruction string, budget embeddinguc.BudgetChecker) domain.Embedder {
	cfg := a.cfg.Embedding

	embedder := base
	if a.store != nil {
		ttl := time.Duration(a.cfg.Cache.TTLSec) * time.Second
		embedder = embcache.New(base, a.store, cfg.Model, ttl, metrics.EmbeddingCacheTotal, a.logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Provider, cfg.Model, budget, cfg.MaxConcurrency, a.logger,
	)

	// Outermost, so cache keys include the instruction.
	return domain.WithPrefix(embedder, instruction)
}

// embeddingHealthChecker adapts an embedder to health.Checker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
