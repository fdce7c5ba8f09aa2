package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/prdrag/internal/domain"
	"github.com/kailas-cloud/prdrag/internal/domain/usage"
	"github.com/kailas-cloud/prdrag/internal/metrics"
)

// BreakerConfig configures the generation circuit breaker.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker; 0 disables it.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial request.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of trial requests allowed while half-open.
	HalfOpenRequests uint32
}

// Options configures an InstrumentedGenerator.
type Options struct {
	Provider       string
	Model          string
	Budget         BudgetChecker // nil = unlimited
	MaxConcurrency int64         // <= 0 = unbounded
	Breaker        BreakerConfig
}

// InstrumentedGenerator wraps a Generator with budget enforcement, a concurrency bound,
// a circuit breaker, per-request usage accounting and logging. It never retries.
type InstrumentedGenerator struct {
	inner    domain.Generator
	provider string
	model    string
	budget   BudgetChecker
	sem      *semaphore.Weighted
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

// NewInstrumentedGenerator wraps a generator.
func NewInstrumentedGenerator(inner domain.Generator, opts Options, logger *zap.Logger) *InstrumentedGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &InstrumentedGenerator{
		inner:    inner,
		provider: opts.Provider,
		model:    opts.Model,
		budget:   opts.Budget,
		logger:   logger,
	}
	if opts.MaxConcurrency > 0 {
		g.sem = semaphore.NewWeighted(opts.MaxConcurrency)
	}
	if opts.Breaker.ConsecutiveFailures > 0 {
		g.breaker = newBreaker(opts.Provider, opts.Breaker, logger)
	}
	return g
}

func newBreaker(provider string, cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	threshold := cfg.ConsecutiveFailures
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generation:" + provider,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		// Caller cancellation says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.GenerationBreakerState.WithLabelValues(provider).Set(float64(to))
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Generate checks the budget, waits for a slot, and calls the inner generator through the breaker.
func (g *InstrumentedGenerator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	if g.budget != nil {
		if err := g.budget.Check(ctx); err != nil {
			g.logger.Error("Budget exceeded",
				zap.String("provider", g.provider),
				zap.String("model", g.model),
				zap.Error(err),
			)
			return domain.GenerationResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	if g.sem != nil {
		if err := g.sem.Acquire(ctx, 1); err != nil {
			return domain.GenerationResult{}, fmt.Errorf("wait for generation slot: %w", err)
		}
		defer g.sem.Release(1)
	}

	start := time.Now()
	result, err := g.call(ctx, prompt)
	duration := time.Since(start)

	if err != nil {
		g.logger.Error("Generation request failed",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}

	g.record(ctx, result.TotalTokens)

	g.logger.Debug("Generation request completed",
		zap.String("provider", g.provider),
		zap.String("model", result.Model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
	)
	return result, nil
}

func (g *InstrumentedGenerator) call(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	if g.breaker == nil {
		return g.inner.Generate(ctx, prompt) //nolint:wrapcheck // wrapped by Generate
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Generate(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.GenerationResult{}, fmt.Errorf("circuit breaker %s: %w: %w",
			g.breaker.State(), domain.ErrGenerationProviderError, err)
	}
	if err != nil {
		return domain.GenerationResult{}, err //nolint:wrapcheck // wrapped by Generate
	}
	return out.(domain.GenerationResult), nil
}

func (g *InstrumentedGenerator) record(ctx context.Context, tokens int) {
	if tokens <= 0 {
		return
	}
	domain.UsageFromContext(ctx).AddGenerationTokens(tokens)
	if g.budget == nil {
		return
	}
	g.budget.Record(int64(tokens))
	remaining := metrics.BudgetTokensRemaining
	kind := string(usage.KindGeneration)
	remaining.WithLabelValues(kind, g.provider, "daily").Set(float64(g.budget.RemainingDaily()))
	remaining.WithLabelValues(kind, g.provider, "monthly").Set(float64(g.budget.RemainingMonthly()))
}

// BreakerState reports the breaker state ("closed" when no breaker is configured).
func (g *InstrumentedGenerator) BreakerState() string {
	if g.breaker == nil {
		return gobreaker.StateClosed.String()
	}
	return g.breaker.State().String()
}

// HealthCheck reports an open breaker as unhealthy and otherwise delegates to the inner generator.
func (g *InstrumentedGenerator) HealthCheck(ctx context.Context) error {
	if g.breaker != nil && g.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker open: %w", domain.ErrGenerationProviderError)
	}
	if hc, ok := g.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through
	}
	return nil
}
