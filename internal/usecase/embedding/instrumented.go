package embedding

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/prdrag/internal/domain"
	"github.com/kailas-cloud/prdrag/internal/domain/usage"
	"github.com/kailas-cloud/prdrag/internal/metrics"
)

// DefaultMaxAPIBatchSize is the largest batch sent in one API request.
const DefaultMaxAPIBatchSize = 256

// InstrumentedEmbedder guards a provider embedder: every call passes the
// budget check and waits for a concurrency slot, and the billed tokens are
// charged to the budget and to the request usage in ctx.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner     domain.Embedder
	provider  string
	budget    BudgetChecker
	sem       *semaphore.Weighted // nil = unbounded
	chunkSize int
	logger    *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. budget may be nil;
// maxConcurrency <= 0 disables the concurrency bound.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	budget BudgetChecker, maxConcurrency int64, logger *zap.Logger,
) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &InstrumentedEmbedder{
		inner:     inner,
		provider:  provider,
		budget:    budget,
		chunkSize: DefaultMaxAPIBatchSize,
		logger:    logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
	if maxConcurrency > 0 {
		p.sem = semaphore.NewWeighted(maxConcurrency)
	}
	return p
}

// Embed vectorizes one text.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	release, err := p.admit(ctx, 1)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	start := time.Now()
	res, err := p.inner.Embed(ctx, text)
	release()
	if err != nil {
		p.logger.Error("Embedding request failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.charge(ctx, res.TotalTokens)
	p.logger.Debug("Embedding request completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

// BatchEmbed vectorizes texts in API-sized chunks. The budget is checked again
// before every chunk so a long batch stops once the budget runs out.
func (p *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for chunk := range slices.Chunk(texts, p.chunkSize) {
		done := len(out.Embeddings)
		release, err := p.admit(ctx, len(texts)-done)
		if err != nil {
			if done > 0 {
				err = fmt.Errorf("after %d of %d texts: %w", done, len(texts), err)
			}
			return domain.BatchEmbeddingResult{}, err
		}
		res, err := domain.EmbedAll(ctx, p.inner, chunk)
		release()
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.Int("chunk_offset", done),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		p.charge(ctx, res.TotalTokens)
		out.Append(res)
	}

	p.logger.Debug("Batch embedding completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", out.TotalTokens),
	)
	return out, nil
}

// admit runs the budget check and then takes a concurrency slot.
// The returned release must be called once the provider call returns.
func (p *InstrumentedEmbedder) admit(ctx context.Context, pending int) (func(), error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Warn("Embedding budget exceeded", zap.Int("pending_texts", pending), zap.Error(err))
			return nil, fmt.Errorf("budget check: %w", err)
		}
	}
	if p.sem == nil {
		return func() {}, nil
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for embedding slot: %w", err)
	}
	return func() { p.sem.Release(1) }, nil
}

func (p *InstrumentedEmbedder) charge(ctx context.Context, tokens int) {
	if tokens <= 0 {
		return
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(tokens)
	if p.budget == nil {
		return
	}
	p.budget.Record(int64(tokens))
	kind := string(usage.KindEmbedding)
	metrics.BudgetTokensRemaining.WithLabelValues(kind, p.provider, "daily").Set(float64(p.budget.RemainingDaily()))
	metrics.BudgetTokensRemaining.WithLabelValues(kind, p.provider, "monthly").Set(float64(p.budget.RemainingMonthly()))
}
