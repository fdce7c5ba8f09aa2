package domain

import (
	"context"
	"fmt"
)

// Embedder turns one text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder is implemented by embedders with a native multi-text call.
// Vectors come back in input order, one per text.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies model provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult is one vector plus the tokens the provider billed for it.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult holds vectors aligned with the input texts and summed token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Append adds the vectors and usage of next after those already in r.
func (r *BatchEmbeddingResult) Append(next BatchEmbeddingResult) {
	r.Embeddings = append(r.Embeddings, next.Embeddings...)
	r.PromptTokens += next.PromptTokens
	r.TotalTokens += next.TotalTokens
}

// EmbedAll vectorizes texts with a single BatchEmbed call when e supports it
// and with one Embed call per text otherwise. On success the result holds
// exactly len(texts) vectors.
func EmbedAll(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	embed := embedEach
	if be, ok := e.(BatchEmbedder); ok {
		embed = func(ctx context.Context, _ Embedder, texts []string) (BatchEmbeddingResult, error) {
			return be.BatchEmbed(ctx, texts)
		}
	}

	res, err := embed(ctx, e, texts)
	if err != nil {
		return BatchEmbeddingResult{}, err
	}
	if got := len(res.Embeddings); got != len(texts) {
		return BatchEmbeddingResult{}, fmt.Errorf("embedder returned %d vectors for %d texts: %w",
			got, len(texts), ErrEmbeddingProviderError)
	}
	return res, nil
}

func embedEach(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("embed text %d: %w", i, err)
		}
		out.Append(BatchEmbeddingResult{
			Embeddings:   [][]float32{res.Embedding},
			PromptTokens: res.PromptTokens,
			TotalTokens:  res.TotalTokens,
		})
	}
	return out, nil
}

// WithPrefix returns an embedder that prepends prefix to every text before
// handing it to inner, e.g. "query: " or "passage: " for instruction-tuned models.
// An empty prefix returns inner unchanged.
func WithPrefix(inner Embedder, prefix string) Embedder {
	if prefix == "" {
		return inner
	}
	return &prefixEmbedder{inner: inner, prefix: prefix}
}

type prefixEmbedder struct {
	inner  Embedder
	prefix string
}

func (e *prefixEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := e.inner.Embed(ctx, e.prefix+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("prefixed embed: %w", err)
	}
	return res, nil
}

func (e *prefixEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	withPrefix := make([]string, len(texts))
	for i, t := range texts {
		withPrefix[i] = e.prefix + t
	}
	res, err := EmbedAll(ctx, e.inner, withPrefix)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("prefixed batch embed: %w", err)
	}
	return res, nil
}
