package prdrag

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/prdrag/internal/domain"
)

// Embedder converts text to a vector. The corpus and the queries must be
// embedded into the same vector space.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder is optional. When the Embedder passed to New also implements
// it, the corpus is indexed with a single BatchEmbed call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// Generator turns an assembled prompt into text. Called once per run, never retried.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// EmbedderFunc adapts a plain function to Embedder.
type EmbedderFunc func(ctx context.Context, text string) (EmbeddingResult, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return f(ctx, text)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (GenerationResult, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (GenerationResult, error) {
	return f(ctx, prompt)
}

// EmbeddingResult is one vector and the tokens billed for it.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult holds one vector per input text, in input order.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// GenerationResult carries the generated text and token counts.
type GenerationResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// toDomainEmbedder exposes a public Embedder to the internal layers, keeping
// the BatchEmbed capability visible when the embedder has it.
func toDomainEmbedder(e Embedder) domain.Embedder {
	base := &embedderAdapter{inner: e}
	if be, ok := e.(BatchEmbedder); ok {
		return &batchEmbedderAdapter{embedderAdapter: base, batch: be}
	}
	return base
}

type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, providerError(domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult(r), nil
}

type batchEmbedderAdapter struct {
	*embedderAdapter
	batch BatchEmbedder
}

func (a *batchEmbedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	r, err := a.batch.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, providerError(domain.ErrEmbeddingProviderError, err)
	}
	return domain.BatchEmbeddingResult(r), nil
}

type generatorAdapter struct {
	inner Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	r, err := a.inner.Generate(ctx, prompt)
	if err != nil {
		return domain.GenerationResult{}, providerError(domain.ErrGenerationProviderError, err)
	}
	return domain.GenerationResult(r), nil
}

// providerError tags a custom provider failure with sentinel unless it is a
// context error or already carries it.
func providerError(sentinel, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
