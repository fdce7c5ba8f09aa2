// Package openai adapts OpenAI-compatible embedding and chat completion APIs
// to the domain Embedder and Generator contracts.
package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prdrag/internal/domain"
)

// Config holds provider settings shared by the embedder and the generator.
type Config struct {
	APIKey     string
	BaseURL    string // empty = api.openai.com
	Model      string
	Dimensions int // embeddings only; 0 = model default
	User       string
	Provider   string // metrics label
	Logger     *zap.Logger
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// Embedder calls the /embeddings endpoint. Every call, single or batch, is one HTTP request.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	rec        recorder
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	return &Embedder{
		client:     newClient(cfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		rec:        embeddingRecorder(cfg.Provider, cfg.Model),
	}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder. Vectors are placed by the
// response item Index, so the provider may answer in any order.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
		Dimensions:     max(e.dimensions, 0),
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	took := time.Since(start)
	if err != nil {
		perr := parseAPIError("embedding", err, domain.ErrEmbeddingProviderError)
		e.rec.failure(errorType(perr))
		return domain.BatchEmbeddingResult{}, perr
	}

	vectors, err := placeByIndex(resp.Data, len(texts))
	if err != nil {
		e.rec.failure("malformed_response")
		return domain.BatchEmbeddingResult{}, err
	}

	e.rec.success(took)
	e.rec.addTokens("prompt", resp.Usage.PromptTokens)
	e.rec.addTokens("total", resp.Usage.TotalTokens)

	return domain.BatchEmbeddingResult{
		Embeddings:   vectors,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// placeByIndex checks that data holds exactly one non-empty vector for each of the n inputs.
func placeByIndex(data []openai.Embedding, n int) ([][]float32, error) {
	if len(data) != n {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs: %w",
			len(data), n, domain.ErrEmbeddingProviderError)
	}
	out := make([][]float32, n)
	for _, d := range data {
		switch {
		case d.Index < 0 || d.Index >= n:
			return nil, fmt.Errorf("embedding response index %d out of range: %w", d.Index, domain.ErrEmbeddingProviderError)
		case out[d.Index] != nil:
			return nil, fmt.Errorf("embedding response repeats index %d: %w", d.Index, domain.ErrEmbeddingProviderError)
		case len(d.Embedding) == 0:
			return nil, fmt.Errorf("embedding response index %d has no vector: %w", d.Index, domain.ErrEmbeddingProviderError)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// HealthCheck verifies API availability via ListModels, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
