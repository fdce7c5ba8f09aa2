package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects token usage for a single pipeline run.
// The handler puts a pointer into the context before calling the pipeline;
// the embedding and generation stages write to it; the handler reads it for response headers.
type Usage struct {
	mu               sync.Mutex
	embeddingTokens  int
	generationTokens int
	embedded         bool
	generated        bool
}

// NewContextWithUsage returns a context with an attached usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records tokens consumed by the query embedding.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += n
	u.embedded = true
	u.mu.Unlock()
}

// AddGenerationTokens records tokens consumed by generation.
func (u *Usage) AddGenerationTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.generationTokens += n
	u.generated = true
	u.mu.Unlock()
}

// EmbeddingTokens returns embedding tokens and whether an embedding call happened
// (a cache hit reports zero tokens but still counts as used).
func (u *Usage) EmbeddingTokens() (int, bool) {
	if u == nil {
		return 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embeddingTokens, u.embedded
}

// GenerationTokens returns generation tokens and whether generation happened.
func (u *Usage) GenerationTokens() (int, bool) {
	if u == nil {
		return 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.generationTokens, u.generated
}
