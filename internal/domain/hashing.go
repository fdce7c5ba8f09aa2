package domain

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashingEmbedder is a deterministic offline embedder.
// Lower-cased word tokens are hashed into a fixed number of buckets with a signed
// count, and the vector is L2-normalised. Texts sharing vocabulary land close together.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates a hashing embedder producing vectors of length dim.
func NewHashingEmbedder(dim int) (*HashingEmbedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hashing embedder dimension must be positive, got %d: %w", dim, ErrInvalidArgument)
	}
	return &HashingEmbedder{dim: dim}, nil
}

// Dimensions returns the vector length.
func (e *HashingEmbedder) Dimensions() int { return e.dim }

// Embed implements Embedder.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return EmbeddingResult{}, err
	}
	vec, tokens := e.vectorize(text)
	return EmbeddingResult{Embedding: vec, PromptTokens: tokens, TotalTokens: tokens}, nil
}

// BatchEmbed implements BatchEmbedder.
func (e *HashingEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return BatchEmbeddingResult{}, err
		}
		vec, tokens := e.vectorize(t)
		out.Embeddings[i] = vec
		out.PromptTokens += tokens
		out.TotalTokens += tokens
	}
	return out, nil
}

func (e *HashingEmbedder) vectorize(text string) ([]float32, int) {
	acc := make([]float64, e.dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dim))
		if sum&(1<<63) != 0 {
			acc[bucket]--
		} else {
			acc[bucket]++
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	vec := make([]float32, e.dim)
	if norm == 0 {
		return vec, len(words)
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec, len(words)
}
