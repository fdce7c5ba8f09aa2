package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument signals a malformed request (bad top_k, empty query, wrong query dimension).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDimensionMismatch signals vectors of inconsistent length at index construction.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmptyContext signals that retrieval produced no documents to ground the prompt on.
	ErrEmptyContext = errors.New("empty retrieval context")

	// ErrRateLimited signals a rate limit hit at a model provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnauthorized signals rejected provider credentials.
	ErrUnauthorized = errors.New("provider rejected credentials")
	// ErrTokenQuotaExceeded signals an exhausted token budget.
	ErrTokenQuotaExceeded = errors.New("token quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
)
