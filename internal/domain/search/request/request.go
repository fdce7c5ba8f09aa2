package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/prdrag/internal/domain"
)

// Query parameter limits.
const (
	// MaxQueryLength is the maximum allowed client brief length in bytes.
	MaxQueryLength = 16384
	MaxTopK        = 100
)

// Request is a validated retrieval query.
type Request struct {
	query string
	topK  int
}

// New validates retrieval parameters. topK <= 0 falls back to defaultTopK.
// The query is kept verbatim (it is embedded and rendered as-is).
func New(query string, topK, defaultTopK int) (Request, error) {
	if strings.TrimSpace(query) == "" {
		return Request{}, fmt.Errorf("query is required: %w", domain.ErrInvalidArgument)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d bytes): %w", MaxQueryLength, domain.ErrInvalidArgument)
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	if topK <= 0 || topK > MaxTopK {
		return Request{}, fmt.Errorf("top_k must be between 1 and %d, got %d: %w", MaxTopK, topK, domain.ErrInvalidArgument)
	}
	return Request{query: query, topK: topK}, nil
}

// Query returns the raw client query.
func (r *Request) Query() string { return r.query }

// TopK returns the number of passages to retrieve.
func (r *Request) TopK() int { return r.topK }
