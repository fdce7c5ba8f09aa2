package pipeline

import (
	"context"

	"github.com/kailas-cloud/prdrag/internal/domain/prompt"
	"github.com/kailas-cloud/prdrag/internal/domain/search/result"
)

// Retriever is the consumer interface for nearest-passage lookup (ISP).
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]result.Result, error)
}

// Assembler is the consumer interface for prompt rendering (ISP).
type Assembler interface {
	Assemble(req prompt.Request) (string, error)
	Policy() prompt.EmptyContextPolicy
}
