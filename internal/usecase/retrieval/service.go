package retrieval

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/prdrag/internal/db/memory"
	"github.com/kailas-cloud/prdrag/internal/domain"
	"github.com/kailas-cloud/prdrag/internal/domain/document"
	"github.com/kailas-cloud/prdrag/internal/domain/search/result"
	"github.com/kailas-cloud/prdrag/internal/metrics"
)

// Service maps free-text queries to ranked corpus documents.
// Index row i is corpus document i; both are fixed after Build.
type Service struct {
	corpus   document.Corpus
	index    vectorIndex
	embedder domain.Embedder
}

// Build embeds the corpus in order and builds the index over it.
func Build(ctx context.Context, corpus document.Corpus, embedder domain.Embedder) (*Service, error) {
	if corpus.Len() == 0 {
		return nil, fmt.Errorf("build retriever: empty corpus: %w", domain.ErrInvalidArgument)
	}

	res, err := domain.EmbedAll(ctx, embedder, corpus.Texts())
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(res.Embeddings) != corpus.Len() {
		return nil, fmt.Errorf("embedded %d of %d documents: %w",
			len(res.Embeddings), corpus.Len(), domain.ErrEmbeddingProviderError)
	}

	idx, err := memory.Build(res.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return &Service{corpus: corpus, index: idx, embedder: embedder}, nil
}

// New creates a Service over a prebuilt index. The index must have one row per corpus document.
func New(corpus document.Corpus, index vectorIndex, embedder domain.Embedder) (*Service, error) {
	if index.Len() != corpus.Len() {
		return nil, fmt.Errorf("index has %d rows for %d documents: %w",
			index.Len(), corpus.Len(), domain.ErrInvalidArgument)
	}
	return &Service{corpus: corpus, index: index, embedder: embedder}, nil
}

// WithQueryEmbedder returns a copy that embeds queries with e instead of the
// corpus embedder. The receiver is unchanged. e must produce vectors in the
// same space, e.g. the same model with a query instruction.
func (s *Service) WithQueryEmbedder(e domain.Embedder) *Service {
	c := *s
	c.embedder = e
	return &c
}

// Retrieve embeds the query once and returns up to topK documents, closest first.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]result.Result, error) {
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Search(emb.Embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		doc, ok := s.corpus.At(h.Index)
		if !ok {
			return nil, fmt.Errorf("index row %d outside corpus of %d: %w",
				h.Index, s.corpus.Len(), domain.ErrInvalidArgument)
		}
		out = append(out, result.New(doc, h.Distance))
	}
	if len(out) > 0 {
		metrics.RetrievalDistance.Observe(out[0].Distance())
	}
	return out, nil
}

// Corpus returns the indexed corpus.
func (s *Service) Corpus() document.Corpus { return s.corpus }

// Dimensions returns the index vector dimension.
func (s *Service) Dimensions() int { return s.index.Dim() }

// HealthCheck reports whether the index is populated.
func (s *Service) HealthCheck(_ context.Context) error {
	if s.index.Len() == 0 {
		return fmt.Errorf("index is empty")
	}
	return nil
}
