package retrieval

import "github.com/kailas-cloud/prdrag/internal/db/memory"

// vectorIndex is the consumer interface for nearest-neighbour search (ISP).
type vectorIndex interface {
	Search(query []float32, topK int) ([]memory.Hit, error)
	Len() int
	Dim() int
}
