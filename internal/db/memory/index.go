// Package memory holds the in-process exact nearest-neighbour index.
package memory

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/prdrag/internal/domain"
)

// DimensionMismatchError reports a vector whose length differs from the first vector's.
type DimensionMismatchError struct {
	Position int
	Want     int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector %d has dimension %d, want %d", e.Position, e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error { return domain.ErrDimensionMismatch }

// Hit is a search match: the row of a stored vector and its squared L2 distance.
type Hit struct {
	Index    int
	Distance float64
}

// Index is an immutable flat L2 index. Rows keep insertion order.
// Safe for concurrent Search once built.
type Index struct {
	dim  int
	data []float32 // row-major, len = n*dim
	n    int
}

// Build copies vectors into a new index. NaN and infinite components are rejected.
func Build(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("build index: no vectors: %w", domain.ErrInvalidArgument)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("build index: zero dimension: %w", domain.ErrInvalidArgument)
	}
	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, &DimensionMismatchError{Position: i, Want: dim, Got: len(v)}
		}
		if j, ok := nonFinite(v); ok {
			return nil, fmt.Errorf("build index: vector %d component %d is %v: %w",
				i, j, v[j], domain.ErrInvalidArgument)
		}
		data = append(data, v...)
	}
	return &Index{dim: dim, data: data, n: len(vectors)}, nil
}

// Len returns the number of stored vectors.
func (x *Index) Len() int { return x.n }

// Dim returns the vector dimension.
func (x *Index) Dim() int { return x.dim }

// Search returns the topK nearest rows by squared L2 distance, closest first.
// Equal distances keep the lower row first. topK above Len returns every row.
func (x *Index) Search(query []float32, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d: %w", topK, domain.ErrInvalidArgument)
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d: %w",
			len(query), x.dim, domain.ErrInvalidArgument)
	}
	if j, ok := nonFinite(query); ok {
		return nil, fmt.Errorf("query component %d is %v: %w", j, query[j], domain.ErrInvalidArgument)
	}

	hits := make([]Hit, x.n)
	for i := range x.n {
		row := x.data[i*x.dim : (i+1)*x.dim]
		hits[i] = Hit{Index: i, Distance: squaredL2(query, row)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})

	if topK > x.n {
		topK = x.n
	}
	return hits[:topK:topK], nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// nonFinite returns the position of the first NaN or infinite component.
func nonFinite(v []float32) (int, bool) {
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return i, true
		}
	}
	return 0, false
}
