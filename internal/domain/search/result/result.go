package result

import "github.com/kailas-cloud/prdrag/internal/domain/document"

// Result is a single retrieval hit: a corpus document and its squared L2 distance to the query.
type Result struct {
	doc      document.Document
	distance float64
}

// New creates a retrieval result.
func New(doc document.Document, distance float64) Result {
	return Result{doc: doc, distance: distance}
}

// Document returns the matched corpus document.
func (r *Result) Document() document.Document { return r.doc }

// Distance returns the squared L2 distance (smaller is closer).
func (r *Result) Distance() float64 { return r.distance }

// Texts returns document texts in ranked order.
func Texts(rs []Result) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].doc.Text()
	}
	return out
}
