package document

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/prdrag/internal/domain"
)

// MaxTextSize is the maximum passage size in bytes.
const MaxTextSize = 163840 // 160KB

// Document is an immutable reference passage.
// Its id is its position in the Corpus and doubles as its row in the vector index.
type Document struct {
	id   int
	text string
	tag  string
}

// Reconstruct creates a Document without validation (loader hydration, tests).
func Reconstruct(id int, text, tag string) Document {
	return Document{id: id, text: text, tag: tag}
}

// ID returns the corpus position.
func (d *Document) ID() int { return d.id }

// Text returns the passage text.
func (d *Document) Text() string { return d.text }

// Tag returns the informational category label (may be empty).
func (d *Document) Tag() string { return d.tag }

// Entry is a raw corpus passage as produced by a loader.
type Entry struct {
	Text string
	Tag  string
}

// Corpus is the ordered, immutable set of reference passages.
type Corpus struct {
	docs []Document
}

// NewCorpus validates entries and assigns ids 0..N-1 in order.
// Text is trimmed; empty or oversized passages are rejected.
func NewCorpus(entries []Entry) (Corpus, error) {
	if len(entries) == 0 {
		return Corpus{}, fmt.Errorf("corpus is empty: %w", domain.ErrInvalidArgument)
	}
	docs := make([]Document, len(entries))
	for i, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			return Corpus{}, fmt.Errorf("document %d: text is required: %w", i, domain.ErrInvalidArgument)
		}
		if len(text) > MaxTextSize {
			return Corpus{}, fmt.Errorf("document %d: text too large (max %d bytes): %w", i, MaxTextSize, domain.ErrInvalidArgument)
		}
		docs[i] = Document{id: i, text: text, tag: strings.TrimSpace(e.Tag)}
	}
	return Corpus{docs: docs}, nil
}

// Len returns the number of documents.
func (c Corpus) Len() int { return len(c.docs) }

// At returns the document at position id.
func (c Corpus) At(id int) (Document, bool) {
	if id < 0 || id >= len(c.docs) {
		return Document{}, false
	}
	return c.docs[id], true
}

// Texts returns passage texts in corpus order.
func (c Corpus) Texts() []string {
	out := make([]string, len(c.docs))
	for i := range c.docs {
		out[i] = c.docs[i].text
	}
	return out
}

// Documents returns a copy of the documents in corpus order.
func (c Corpus) Documents() []Document {
	out := make([]Document, len(c.docs))
	copy(out, c.docs)
	return out
}
