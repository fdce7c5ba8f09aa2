package prdrag

import (
	"fmt"

	"github.com/kailas-cloud/prdrag/internal/corpus"
	"github.com/kailas-cloud/prdrag/internal/domain/document"
	"github.com/kailas-cloud/prdrag/internal/domain/search/result"
)

// Passage is one reference document. ID is its position in the corpus;
// it is assigned by the client and ignored on input.
type Passage struct {
	ID   int
	Tag  string // informational category such as "PM", "UX" or "Dev"
	Text string
}

// Match is a retrieved passage with its L2 distance to the query.
type Match struct {
	Passage
	Distance float64
}

// Result is the outcome of a full pipeline run.
type Result struct {
	RunID            string
	Text             string // generator output, unmodified
	Model            string
	Context          []Match // closest first
	EmbeddingTokens  int
	GenerationTokens int
}

// Draft is the assembled prompt of a dry run.
type Draft struct {
	RunID   string
	Prompt  string
	Context []Match
}

// DefaultCorpus returns the built-in reference passages.
func DefaultCorpus() ([]Passage, error) {
	c, err := corpus.Default()
	if err != nil {
		return nil, fmt.Errorf("prdrag: default corpus: %w", err)
	}
	return fromCorpus(c), nil
}

// LoadCorpus reads passages from a YAML, text, PDF or Parquet file.
// An empty format is detected from the file extension.
func LoadCorpus(path, format string) ([]Passage, error) {
	f, err := corpus.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("prdrag: %w", err)
	}
	c, err := corpus.Load(path, f)
	if err != nil {
		return nil, fmt.Errorf("prdrag: load corpus: %w", err)
	}
	return fromCorpus(c), nil
}

func toEntries(ps []Passage) []document.Entry {
	out := make([]document.Entry, len(ps))
	for i, p := range ps {
		tag := p.Tag
		if tag == "" {
			tag = corpus.TagOf(p.Text)
		}
		out[i] = document.Entry{Text: p.Text, Tag: tag}
	}
	return out
}

func fromCorpus(c document.Corpus) []Passage {
	docs := c.Documents()
	out := make([]Passage, len(docs))
	for i, d := range docs {
		out[i] = Passage{ID: d.ID(), Tag: d.Tag(), Text: d.Text()}
	}
	return out
}

func fromResults(rs []result.Result) []Match {
	out := make([]Match, len(rs))
	for i, r := range rs {
		d := r.Document()
		out[i] = Match{
			Passage:  Passage{ID: d.ID(), Tag: d.Tag(), Text: d.Text()},
			Distance: r.Distance(),
		}
	}
	return out
}
