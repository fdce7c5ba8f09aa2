// Package corpus loads reference passages from disk into a document.Corpus.
package corpus

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/kailas-cloud/prdrag/internal/domain"
	"github.com/kailas-cloud/prdrag/internal/domain/document"
)

// Format is a corpus file format.
type Format string

// Supported formats. FormatAuto picks one from the file extension.
const (
	FormatAuto    Format = ""
	FormatYAML    Format = "yaml"
	FormatText    Format = "text"
	FormatPDF     Format = "pdf"
	FormatParquet Format = "parquet"
)

// maxTagLength bounds the "TAG: " prefix recognised on a passage.
const maxTagLength = 16

//go:embed default.yaml
var defaultCorpus []byte

// Default returns the built-in reference corpus.
func Default() (document.Corpus, error) {
	entries, err := parseYAML(bytes.NewReader(defaultCorpus))
	if err != nil {
		return document.Corpus{}, fmt.Errorf("default corpus: %w", err)
	}
	return document.NewCorpus(entries)
}

// ParseFormat validates a configured format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatAuto, FormatYAML, FormatText, FormatPDF, FormatParquet:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown corpus format %q: %w", s, domain.ErrInvalidArgument)
	}
}

// Load reads the corpus at path. An empty path returns the built-in corpus.
func Load(path string, format Format) (document.Corpus, error) {
	if path == "" {
		return Default()
	}
	if format == FormatAuto {
		format = detect(path)
	}

	var (
		entries []document.Entry
		err     error
	)
	switch format {
	case FormatYAML:
		entries, err = loadYAML(path)
	case FormatText:
		entries, err = loadText(path)
	case FormatPDF:
		entries, err = loadPDF(path)
	case FormatParquet:
		entries, err = loadParquet(path)
	default:
		return document.Corpus{}, fmt.Errorf("corpus %s: unsupported format %q: %w", path, format, domain.ErrInvalidArgument)
	}
	if err != nil {
		return document.Corpus{}, fmt.Errorf("load corpus %s: %w", path, err)
	}

	c, err := document.NewCorpus(entries)
	if err != nil {
		return document.Corpus{}, fmt.Errorf("corpus %s: %w", path, err)
	}
	return c, nil
}

func detect(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".pdf":
		return FormatPDF
	case ".parquet":
		return FormatParquet
	default:
		return FormatText
	}
}

// TagOf returns the leading "TAG: " label of a passage, e.g. "PM" for "PM: Proyek ...".
// Passages without a short alphabetic label have no tag.
func TagOf(text string) string {
	i := strings.Index(text, ": ")
	if i <= 0 || i > maxTagLength {
		return ""
	}
	for _, r := range text[:i] {
		if !unicode.IsLetter(r) {
			return ""
		}
	}
	return text[:i]
}
