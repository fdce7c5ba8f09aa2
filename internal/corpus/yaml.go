package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/prdrag/internal/domain/document"
)

type yamlFile struct {
	Documents []yamlDocument `yaml:"documents"`
}

type yamlDocument struct {
	Tag  string `yaml:"tag"`
	Text string `yaml:"text"`
}

func loadYAML(path string) ([]document.Entry, error) {
	f, err := os.Open(path) //nolint:gosec // path from config
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	return parseYAML(f)
}

func parseYAML(r io.Reader) ([]document.Entry, error) {
	var doc yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	out := make([]document.Entry, 0, len(doc.Documents))
	for _, d := range doc.Documents {
		tag := d.Tag
		if tag == "" {
			tag = TagOf(d.Text)
		}
		out = append(out, document.Entry{Text: d.Text, Tag: tag})
	}
	return out, nil
}
