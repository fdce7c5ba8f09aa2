package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/prdrag/internal/domain/search/result"
)

type passageOutput struct {
	ID       int      `json:"id" yaml:"id"`
	Tag      string   `json:"tag,omitempty" yaml:"tag,omitempty"`
	Text     string   `json:"text" yaml:"text"`
	Distance *float64 `json:"distance,omitempty" yaml:"distance,omitempty"`
}

type usageOutput struct {
	EmbeddingTokens  int `json:"embedding_tokens" yaml:"embedding_tokens"`
	GenerationTokens int `json:"generation_tokens" yaml:"generation_tokens"`
}

type generateOutput struct {
	RunID    string          `json:"run_id" yaml:"run_id"`
	Model    string          `json:"model" yaml:"model"`
	Document string          `json:"document" yaml:"document"`
	Context  []passageOutput `json:"context" yaml:"context"`
	Usage    usageOutput     `json:"usage" yaml:"usage"`
}

type promptOutput struct {
	RunID   string          `json:"run_id" yaml:"run_id"`
	Prompt  string          `json:"prompt" yaml:"prompt"`
	Context []passageOutput `json:"context" yaml:"context"`
}

func passages(rs []result.Result) []passageOutput {
	out := make([]passageOutput, len(rs))
	for i, r := range rs {
		d := r.Document()
		dist := r.Distance()
		out[i] = passageOutput{ID: d.ID(), Tag: d.Tag(), Text: d.Text(), Distance: &dist}
	}
	return out
}

// render writes v as JSON or YAML, or calls text for the text format.
func render(w io.Writer, v any, text func(io.Writer) error) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "text", "":
		return text(w)
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", outputFormat)
	}
}

func printPassages(w io.Writer, ps []passageOutput) error {
	for i, p := range ps {
		dist := ""
		if p.Distance != nil {
			dist = fmt.Sprintf(" d=%.4f", *p.Distance)
		}
		if _, err := fmt.Fprintf(w, "[%d] #%d %s%s\n    %s\n", i+1, p.ID, p.Tag, dist, p.Text); err != nil {
			return err //nolint:wrapcheck // write to stdout
		}
	}
	return nil
}
