package corpus

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/prdrag/internal/domain/document"
)

// Row is the parquet corpus schema.
type Row struct {
	Tag  string `parquet:"tag,optional"`
	Text string `parquet:"text"`
}

func loadParquet(path string) ([]document.Entry, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}

	out := make([]document.Entry, 0, len(rows))
	for _, r := range rows {
		tag := r.Tag
		if tag == "" {
			tag = TagOf(r.Text)
		}
		out = append(out, document.Entry{Text: r.Text, Tag: tag})
	}
	return out, nil
}

// WriteParquet writes a corpus in the parquet layout read by Load.
func WriteParquet(path string, c document.Corpus) error {
	docs := c.Documents()
	rows := make([]Row, len(docs))
	for i, d := range docs {
		rows[i] = Row{Tag: d.Tag(), Text: d.Text()}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	return nil
}
