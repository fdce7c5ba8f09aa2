package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kailas-cloud/prdrag/internal/domain/document"
)

// One passage per non-empty line. Lines starting with '#' are comments.
func loadText(path string) ([]document.Entry, error) {
	f, err := os.Open(path) //nolint:gosec // path from config
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	return parseText(f)
}

func parseText(r io.Reader) ([]document.Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), document.MaxTextSize+1)

	var out []document.Entry
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, document.Entry{Text: line, Tag: TagOf(line)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return out, nil
}
