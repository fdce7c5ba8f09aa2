package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/prdrag/internal/domain"
	"github.com/kailas-cloud/prdrag/internal/domain/document"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

// buildPDF writes a minimal PDF with one Helvetica text line per page.
func buildPDF(t *testing.T, pages ...string) string {
	t.Helper()
	n := len(pages)
	// objects: 1 catalog, 2 pages, 3 font, then a page and a content stream per page
	objs := make([]string, 3+2*n)
	kids := make([]string, n)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n)
	objs[2] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objs[3+2*i] = fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			5+2*i)
		objs[4+2*i] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)
	}

	var sb strings.Builder
	sb.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = sb.Len()
		fmt.Fprintf(&sb, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := sb.Len()
	fmt.Fprintf(&sb, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&sb, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&sb, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	return writeFile(t, "corpus.pdf", sb.String())
}

func TestDefault_OriginalPassages(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.Len() != 19 {
		t.Fatalf("expected 19 passages, got %d", c.Len())
	}

	counts := map[string]int{}
	for _, d := range c.Documents() {
		counts[d.Tag()]++
		if !strings.HasPrefix(d.Text(), d.Tag()+": ") {
			t.Errorf("document %d: text should start with its tag: %q", d.ID(), d.Text())
		}
	}
	want := map[string]int{"PM": 5, "UX": 5, "Dev": 6, "ALIGN": 3}
	for tag, n := range want {
		if counts[tag] != n {
			t.Errorf("tag %s: got %d passages, want %d", tag, counts[tag], n)
		}
	}

	first, _ := c.At(0)
	if !strings.Contains(first.Text(), "NusantaraPay") {
		t.Errorf("unexpected first passage %q", first.Text())
	}
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	c, err := Load("", FormatAuto)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 19 {
		t.Errorf("expected built-in corpus, got %d documents", c.Len())
	}
}

func TestLoad_YAML(t *testing.T) {
	p := writeFile(t, "corpus.yaml", `documents:
  - tag: PM
    text: "PM: budget split 20/50/30"
  - text: "UX: mobile-first layouts"
  - text: "no label here"
`)
	c, err := Load(p, FormatAuto)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 documents, got %d", c.Len())
	}
	tags := []string{"PM", "UX", ""}
	for i, want := range tags {
		d, _ := c.At(i)
		if d.Tag() != want {
			t.Errorf("document %d: tag %q, want %q", i, d.Tag(), want)
		}
	}
}

func TestLoad_YAMLUnknownField(t *testing.T) {
	p := writeFile(t, "corpus.yml", "documents:\n  - body: x\n")
	if _, err := Load(p, FormatAuto); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoad_YAMLEmpty(t *testing.T) {
	p := writeFile(t, "corpus.yaml", "")
	if _, err := Load(p, FormatYAML); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty corpus, got %v", err)
	}
}

func TestLoad_Text(t *testing.T) {
	p := writeFile(t, "corpus.txt", `# past projects
PM: Proyek EduLink (2022)

Dev: Stack utama mencakup React
   ALIGN: discovery workshop   
Note with colon: not a tag because of spaces
`)
	c, err := Load(p, FormatAuto)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("expected 4 documents, got %d", c.Len())
	}
	want := []struct{ tag, text string }{
		{"PM", "PM: Proyek EduLink (2022)"},
		{"Dev", "Dev: Stack utama mencakup React"},
		{"ALIGN", "ALIGN: discovery workshop"},
		{"", "Note with colon: not a tag because of spaces"},
	}
	for i, w := range want {
		d, _ := c.At(i)
		if d.Tag() != w.tag || d.Text() != w.text {
			t.Errorf("document %d = (%q, %q), want (%q, %q)", i, d.Tag(), d.Text(), w.tag, w.text)
		}
	}
}

func TestLoad_PDF(t *testing.T) {
	p := buildPDF(t, "PM: first page passage", "UX: second page passage")

	c, err := Load(p, FormatAuto)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected one document per page, got %d", c.Len())
	}
	d0, _ := c.At(0)
	d1, _ := c.At(1)
	if d0.Text() != "PM: first page passage" || d0.Tag() != "PM" {
		t.Errorf("page 1 = (%q, %q)", d0.Tag(), d0.Text())
	}
	if d1.Text() != "UX: second page passage" {
		t.Errorf("page 2 = %q", d1.Text())
	}
}

func TestLoad_PDFInvalid(t *testing.T) {
	p := writeFile(t, "broken.pdf", "not a pdf at all")
	if _, err := Load(p, FormatAuto); err == nil {
		t.Fatal("expected error for invalid pdf")
	}
}

func TestLoad_ParquetRoundTrip(t *testing.T) {
	src, err := document.NewCorpus([]document.Entry{
		{Text: "PM: Proyek NusantaraPay", Tag: "PM"},
		{Text: "Dev: Flutter shared codebase"},
	})
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), "corpus.parquet")
	if err := WriteParquet(p, src); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	c, err := Load(p, FormatAuto)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 documents, got %d", c.Len())
	}
	d1, _ := c.At(1)
	if d1.Text() != "Dev: Flutter shared codebase" || d1.Tag() != "Dev" {
		t.Errorf("document 1 = (%q, %q)", d1.Tag(), d1.Text())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), FormatAuto)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	p := writeFile(t, "corpus.csv", "a,b\n")
	if _, err := Load(p, Format("csv")); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", FormatAuto, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"txt", FormatText, false},
		{"pdf", FormatPDF, false},
		{"parquet", FormatParquet, false},
		{"docx", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err != nil) != tc.err || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestTagOf(t *testing.T) {
	tests := map[string]string{
		"PM: text":                     "PM",
		"ALIGN: text":                  "ALIGN",
		"no tag":                       "",
		": empty label":                "",
		"Rp650: numbers":               "",
		"AVeryLongLabelIndeed: text":   "",
		"https://example.com: not tag": "",
	}
	for in, want := range tests {
		if got := TagOf(in); got != want {
			t.Errorf("TagOf(%q) = %q, want %q", in, got, want)
		}
	}
}
