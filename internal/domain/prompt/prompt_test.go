package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/prdrag/internal/domain"
)

func newTestAssembler(t *testing.T, policy EmptyContextPolicy) *Assembler {
	t.Helper()
	a, err := NewAssembler(policy, "")
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	return a
}

func TestAssemble_ContainsQueryContextAndAllSections(t *testing.T) {
	a := newTestAssembler(t, PolicyFail)

	out, err := a.Assemble(Request{
		Query:     "test query",
		Retrieved: []string{"closest passage", "second passage"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Client Query:\ntest query\n") {
		t.Error("query block missing")
	}
	if !strings.Contains(out, "Relevant Context Documents:\nclosest passage\nsecond passage\n") {
		t.Error("context block missing or out of order")
	}
	for _, s := range a.Sections() {
		if !strings.Contains(out, Header(s)) {
			t.Errorf("missing section header %q", Header(s))
		}
		if !strings.Contains(out, "   - "+s.Task+"\n") {
			t.Errorf("missing task entry %q", s.Task)
		}
	}
}

func TestAssemble_SectionOrder(t *testing.T) {
	a := newTestAssembler(t, PolicyFail)
	out, err := a.Assemble(Request{Query: "q", Retrieved: []string{"c"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := -1
	for _, s := range a.Sections() {
		pos := strings.Index(out, Header(s))
		if pos <= last {
			t.Fatalf("section %d out of order", s.Number)
		}
		last = pos
	}
}

func TestAssemble_Layout(t *testing.T) {
	a := newTestAssembler(t, PolicyFail)
	out, err := a.Assemble(Request{Query: "q", Retrieved: []string{"c"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantParts := []string{
		"\nYou are an AI assistant that helps software houses",
		"   - Alignment Notes (ensuring all stakeholders are on the same page)\n\nClient Query:",
		"Final Output (PRD format):\n---\n# Project Requirement Document\n\n**1. Executive Summary**  \n",
		"**3. Scope of Work**  \n- Features and deliverables to be included.  \n- Explicitly mention what is out of scope.\n\n**4.",
		"- High-level cost estimate (in IDR).  \n",
		"- Key points to ensure PM, UX, and Dev perspectives stay coordinated.\n---\n\n",
	}
	for _, p := range wantParts {
		if !strings.Contains(out, p) {
			t.Errorf("output missing %q", p)
		}
	}
	if !strings.HasSuffix(out, "---\n\n") {
		t.Error("output should end with the closing rule")
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	a := newTestAssembler(t, PolicyFail)
	req := Request{Query: "landing page", Retrieved: []string{"a", "b", "c"}}

	first, err := a.Assemble(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range 5 {
		again, _ := a.Assemble(req)
		if again != first {
			t.Fatal("Assemble is not deterministic")
		}
	}
	other := newTestAssembler(t, PolicyFail)
	if out, _ := other.Assemble(req); out != first {
		t.Fatal("separate assemblers render differently")
	}
}

func TestAssemble_QueryNotEscaped(t *testing.T) {
	a := newTestAssembler(t, PolicyFail)
	q := `<b>"Beli Sekarang"</b> & {{.Query}}`
	out, err := a.Assemble(Request{Query: q, Retrieved: []string{"c"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, q) {
		t.Error("query should be rendered verbatim")
	}
}

func TestAssemble_EmptyContextFail(t *testing.T) {
	a := newTestAssembler(t, PolicyFail)
	_, err := a.Assemble(Request{Query: "q"})
	if !errors.Is(err, domain.ErrEmptyContext) {
		t.Fatalf("expected ErrEmptyContext, got %v", err)
	}
}

func TestAssemble_EmptyContextDegrade(t *testing.T) {
	a := newTestAssembler(t, PolicyDegrade)
	out, err := a.Assemble(Request{Query: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Relevant Context Documents:\n"+NoContextPlaceholder+"\n") {
		t.Error("placeholder missing")
	}
	if !strings.Contains(out, "**10. Alignment Notes**") {
		t.Error("sections must still be rendered")
	}
}

func TestAssemble_EmptyQuery(t *testing.T) {
	a := newTestAssembler(t, PolicyDegrade)
	_, err := a.Assemble(Request{Query: "  ", Retrieved: []string{"c"}})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAssemble_Currency(t *testing.T) {
	a, err := NewAssembler(PolicyFail, "USD")
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	out, _ := a.Assemble(Request{Query: "q", Retrieved: []string{"c"}})
	if !strings.Contains(out, "(in USD)") {
		t.Error("currency not applied")
	}
}

func TestSections_FixedTen(t *testing.T) {
	a := newTestAssembler(t, PolicyFail)
	got := a.Sections()
	if len(got) != 10 {
		t.Fatalf("len(Sections()) = %d, want 10", len(got))
	}
	for i, s := range got {
		if s.Number != i+1 {
			t.Errorf("section %d has number %d", i, s.Number)
		}
	}
	got[0].Title = "mutated"
	got[0].Guidance[0] = "mutated"
	fresh := a.Sections()
	if fresh[0].Title != "Executive Summary" || fresh[0].Guidance[0] == "mutated" {
		t.Error("Sections() leaked internal state")
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want EmptyContextPolicy
		err  bool
	}{
		{"", PolicyFail, false},
		{"fail", PolicyFail, false},
		{" Degrade ", PolicyDegrade, false},
		{"ignore", "", true},
	}
	for _, tc := range tests {
		got, err := ParsePolicy(tc.in)
		if tc.err {
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("ParsePolicy(%q): expected ErrInvalidArgument, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParsePolicy(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestNewAssembler_UnknownPolicy(t *testing.T) {
	if _, err := NewAssembler("skip", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
