package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/kailas-cloud/prdrag/internal/domain"
)

// DefaultCurrency is used in the budget forecast guidance.
const DefaultCurrency = "IDR"

// NoContextPlaceholder replaces the context block under the degrade policy.
const NoContextPlaceholder = "(no reference documents matched)"

// EmptyContextPolicy controls how Assemble treats an empty retrieval result.
type EmptyContextPolicy string

// Empty context policies.
const (
	PolicyFail    EmptyContextPolicy = "fail"
	PolicyDegrade EmptyContextPolicy = "degrade"
)

// ParsePolicy converts a config string into a policy. Empty means PolicyFail.
func ParsePolicy(s string) (EmptyContextPolicy, error) {
	switch EmptyContextPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFail:
		return PolicyFail, nil
	case PolicyDegrade:
		return PolicyDegrade, nil
	default:
		return "", fmt.Errorf("unknown empty context policy %q: %w", s, domain.ErrInvalidArgument)
	}
}

// Section is one required PRD output section.
type Section struct {
	Number   int
	Title    string   // header in the output template
	Task     string   // label in the task enumeration
	Guidance []string // bullet lines under the header
}

// Request is the structured input to Assemble.
type Request struct {
	Query     string
	Retrieved []string // closest first
}

type view struct {
	Query    string
	Context  string
	Sections []Section
}

// hard line break in markdown
const br = "  \n"

const layout = `
You are an AI assistant that helps software houses accelerate the initial product requirement stage of the software development lifecycle.

Your tasks:
1. Translate client requirements into a structured Project Requirement Document (PRD).
2. Ensure the PRD includes:
{{range .Sections}}   - {{.Task}}
{{end}}
Client Query:
{{.Query}}

Relevant Context Documents:
{{.Context}}

Final Output (PRD format):
---
# Project Requirement Document

{{range $i, $s := .Sections}}{{if $i}}
{{end}}**{{$s.Number}}. {{$s.Title}}**{{br}}{{range $j, $g := $s.Guidance}}{{if $j}}{{br}}{{end}}{{$g}}{{end}}
{{end}}---

`

// Assembler renders the fixed PRD prompt. Safe for concurrent use.
type Assembler struct {
	tmpl     *template.Template
	sections []Section
	policy   EmptyContextPolicy
}

// NewAssembler builds an assembler. Empty currency means DefaultCurrency.
func NewAssembler(policy EmptyContextPolicy, currency string) (*Assembler, error) {
	if policy != PolicyFail && policy != PolicyDegrade {
		return nil, fmt.Errorf("unknown empty context policy %q: %w", policy, domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	tmpl, err := template.New("prd").
		Funcs(template.FuncMap{"br": func() string { return br }}).
		Parse(layout)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Assembler{
		tmpl:     tmpl,
		sections: requiredSections(currency),
		policy:   policy,
	}, nil
}

// Policy returns the configured empty context policy.
func (a *Assembler) Policy() EmptyContextPolicy { return a.policy }

// Sections returns a copy of the required sections in output order.
func (a *Assembler) Sections() []Section {
	out := make([]Section, len(a.sections))
	for i, s := range a.sections {
		s.Guidance = append([]string(nil), s.Guidance...)
		out[i] = s
	}
	return out
}

// Assemble renders the prompt for a query and its retrieved passages.
// Output depends only on the request. An empty Retrieved yields
// domain.ErrEmptyContext under PolicyFail and the placeholder under PolicyDegrade.
func (a *Assembler) Assemble(req Request) (string, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", fmt.Errorf("query is required: %w", domain.ErrInvalidArgument)
	}
	ctxBlock := strings.Join(req.Retrieved, "\n")
	if len(req.Retrieved) == 0 {
		if a.policy != PolicyDegrade {
			return "", domain.ErrEmptyContext
		}
		ctxBlock = NoContextPlaceholder
	}

	var sb strings.Builder
	if err := a.tmpl.Execute(&sb, view{
		Query:    req.Query,
		Context:  ctxBlock,
		Sections: a.sections,
	}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), nil
}

// Header returns the rendered header line of a section, e.g. "**1. Executive Summary**".
func Header(s Section) string {
	return fmt.Sprintf("**%d. %s**", s.Number, s.Title)
}

func requiredSections(currency string) []Section {
	return []Section{
		{1, "Executive Summary", "Executive Summary", []string{
			"- Concise overview of client request and business context.",
		}},
		{2, "Project Objectives", "Project Objectives", []string{
			"- Key goals the project aims to achieve.",
		}},
		{3, "Scope of Work", "Scope of Work", []string{
			"- Features and deliverables to be included.",
			"- Explicitly mention what is out of scope.",
		}},
		{4, "Stakeholder Requirements", "Stakeholder Requirements (PM, UX, Dev)", []string{
			"- **Project Manager (PM):** Action items, solutioning, resource/budget considerations.",
			"- **UX / Design (UX):** Action items, design considerations, solutioning.",
			"- **Development (Dev):** Action items, technical considerations, solutioning.",
		}},
		{5, "Functional Requirements", "Functional Requirements", []string{
			"- List of clear, testable system functionalities.",
		}},
		{6, "Non-Functional Requirements", "Non-Functional Requirements", []string{
			"- Performance, scalability, security, usability, etc.",
		}},
		{7, "Proposed Solution Options", "Proposed Solution Options", []string{
			"- Alternative approaches with trade-offs.",
		}},
		{8, "Budget & Resource Forecast", "Budget and Resource Forecast", []string{
			"- High-level cost estimate (in " + currency + ").",
			"- Roles required and approximate effort.",
		}},
		{9, "Risks & Open Questions", "Risks & Open Questions", []string{
			"- Known uncertainties or missing information.",
		}},
		{10, "Alignment Notes", "Alignment Notes (ensuring all stakeholders are on the same page)", []string{
			"- Key points to ensure PM, UX, and Dev perspectives stay coordinated.",
		}},
	}
}
