package rules

import "github.com/wharflab/trivet/internal/syntax"

// DiagnosticKind distinguishes rule findings from engine-internal reports.
type DiagnosticKind int

const (
	// DiagnosticRule marks a finding produced by a rule callback.
	DiagnosticRule DiagnosticKind = iota

	// DiagnosticInternal marks a finding synthesized by the engine itself,
	// such as a rule callback failure. Internal diagnostics name the engine
	// condition, never a style violation.
	DiagnosticInternal
)

// String returns the string representation of the kind.
func (k DiagnosticKind) String() string {
	switch k {
	case DiagnosticRule:
		return "rule"
	case DiagnosticInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Diagnostic is a single finding produced during analysis of one file.
//
// Diagnostics are positional and deferred: they carry the byte span of the
// offending source plus the ordered message arguments. Mapping spans to
// line/column and rendering the descriptor template happens later, outside
// the analysis engine.
type Diagnostic struct {
	// Kind distinguishes rule findings from engine-internal reports.
	Kind DiagnosticKind

	// Code is the code of the rule (or engine condition) that produced
	// the finding.
	Code string

	// Span is the byte range of the offending source.
	Span syntax.Span

	// Args are the ordered message arguments for the descriptor template.
	Args []string
}
