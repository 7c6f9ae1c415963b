package rules

import "github.com/wharflab/trivet/internal/syntax"

// FixSafety indicates how confident a rule is that its suggested fix
// preserves program behavior.
type FixSafety int

const (
	// FixSafe means the fix is always correct and won't change behavior.
	FixSafe FixSafety = iota

	// FixSuggestion means the fix is likely correct but may need review.
	FixSuggestion

	// FixUnsafe means the fix might change behavior significantly.
	FixUnsafe
)

// SuggestedFix represents a structured edit hint for auto-fix suggestions.
// Edits are byte-span replacements against the original source and must
// not overlap.
type SuggestedFix struct {
	// Description is a human-readable summary of the fix.
	Description string `json:"description"`

	// Safety indicates whether the fix can be applied without review.
	Safety FixSafety `json:"safety"`

	// Priority orders fixes when several rules edit the same file.
	// Lower priorities apply first. Rules usually pass their
	// descriptor's FixPriority through unchanged.
	Priority int `json:"priority,omitempty"`

	// IsPreferred marks the fix editors should offer as the default action.
	IsPreferred bool `json:"isPreferred,omitempty"`

	// Edits are the text edits to apply, ordered by span start.
	Edits []TextEdit `json:"edits"`
}

// TextEdit represents a single text replacement.
type TextEdit struct {
	// Span is the byte range in the original source to replace.
	Span syntax.Span `json:"span"`
	// NewText is the replacement text (empty for deletion).
	NewText string `json:"newText"`
}

// Violation represents a single rule violation found in a source file.
type Violation struct {
	// Location identifies where the violation occurred.
	Location Location `json:"location"`

	// RuleCode is the identifier of the rule that was violated.
	RuleCode string `json:"rule"`

	// Message is a human-readable description of the violation.
	Message string `json:"message"`

	// Detail provides additional context (optional).
	Detail string `json:"detail,omitempty"`

	// Severity indicates how serious this violation is.
	Severity Severity `json:"severity"`

	// DocURL links to documentation about this rule (optional).
	DocURL string `json:"docUrl,omitempty"`

	// SourceCode is the source snippet that triggered the violation (optional).
	SourceCode string `json:"sourceCode,omitempty"`

	// SuggestedFix provides a structured auto-fix hint (optional).
	SuggestedFix *SuggestedFix `json:"suggestedFix,omitempty"`
}

// Rule code namespaces. Built-in rules carry the "trivet/" prefix;
// diagnostics synthesized by the analysis engine itself use "engine/".
const (
	// TrivetRulePrefix is the namespace prefix for built-in rules.
	TrivetRulePrefix = "trivet/"

	// EngineRulePrefix is the namespace prefix for engine-internal diagnostics.
	EngineRulePrefix = "engine/"
)

// NewViolation creates a new violation with the required fields.
func NewViolation(location Location, ruleCode, message string, severity Severity) Violation {
	return Violation{
		Location: location,
		RuleCode: ruleCode,
		Message:  message,
		Severity: severity,
	}
}

// WithDetail returns a copy of the violation with the detail set.
func (v Violation) WithDetail(detail string) Violation {
	v.Detail = detail
	return v
}

// WithDocURL returns a copy of the violation with the doc URL set.
func (v Violation) WithDocURL(url string) Violation {
	v.DocURL = url
	return v
}

// WithSourceCode returns a copy of the violation with the source snippet set.
func (v Violation) WithSourceCode(code string) Violation {
	v.SourceCode = code
	return v
}

// WithSuggestedFix returns a copy of the violation with a suggested fix.
func (v Violation) WithSuggestedFix(fix *SuggestedFix) Violation {
	v.SuggestedFix = fix
	return v
}

// File returns the file path where the violation occurred.
func (v Violation) File() string {
	return v.Location.File
}

// Line returns the 1-based line number where the violation starts.
func (v Violation) Line() int {
	return v.Location.Start.Line
}
