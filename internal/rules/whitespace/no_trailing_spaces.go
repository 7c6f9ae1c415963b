// Package whitespace implements rules for line-level whitespace hygiene.
package whitespace

import (
	"strings"

	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/rules/configutil"
	"github.com/wharflab/trivet/internal/syntax"
)

// NoTrailingSpacesRuleCode is the full rule code for the no-trailing-spaces rule.
const NoTrailingSpacesRuleCode = rules.TrivetRulePrefix + "no-trailing-spaces"

// NoTrailingSpacesConfig is the configuration for the no-trailing-spaces rule.
type NoTrailingSpacesConfig struct {
	// SkipBlankLines skips lines that consist entirely of whitespace.
	SkipBlankLines *bool `json:"skip-blank-lines,omitempty" koanf:"skip-blank-lines"`

	// IgnoreComments skips trailing whitespace inside comment text.
	IgnoreComments *bool `json:"ignore-comments,omitempty" koanf:"ignore-comments"`
}

// DefaultNoTrailingSpacesConfig returns the default configuration.
func DefaultNoTrailingSpacesConfig() NoTrailingSpacesConfig {
	skipBlankLines := false
	ignoreComments := false
	return NoTrailingSpacesConfig{
		SkipBlankLines: &skipBlankLines,
		IgnoreComments: &ignoreComments,
	}
}

// NoTrailingSpacesRule flags whitespace at the end of lines.
//
// Whitespace between tokens is trivia, so line ends need no rescanning: a
// whitespace item that runs into an end-of-line item (or the end of the
// file) is trailing. Trailing whitespace inside a comment is part of the
// comment's own text and is scanned line by line within it.
type NoTrailingSpacesRule struct{}

// NewNoTrailingSpacesRule creates a new no-trailing-spaces rule instance.
func NewNoTrailingSpacesRule() *NoTrailingSpacesRule {
	return &NoTrailingSpacesRule{}
}

// Descriptor returns static information about the rule.
func (r *NoTrailingSpacesRule) Descriptor() rules.Descriptor {
	return rules.Descriptor{
		Code:             NoTrailingSpacesRuleCode,
		Name:             "No Trailing Spaces",
		Description:      "Disallows trailing whitespace at the end of lines",
		Template:         "trailing whitespace",
		DocURL:           rules.TrivetDocURL(NoTrailingSpacesRuleCode),
		DefaultSeverity:  rules.SeverityStyle,
		Category:         "style",
		EnabledByDefault: true,
		FixPriority:      10,
	}
}

// Schema returns the JSON Schema for this rule's configuration.
func (r *NoTrailingSpacesRule) Schema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"skip-blank-lines": map[string]any{
				"type":        "boolean",
				"default":     false,
				"description": "Skip lines that consist entirely of whitespace",
			},
			"ignore-comments": map[string]any{
				"type":        "boolean",
				"default":     false,
				"description": "Skip trailing whitespace inside comment text",
			},
		},
		"additionalProperties": false,
	}
}

// DefaultConfig returns the default configuration for this rule.
func (r *NoTrailingSpacesRule) DefaultConfig() any {
	return DefaultNoTrailingSpacesConfig()
}

// ValidateConfig validates the configuration against the rule's JSON Schema.
func (r *NoTrailingSpacesRule) ValidateConfig(config any) error {
	return configutil.ValidateWithSchema(config, r.Schema())
}

// Subscribe declares which syntax elements the rule wants to see.
func (r *NoTrailingSpacesRule) Subscribe(s *rules.Subscriptions) {
	s.OnTrivia(r.checkWhitespace, syntax.TriviaWhitespace)
	s.OnTrivia(r.checkComment,
		syntax.TriviaLineComment,
		syntax.TriviaBlockComment,
		syntax.TriviaDocComment,
	)
}

func (r *NoTrailingSpacesRule) checkWhitespace(c *rules.TriviaContext) {
	ws := c.Trivia
	if !endsLine(c.Tree, ws) {
		return
	}
	cfg := r.resolveConfig(c.Config)
	if cfg.SkipBlankLines != nil && *cfg.SkipBlankLines && startsLine(ws) {
		return
	}
	c.Report(r.Descriptor(), ws.Span())
}

// checkComment scans each line of the comment's text for a trailing run of
// spaces or tabs. Line comments have a single line; block and doc comments
// may span several.
func (r *NoTrailingSpacesRule) checkComment(c *rules.TriviaContext) {
	text := c.Trivia.Text()
	if !strings.ContainsAny(text, " \t") {
		return
	}
	cfg := r.resolveConfig(c.Config)
	if cfg.IgnoreComments != nil && *cfg.IgnoreComments {
		return
	}

	desc := r.Descriptor()
	base := c.Trivia.Span().Start
	pos := 0
	for {
		lineEnd := len(text)
		if nl := strings.IndexByte(text[pos:], '\n'); nl >= 0 {
			lineEnd = pos + nl
		}
		contentEnd := lineEnd
		if contentEnd > pos && text[contentEnd-1] == '\r' {
			contentEnd--
		}
		trimmed := strings.TrimRight(text[pos:contentEnd], " \t")
		if run := pos + len(trimmed); run < contentEnd {
			c.Report(desc, syntax.Span{Start: base + uint32(run), End: base + uint32(contentEnd)})
		}
		if lineEnd == len(text) {
			return
		}
		pos = lineEnd + 1
	}
}

// endsLine reports whether the whitespace item runs into a line break or
// the end of the file. Adjacency matters: the next trivia item may sit on
// the far side of a token.
func endsLine(tree *syntax.Tree, ws syntax.Trivia) bool {
	next := ws.Next()
	if next.IsNil() {
		return int(ws.Span().End) == len(tree.Source())
	}
	return next.Span().Start == ws.Span().End && next.Kind() == syntax.TriviaEndOfLine
}

// startsLine reports whether the whitespace item begins its line, which
// together with endsLine identifies the indentation of a blank line.
func startsLine(ws syntax.Trivia) bool {
	if ws.Span().Start == 0 {
		return true
	}
	prev := ws.Prev()
	return !prev.IsNil() && prev.Span().End == ws.Span().Start && prev.Kind() == syntax.TriviaEndOfLine
}

// resolveConfig extracts the config, falling back to defaults.
func (r *NoTrailingSpacesRule) resolveConfig(config any) NoTrailingSpacesConfig {
	return configutil.Coerce(config, DefaultNoTrailingSpacesConfig())
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewNoTrailingSpacesRule())
}
