package whitespace

import (
	"strconv"
	"strings"

	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/rules/configutil"
	"github.com/wharflab/trivet/internal/sourcemap"
	"github.com/wharflab/trivet/internal/syntax"
)

// MaxLinesRuleCode is the full rule code for the max-lines rule.
const MaxLinesRuleCode = rules.TrivetRulePrefix + "max-lines"

// MaxLinesConfig is the configuration for the max-lines rule.
//
// Default: 1000 lines (excluding blanks and comments).
//
// Pointer types are used for fields that need tri-state semantics (unset vs
// explicit-zero).
type MaxLinesConfig struct {
	// Max is the maximum number of lines allowed (0 = disabled, nil = use default).
	Max *int `json:"max,omitempty" koanf:"max"`

	// SkipBlankLines excludes blank lines from the count (nil = use default).
	SkipBlankLines *bool `json:"skip-blank-lines,omitempty" koanf:"skip-blank-lines"`

	// SkipComments excludes comment-only lines from the count (nil = use default).
	SkipComments *bool `json:"skip-comments,omitempty" koanf:"skip-comments"`
}

// DefaultMaxLinesConfig returns the default configuration.
func DefaultMaxLinesConfig() MaxLinesConfig {
	maxLines := 1000
	skipBlankLines := true
	skipComments := true
	return MaxLinesConfig{
		Max:            &maxLines,
		SkipBlankLines: &skipBlankLines,
		SkipComments:   &skipComments,
	}
}

// MaxLinesRule limits the number of lines in a file.
type MaxLinesRule struct{}

// NewMaxLinesRule creates a new max-lines rule instance.
func NewMaxLinesRule() *MaxLinesRule {
	return &MaxLinesRule{}
}

// Descriptor returns static information about the rule.
func (r *MaxLinesRule) Descriptor() rules.Descriptor {
	return rules.Descriptor{
		Code:             MaxLinesRuleCode,
		Name:             "Maximum Lines",
		Description:      "Limits the maximum number of lines in a file",
		Template:         "file has %s lines, maximum allowed is %s",
		DocURL:           rules.TrivetDocURL(MaxLinesRuleCode),
		DefaultSeverity:  rules.SeverityError,
		Category:         "maintainability",
		EnabledByDefault: false,
	}
}

// Schema returns the JSON Schema for this rule's configuration.
// Supports either an integer shorthand (just max) or full object config,
// following ESLint's max-lines options shape.
func (r *MaxLinesRule) Schema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"oneOf": []any{
			map[string]any{
				"type":    "integer",
				"minimum": 0,
			},
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"max": map[string]any{
						"type":        "integer",
						"minimum":     0,
						"default":     1000,
						"description": "Maximum number of lines allowed (0 = disabled)",
					},
					"skip-blank-lines": map[string]any{
						"type":        "boolean",
						"default":     true,
						"description": "Exclude blank lines from the count",
					},
					"skip-comments": map[string]any{
						"type":        "boolean",
						"default":     true,
						"description": "Exclude comment-only lines from the count",
					},
				},
				"additionalProperties": false,
			},
		},
	}
}

// DefaultConfig returns the default configuration for this rule.
func (r *MaxLinesRule) DefaultConfig() any {
	return DefaultMaxLinesConfig()
}

// ValidateConfig validates the configuration against the rule's JSON Schema.
func (r *MaxLinesRule) ValidateConfig(config any) error {
	return configutil.ValidateWithSchema(config, r.Schema())
}

// Subscribe declares which syntax elements the rule wants to see.
func (r *MaxLinesRule) Subscribe(s *rules.Subscriptions) {
	s.OnTree(r.checkTree)
}

// checkTree classifies every line as code, comment-only or blank using the
// tree rather than rescanning text, so comment markers inside string
// literals never skew the count.
func (r *MaxLinesRule) checkTree(c *rules.TreeContext) {
	cfg := r.resolveConfig(c.Config)
	if cfg.Max == nil || *cfg.Max <= 0 {
		return
	}
	maxLines := *cfg.Max

	src := c.Tree.Source()
	totalLines := strings.Count(src, "\n")
	if len(src) > 0 && !strings.HasSuffix(src, "\n") {
		totalLines++
	}
	if totalLines <= maxLines {
		return
	}

	sm := sourcemap.New([]byte(src))
	occupied := make(map[int]bool)
	commented := make(map[int]bool)

	for tok := range c.Tree.Tokens() {
		if tok.Kind() != syntax.KindEOF {
			markSpanLines(sm, tok.Span(), occupied)
		}
		markTriviaLines(sm, tok.Leading(), occupied, commented)
		markTriviaLines(sm, tok.Trailing(), occupied, commented)
	}

	count := totalLines
	for line := range totalLines {
		switch {
		case occupied[line]:
		case commented[line]:
			if cfg.SkipComments == nil || *cfg.SkipComments {
				count--
			}
		default:
			if cfg.SkipBlankLines == nil || *cfg.SkipBlankLines {
				count--
			}
		}
	}

	if count <= maxLines {
		return
	}

	// Report from the first line exceeding the limit, like ESLint.
	start := sm.LineOffset(maxLines)
	end := start + len(sm.Line(maxLines))
	c.Report(r.Descriptor(), syntax.Span{Start: uint32(start), End: uint32(end)},
		strconv.Itoa(count), strconv.Itoa(maxLines))
}

// markSpanLines marks every line the span touches.
func markSpanLines(sm *sourcemap.SourceMap, span syntax.Span, set map[int]bool) {
	if span.IsEmpty() {
		return
	}
	startLine, _ := sm.PositionFor(int(span.Start))
	endLine, _ := sm.PositionFor(int(span.End - 1))
	for line := startLine; line <= endLine; line++ {
		set[line] = true
	}
}

// markTriviaLines marks comment lines, and directive lines as occupied:
// a #region or #pragma line is neither blank nor a comment.
func markTriviaLines(sm *sourcemap.SourceMap, list syntax.TriviaList, occupied, commented map[int]bool) {
	for tr := range list.All() {
		switch kind := tr.Kind(); {
		case kind.IsComment():
			markSpanLines(sm, tr.Span(), commented)
		case kind == syntax.TriviaRegion || kind == syntax.TriviaDirective:
			markSpanLines(sm, tr.Span(), occupied)
		}
	}
}

// resolveConfig extracts the MaxLinesConfig from the raw config value,
// falling back to defaults. Supports integer shorthand (just the max) or
// full object config.
func (r *MaxLinesRule) resolveConfig(config any) MaxLinesConfig {
	switch v := config.(type) {
	case int:
		defaults := DefaultMaxLinesConfig()
		defaults.Max = &v
		return defaults
	case float64:
		// JSON numbers come as float64.
		maxVal := int(v)
		defaults := DefaultMaxLinesConfig()
		defaults.Max = &maxVal
		return defaults
	}
	return configutil.Coerce(config, DefaultMaxLinesConfig())
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewMaxLinesRule())
}
