package whitespace

import (
	"fmt"
	"strings"

	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/rules/configutil"
	"github.com/wharflab/trivet/internal/syntax"
)

// ConsistentIndentationRuleCode is the full rule code for the
// consistent-indentation rule.
const ConsistentIndentationRuleCode = rules.TrivetRulePrefix + "consistent-indentation"

// Indentation style names accepted by the style option.
const (
	indentAuto   = "auto"
	indentTabs   = "tabs"
	indentSpaces = "spaces"
	indentMixed  = "mixed"
)

// ConsistentIndentationConfig is the configuration for the
// consistent-indentation rule.
type ConsistentIndentationConfig struct {
	// Style selects the required indentation character: "tabs", "spaces",
	// or "auto" to lock onto the first indented line's style.
	Style *string `json:"style,omitempty" koanf:"style"`
}

// DefaultConsistentIndentationConfig returns the default configuration.
func DefaultConsistentIndentationConfig() ConsistentIndentationConfig {
	style := indentAuto
	return ConsistentIndentationConfig{Style: &style}
}

// ConsistentIndentationRule requires every indented line in a file to use
// the same indentation character.
//
// Only whitespace trivia that begins a line counts as indentation. Text
// inside multi-line comments and verbatim strings is token or comment
// content, so their interior alignment is never flagged. Blank lines are
// no-trailing-spaces territory.
type ConsistentIndentationRule struct{}

// NewConsistentIndentationRule creates a new consistent-indentation rule
// instance.
func NewConsistentIndentationRule() *ConsistentIndentationRule {
	return &ConsistentIndentationRule{}
}

// Descriptor returns static information about the rule.
func (r *ConsistentIndentationRule) Descriptor() rules.Descriptor {
	return rules.Descriptor{
		Code:             ConsistentIndentationRuleCode,
		Name:             "Consistent Indentation",
		Description:      "Requires indentation to use tabs or spaces consistently within a file",
		Template:         "line indented with %s; expected %s",
		DocURL:           rules.TrivetDocURL(ConsistentIndentationRuleCode),
		DefaultSeverity:  rules.SeverityOff,
		Category:         "style",
		EnabledByDefault: false,
		IsExperimental:   true,
		FixPriority:      50,
	}
}

// Schema returns the JSON Schema for this rule's configuration.
func (r *ConsistentIndentationRule) Schema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"style": map[string]any{
				"type":        "string",
				"enum":        []any{indentAuto, indentTabs, indentSpaces},
				"default":     indentAuto,
				"description": "Required indentation style; auto locks onto the first indented line",
			},
		},
		"additionalProperties": false,
	}
}

// DefaultConfig returns the default configuration for this rule.
func (r *ConsistentIndentationRule) DefaultConfig() any {
	return DefaultConsistentIndentationConfig()
}

// ValidateConfig validates the configuration against the rule's JSON Schema.
func (r *ConsistentIndentationRule) ValidateConfig(config any) error {
	return configutil.ValidateWithSchema(config, r.Schema())
}

// Subscribe declares which syntax elements the rule wants to see.
func (r *ConsistentIndentationRule) Subscribe(s *rules.Subscriptions) {
	s.OnTree(r.checkTree)
}

// checkTree walks every token's leading trivia. In auto mode the first
// cleanly indented line decides the expected style; mixed indentation is
// always wrong, even before the style is decided.
func (r *ConsistentIndentationRule) checkTree(c *rules.TreeContext) {
	cfg := r.resolveConfig(c.Config)

	want := ""
	if cfg.Style != nil && *cfg.Style != indentAuto {
		want = *cfg.Style
	}

	desc := r.Descriptor()
	for tok := range c.Tree.Tokens() {
		for ws := range tok.Leading().All() {
			if ws.Kind() != syntax.TriviaWhitespace {
				continue
			}
			if !startsLine(ws) || endsLine(c.Tree, ws) {
				continue
			}
			lead := ws.Text()
			switch got := classifyIndent(lead); {
			case got == indentMixed:
				expected := want
				if expected == "" {
					expected = "tabs or spaces"
				}
				c.Report(desc, ws.Span(), describeIndent(lead), expected)
			case want == "":
				want = got
			case got != want:
				c.Report(desc, ws.Span(), describeIndent(lead), want)
			}
		}
	}
}

// classifyIndent returns indentTabs, indentSpaces or indentMixed for a
// non-empty run of indentation characters.
func classifyIndent(lead string) string {
	tabs := strings.Count(lead, "\t")
	switch {
	case tabs == 0:
		return indentSpaces
	case tabs == len(lead):
		return indentTabs
	default:
		return indentMixed
	}
}

// describeIndent renders an indentation run for a diagnostic message,
// e.g. "1 tab", "4 spaces" or "5 mixed characters".
func describeIndent(lead string) string {
	tabs := strings.Count(lead, "\t")
	spaces := len(lead) - tabs
	switch {
	case spaces == 0 && tabs == 1:
		return "1 tab"
	case spaces == 0:
		return fmt.Sprintf("%d tabs", tabs)
	case tabs == 0 && spaces == 1:
		return "1 space"
	case tabs == 0:
		return fmt.Sprintf("%d spaces", spaces)
	default:
		return fmt.Sprintf("%d mixed characters", len(lead))
	}
}

// resolveConfig extracts the config, falling back to defaults.
func (r *ConsistentIndentationRule) resolveConfig(config any) ConsistentIndentationConfig {
	return configutil.Coerce(config, DefaultConsistentIndentationConfig())
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewConsistentIndentationRule())
}
