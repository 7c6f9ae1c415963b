package spacing

import (
	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/syntax"
)

// KeywordSpacingRuleCode is the full rule code for the keyword-spacing rule.
const KeywordSpacingRuleCode = rules.TrivetRulePrefix + "keyword-spacing"

// spacedKeywords are the control-flow keywords that introduce a condition,
// resource, or operand and must be set off from it by a single space.
var spacedKeywords = map[string]bool{
	"if":      true,
	"for":     true,
	"foreach": true,
	"while":   true,
	"switch":  true,
	"using":   true,
	"lock":    true,
	"return":  true,
	"new":     true,
}

// KeywordSpacingRule implements the keyword-spacing checking rule.
//
// Control-flow keywords must be followed by exactly one space. The `new`
// keyword is special-cased: directly before `[` it introduces an
// implicitly typed array and must hug the bracket, and target-typed
// `new()` has no type to separate. This rule owns the `new` carve-out
// that bracket-spacing defers to.
type KeywordSpacingRule struct{}

// NewKeywordSpacingRule creates a new keyword-spacing rule instance.
func NewKeywordSpacingRule() *KeywordSpacingRule {
	return &KeywordSpacingRule{}
}

// Descriptor returns the rule descriptor.
func (r *KeywordSpacingRule) Descriptor() rules.Descriptor {
	return rules.Descriptor{
		Code:             KeywordSpacingRuleCode,
		Name:             "Keyword Spacing",
		Description:      "Control-flow keywords must be followed by a single space",
		Template:         "keyword '%s' must %s",
		DocURL:           rules.TrivetDocURL(KeywordSpacingRuleCode),
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "spacing",
		EnabledByDefault: true,
		FixPriority:      10,
	}
}

// Subscribe registers the rule's callbacks.
func (r *KeywordSpacingRule) Subscribe(s *rules.Subscriptions) {
	s.OnTokens(r.checkKeyword, syntax.KindKeyword)
}

func (r *KeywordSpacingRule) checkKeyword(c *rules.TokenContext) {
	tok := c.Token
	text := tok.Text()
	if !spacedKeywords[text] {
		return
	}

	desc := r.Descriptor()
	next := tok.Next()
	trailing := tok.Trailing()

	if text == "new" && !next.IsNil() {
		switch next.Kind() {
		case syntax.KindLBracket:
			// Implicitly typed array: `new[] { ... }` hugs its bracket.
			if trailing.Has(syntax.TriviaWhitespace) {
				c.Report(desc, tok.Span(), text, "not be followed by a space")
			}
			return
		case syntax.KindLParen:
			// Target-typed `new()` has no type to separate.
			return
		}
	}

	// Bare `return;` has no operand to separate.
	if text == "return" && (next.IsNil() || next.Kind() == syntax.KindSemicolon) {
		return
	}

	// A keyword that ends its line is separated by the line break.
	if trailing.Has(syntax.TriviaEndOfLine) {
		return
	}
	if !isSingleSpace(trailing) {
		c.Report(desc, tok.Span(), text, "be followed by a single space")
	}
}

// isSingleSpace reports whether the list is exactly one plain space.
func isSingleSpace(l syntax.TriviaList) bool {
	if l.Len() != 1 {
		return false
	}
	item := l.At(0)
	return item.Kind() == syntax.TriviaWhitespace && item.Text() == " "
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewKeywordSpacingRule())
}
