// Package spacing implements rules for whitespace around punctuation
// and keyword tokens.
package spacing

import (
	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/syntax"
)

// BracketSpacingRuleCode is the full rule code for the bracket-spacing rule.
const BracketSpacingRuleCode = rules.TrivetRulePrefix + "bracket-spacing"

// BracketSpacingRule implements the bracket-spacing checking rule.
//
// Opening square brackets index into an expression (`args[0]`, `x[i, j]`)
// and must hug their neighbors: no space before, no space after. Brackets
// that open an attribute list are excluded here; attribute-brackets owns
// those.
type BracketSpacingRule struct{}

// NewBracketSpacingRule creates a new bracket-spacing rule instance.
func NewBracketSpacingRule() *BracketSpacingRule {
	return &BracketSpacingRule{}
}

// Descriptor returns the rule descriptor.
func (r *BracketSpacingRule) Descriptor() rules.Descriptor {
	return rules.Descriptor{
		Code:             BracketSpacingRuleCode,
		Name:             "Bracket Spacing",
		Description:      "Opening square brackets must not be preceded or followed by a space",
		Template:         "opening bracket must not be %s by a space",
		DocURL:           rules.TrivetDocURL(BracketSpacingRuleCode),
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "spacing",
		EnabledByDefault: true,
		FixPriority:      10,
	}
}

// Subscribe registers the rule's callbacks.
func (r *BracketSpacingRule) Subscribe(s *rules.Subscriptions) {
	s.OnTokens(r.checkBracket, syntax.KindLBracket)
}

func (r *BracketSpacingRule) checkBracket(c *rules.TokenContext) {
	tok := c.Token

	// Brackets opening an attribute list are owned by attribute-brackets.
	if tok.Parent().Kind() == syntax.NodeAttributeList {
		return
	}

	desc := r.Descriptor()

	// Left side. A bracket at column 0 has no left neighbor to hug.
	// Indentation does not count as first-in-line: an indented bracket
	// is still preceded by whitespace. The space after `new` in implicit
	// array creation (`new [] { ... }`) is keyword-spacing's call, not
	// ours.
	if !atLineStart(c.Tree, tok) {
		if precededByWhitespace(tok) && !isNewKeyword(tok.Prev()) {
			c.Report(desc, tok.Span(), "preceded")
		}
	}

	// Right side: trailing trivia that doesn't end the line separates the
	// bracket from the next element.
	trailing := tok.Trailing()
	if trailing.Len() > 0 && !trailing.Has(syntax.TriviaEndOfLine) {
		c.Report(desc, tok.Span(), "followed")
	}
}

// atLineStart reports whether tok is the first character of its line.
func atLineStart(tree *syntax.Tree, tok syntax.Token) bool {
	start := tok.Span().Start
	return start == 0 || tree.Source()[start-1] == '\n'
}

// precededByWhitespace reports whether the trivia item immediately before
// tok is whitespace. Mid-line that item lives in the previous token's
// trailing list; at a line start it is the token's own leading
// indentation.
func precededByWhitespace(tok syntax.Token) bool {
	if l := tok.Leading(); l.Len() > 0 {
		return l.At(l.Len()-1).Kind() == syntax.TriviaWhitespace
	}
	prev := tok.Prev()
	if prev.IsNil() {
		return false
	}
	t := prev.Trailing()
	return t.Len() > 0 && t.At(t.Len()-1).Kind() == syntax.TriviaWhitespace
}

// isNewKeyword reports whether tok is the `new` keyword.
func isNewKeyword(tok syntax.Token) bool {
	return !tok.IsNil() && tok.Kind() == syntax.KindKeyword && tok.Text() == "new"
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewBracketSpacingRule())
}
