package spacing

import (
	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/syntax"
)

// AttributeBracketsRuleCode is the full rule code for the attribute-brackets rule.
const AttributeBracketsRuleCode = rules.TrivetRulePrefix + "attribute-brackets"

// AttributeBracketsRule implements the attribute-brackets checking rule.
//
// The opening bracket of an attribute list (`[Obsolete]`) must not be
// followed by a space unless it ends the line. There is no left-side
// check: the space before an attribute bracket is indentation, which
// consistent-indentation owns.
type AttributeBracketsRule struct{}

// NewAttributeBracketsRule creates a new attribute-brackets rule instance.
func NewAttributeBracketsRule() *AttributeBracketsRule {
	return &AttributeBracketsRule{}
}

// Descriptor returns the rule descriptor.
func (r *AttributeBracketsRule) Descriptor() rules.Descriptor {
	return rules.Descriptor{
		Code:             AttributeBracketsRuleCode,
		Name:             "Attribute Brackets",
		Description:      "Opening attribute brackets must not be followed by a space",
		Template:         "opening attribute bracket must not be followed by a space",
		DocURL:           rules.TrivetDocURL(AttributeBracketsRuleCode),
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "spacing",
		EnabledByDefault: true,
		FixPriority:      10,
	}
}

// Subscribe registers the rule's callbacks.
func (r *AttributeBracketsRule) Subscribe(s *rules.Subscriptions) {
	s.OnTokens(r.checkBracket, syntax.KindLBracket)
}

func (r *AttributeBracketsRule) checkBracket(c *rules.TokenContext) {
	tok := c.Token
	if tok.Parent().Kind() != syntax.NodeAttributeList {
		return
	}

	trailing := tok.Trailing()
	if trailing.Len() > 0 && !trailing.Has(syntax.TriviaEndOfLine) {
		c.Report(r.Descriptor(), tok.Span())
	}
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewAttributeBracketsRule())
}
