package whitespace

import (
	"strings"

	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/syntax"
)

// FinalNewlineRuleCode is the full rule code for the final-newline rule.
const FinalNewlineRuleCode = rules.TrivetRulePrefix + "final-newline"

// FinalNewlineRule requires files to end with a line break. Empty files
// are fine as they are.
type FinalNewlineRule struct{}

// NewFinalNewlineRule creates a new final-newline rule instance.
func NewFinalNewlineRule() *FinalNewlineRule {
	return &FinalNewlineRule{}
}

// Descriptor returns static information about the rule.
func (r *FinalNewlineRule) Descriptor() rules.Descriptor {
	return rules.Descriptor{
		Code:             FinalNewlineRuleCode,
		Name:             "Final Newline",
		Description:      "Files must end with a trailing newline",
		Template:         "file must end with a newline",
		DocURL:           rules.TrivetDocURL(FinalNewlineRuleCode),
		DefaultSeverity:  rules.SeverityStyle,
		Category:         "style",
		EnabledByDefault: true,
		FixPriority:      180,
	}
}

// Subscribe declares which syntax elements the rule wants to see.
func (r *FinalNewlineRule) Subscribe(s *rules.Subscriptions) {
	s.OnTree(r.checkTree)
}

func (r *FinalNewlineRule) checkTree(c *rules.TreeContext) {
	src := c.Tree.Source()
	if src == "" || strings.HasSuffix(src, "\n") {
		return
	}
	end := uint32(len(src))
	c.Report(r.Descriptor(), syntax.Span{Start: end - 1, End: end})
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewFinalNewlineRule())
}
