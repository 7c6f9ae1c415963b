// Package comments implements rules for the content of C# comments.
package comments

import (
	"strings"

	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/syntax"
)

// CommentSpacingRuleCode is the rule code for the comment spacing rule.
const CommentSpacingRuleCode = rules.TrivetRulePrefix + "comment-spacing"

// CommentSpacingRule requires a space between "//" and the comment text.
//
// Comments starting with four or more slashes are exempt: that form marks
// commented-out code, which keeps whatever spacing it had. Documentation
// comments ("///") are a separate trivia kind and are never visited here.
type CommentSpacingRule struct{}

// NewCommentSpacingRule creates a new comment spacing rule.
func NewCommentSpacingRule() *CommentSpacingRule {
	return &CommentSpacingRule{}
}

// Descriptor returns static information about the rule.
func (r *CommentSpacingRule) Descriptor() rules.Descriptor {
	return rules.Descriptor{
		Code:             CommentSpacingRuleCode,
		Name:             "Comment Spacing",
		Description:      "Single-line comments must begin with a space after the '//' delimiter",
		Template:         "single-line comment must begin with a space after '//'",
		DocURL:           rules.TrivetDocURL(CommentSpacingRuleCode),
		DefaultSeverity:  rules.SeverityWarning,
		Category:         "comments",
		EnabledByDefault: true,
		FixPriority:      10,
	}
}

// Subscribe declares which syntax elements the rule wants to see.
func (r *CommentSpacingRule) Subscribe(s *rules.Subscriptions) {
	s.OnTrivia(r.checkComment, syntax.TriviaLineComment)
}

func (r *CommentSpacingRule) checkComment(c *rules.TriviaContext) {
	text := c.Trivia.Text()
	if strings.HasPrefix(text, "////") {
		return
	}
	if text == "//" || strings.HasPrefix(text, "// ") {
		return
	}
	c.Report(r.Descriptor(), c.Trivia.Span())
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewCommentSpacingRule())
}
