package comments

import (
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/syntax"
)

// SecretsInCommentsRuleCode is the rule code for the secret detection rule.
const SecretsInCommentsRuleCode = rules.TrivetRulePrefix + "secrets-in-comments"

// detector builds the gitleaks detector once per process. Building it parses
// the full default pattern config, which is too expensive to repeat per file.
var detector = sync.OnceValues(func() (*detect.Detector, error) {
	return detect.NewDetectorDefaultConfig()
})

// SecretsInCommentsRule detects hardcoded secrets left in comments.
//
// Credentials pasted into comments survive refactors long after the code
// that used them is gone. The rule scans every comment against gitleaks'
// curated pattern database.
type SecretsInCommentsRule struct{}

// NewSecretsInCommentsRule creates a new secret detection rule.
func NewSecretsInCommentsRule() *SecretsInCommentsRule {
	return &SecretsInCommentsRule{}
}

// Descriptor returns static information about the rule.
func (r *SecretsInCommentsRule) Descriptor() rules.Descriptor {
	return rules.Descriptor{
		Code:             SecretsInCommentsRuleCode,
		Name:             "Secrets in Comments",
		Description:      "Detects hardcoded secrets, API keys, and credentials left in comments",
		Template:         "%s in a comment (found: %s, rule: %s)",
		DocURL:           rules.TrivetDocURL(SecretsInCommentsRuleCode),
		DefaultSeverity:  rules.SeverityError,
		Category:         "security",
		EnabledByDefault: true,
		IsExperimental:   true,
	}
}

// Subscribe declares which syntax elements the rule wants to see.
func (r *SecretsInCommentsRule) Subscribe(s *rules.Subscriptions) {
	s.OnTrivia(r.checkComment,
		syntax.TriviaLineComment,
		syntax.TriviaBlockComment,
		syntax.TriviaDocComment,
	)
}

func (r *SecretsInCommentsRule) checkComment(c *rules.TriviaContext) {
	d, err := detector()
	if err != nil {
		// No detector means no scanning; the rule stays quiet rather than
		// failing every file.
		return
	}

	for _, finding := range d.DetectString(c.Trivia.Text()) {
		desc := finding.Description
		if desc == "" {
			desc = "Potential secret detected"
		}
		c.Report(r.Descriptor(), c.Trivia.Span(), desc, redact(finding.Secret), finding.RuleID)
	}
}

// redact redacts a secret for safe display.
func redact(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// init registers the rule with the default registry.
func init() {
	rules.Register(NewSecretsInCommentsRule())
}
