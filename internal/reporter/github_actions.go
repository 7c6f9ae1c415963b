package reporter

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/wharflab/trivet/internal/rules"
)

// GitHubActionsReporter writes one workflow command per violation, which
// GitHub surfaces as inline annotations:
//
//	::{level} file={file},line={line},col={col},title={rule}::{message}
//
// See: https://docs.github.com/actions/using-workflows/workflow-commands-for-github-actions#setting-an-error-message
type GitHubActionsReporter struct {
	writer io.Writer
}

// NewGitHubActionsReporter creates a GitHub Actions reporter.
func NewGitHubActionsReporter(w io.Writer) *GitHubActionsReporter {
	return &GitHubActionsReporter{writer: w}
}

// Report implements Reporter.
func (r *GitHubActionsReporter) Report(violations []rules.Violation, _ map[string][]byte, _ ReportMetadata) error {
	for _, v := range SortViolations(violations) {
		if _, err := fmt.Fprintln(r.writer, annotation(v)); err != nil {
			return err
		}
	}
	return nil
}

// annotation renders one violation as a workflow command line.
func annotation(v rules.Violation) string {
	props := []string{"file=" + ghPropEscaper.Replace(filepath.ToSlash(v.Location.File))}

	if !v.Location.IsFileLevel() {
		props = append(props, fmt.Sprintf("line=%d", v.Location.Start.Line))
		if v.Location.Start.Column >= 0 {
			// Annotations are 1-based.
			props = append(props, fmt.Sprintf("col=%d", v.Location.Start.Column+1))
		}
		if !v.Location.IsPointLocation() && v.Location.End.Line > v.Location.Start.Line {
			props = append(props, fmt.Sprintf("endLine=%d", v.Location.End.Line))
		}
	}

	props = append(props, "title="+ghPropEscaper.Replace(v.RuleCode))

	return fmt.Sprintf("::%s %s::%s",
		severityToGitHubLevel(v.Severity),
		strings.Join(props, ","),
		ghDataEscaper.Replace(v.Message))
}

// Escaping per actions/toolkit command.ts: message data escapes %, CR and
// LF; property values additionally escape : and ,.
var (
	ghDataEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	ghPropEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

// GitHub Actions annotation levels ("debug" exists but is never emitted).
const (
	ghLevelError   = "error"
	ghLevelWarning = "warning"
	ghLevelNotice  = "notice"
)

var ghLevels = map[rules.Severity]string{
	rules.SeverityError:   ghLevelError,
	rules.SeverityWarning: ghLevelWarning,
	rules.SeverityInfo:    ghLevelNotice,
	rules.SeverityStyle:   ghLevelNotice,
}

// severityToGitHubLevel maps internal severities onto annotation levels.
// Off and unknown severities fall back to warning.
func severityToGitHubLevel(s rules.Severity) string {
	if level, ok := ghLevels[s]; ok {
		return level
	}
	return ghLevelWarning
}
