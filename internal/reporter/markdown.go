package reporter

import (
	"cmp"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/wharflab/trivet/internal/rules"
)

// MarkdownReporter renders violations as compact markdown tables, sized
// for pasting into PR comments or feeding to coding agents.
type MarkdownReporter struct {
	writer io.Writer
}

// NewMarkdownReporter creates a Markdown reporter.
func NewMarkdownReporter(w io.Writer) *MarkdownReporter {
	return &MarkdownReporter{writer: w}
}

// Report implements Reporter.
func (r *MarkdownReporter) Report(violations []rules.Violation, _ map[string][]byte, _ ReportMetadata) error {
	if len(violations) == 0 {
		_, err := fmt.Fprintln(r.writer, "**No issues found**")
		return err
	}

	sorted := SortViolationsBySeverity(violations)
	for i := range sorted {
		sorted[i].Location.File = filepath.ToSlash(sorted[i].Location.File)
	}

	files := make(map[string]struct{})
	for _, v := range sorted {
		files[v.Location.File] = struct{}{}
	}

	var b strings.Builder
	count := fmt.Sprintf("**%d %s**", len(sorted), pluralize(len(sorted), "issue", "issues"))
	if len(files) == 1 {
		// Single file: the file column would repeat one value, drop it.
		fmt.Fprintf(&b, "%s in `%s`\n\n", count, sorted[0].Location.File)
		b.WriteString("| Line | Issue |\n")
		b.WriteString("|------|-------|\n")
		for _, v := range sorted {
			fmt.Fprintf(&b, "| %s | %s %s |\n", lineCell(v), severityEmoji(v.Severity), escapeCell(v.Message))
		}
	} else {
		fmt.Fprintf(&b, "%s across %d files\n\n", count, len(files))
		b.WriteString("| File | Line | Issue |\n")
		b.WriteString("|------|------|-------|\n")
		for _, v := range sorted {
			fmt.Fprintf(&b, "| %s | %s | %s %s |\n",
				v.Location.File, lineCell(v), severityEmoji(v.Severity), escapeCell(v.Message))
		}
	}

	_, err := io.WriteString(r.writer, b.String())
	return err
}

// lineCell formats the line column; file-level violations show a dash.
func lineCell(v rules.Violation) string {
	if v.Location.IsFileLevel() {
		return "-"
	}
	if line := v.Location.Start.Line; line > 0 {
		return strconv.Itoa(line)
	}
	return "-"
}

// SortViolationsBySeverity orders violations most severe first, then by
// file and line. The sort is stable, so equal entries keep their input
// order.
func SortViolationsBySeverity(violations []rules.Violation) []rules.Violation {
	sorted := slices.Clone(violations)
	slices.SortStableFunc(sorted, func(a, b rules.Violation) int {
		if c := cmp.Compare(severityRank(a.Severity), severityRank(b.Severity)); c != 0 {
			return c
		}
		if c := strings.Compare(a.Location.File, b.Location.File); c != 0 {
			return c
		}
		return cmp.Compare(a.Location.Start.Line, b.Location.Start.Line)
	})
	return sorted
}

// severityRank orders severities for display, most severe first. Unknown
// values land between style and off.
func severityRank(s rules.Severity) int {
	switch s {
	case rules.SeverityError:
		return 0
	case rules.SeverityWarning:
		return 1
	case rules.SeverityInfo:
		return 2
	case rules.SeverityStyle:
		return 3
	case rules.SeverityOff:
		return 5
	default:
		return 4
	}
}

var severityBadges = map[rules.Severity]string{
	rules.SeverityError:   "❌",
	rules.SeverityWarning: "⚠️",
	rules.SeverityInfo:    "ℹ️",
	rules.SeverityStyle:   "💅",
	rules.SeverityOff:     "⭕",
}

// severityEmoji returns the badge shown next to each issue.
func severityEmoji(s rules.Severity) string {
	if badge, ok := severityBadges[s]; ok {
		return badge
	}
	return severityBadges[rules.SeverityWarning]
}

// escapeCell makes a message safe inside a markdown table cell: pipes are
// escaped and line breaks flattened to spaces.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", "")
}

// pluralize picks the singular or plural form for count.
func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
