package reporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wharflab/trivet/internal/rules"
)

// markdownOut runs the markdown reporter and returns its output.
func markdownOut(t *testing.T, violations []rules.Violation) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewMarkdownReporter(&buf).Report(violations, nil, ReportMetadata{}); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	return buf.String()
}

func TestMarkdownReporterSingleFile(t *testing.T) {
	t.Parallel()
	got := markdownOut(t, []rules.Violation{
		{
			Location: rules.Location{File: "src/Program.cs", Start: rules.Position{Line: 5, Column: 0}},
			RuleCode: "trivet/bracket-spacing",
			Message:  "Opening square bracket at line 5 should not be followed by a space",
			Severity: rules.SeverityWarning,
		},
		{
			Location: rules.Location{File: "src/Program.cs", Start: rules.Position{Line: 10, Column: 0}},
			RuleCode: "trivet/attribute-brackets",
			Message:  "Attribute bracket at line 10 should not be followed by whitespace",
			Severity: rules.SeverityError,
		},
	})

	// One file: no File column, and the error sorts above the warning.
	want := "**2 issues** in `src/Program.cs`\n" +
		"\n" +
		"| Line | Issue |\n" +
		"|------|-------|\n" +
		"| 10 | ❌ Attribute bracket at line 10 should not be followed by whitespace |\n" +
		"| 5 | ⚠️ Opening square bracket at line 5 should not be followed by a space |\n"
	if got != want {
		t.Errorf("output mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestMarkdownReporterMultipleFiles(t *testing.T) {
	t.Parallel()
	got := markdownOut(t, []rules.Violation{
		{
			Location: rules.Location{File: "src/Program.cs", Start: rules.Position{Line: 5, Column: 0}},
			RuleCode: "trivet/bracket-spacing",
			Message:  "Issue in Program",
			Severity: rules.SeverityWarning,
		},
		{
			Location: rules.Location{File: "src/Widget.cs", Start: rules.Position{Line: 3, Column: 0}},
			RuleCode: "trivet/bracket-spacing",
			Message:  "Issue in Widget",
			Severity: rules.SeverityWarning,
		},
	})

	want := "**2 issues** across 2 files\n" +
		"\n" +
		"| File | Line | Issue |\n" +
		"|------|------|-------|\n" +
		"| src/Program.cs | 5 | ⚠️ Issue in Program |\n" +
		"| src/Widget.cs | 3 | ⚠️ Issue in Widget |\n"
	if got != want {
		t.Errorf("output mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestMarkdownReporterEmpty(t *testing.T) {
	t.Parallel()
	if got := markdownOut(t, nil); got != "**No issues found**\n" {
		t.Errorf("got %q, want no-issues banner", got)
	}
}

func TestMarkdownReporterSeverityEmojis(t *testing.T) {
	t.Parallel()
	tests := []struct {
		severity rules.Severity
		want     string
	}{
		{rules.SeverityError, "❌"},
		{rules.SeverityWarning, "⚠️"},
		{rules.SeverityInfo, "ℹ️"},
		{rules.SeverityStyle, "💅"},
	}

	for _, tt := range tests {
		if got := severityEmoji(tt.severity); got != tt.want {
			t.Errorf("severityEmoji(%v) = %q, want %q", tt.severity, got, tt.want)
		}
	}
}

func TestMarkdownReporterEscaping(t *testing.T) {
	t.Parallel()
	got := markdownOut(t, []rules.Violation{
		{
			Location: rules.Location{File: "src/Program.cs", Start: rules.Position{Line: 1, Column: 0}},
			RuleCode: "trivet/comment-spacing",
			Message:  "Message with | pipe and\nnewline",
			Severity: rules.SeverityWarning,
		},
	})

	// A raw pipe or newline would break the table.
	if !strings.Contains(got, `with \| pipe`) {
		t.Errorf("pipe not escaped: %s", got)
	}
	if strings.Contains(got, "and\nnewline") {
		t.Errorf("newline survived into the cell: %s", got)
	}
	if !strings.Contains(got, "and newline") {
		t.Errorf("newline should flatten to a space: %s", got)
	}
}

func TestMarkdownReporterFileLevelViolation(t *testing.T) {
	t.Parallel()
	got := markdownOut(t, []rules.Violation{
		{
			Location: rules.NewFileLocation("src/Program.cs"),
			RuleCode: "trivet/final-newline",
			Message:  "File-level issue",
			Severity: rules.SeverityWarning,
		},
	})

	if !strings.Contains(got, "| - |") {
		t.Errorf("file-level violation should show - in the line column: %s", got)
	}
}

func TestSortViolationsBySeverity(t *testing.T) {
	t.Parallel()
	violations := []rules.Violation{
		{Location: rules.Location{File: "a.cs", Start: rules.Position{Line: 1}}, Severity: rules.SeverityStyle},
		{Location: rules.Location{File: "a.cs", Start: rules.Position{Line: 2}}, Severity: rules.SeverityError},
		{Location: rules.Location{File: "a.cs", Start: rules.Position{Line: 3}}, Severity: rules.SeverityWarning},
		{Location: rules.Location{File: "a.cs", Start: rules.Position{Line: 4}}, Severity: rules.SeverityInfo},
	}

	sorted := SortViolationsBySeverity(violations)

	want := []rules.Severity{
		rules.SeverityError,
		rules.SeverityWarning,
		rules.SeverityInfo,
		rules.SeverityStyle,
	}
	if len(sorted) != len(want) {
		t.Fatalf("got %d violations, want %d", len(sorted), len(want))
	}
	for i, sev := range want {
		if sorted[i].Severity != sev {
			t.Errorf("sorted[%d].Severity = %v, want %v", i, sorted[i].Severity, sev)
		}
	}
	if violations[0].Severity != rules.SeverityStyle {
		t.Error("input slice was reordered in place")
	}
}

func TestParseFormatMarkdown(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"markdown", "md"} {
		format, err := ParseFormat(name)
		if err != nil {
			t.Fatalf("ParseFormat(%q) error = %v", name, err)
		}
		if format != FormatMarkdown {
			t.Errorf("ParseFormat(%q) = %v, want FormatMarkdown", name, format)
		}
	}
}
