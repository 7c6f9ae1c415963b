package reporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wharflab/trivet/internal/rules"
)

// ghLines runs the GitHub Actions reporter and returns the emitted lines.
func ghLines(t *testing.T, violations []rules.Violation) []string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewGitHubActionsReporter(&buf).Report(violations, nil, ReportMetadata{}); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if buf.Len() == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
}

func TestGitHubActionsReporter(t *testing.T) {
	t.Parallel()
	lines := ghLines(t, []rules.Violation{
		{
			Location: rules.Location{
				File:  "src/Program.cs",
				Start: rules.Position{Line: 5, Column: 0},
				End:   rules.Position{Line: 5, Column: 20},
			},
			RuleCode: "trivet/bracket-spacing",
			Message:  "Opening square bracket at line 5 should not be followed by a space",
			Severity: rules.SeverityWarning,
		},
		{
			Location: rules.Location{
				File:  "src/Program.cs",
				Start: rules.Position{Line: 10, Column: 4},
				End:   rules.Position{Line: 12, Column: 0},
			},
			RuleCode: "trivet/attribute-brackets",
			Message:  "Attribute bracket at line 10 should not be followed by whitespace",
			Severity: rules.SeverityError,
		},
	})

	// Column 0 surfaces as col=1; the single-line range gets no endLine,
	// the multi-line one does.
	want := []string{
		"::warning file=src/Program.cs,line=5,col=1,title=trivet/bracket-spacing::" +
			"Opening square bracket at line 5 should not be followed by a space",
		"::error file=src/Program.cs,line=10,col=5,endLine=12,title=trivet/attribute-brackets::" +
			"Attribute bracket at line 10 should not be followed by whitespace",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d:\n got %s\nwant %s", i, lines[i], want[i])
		}
	}
}

func TestGitHubActionsReporterSeverityMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		severity rules.Severity
		want     string
	}{
		{rules.SeverityError, "error"},
		{rules.SeverityWarning, "warning"},
		{rules.SeverityInfo, "notice"},
		{rules.SeverityStyle, "notice"},
	}

	for _, tt := range tests {
		if got := severityToGitHubLevel(tt.severity); got != tt.want {
			t.Errorf("severityToGitHubLevel(%v) = %q, want %q", tt.severity, got, tt.want)
		}
	}
}

func TestGitHubActionsReporterEmpty(t *testing.T) {
	t.Parallel()
	if lines := ghLines(t, nil); lines != nil {
		t.Errorf("want no output for no violations, got %q", lines)
	}
}

func TestGitHubActionsReporterMessageEscaping(t *testing.T) {
	t.Parallel()
	lines := ghLines(t, []rules.Violation{
		{
			Location: rules.Location{
				File:  "src/Program.cs",
				Start: rules.Position{Line: 1, Column: 0},
			},
			RuleCode: "trivet/comment-spacing",
			Message:  "Line 1\nLine 2\r\nLine 3",
			Severity: rules.SeverityWarning,
		},
	})

	// Newlines in the message must be escaped, or the command ends early.
	want := "::warning file=src/Program.cs,line=1,col=1,title=trivet/comment-spacing::" +
		"Line 1%0ALine 2%0D%0ALine 3"
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), lines)
	}
	if lines[0] != want {
		t.Errorf("got  %s\nwant %s", lines[0], want)
	}
}

func TestGitHubActionsReporterPropertyEscaping(t *testing.T) {
	t.Parallel()
	lines := ghLines(t, []rules.Violation{
		{
			Location: rules.Location{
				File:  "path/to:file,with:special.cs",
				Start: rules.Position{Line: 1, Column: 0},
			},
			RuleCode: "RULE:WITH,SPECIAL",
			Message:  "Message with : and , should NOT be escaped",
			Severity: rules.SeverityWarning,
		},
	})
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), lines)
	}
	out := lines[0]

	// Colons and commas are escaped in properties only, never in the
	// message data.
	if !strings.Contains(out, "file=path/to%3Afile%2Cwith%3Aspecial.cs") {
		t.Errorf("file property not escaped: %s", out)
	}
	if !strings.Contains(out, "title=RULE%3AWITH%2CSPECIAL") {
		t.Errorf("title property not escaped: %s", out)
	}
	if !strings.HasSuffix(out, "::Message with : and , should NOT be escaped") {
		t.Errorf("message should pass through unescaped: %s", out)
	}
}

func TestGitHubActionsReporterSorting(t *testing.T) {
	t.Parallel()
	lines := ghLines(t, []rules.Violation{
		{
			Location: rules.Location{File: "src/Widget.cs", Start: rules.Position{Line: 10, Column: 0}},
			RuleCode: "trivet/bracket-spacing",
			Message:  "Widget line 10",
			Severity: rules.SeverityWarning,
		},
		{
			Location: rules.Location{File: "src/Program.cs", Start: rules.Position{Line: 5, Column: 0}},
			RuleCode: "trivet/bracket-spacing",
			Message:  "Program line 5",
			Severity: rules.SeverityWarning,
		},
		{
			Location: rules.Location{File: "src/Program.cs", Start: rules.Position{Line: 1, Column: 0}},
			RuleCode: "trivet/bracket-spacing",
			Message:  "Program line 1",
			Severity: rules.SeverityWarning,
		},
	})

	wantOrder := []string{"::Program line 1", "::Program line 5", "::Widget line 10"}
	if len(lines) != len(wantOrder) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(wantOrder), lines)
	}
	for i, suffix := range wantOrder {
		if !strings.HasSuffix(lines[i], suffix) {
			t.Errorf("line %d = %s, want suffix %s", i, lines[i], suffix)
		}
	}
}
