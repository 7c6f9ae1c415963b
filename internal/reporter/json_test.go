package reporter

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/wharflab/trivet/internal/rules"
)

// jsonReport runs the JSON reporter and decodes the document back.
func jsonReport(t *testing.T, violations []rules.Violation, metadata ReportMetadata) JSONOutput {
	t.Helper()
	var buf bytes.Buffer
	if err := NewJSONReporter(&buf).Report(violations, nil, metadata); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	var output JSONOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	return output
}

func TestJSONReporter(t *testing.T) {
	t.Parallel()
	output := jsonReport(t, []rules.Violation{
		{
			Location: rules.Location{
				File:  "src/Program.cs",
				Start: rules.Position{Line: 5, Column: 8},
				End:   rules.Position{Line: 5, Column: 9},
			},
			RuleCode: "trivet/bracket-spacing",
			Message:  "Opening square bracket at line 5 should not be followed by a space",
			Severity: rules.SeverityWarning,
			DocURL:   "https://github.com/wharflab/trivet/blob/main/docs/rules/trivet/bracket-spacing.md",
		},
		{
			Location: rules.Location{
				File:  "src/Program.cs",
				Start: rules.Position{Line: 10, Column: 0},
				End:   rules.Position{Line: 10, Column: 10},
			},
			RuleCode: "trivet/attribute-brackets",
			Message:  "Attribute bracket at line 10 should not be followed by whitespace",
			Severity: rules.SeverityError,
		},
	}, ReportMetadata{})

	if len(output.Files) != 1 {
		t.Fatalf("got %d files, want 1", len(output.Files))
	}
	group := output.Files[0]
	if group.File != "src/Program.cs" {
		t.Errorf("file = %q, want src/Program.cs", group.File)
	}
	if len(group.Violations) != 2 {
		t.Fatalf("got %d violations, want 2", len(group.Violations))
	}
	// Within a file, violations come back in line order.
	if group.Violations[0].Location.Start.Line != 5 || group.Violations[1].Location.Start.Line != 10 {
		t.Errorf("violations out of order: lines %d, %d",
			group.Violations[0].Location.Start.Line, group.Violations[1].Location.Start.Line)
	}

	if output.Summary.Total != 2 {
		t.Errorf("Summary.Total = %d, want 2", output.Summary.Total)
	}
	if output.Summary.Errors != 1 {
		t.Errorf("Summary.Errors = %d, want 1", output.Summary.Errors)
	}
	if output.Summary.Warnings != 1 {
		t.Errorf("Summary.Warnings = %d, want 1", output.Summary.Warnings)
	}
}

func TestJSONReporterMultipleFiles(t *testing.T) {
	t.Parallel()
	output := jsonReport(t, []rules.Violation{
		{
			Location: rules.Location{File: "src/Widget.cs", Start: rules.Position{Line: 1, Column: 0}},
			RuleCode: "trivet/bracket-spacing",
			Message:  "Test",
			Severity: rules.SeverityWarning,
		},
		{
			Location: rules.Location{File: "src/Program.cs", Start: rules.Position{Line: 1, Column: 0}},
			RuleCode: "trivet/attribute-brackets",
			Message:  "Test",
			Severity: rules.SeverityError,
		},
		{
			Location: rules.Location{File: "src/Widget.cs", Start: rules.Position{Line: 5, Column: 0}},
			RuleCode: "trivet/comment-spacing",
			Message:  "Test",
			Severity: rules.SeverityInfo,
		},
	}, ReportMetadata{})

	if len(output.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(output.Files))
	}
	if output.Files[0].File != "src/Program.cs" || output.Files[1].File != "src/Widget.cs" {
		t.Errorf("files out of order: %q, %q", output.Files[0].File, output.Files[1].File)
	}
	if len(output.Files[1].Violations) != 2 {
		t.Errorf("Widget.cs got %d violations, want 2", len(output.Files[1].Violations))
	}

	if output.Summary.Total != 3 {
		t.Errorf("Summary.Total = %d, want 3", output.Summary.Total)
	}
	if output.Summary.Files != 2 {
		t.Errorf("Summary.Files = %d, want 2", output.Summary.Files)
	}
}

func TestJSONReporterEmpty(t *testing.T) {
	t.Parallel()
	output := jsonReport(t, nil, ReportMetadata{})

	// files must decode as an empty array, never null.
	if output.Files == nil {
		t.Error("files was null, want []")
	}
	if output.Summary.Total != 0 {
		t.Errorf("Summary.Total = %d, want 0", output.Summary.Total)
	}
}

func TestJSONReporterMetadata(t *testing.T) {
	t.Parallel()
	output := jsonReport(t, nil, ReportMetadata{FilesScanned: 42, RulesEnabled: 17})

	if output.FilesScanned != 42 {
		t.Errorf("FilesScanned = %d, want 42", output.FilesScanned)
	}
	if output.RulesEnabled != 17 {
		t.Errorf("RulesEnabled = %d, want 17", output.RulesEnabled)
	}
}
