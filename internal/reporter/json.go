package reporter

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"io"
	"path/filepath"

	"github.com/wharflab/trivet/internal/rules"
)

// JSONOutput is the top-level shape of JSON output.
type JSONOutput struct {
	// Files contains results grouped by file.
	Files []FileResult `json:"files"`
	// Summary contains aggregate statistics.
	Summary Summary `json:"summary"`
	// FilesScanned is the total number of files scanned.
	FilesScanned int `json:"files_scanned"`
	// RulesEnabled is the total number of rules that were active.
	RulesEnabled int `json:"rules_enabled"`
}

// FileResult is one file's violations.
type FileResult struct {
	File       string            `json:"file"`
	Violations []rules.Violation `json:"violations"`
}

// Summary aggregates violation counts by severity.
type Summary struct {
	Total    int `json:"total"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
	Style    int `json:"style"`
	Files    int `json:"files"`
}

// JSONReporter writes the whole run as one indented JSON document.
type JSONReporter struct {
	writer io.Writer
}

// NewJSONReporter creates a JSON reporter.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{writer: w}
}

// Report implements Reporter.
func (r *JSONReporter) Report(violations []rules.Violation, _ map[string][]byte, metadata ReportMetadata) error {
	files := groupByFile(violations)

	output := JSONOutput{
		Files:        files,
		Summary:      summarize(violations, len(files)),
		FilesScanned: metadata.FilesScanned,
		RulesEnabled: metadata.RulesEnabled,
	}

	if err := json.MarshalWrite(
		r.writer,
		output,
		jsontext.EscapeForHTML(true),
		jsontext.WithIndentPrefix(""),
		jsontext.WithIndent("  "),
	); err != nil {
		return err
	}
	_, err := io.WriteString(r.writer, "\n")
	return err
}

// groupByFile buckets violations per slash-normalized file path, files and
// violations both in canonical sort order. Sorting first makes equal paths
// contiguous, so one pass suffices.
func groupByFile(violations []rules.Violation) []FileResult {
	normalized := make([]rules.Violation, len(violations))
	for i, v := range violations {
		v.Location.File = filepath.ToSlash(v.Location.File)
		normalized[i] = v
	}

	files := make([]FileResult, 0)
	for _, v := range SortViolations(normalized) {
		if n := len(files); n == 0 || files[n-1].File != v.Location.File {
			files = append(files, FileResult{File: v.Location.File})
		}
		last := &files[len(files)-1]
		last.Violations = append(last.Violations, v)
	}
	return files
}

// summarize tallies violations by severity. Off is not counted: those are
// filtered out before reporting.
func summarize(violations []rules.Violation, fileCount int) Summary {
	summary := Summary{
		Total: len(violations),
		Files: fileCount,
	}

	for _, v := range violations {
		switch v.Severity {
		case rules.SeverityError:
			summary.Errors++
		case rules.SeverityWarning:
			summary.Warnings++
		case rules.SeverityInfo:
			summary.Info++
		case rules.SeverityStyle:
			summary.Style++
		case rules.SeverityOff:
		}
	}

	return summary
}
