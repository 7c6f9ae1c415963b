package reporter

import (
	"io"
	"maps"
	"path/filepath"
	"slices"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/wharflab/trivet/internal/rules"
)

// Fallback tool identity when the caller supplies none.
const (
	defaultToolName = "trivet"
	defaultToolURI  = "https://github.com/wharflab/trivet"
)

// SARIFReporter emits SARIF 2.1.0, the interchange format GitHub Code
// Scanning and Azure DevOps ingest.
//
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/
type SARIFReporter struct {
	writer      io.Writer
	toolName    string
	toolVersion string
	toolURI     string
}

// NewSARIFReporter creates a SARIF reporter. Empty toolName and toolURI
// fall back to the trivet defaults.
func NewSARIFReporter(w io.Writer, toolName, toolVersion, toolURI string) *SARIFReporter {
	if toolName == "" {
		toolName = defaultToolName
	}
	if toolURI == "" {
		toolURI = defaultToolURI
	}
	return &SARIFReporter{
		writer:      w,
		toolName:    toolName,
		toolVersion: toolVersion,
		toolURI:     toolURI,
	}
}

// Report implements Reporter.
func (r *SARIFReporter) Report(violations []rules.Violation, _ map[string][]byte, _ ReportMetadata) error {
	report := sarif.NewReport()

	run := sarif.NewRunWithInformationURI(r.toolName, r.toolURI)
	if r.toolVersion != "" {
		run.Tool.Driver.WithVersion(r.toolVersion)
	}

	declareRules(run, violations)
	declareArtifacts(run, violations)

	for _, v := range violations {
		run.AddResult(resultFor(v))
	}

	report.AddRun(run)
	return report.PrettyWrite(r.writer)
}

// declareRules registers each rule code once, sorted, carrying the
// description and doc link from the first violation that mentioned it.
func declareRules(run *sarif.Run, violations []rules.Violation) {
	exemplar := make(map[string]rules.Violation)
	for _, v := range violations {
		if _, ok := exemplar[v.RuleCode]; !ok {
			exemplar[v.RuleCode] = v
		}
	}

	for _, code := range slices.Sorted(maps.Keys(exemplar)) {
		v := exemplar[code]
		rule := run.AddRule(code)
		if v.Detail != "" {
			rule.WithShortDescription(sarif.NewMultiformatMessageString().WithText(v.Detail))
		}
		if v.DocURL != "" {
			rule.WithHelpURI(v.DocURL)
		}
	}
}

// declareArtifacts registers each referenced file once, sorted, with
// slash-form URIs.
func declareArtifacts(run *sarif.Run, violations []rules.Violation) {
	files := make(map[string]struct{})
	for _, v := range violations {
		files[filepath.ToSlash(v.Location.File)] = struct{}{}
	}
	for _, file := range slices.Sorted(maps.Keys(files)) {
		run.AddDistinctArtifact(file)
	}
}

// resultFor converts one violation into a SARIF result.
func resultFor(v rules.Violation) *sarif.Result {
	result := sarif.NewRuleResult(v.RuleCode).
		WithMessage(sarif.NewTextMessage(v.Message)).
		WithLevel(severityToSARIFLevel(v.Severity))

	physical := sarif.NewPhysicalLocation().
		WithArtifactLocation(sarif.NewSimpleArtifactLocation(filepath.ToSlash(v.Location.File)))
	if !v.Location.IsFileLevel() {
		physical.WithRegion(regionFor(v))
	}

	result.WithLocations([]*sarif.Location{
		sarif.NewLocationWithPhysicalLocation(physical),
	})
	return result
}

// regionFor builds the region for a non-file-level violation. Internal
// columns are 0-based; SARIF wants 1-based.
func regionFor(v rules.Violation) *sarif.Region {
	region := sarif.NewRegion().WithStartLine(v.Location.Start.Line)
	if v.Location.Start.Column >= 0 {
		region.WithStartColumn(v.Location.Start.Column + 1)
	}

	if !v.Location.IsPointLocation() && v.Location.End.Line > 0 {
		region.WithEndLine(v.Location.End.Line)
		if v.Location.End.Column >= 0 {
			region.WithEndColumn(v.Location.End.Column + 1)
		}
	}

	if v.SourceCode != "" {
		region.WithSnippet(sarif.NewArtifactContent().WithText(v.SourceCode))
	}
	return region
}

// SARIF defines four levels; "none" is unused here.
const (
	sarifLevelError   = "error"
	sarifLevelWarning = "warning"
	sarifLevelNote    = "note"
)

// severityToSARIFLevel maps internal severities onto SARIF levels. Info
// and style both land on "note"; anything unrecognized reports as a
// warning rather than being dropped.
func severityToSARIFLevel(s rules.Severity) string {
	switch s {
	case rules.SeverityError:
		return sarifLevelError
	case rules.SeverityWarning:
		return sarifLevelWarning
	case rules.SeverityInfo, rules.SeverityStyle, rules.SeverityOff:
		return sarifLevelNote
	default:
		return sarifLevelWarning
	}
}
