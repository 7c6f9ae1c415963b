// Package reporter turns lint violations into output.
//
// Five formats are wired in: colored terminal text, JSON, SARIF 2.1.0,
// GitHub Actions workflow commands, and markdown tables. "auto" resolves
// to workflow commands inside a GitHub Actions job and text elsewhere.
package reporter

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/gkampitakis/ciinfo"

	"github.com/wharflab/trivet/internal/rules"
)

// ReportMetadata carries run-level context some formats include alongside
// the violations themselves.
type ReportMetadata struct {
	// FilesScanned is the total number of files that were scanned.
	FilesScanned int
	// RulesEnabled is the number of rules that were active (not "off").
	RulesEnabled int
}

// Reporter writes violations to an output in one concrete format.
type Reporter interface {
	Report(violations []rules.Violation, sources map[string][]byte, metadata ReportMetadata) error
}

// SortViolations returns a stably-sorted copy ordered by file, start line,
// start column, then rule code. Every reporter that needs deterministic
// output goes through this.
func SortViolations(violations []rules.Violation) []rules.Violation {
	sorted := slices.Clone(violations)
	slices.SortStableFunc(sorted, func(a, b rules.Violation) int {
		if c := strings.Compare(a.Location.File, b.Location.File); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Location.Start.Line, b.Location.Start.Line); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Location.Start.Column, b.Location.Start.Column); c != 0 {
			return c
		}
		return strings.Compare(a.RuleCode, b.RuleCode)
	})
	return sorted
}

// Format names an output format.
type Format string

const (
	// FormatText is human-readable terminal output.
	FormatText Format = "text"
	// FormatJSON is machine-readable JSON output.
	FormatJSON Format = "json"
	// FormatSARIF is the Static Analysis Results Interchange Format.
	FormatSARIF Format = "sarif"
	// FormatGitHubActions is GitHub Actions workflow command output.
	FormatGitHubActions Format = "github-actions"
	// FormatMarkdown is concise markdown tables for AI agents.
	FormatMarkdown Format = "markdown"
)

// isCI is ciinfo's verdict, split out so tests can pin it.
var isCI = ciinfo.IsCI

// resolveAutoFormat picks the concrete format for "auto".
func resolveAutoFormat() Format {
	if isCI && os.Getenv("GITHUB_ACTIONS") == "true" {
		return FormatGitHubActions
	}
	return FormatText
}

// formatNames maps accepted --format values, including aliases, onto
// formats. "auto" and "" are handled separately.
var formatNames = map[string]Format{
	"text":           FormatText,
	"json":           FormatJSON,
	"sarif":          FormatSARIF,
	"github-actions": FormatGitHubActions,
	"github":         FormatGitHubActions,
	"markdown":       FormatMarkdown,
	"md":             FormatMarkdown,
}

// ParseFormat resolves a format name from the command line or config.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "":
		return FormatText, nil
	case "auto":
		return resolveAutoFormat(), nil
	}
	if f, ok := formatNames[s]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown format: %q (valid: text, auto, json, sarif, github-actions, markdown)", s)
}

// Options configures reporter creation.
type Options struct {
	// Format specifies the output format.
	Format Format

	// Writer is the output destination.
	Writer io.Writer

	// Color enables or disables colored output (text format only).
	// nil means auto-detect.
	Color *bool

	// ShowSource enables source code snippets (text format only).
	ShowSource bool

	// ToolVersion is included in SARIF output.
	ToolVersion string

	// ToolName is the tool name for SARIF output.
	ToolName string

	// ToolURI is the tool information URI for SARIF output.
	ToolURI string
}

// DefaultOptions returns the defaults the CLI starts from.
func DefaultOptions() Options {
	return Options{
		Format:      FormatText,
		Writer:      os.Stdout,
		Color:       nil, // auto-detect
		ShowSource:  true,
		ToolName:    "trivet",
		ToolURI:     "https://github.com/wharflab/trivet",
		ToolVersion: "dev",
	}
}

// New builds the reporter for opts.Format. A nil writer falls back to
// stdout.
func New(opts Options) (Reporter, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch opts.Format {
	case FormatText, "":
		return newTextAdapter(opts), nil
	case FormatJSON:
		return NewJSONReporter(opts.Writer), nil
	case FormatSARIF:
		return NewSARIFReporter(opts.Writer, opts.ToolName, opts.ToolVersion, opts.ToolURI), nil
	case FormatGitHubActions:
		return NewGitHubActionsReporter(opts.Writer), nil
	case FormatMarkdown:
		return NewMarkdownReporter(opts.Writer), nil
	default:
		return nil, fmt.Errorf("unknown format: %q", opts.Format)
	}
}

// textAdapter bridges TextReporter's Print signature to the Reporter
// interface.
type textAdapter struct {
	reporter *TextReporter
	writer   io.Writer
}

func newTextAdapter(opts Options) *textAdapter {
	return &textAdapter{
		reporter: NewTextReporter(TextOptions{
			Color: opts.Color,
			// Highlighting follows the color setting; auto-detected
			// color means highlighting stays on.
			SyntaxHighlight: opts.Color == nil || *opts.Color,
			ShowSource:      opts.ShowSource,
		}),
		writer: opts.Writer,
	}
}

// Report implements Reporter.
func (a *textAdapter) Report(violations []rules.Violation, sources map[string][]byte, _ ReportMetadata) error {
	return a.reporter.Print(a.writer, violations, sources)
}

// GetWriter resolves an output destination: "stdout" or the empty string,
// "stderr", or a file path that will be created. The second return closes
// the destination.
func GetWriter(path string) (io.Writer, func() error, error) {
	switch path {
	case "stdout", "":
		return os.Stdout, func() error { return nil }, nil
	case "stderr":
		return os.Stderr, func() error { return nil }, nil
	default:
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		return f, f.Close, nil
	}
}
