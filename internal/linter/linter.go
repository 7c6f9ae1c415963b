// Package linter provides the shared lint pipeline used by both the CLI and the LSP server.
//
// The pipeline: config discovery → file validation → parse → rule execution → violation collection.
// Callers use [LintFile] to run the pipeline and then apply their own processor chain
// (via [CLIProcessors] or [LSPProcessors]) to filter and transform the results.
package linter

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/engine"
	"github.com/wharflab/trivet/internal/fileval"
	"github.com/wharflab/trivet/internal/parser"
	"github.com/wharflab/trivet/internal/rules"
	_ "github.com/wharflab/trivet/internal/rules/all" // Register all rules.
	"github.com/wharflab/trivet/internal/rules/fixes"
	"github.com/wharflab/trivet/internal/sourcemap"
	"github.com/wharflab/trivet/internal/syntax"
)

// Level is a log level for the Channel interface.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Channel receives diagnostic output from the lint/fix pipeline.
// Implementations map to environment-specific UX (LSP notifications, CLI stderr, etc.).
type Channel interface {
	Log(level Level, msg string)
	Progress(title string, pct int) // -1 = indeterminate
	Warn(msg string)
}

// Input configures a single invocation of [LintFile].
type Input struct {
	// FilePath is used for config discovery and violation locations.
	FilePath string

	// Content is the file content to lint. If nil, LintFile reads from FilePath.
	Content []byte

	// Config is the resolved configuration. If nil, LintFile loads from FilePath.
	Config *config.Config

	// Channel receives progress and diagnostic output. Nil means silent.
	Channel Channel
}

// Result contains the output of [LintFile].
type Result struct {
	// Violations are raw violations before processor filtering.
	Violations []rules.Violation

	// Tree is the parsed syntax tree for the file.
	Tree *syntax.Tree

	// Config is the resolved config (loaded or passed in via Input).
	Config *config.Config

	// Incomplete is set when analysis was cut short by cancellation and
	// Violations covers only part of the file.
	Incomplete bool
}

// LintFile runs the full lint pipeline for one file.
// It returns raw violations before processor filtering.
//
// On cancellation the partial result collected so far is returned together
// with the context error, so callers can still surface what was found.
func LintFile(ctx context.Context, input Input) (*Result, error) {
	cfg := input.Config
	if cfg == nil {
		var err error
		cfg, err = config.Load(input.FilePath)
		if err != nil {
			warn(input.Channel, fmt.Sprintf("config load error for %s: %v", input.FilePath, err))
			cfg = config.Default()
		}
	}

	content := input.Content
	if content == nil {
		if err := fileval.ValidateFile(input.FilePath, cfg.FileValidation.MaxFileSize); err != nil {
			return nil, err
		}
		var err error
		content, err = os.ReadFile(input.FilePath)
		if err != nil {
			return nil, err
		}
	} else if err := fileval.ValidateBytes(input.FilePath, content, cfg.FileValidation.MaxFileSize); err != nil {
		return nil, err
	}

	tree, err := parser.Parse(string(content))
	if err != nil {
		return nil, err
	}

	// Editorconfig defaults are resolved once per file: they gate two
	// whitespace rules and seed the indentation style.
	defaults := cfg.FileDefaultsFor(input.FilePath)

	reg := rules.NewRegistry()
	for _, rule := range enabledRulesFor(cfg, defaults) {
		reg.Register(rule)
	}

	analyzer := engine.New(reg, ruleConfigsFor(cfg, defaults))
	res, analyzeErr := analyzer.Analyze(ctx, tree)

	violations := violationsFromDiagnostics(input.FilePath, res.Diagnostics, sourcemap.New(content), reg)
	fixes.Enrich(violations, content)

	return &Result{
		Violations: violations,
		Tree:       tree,
		Config:     cfg,
		Incomplete: res.Incomplete,
	}, analyzeErr
}

// violationsFromDiagnostics converts engine diagnostics to violations,
// resolving messages, severities and doc links through the rule descriptors.
func violationsFromDiagnostics(
	filePath string,
	diags []rules.Diagnostic,
	sm *sourcemap.SourceMap,
	reg *rules.Registry,
) []rules.Violation {
	violations := make([]rules.Violation, 0, len(diags))
	for _, d := range diags {
		desc, ok := descriptorFor(d, reg)
		if !ok {
			continue
		}

		startLine, startCol := sm.PositionFor(int(d.Span.Start))
		endLine, endCol := sm.PositionFor(int(d.Span.End))
		loc := rules.Location{
			File:  filePath,
			Start: rules.Position{Line: startLine + 1, Column: startCol},
			End:   rules.Position{Line: endLine + 1, Column: endCol},
		}

		v := rules.NewViolation(loc, d.Code, desc.Message(d.Args), desc.DefaultSeverity)
		if desc.Description != "" {
			v = v.WithDetail(desc.Description)
		}
		if desc.DocURL != "" {
			v = v.WithDocURL(desc.DocURL)
		}
		violations = append(violations, v)
	}
	return violations
}

// descriptorFor resolves the descriptor a diagnostic should be rendered
// with: the reporting rule's for rule diagnostics, the engine's for
// internal ones.
func descriptorFor(d rules.Diagnostic, reg *rules.Registry) (rules.Descriptor, bool) {
	if d.Kind == rules.DiagnosticInternal {
		if d.Code == engine.RuleFailureCode {
			return engine.RuleFailureDescriptor, true
		}
		return rules.Descriptor{}, false
	}
	rule := reg.Get(d.Code)
	if rule == nil {
		return rules.Descriptor{}, false
	}
	return rule.Descriptor(), true
}

// warn sends msg to the channel, falling back to the process log when the
// caller did not provide one.
func warn(ch Channel, msg string) {
	if ch != nil {
		ch.Warn(msg)
		return
	}
	log.Printf("linter: %s", msg)
}
