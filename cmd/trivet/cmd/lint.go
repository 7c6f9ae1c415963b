package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/trivet/internal/cache"
	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/discovery"
	"github.com/wharflab/trivet/internal/fix"
	"github.com/wharflab/trivet/internal/lint"
	"github.com/wharflab/trivet/internal/linter"
	"github.com/wharflab/trivet/internal/processor"
	"github.com/wharflab/trivet/internal/reporter"
	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/version"
)

// Exit codes
const (
	ExitSuccess     = 0 // No violations (or below fail-level threshold)
	ExitViolations  = 1 // Violations found at or above fail-level
	ExitConfigError = 2 // Parse or config error
	ExitNoFiles     = 3 // No C# files found (missing file, empty glob, empty directory)
)

func lintCommand() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Lint C# source file(s) for style issues",
		ArgsUsage: "[PATH...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: auto-discover)",
			},
			&cli.IntFlag{
				Name:    "max-lines",
				Aliases: []string{"l"},
				Usage:   "Maximum number of lines allowed (0 = unlimited)",
				Sources: cli.EnvVars("TRIVET_RULES_MAX_LINES_MAX"),
			},
			&cli.BoolFlag{
				Name:    "skip-blank-lines",
				Usage:   "Exclude blank lines from the line count",
				Sources: cli.EnvVars("TRIVET_RULES_MAX_LINES_SKIP_BLANK_LINES"),
			},
			&cli.BoolFlag{
				Name:    "skip-comments",
				Usage:   "Exclude comment lines from the line count",
				Sources: cli.EnvVars("TRIVET_RULES_MAX_LINES_SKIP_COMMENTS"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, sarif, github-actions, markdown",
				Sources: cli.EnvVars("TRIVET_FORMAT", "TRIVET_OUTPUT_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path: stdout, stderr, or file path",
				Sources: cli.EnvVars("TRIVET_OUTPUT_PATH"),
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Usage:   "Disable colored output",
				Sources: cli.EnvVars("NO_COLOR"),
			},
			&cli.BoolFlag{
				Name:    "show-source",
				Usage:   "Show source code snippets (default: true)",
				Value:   true,
				Sources: cli.EnvVars("TRIVET_OUTPUT_SHOW_SOURCE"),
			},
			&cli.BoolFlag{
				Name:  "hide-source",
				Usage: "Hide source code snippets",
			},
			&cli.StringFlag{
				Name:    "fail-level",
				Usage:   "Minimum severity to cause non-zero exit: error, warning, info, style, none",
				Sources: cli.EnvVars("TRIVET_OUTPUT_FAIL_LEVEL"),
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Usage:   "Glob pattern to exclude files (can be repeated)",
				Sources: cli.EnvVars("TRIVET_EXCLUDE"),
			},
			&cli.StringSliceFlag{
				Name:    "select",
				Usage:   "Enable specific rules (pattern: rule-code, namespace/*, *)",
				Sources: cli.EnvVars("TRIVET_RULES_SELECT"),
			},
			&cli.StringSliceFlag{
				Name:    "ignore",
				Usage:   "Disable specific rules (pattern: rule-code, namespace/*, *)",
				Sources: cli.EnvVars("TRIVET_RULES_IGNORE"),
			},
			&cli.StringFlag{
				Name:  "diff",
				Usage: "Only report violations on lines changed in a unified diff file (\"-\" reads stdin)",
			},
			&cli.BoolFlag{
				Name:    "fix",
				Usage:   "Apply all safe fixes automatically",
				Sources: cli.EnvVars("TRIVET_FIX"),
			},
			&cli.StringSliceFlag{
				Name:    "fix-rule",
				Usage:   "Only fix specific rules (can be repeated)",
				Sources: cli.EnvVars("TRIVET_FIX_RULE"),
			},
			&cli.BoolFlag{
				Name:    "fix-unsafe",
				Usage:   "Also apply suggestion/unsafe fixes (requires --fix)",
				Sources: cli.EnvVars("TRIVET_FIX_UNSAFE"),
			},
			&cli.BoolFlag{
				Name:    "no-cache",
				Usage:   "Disable the result cache",
				Sources: cli.EnvVars("TRIVET_NO_CACHE"),
			},
			&cli.StringFlag{
				Name:    "cache-dir",
				Usage:   "Result cache directory (default: user cache dir)",
				Sources: cli.EnvVars("TRIVET_CACHE_DIR"),
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Number of files linted concurrently (default: number of CPUs)",
				Sources: cli.EnvVars("TRIVET_JOBS"),
			},
		},
		Action: runLint,
	}
}

// runLint is the action handler for the lint command.
func runLint(ctx context.Context, cmd *cli.Command) error {
	inputs := cmd.Args().Slice()
	if len(inputs) == 0 {
		inputs = []string{"."}
	}

	// Discover files using the discovery package
	discoveryOpts := discovery.Options{
		Patterns:        discovery.DefaultPatterns(),
		ExcludePatterns: cmd.StringSlice("exclude"),
	}

	discovered, err := discovery.Discover(inputs, discoveryOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to discover files: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	if len(discovered) == 0 {
		reportNoFilesFound(inputs)
		return cli.Exit("", ExitNoFiles)
	}

	paths := make([]string, len(discovered))
	for i, df := range discovered {
		paths[i] = df.Path
	}

	changed, err := loadChangedLines(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read diff: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	overrides := buildConfigOverrides(cmd)

	cfg, err := runConfig(cmd, paths[0], overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	opts := lint.Options{
		Cache:        openCache(cmd, cfg),
		Version:      version.RawVersion(),
		ChangedLines: changed,
		Jobs:         cmd.Int("jobs"),
		Channel:      stderrChannel{},
	}
	// An explicit --config applies to every file; otherwise each file
	// discovers its own config and the flag overrides layer on top.
	if cmd.String("config") != "" {
		opts.Config = cfg
	} else {
		opts.ConfigOverrides = overrides
	}

	summary, err := lint.Run(ctx, paths, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	for _, fe := range summary.Errors {
		fmt.Fprintf(os.Stderr, "Error: %v\n", fe)
	}

	violations := summary.Violations

	// Apply fixes if --fix flag is set
	if cmd.Bool("fix-unsafe") && !cmd.Bool("fix") {
		fmt.Fprintf(os.Stderr, "Warning: --fix-unsafe has no effect without --fix\n")
	}
	if cmd.Bool("fix") {
		fixResult, fixErr := applyFixes(cmd, violations, summary.FileSources, summary.FileConfigs)
		if fixErr != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to apply fixes: %v\n", fixErr)
			return cli.Exit("", ExitConfigError)
		}

		if fixResult.TotalApplied() > 0 {
			fmt.Fprintf(os.Stderr, "Fixed %d issues in %d files\n",
				fixResult.TotalApplied(), fixResult.FilesModified())
		}
		if fixResult.TotalSkipped() > 0 {
			fmt.Fprintf(os.Stderr, "Skipped %d fixes\n", fixResult.TotalSkipped())
			reportSkippedFixes(fixResult)
		}

		violations = filterFixedViolations(violations, fixResult)
	}

	reportErr := writeReport(cmd, cfg, violations, summary.FileSources, len(paths))
	if len(summary.Errors) > 0 {
		// Files that could not be linted beat a clean (or violations-only)
		// report: the run did not cover everything the user asked for.
		return cli.Exit("", ExitConfigError)
	}
	return reportErr
}

// stderrChannel routes pipeline warnings to stderr. Progress and debug
// output have no CLI surface.
type stderrChannel struct{}

func (stderrChannel) Log(linter.Level, string) {}

func (stderrChannel) Progress(string, int) {}

func (stderrChannel) Warn(msg string) {
	fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
}

// runConfig resolves the configuration that drives run-level settings
// (cache, output). Per-file rule configuration is resolved inside the
// runner; this is only the run's view of it, taken from the first file.
func runConfig(cmd *cli.Command, firstPath string, overrides map[string]any) (*config.Config, error) {
	if configPath := cmd.String("config"); configPath != "" {
		return config.LoadFromFileWithOverrides(configPath, overrides)
	}
	cfg, err := config.LoadWithOverrides(firstPath, overrides, config.ConfigurationPreferenceEditorFirst)
	if err != nil {
		// The runner falls back to defaults (with a warning) for files
		// whose config fails to load; run-level settings do the same.
		return config.Default(), nil
	}
	return cfg, nil
}

// buildConfigOverrides translates lint flags into the nested config-file
// shape so they layer over file and environment values the same way editor
// settings do. Slice values replace, never append: --select and --ignore
// stand in for the config file's include/exclude lists.
func buildConfigOverrides(cmd *cli.Command) map[string]any {
	ruleOverrides := make(map[string]any)

	if cmd.IsSet("select") {
		ruleOverrides["include"] = cmd.StringSlice("select")
	}
	if cmd.IsSet("ignore") {
		ruleOverrides["exclude"] = cmd.StringSlice("ignore")
	}

	maxLines := make(map[string]any)
	if cmd.IsSet("max-lines") {
		maxLines["max"] = cmd.Int("max-lines")
	}
	if cmd.IsSet("skip-blank-lines") {
		maxLines["skip-blank-lines"] = cmd.Bool("skip-blank-lines")
	}
	if cmd.IsSet("skip-comments") {
		maxLines["skip-comments"] = cmd.Bool("skip-comments")
	}
	if len(maxLines) > 0 {
		ruleOverrides["trivet"] = map[string]any{"max-lines": maxLines}
	}

	if len(ruleOverrides) == 0 {
		return nil
	}
	return map[string]any{"rules": ruleOverrides}
}

// loadChangedLines reads the unified diff named by --diff ("-" means stdin)
// and returns the changed-lines index for the diff filter.
func loadChangedLines(cmd *cli.Command) (processor.ChangedLines, error) {
	diffPath := cmd.String("diff")
	if diffPath == "" {
		return nil, nil
	}
	if diffPath == "-" {
		return processor.ParseChangedLines(os.Stdin)
	}
	f, err := os.Open(diffPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return processor.ParseChangedLines(f)
}

// openCache opens the result cache honoring --no-cache and --cache-dir.
// A cache that cannot be opened degrades to uncached linting with a warning.
func openCache(cmd *cli.Command, cfg *config.Config) *cache.Cache {
	if cmd.Bool("no-cache") {
		return nil
	}
	if cfg != nil && !cfg.Cache.Enabled {
		return nil
	}

	dir := cmd.String("cache-dir")
	if dir == "" && cfg != nil {
		dir = cfg.Cache.Dir
	}
	if dir == "" {
		var err error
		dir, err = cache.DefaultDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cache disabled: %v\n", err)
			return nil
		}
	}

	c, err := cache.Open(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cache disabled: %v\n", err)
		return nil
	}
	return c
}

// writeReport formats and writes the violation report.
func writeReport(
	cmd *cli.Command, cfg *config.Config, violations []rules.Violation,
	fileSources map[string][]byte, filesScanned int,
) error {
	outCfg := getOutputConfig(cmd, cfg)

	formatType, err := reporter.ParseFormat(outCfg.format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	writer, closeWriter, err := reporter.GetWriter(outCfg.path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}
	defer func() {
		if err := closeWriter(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close output: %v\n", err)
		}
	}()

	opts := reporter.Options{
		Format:      formatType,
		Writer:      writer,
		ShowSource:  outCfg.showSource,
		ToolName:    "trivet",
		ToolVersion: version.Version(),
		ToolURI:     "https://github.com/wharflab/trivet",
	}

	if cmd.IsSet("no-color") && cmd.Bool("no-color") {
		noColor := false
		opts.Color = &noColor
	}

	rep, err := reporter.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create reporter: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	rulesEnabled := len(linter.EnabledRuleCodes(cfg))
	metadata := reporter.ReportMetadata{
		FilesScanned: filesScanned,
		RulesEnabled: rulesEnabled,
	}

	if err := rep.Report(violations, fileSources, metadata); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to write output: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	exitCode := determineExitCode(violations, outCfg.failLevel)
	if exitCode != ExitSuccess {
		return cli.Exit("", exitCode)
	}

	return nil
}

// outputConfig holds output configuration values.
type outputConfig struct {
	format     string
	path       string
	showSource bool
	failLevel  string
}

// getOutputConfig returns output configuration from CLI flags and config.
func getOutputConfig(cmd *cli.Command, cfg *config.Config) outputConfig {
	// Start with defaults
	oc := outputConfig{
		format:     "text",
		path:       "stdout",
		showSource: true,
		failLevel:  "style",
	}

	if cfg != nil {
		// Apply config values
		if cfg.Output.Format != "" {
			oc.format = cfg.Output.Format
		}

		if cfg.Output.Path != "" {
			oc.path = cfg.Output.Path
		}

		oc.showSource = cfg.Output.ShowSource

		if cfg.Output.FailLevel != "" {
			oc.failLevel = cfg.Output.FailLevel
		}
	}

	// CLI flags take precedence
	if cmd.IsSet("format") {
		oc.format = cmd.String("format")
	}

	if cmd.IsSet("output") {
		oc.path = cmd.String("output")
	}

	if cmd.IsSet("show-source") {
		oc.showSource = cmd.Bool("show-source")
	}

	if cmd.IsSet("hide-source") && cmd.Bool("hide-source") {
		oc.showSource = false
	}

	if cmd.IsSet("fail-level") {
		oc.failLevel = cmd.String("fail-level")
	}

	return oc
}

// determineExitCode returns the appropriate exit code based on violations and fail-level.
func determineExitCode(violations []rules.Violation, failLevel string) int {
	// "none" means never fail due to violations
	if failLevel == "none" {
		return ExitSuccess
	}

	// Parse fail-level first to catch config errors even with no violations
	threshold, err := parseFailLevel(failLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --fail-level %q\n", failLevel)
		return ExitConfigError
	}

	if len(violations) == 0 {
		return ExitSuccess
	}

	// Check if any violation meets or exceeds the threshold
	for _, v := range violations {
		if v.Severity.IsAtLeast(threshold) {
			return ExitViolations
		}
	}

	return ExitSuccess
}

// parseFailLevel parses a fail-level string to a Severity.
func parseFailLevel(level string) (rules.Severity, error) {
	switch level {
	case "", "style":
		// Default to "style" (any violation fails)
		return rules.SeverityStyle, nil
	default:
		return rules.ParseSeverity(level)
	}
}

// applyFixes applies automatic fixes to violations that have suggested fixes.
// fileConfigs maps file paths to their per-file configs (for per-file fix modes).
func applyFixes(
	cmd *cli.Command,
	violations []rules.Violation,
	sources map[string][]byte,
	fileConfigs map[string]*config.Config,
) (*fix.Result, error) {
	// Determine safety threshold
	safetyThreshold := fix.FixSafe
	if cmd.Bool("fix-unsafe") {
		safetyThreshold = fix.FixUnsafe
	}

	fixer := &fix.Fixer{
		SafetyThreshold: safetyThreshold,
		RuleFilter:      cmd.StringSlice("fix-rule"),
		FixModes:        buildPerFileFixModes(fileConfigs),
	}

	result := fixer.Apply(violations, sources)

	// Write modified files (preserve original permissions)
	for _, fc := range result.Changes {
		if !fc.HasChanges() {
			continue
		}
		mode := os.FileMode(0o644)
		if info, err := os.Stat(fc.Path); err == nil {
			mode = info.Mode().Perm()
		}
		if err := os.WriteFile(fc.Path, fc.ModifiedContent, mode); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", fc.Path, err)
		}
	}

	return result, nil
}

// buildPerFileFixModes builds a per-file map of fix modes from fileConfigs.
// Returns map[filePath]map[ruleCode]FixMode.
func buildPerFileFixModes(fileConfigs map[string]*config.Config) map[string]map[string]fix.FixMode {
	result := make(map[string]map[string]fix.FixMode)
	for filePath, cfg := range fileConfigs {
		if cfg == nil {
			continue
		}
		modes := fix.BuildFixModes(cfg)
		if len(modes) > 0 {
			result[filepath.Clean(filePath)] = modes
		}
	}
	return result
}

// reportSkippedFixes prints summary notes for skipped fixes.
func reportSkippedFixes(result *fix.Result) {
	if result == nil || result.TotalSkipped() == 0 {
		return
	}

	counts := make(map[fix.SkipReason]int)
	for _, fc := range result.Changes {
		if fc == nil {
			continue
		}
		for _, s := range fc.FixesSkipped {
			counts[s.Reason]++
		}
	}

	if n := counts[fix.SkipSafety]; n > 0 {
		fmt.Fprintf(os.Stderr, "note: %d fix(es) skipped (below safety threshold; use --fix-unsafe to apply)\n", n)
	}
	if n := counts[fix.SkipConflict]; n > 0 {
		fmt.Fprintf(os.Stderr, "note: %d fix(es) skipped (conflict with an earlier fix; re-run to apply)\n", n)
	}
	if n := counts[fix.SkipFixMode]; n > 0 {
		fmt.Fprintf(os.Stderr, "note: %d fix(es) skipped (disabled by fix mode config)\n", n)
	}
	if n := counts[fix.SkipNoEdits] + counts[fix.SkipInvalidEdit]; n > 0 {
		fmt.Fprintf(os.Stderr, "note: %d fix(es) skipped (invalid suggested edits)\n", n)
	}
}

// filterFixedViolations removes violations that were fixed from the list.
func filterFixedViolations(violations []rules.Violation, fixResult *fix.Result) []rules.Violation {
	// Build set of fixed locations (include column to handle multiple violations on same line)
	type locKey struct {
		file string
		line int
		col  int
		code string
	}
	fixed := make(map[locKey]bool)
	for _, fc := range fixResult.Changes {
		for _, af := range fc.FixesApplied {
			fixed[locKey{
				// Use ToSlash for consistent cross-platform path matching
				// Violations use forward slashes (PathNormalization processor)
				file: filepath.ToSlash(fc.Path),
				line: af.Location.Start.Line,
				col:  af.Location.Start.Column,
				code: af.RuleCode,
			}] = true
		}
	}

	// Filter violations
	var remaining []rules.Violation
	for _, v := range violations {
		key := locKey{
			file: filepath.ToSlash(v.File()),
			line: v.Line(),
			col:  v.Location.Start.Column,
			code: v.RuleCode,
		}
		if !fixed[key] {
			remaining = append(remaining, v)
		}
	}
	return remaining
}

// reportNoFilesFound prints a context-aware message when no C# files are found.
func reportNoFilesFound(inputs []string) {
	for _, input := range inputs {
		if discovery.ContainsGlobChars(input) {
			fmt.Fprintf(os.Stderr, "Error: no C# files matched pattern: %s\n", input)
			return
		}
	}

	// For directory inputs, resolve to absolute path so the user knows exactly
	// which directory was scanned.
	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err == nil && info.IsDir() {
			fmt.Fprintf(os.Stderr, "Error: no C# files found in %s\n", abs)
			return
		}
	}

	fmt.Fprintf(os.Stderr, "Error: no C# files found\n")
}
