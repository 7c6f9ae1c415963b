// Package fix turns the suggested fixes attached to violations into file
// edits: it filters them by safety and configuration, drops conflicting
// candidates, and applies the survivors to the original content.
package fix

import (
	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/rules"
)

// FixSafety aliases the rules-package safety level so callers can write
// fix.FixSafe.
type FixSafety = rules.FixSafety

const (
	// FixSafe fixes are always correct and never change behavior.
	FixSafe = rules.FixSafe

	// FixSuggestion fixes are likely correct but worth reviewing.
	FixSuggestion = rules.FixSuggestion

	// FixUnsafe fixes may change behavior.
	FixUnsafe = rules.FixUnsafe
)

// FixMode aliases the config-package fix mode.
type FixMode = config.FixMode

const (
	// FixModeNever disables fixes even with --fix.
	FixModeNever = config.FixModeNever

	// FixModeExplicit requires --fix-rule to apply.
	FixModeExplicit = config.FixModeExplicit

	// FixModeAlways applies with --fix when safety threshold is met (default).
	FixModeAlways = config.FixModeAlways

	// FixModeUnsafeOnly requires --fix-unsafe to apply.
	FixModeUnsafeOnly = config.FixModeUnsafeOnly
)

// AppliedFix records one fix that made it into the output.
type AppliedFix struct {
	// RuleCode identifies the rule the fix came from.
	RuleCode string

	// Description explains what the fix did.
	Description string

	// Location is where the fix was applied.
	Location rules.Location

	// Edits are the fix's text edits. Spans reference the original
	// document content, so they convert directly to LSP TextEdits.
	Edits []rules.TextEdit
}

// SkipReason explains why a fix was left unapplied.
type SkipReason int

const (
	// SkipConflict means the fix overlaps with another fix.
	SkipConflict SkipReason = iota

	// SkipSafety means the fix is below the safety threshold.
	SkipSafety

	// SkipRuleFilter means the rule is not in the --fix-rule list.
	SkipRuleFilter

	// SkipNoEdits means the fix carries no edits.
	SkipNoEdits

	// SkipInvalidEdit means an edit's span falls outside the file.
	SkipInvalidEdit

	// SkipFixMode means the rule's fix mode config disallows fixing.
	SkipFixMode
)

var skipReasonText = [...]string{
	SkipConflict:    "conflicts with another fix",
	SkipSafety:      "below safety threshold",
	SkipRuleFilter:  "rule not selected by --fix-rule",
	SkipNoEdits:     "fix has no edits",
	SkipInvalidEdit: "edit outside file bounds",
	SkipFixMode:     "disabled by fix mode config",
}

func (r SkipReason) String() string {
	if r < 0 || int(r) >= len(skipReasonText) {
		return "unknown reason"
	}
	return skipReasonText[r]
}

// SkippedFix records one fix that could not be applied and why.
type SkippedFix struct {
	// RuleCode identifies the rule the fix came from.
	RuleCode string

	// Reason explains why the fix was skipped.
	Reason SkipReason

	// Location is where the fix would have been applied.
	Location rules.Location
}

// FileChange is the per-file outcome of a fix run.
type FileChange struct {
	// Path is the file path.
	Path string

	// FixesApplied lists the fixes that were applied.
	FixesApplied []AppliedFix

	// FixesSkipped lists fixes that couldn't be applied.
	FixesSkipped []SkippedFix

	// OriginalContent is the file content before fixes.
	OriginalContent []byte

	// ModifiedContent is the file content after fixes.
	ModifiedContent []byte
}

// HasChanges reports whether any fix landed in this file.
func (fc *FileChange) HasChanges() bool {
	return len(fc.FixesApplied) > 0
}
