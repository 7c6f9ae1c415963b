package fix

import (
	"bytes"
	"path/filepath"
	"slices"
	"sort"

	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/rules"
)

// normalizePath ensures consistent path format for map lookups.
// This handles Windows vs Unix path separator differences.
func normalizePath(path string) string {
	return filepath.Clean(path)
}

// Fixer applies suggested fixes to source files.
type Fixer struct {
	// SafetyThreshold determines the minimum safety level for fixes.
	// Only fixes with Safety <= SafetyThreshold will be applied.
	SafetyThreshold FixSafety

	// RuleFilter limits fixes to specific rule codes.
	// If empty, all rules are eligible.
	RuleFilter []string

	// FixModes maps file paths to their per-rule fix modes.
	// Outer key is the normalized file path, inner key is the rule code.
	// Uses config.FixMode constants (FixModeAlways, FixModeNever, etc.).
	// If nil or a file/rule is not present, FixModeAlways is assumed.
	FixModes map[string]map[string]FixMode
}

// Result contains the outcome of applying fixes.
type Result struct {
	// Changes contains modifications for each file.
	Changes map[string]*FileChange
}

// TotalApplied returns the total number of fixes applied across all files.
func (r *Result) TotalApplied() int {
	count := 0
	for _, fc := range r.Changes {
		count += len(fc.FixesApplied)
	}
	return count
}

// TotalSkipped returns the total number of fixes skipped across all files.
func (r *Result) TotalSkipped() int {
	count := 0
	for _, fc := range r.Changes {
		count += len(fc.FixesSkipped)
	}
	return count
}

// FilesModified returns the number of files with actual changes.
func (r *Result) FilesModified() int {
	count := 0
	for _, fc := range r.Changes {
		if fc.HasChanges() {
			count++
		}
	}
	return count
}

// fixCandidate pairs a violation with its suggested fix for processing.
type fixCandidate struct {
	violation *rules.Violation
	fix       *rules.SuggestedFix
}

// Apply processes violations and applies their suggested fixes.
// sources maps file paths to their original content.
//
// Fixes are atomic: either all edits of a fix are applied, or none are.
// When two fixes claim overlapping regions, the one reviewed first wins;
// review order is fix priority, then document position, then rule code,
// so the outcome never depends on input ordering.
func (f *Fixer) Apply(violations []rules.Violation, sources map[string][]byte) *Result {
	result := &Result{
		Changes: make(map[string]*FileChange),
	}
	for path, content := range sources {
		result.Changes[normalizePath(path)] = &FileChange{
			Path:            path,
			OriginalContent: content,
			ModifiedContent: bytes.Clone(content),
		}
	}

	byFile := make(map[string][]*fixCandidate)
	for i := range violations {
		v := &violations[i]
		if v.SuggestedFix == nil {
			continue
		}

		if !f.ruleAllowed(v.RuleCode) {
			recordSkipped(result.Changes, v, SkipRuleFilter)
			continue
		}
		if v.SuggestedFix.Safety > f.SafetyThreshold {
			recordSkipped(result.Changes, v, SkipSafety)
			continue
		}
		if !f.fixModeAllowed(v.File(), v.RuleCode) {
			recordSkipped(result.Changes, v, SkipFixMode)
			continue
		}
		if len(v.SuggestedFix.Edits) == 0 {
			recordSkipped(result.Changes, v, SkipNoEdits)
			continue
		}

		file := normalizePath(v.File())
		byFile[file] = append(byFile[file], &fixCandidate{violation: v, fix: v.SuggestedFix})
	}

	for file, candidates := range byFile {
		fc := result.Changes[file]
		if fc == nil {
			continue
		}
		applyFixesToFile(fc, candidates)
	}

	return result
}

// recordSkipped adds a skipped fix entry for a file if the file exists in changes.
func recordSkipped(changes map[string]*FileChange, v *rules.Violation, reason SkipReason) {
	if fc := changes[normalizePath(v.File())]; fc != nil {
		fc.FixesSkipped = append(fc.FixesSkipped, SkippedFix{
			RuleCode: v.RuleCode,
			Reason:   reason,
			Location: v.Location,
		})
	}
}

// ruleAllowed checks if a rule passes the filter.
func (f *Fixer) ruleAllowed(ruleCode string) bool {
	if len(f.RuleFilter) == 0 {
		return true
	}
	return slices.Contains(f.RuleFilter, ruleCode)
}

// fixModeAllowed checks if a fix is allowed based on the file's per-rule fix mode config.
// Returns true if the fix should be applied.
func (f *Fixer) fixModeAllowed(filePath, ruleCode string) bool {
	mode := config.FixModeAlways // default
	if f.FixModes != nil {
		if fileModes, ok := f.FixModes[normalizePath(filePath)]; ok {
			if m, ok := fileModes[ruleCode]; ok {
				mode = m
			}
		}
	}

	switch mode {
	case config.FixModeNever:
		return false
	case config.FixModeExplicit:
		// Only apply if rule is in --fix-rule list
		return len(f.RuleFilter) > 0 && slices.Contains(f.RuleFilter, ruleCode)
	case config.FixModeUnsafeOnly:
		// Only apply if --fix-unsafe was used (SafetyThreshold >= FixUnsafe)
		return f.SafetyThreshold >= rules.FixUnsafe
	case config.FixModeAlways:
		return true
	default:
		// Unknown mode, treat as always
		return true
	}
}

// applyFixesToFile applies non-conflicting fixes to a single file.
func applyFixesToFile(fc *FileChange, candidates []*fixCandidate) {
	// Deterministic review order: priority first (lower = earlier), then
	// document position, then rule code.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.fix.Priority != b.fix.Priority {
			return a.fix.Priority < b.fix.Priority
		}
		if a.fix.Edits[0].Span != b.fix.Edits[0].Span {
			return compareEdits(a.fix.Edits[0], b.fix.Edits[0])
		}
		return a.violation.RuleCode < b.violation.RuleCode
	})

	// reserved tracks every edit from approved candidates, so a candidate
	// is checked against whole fixes, never partially applied ones.
	var reserved []rules.TextEdit
	var approved []*fixCandidate
	for _, c := range candidates {
		if !editsValid(c.fix.Edits, len(fc.OriginalContent)) {
			fc.FixesSkipped = append(fc.FixesSkipped, SkippedFix{
				RuleCode: c.violation.RuleCode,
				Reason:   SkipInvalidEdit,
				Location: c.violation.Location,
			})
			continue
		}
		if hasConflict(c.fix.Edits, reserved) {
			fc.FixesSkipped = append(fc.FixesSkipped, SkippedFix{
				RuleCode: c.violation.RuleCode,
				Reason:   SkipConflict,
				Location: c.violation.Location,
			})
			continue
		}
		reserved = append(reserved, c.fix.Edits...)
		approved = append(approved, c)
	}

	// Approved edits never overlap, so applying back-to-front keeps every
	// remaining span valid against the original offsets. An insertion that
	// shares its offset with a range's start goes after the range, landing
	// before the replacement text.
	edits := slices.Clone(reserved)
	sort.Slice(edits, func(i, j int) bool {
		if edits[i].Span.Start != edits[j].Span.Start {
			return edits[i].Span.Start > edits[j].Span.Start
		}
		return edits[i].Span.End > edits[j].Span.End
	})

	content := fc.ModifiedContent
	for _, e := range edits {
		content = applyEdit(content, e)
	}
	fc.ModifiedContent = content

	for _, c := range approved {
		fc.FixesApplied = append(fc.FixesApplied, AppliedFix{
			RuleCode:    c.violation.RuleCode,
			Description: c.fix.Description,
			Location:    c.violation.Location,
			Edits:       c.fix.Edits,
		})
	}
}

// editsValid reports whether every edit stays within the file.
func editsValid(edits []rules.TextEdit, size int) bool {
	for _, e := range edits {
		if e.Span.Start > e.Span.End || int(e.Span.End) > size {
			return false
		}
	}
	return true
}

// hasConflict checks if any of a candidate's edits overlap reserved edits.
func hasConflict(edits, reserved []rules.TextEdit) bool {
	for _, e := range edits {
		for _, r := range reserved {
			if editsOverlap(e, r) {
				return true
			}
		}
	}
	return false
}

// applyEdit replaces the byte range [Span.Start, Span.End) with NewText.
func applyEdit(content []byte, edit rules.TextEdit) []byte {
	var buf bytes.Buffer
	buf.Grow(len(content) - int(edit.Span.End-edit.Span.Start) + len(edit.NewText))
	buf.Write(content[:edit.Span.Start])
	buf.WriteString(edit.NewText)
	buf.Write(content[edit.Span.End:])
	return buf.Bytes()
}
