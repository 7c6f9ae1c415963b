package processor

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/wharflab/trivet/internal/rules"
)

// ChangedLines records which lines a unified diff added or modified,
// keyed by file path as it appears in the diff (slash-separated,
// typically repo-relative).
type ChangedLines map[string]map[int]struct{}

// ParseChangedLines extracts added and modified line numbers from a
// unified diff (git diff output). Line numbers refer to the new side of
// the diff. Deleted and binary files are skipped; renames are tracked
// under their new name.
func ParseChangedLines(r io.Reader) (ChangedLines, error) {
	files, _, err := gitdiff.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}

	changed := make(ChangedLines)
	for _, f := range files {
		if f.IsDelete || f.IsBinary {
			continue
		}
		name := f.NewName
		if name == "" {
			name = f.OldName
		}
		if name == "" {
			continue
		}
		lines := changed[name]
		if lines == nil {
			lines = make(map[int]struct{})
			changed[name] = lines
		}
		for _, frag := range f.TextFragments {
			line := int(frag.NewPosition)
			for _, l := range frag.Lines {
				switch l.Op {
				case gitdiff.OpAdd:
					lines[line] = struct{}{}
					line++
				case gitdiff.OpContext:
					line++
				case gitdiff.OpDelete:
					// Only present on the old side; does not advance
					// the new-side line counter.
				}
			}
		}
	}
	return changed, nil
}

// DiffFilter keeps only violations on lines a unified diff added or
// modified. Used by `lint --diff` to limit output to changed code.
// A nil ChangedLines passes every violation through.
type DiffFilter struct {
	changed ChangedLines
}

// NewDiffFilter creates a diff filter for the given changed lines.
func NewDiffFilter(changed ChangedLines) *DiffFilter {
	return &DiffFilter{changed: changed}
}

// Name returns the processor's identifier.
func (p *DiffFilter) Name() string {
	return "diff-filter"
}

// Process drops violations outside the changed lines.
// File-level violations are kept when the file appears in the diff at all,
// since they cannot be pinned to a specific line.
func (p *DiffFilter) Process(violations []rules.Violation, _ *Context) []rules.Violation {
	if p.changed == nil {
		return violations
	}
	return keepIf(violations, func(v rules.Violation) bool {
		lines := p.linesFor(v.Location.File)
		if lines == nil {
			return false
		}
		if v.Location.IsFileLevel() {
			return true
		}

		start := v.Location.Start.Line
		end := start
		if !v.Location.IsPointLocation() {
			end = v.Location.End.Line
			// End at column 0 is exclusive: the range really ends on
			// the previous line.
			if v.Location.End.Column == 0 && end > start {
				end--
			}
		}
		for line := start; line <= end; line++ {
			if _, ok := lines[line]; ok {
				return true
			}
		}
		return false
	})
}

// linesFor matches a violation path against diff paths. Diff paths are
// repo-relative while violation paths may be absolute, so an exact match
// is tried first and a path-suffix match second.
func (p *DiffFilter) linesFor(file string) map[int]struct{} {
	file = filepath.ToSlash(file)
	if lines, ok := p.changed[file]; ok {
		return lines
	}
	for name, lines := range p.changed {
		if strings.HasSuffix(file, "/"+name) {
			return lines
		}
	}
	return nil
}
