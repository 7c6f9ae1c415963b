package processor

import (
	"path/filepath"

	"github.com/wharflab/trivet/internal/rules"
)

// dedupKey identifies a violation for deduplication purposes. Column and
// message are deliberately excluded: the same rule firing twice on one
// line is one finding as far as the user is concerned.
type dedupKey struct {
	file string
	line int
	rule string
}

// Deduplication drops repeated violations, keeping the first occurrence
// of each (file, line, rule) combination.
type Deduplication struct{}

// NewDeduplication creates a deduplication processor.
func NewDeduplication() *Deduplication {
	return &Deduplication{}
}

// Name implements Processor.
func (*Deduplication) Name() string {
	return "deduplication"
}

// Process implements Processor.
func (*Deduplication) Process(violations []rules.Violation, _ *Context) []rules.Violation {
	seen := make(map[dedupKey]struct{}, len(violations))
	return keepIf(violations, func(v rules.Violation) bool {
		key := dedupKey{
			// Slash-normalized so the same file never counts twice when
			// paths arrive in mixed separator form.
			file: filepath.ToSlash(v.Location.File),
			line: v.Location.Start.Line,
			rule: v.RuleCode,
		}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
}
