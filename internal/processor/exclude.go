package processor

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/wharflab/trivet/internal/rules"
)

// PathExclusionFilter drops violations whose file matches one of the
// rule's configured exclude-path globs (doublestar syntax, so ** works).
type PathExclusionFilter struct{}

// NewPathExclusionFilter creates a path exclusion filter processor.
func NewPathExclusionFilter() *PathExclusionFilter {
	return &PathExclusionFilter{}
}

// Name implements Processor.
func (*PathExclusionFilter) Name() string {
	return "path-exclusion-filter"
}

// Process implements Processor.
func (*PathExclusionFilter) Process(violations []rules.Violation, ctx *Context) []rules.Violation {
	return keepIf(violations, func(v rules.Violation) bool {
		cfg := ctx.ConfigForFile(v.Location.File)
		if cfg == nil {
			return true
		}
		return !excludedByPatterns(cfg.Rules.GetExcludePaths(v.RuleCode), v.Location.File)
	})
}

// excludedByPatterns reports whether file matches any pattern. Patterns
// that fail to parse are skipped rather than treated as matches.
func excludedByPatterns(patterns []string, file string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, file)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
