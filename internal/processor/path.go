package processor

import (
	"strings"

	"github.com/wharflab/trivet/internal/rules"
)

// PathNormalization rewrites violation file paths to forward slashes.
// Windows produces backslash paths; downstream stages (dedup, sorting,
// reporters) and the output itself assume slash form on every OS.
type PathNormalization struct{}

// NewPathNormalization creates a path normalization processor.
func NewPathNormalization() *PathNormalization {
	return &PathNormalization{}
}

// Name implements Processor.
func (*PathNormalization) Name() string {
	return "path-normalization"
}

// Process implements Processor.
func (*PathNormalization) Process(violations []rules.Violation, _ *Context) []rules.Violation {
	return mapViolations(violations, func(v rules.Violation) rules.Violation {
		v.Location.File = strings.ReplaceAll(v.Location.File, `\`, "/")
		return v
	})
}
