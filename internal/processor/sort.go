package processor

import (
	"github.com/wharflab/trivet/internal/reporter"
	"github.com/wharflab/trivet/internal/rules"
)

// Sorting puts violations in the canonical output order: file path, start
// line, start column, rule code. Runs late in the pipeline so every
// reporter sees the same deterministic sequence.
type Sorting struct{}

// NewSorting creates a sorting processor.
func NewSorting() *Sorting {
	return &Sorting{}
}

// Name implements Processor.
func (*Sorting) Name() string {
	return "sorting"
}

// Process implements Processor. Delegates to reporter.SortViolations,
// which sorts a copy.
func (*Sorting) Process(violations []rules.Violation, _ *Context) []rules.Violation {
	return reporter.SortViolations(violations)
}
