package processor

import (
	"github.com/wharflab/trivet/internal/rules"
)

// lineSource is the slice of sourcemap.SourceMap that snippet extraction
// needs. Both take 0-based line numbers.
type lineSource interface {
	Line(lineNum int) string
	Snippet(startLine, endLine int) string
}

// SnippetAttachment fills in SourceCode for violations that lack it, so
// reporters can show context without re-reading files.
type SnippetAttachment struct{}

// NewSnippetAttachment creates a snippet attachment processor.
func NewSnippetAttachment() *SnippetAttachment {
	return &SnippetAttachment{}
}

// Name implements Processor.
func (*SnippetAttachment) Name() string {
	return "snippet-attachment"
}

// Process implements Processor. Violations that already carry a snippet,
// are file-level, or live in a file with no known source pass through
// unchanged.
func (*SnippetAttachment) Process(violations []rules.Violation, ctx *Context) []rules.Violation {
	return mapViolations(violations, func(v rules.Violation) rules.Violation {
		if v.SourceCode != "" || v.Location.IsFileLevel() {
			return v
		}
		sm := ctx.GetSourceMap(v.Location.File)
		if sm == nil {
			return v
		}
		v.SourceCode = extractSnippet(sm, v.Location)
		return v
	})
}

// extractSnippet returns the source text covered by loc. Locations are
// 1-based; src is 0-based.
func extractSnippet(src lineSource, loc rules.Location) string {
	if loc.IsPointLocation() {
		if loc.Start.Line < 1 {
			return ""
		}
		return src.Line(loc.Start.Line - 1)
	}

	endLine := loc.End.Line
	// An end column of 0 means "up to the start of this line": the range
	// ends at the previous line's end, so drop the empty tail line.
	if loc.End.Column == 0 && endLine > loc.Start.Line {
		endLine--
	}
	if loc.Start.Line < 1 || endLine < 1 {
		return ""
	}
	return src.Snippet(loc.Start.Line-1, endLine-1)
}
