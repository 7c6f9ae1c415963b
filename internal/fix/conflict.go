package fix

import "github.com/wharflab/trivet/internal/rules"

// editsOverlap checks if two edits overlap. Edits are half-open byte
// ranges [Start, End) against the same original content; overlapping
// edits cannot both be applied safely.
func editsOverlap(a, b rules.TextEdit) bool {
	// A is completely before B
	if a.Span.End <= b.Span.Start {
		return false
	}
	// B is completely before A
	if b.Span.End <= a.Span.Start {
		return false
	}
	return true
}

// compareEdits returns true if edit a comes before edit b in the file.
// Ties on start offset break toward the longer edit so ordering stays
// deterministic.
func compareEdits(a, b rules.TextEdit) bool {
	if a.Span.Start != b.Span.Start {
		return a.Span.Start < b.Span.Start
	}
	return a.Span.End > b.Span.End
}
