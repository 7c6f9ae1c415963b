package linter

import "github.com/wharflab/trivet/internal/processor"

// CLIProcessors returns the standard CLI processor chain.
// changed may be nil when no diff filtering was requested; the filter then
// passes everything through.
func CLIProcessors(changed processor.ChangedLines) *processor.Chain {
	return processor.NewChain(
		processor.NewPathNormalization(),   // Normalize paths for cross-platform consistency
		processor.NewSeverityOverride(),    // Apply severity overrides (must run before EnableFilter)
		processor.NewEnableFilter(),        // Filter rules with severity="off"
		processor.NewPathExclusionFilter(), // Apply per-rule path exclusions
		processor.NewDiffFilter(changed),   // Keep only violations on changed lines
		processor.NewDeduplication(),       // Remove duplicate violations
		processor.NewSorting(),             // Stable output ordering
		processor.NewSnippetAttachment(),   // Attach source code snippets
	)
}

// LSPProcessors returns the LSP processor chain.
// The LSP chain omits path normalization, path exclusion, diff filtering,
// and snippet attachment since those are CLI-specific concerns.
func LSPProcessors() *processor.Chain {
	return processor.NewChain(
		processor.NewSeverityOverride(),
		processor.NewEnableFilter(),
		processor.NewDeduplication(),
		processor.NewSorting(),
	)
}
