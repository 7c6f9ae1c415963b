package lspserver

import (
	"bytes"
	"context"
	"path/filepath"
	"unicode/utf8"

	protocol "github.com/wharflab/trivet/internal/lsp/protocol"

	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/fix"
	"github.com/wharflab/trivet/internal/linter"
	"github.com/wharflab/trivet/internal/processor"
)

// handleFormatting implements textDocument/formatting as "apply all safe
// fixes": the document is fixed in memory and the client receives one edit
// spanning the changed region.
func (s *Server) handleFormatting(ctx context.Context, params *protocol.DocumentFormattingParams) (any, error) {
	doc := s.documents.Get(string(params.TextDocument.URI))
	if doc == nil {
		return nil, nil //nolint:nilnil // LSP: null result is valid for "no edits"
	}

	edits := s.computeFixEdits(ctx, doc.URI, []byte(doc.Content), fix.FixSafe)
	if len(edits) == 0 {
		return nil, nil //nolint:nilnil // no changes
	}
	return edits, nil
}

// computeFixEdits lints content, applies fixes up to the given safety level,
// and reduces the before/after difference to a single text edit. Lint or
// fix failures degrade to "no edits".
func (s *Server) computeFixEdits(ctx context.Context, docURI string, content []byte, safety fix.FixSafety) []*protocol.TextEdit {
	input := s.lintInput(docURI, content)
	fileKey := filepath.Clean(input.FilePath)

	result, err := linter.LintFile(ctx, input)
	if err != nil {
		return nil
	}

	chain := linter.LSPProcessors()
	procCtx := processor.NewContext(
		map[string]*config.Config{fileKey: result.Config},
		result.Config,
		map[string][]byte{fileKey: content},
	)
	violations := chain.Process(result.Violations, procCtx)

	// The fixer owns conflict resolution, ordering, and per-rule fix modes.
	fixModes := fix.BuildFixModes(result.Config)
	fixer := &fix.Fixer{
		SafetyThreshold: safety,
		FixModes: map[string]map[string]fix.FixMode{
			fileKey: fixModes,
		},
	}
	fixResult := fixer.Apply(violations, map[string][]byte{fileKey: content})

	change := fixResult.Changes[fileKey]
	if change == nil || !change.HasChanges() || bytes.Equal(change.ModifiedContent, content) {
		return nil
	}

	start, end, replacement, ok := minimalReplacement(content, change.ModifiedContent)
	if !ok {
		return nil
	}
	return []*protocol.TextEdit{{
		Range: protocol.Range{
			Start: positionAtOffset(content, start),
			End:   positionAtOffset(content, end),
		},
		NewText: string(replacement),
	}}
}

// minimalReplacement locates the smallest span of original that must be
// replaced to produce modified. ok is false when the two are equal.
func minimalReplacement(original, modified []byte) (int, int, []byte, bool) {
	if bytes.Equal(original, modified) {
		return 0, 0, nil, false
	}

	prefix := commonPrefixLen(original, modified)
	origEnd, modEnd := trimCommonSuffix(original, modified, prefix)
	return prefix, origEnd, modified[prefix:modEnd], true
}

// commonPrefixLen counts shared leading bytes without splitting a rune.
// Invalid sequences only match byte for byte.
func commonPrefixLen(a, b []byte) int {
	n := 0
	for n < len(a) && n < len(b) {
		ra, sa := utf8.DecodeRune(a[n:])
		rb, sb := utf8.DecodeRune(b[n:])
		if ra != rb || sa != sb || !bytes.Equal(a[n:n+sa], b[n:n+sb]) {
			break
		}
		n += sa
	}
	return n
}

// trimCommonSuffix walks rune-wise back from both ends and returns the
// end offsets of the differing middles. Neither end crosses prefix, so the
// matched suffix never overlaps the matched prefix.
func trimCommonSuffix(a, b []byte, prefix int) (int, int) {
	aEnd, bEnd := len(a), len(b)
	for aEnd > prefix && bEnd > prefix {
		ra, sa := utf8.DecodeLastRune(a[:aEnd])
		rb, sb := utf8.DecodeLastRune(b[:bEnd])
		if aEnd-sa < prefix || bEnd-sb < prefix {
			break
		}
		if ra != rb || sa != sb || !bytes.Equal(a[aEnd-sa:aEnd], b[bEnd-sb:bEnd]) {
			break
		}
		aEnd -= sa
		bEnd -= sb
	}
	return aEnd, bEnd
}

// positionAtOffset converts a byte offset into an LSP position. Characters
// are counted in UTF-16 code units, the protocol default.
func positionAtOffset(content []byte, offset int) protocol.Position {
	offset = min(max(offset, 0), len(content))

	var line uint32
	utf16Char := 0
	for i := 0; i < offset; {
		r, size := utf8.DecodeRune(content[i:])
		if i+size > offset {
			break // offset lands inside this rune
		}
		i += size

		switch {
		case r == '\n':
			line++
			utf16Char = 0
		case r > 0xFFFF:
			utf16Char += 2 // surrogate pair
		default:
			utf16Char++
		}
	}
	return protocol.Position{Line: line, Character: clampUint32(utf16Char)}
}
