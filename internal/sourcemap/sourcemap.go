// Package sourcemap maps between the byte-offset spans the syntax scanner
// produces and the line/column positions diagnostics report, and extracts
// line snippets for display.
package sourcemap

import (
	"bytes"
	"slices"
	"strings"
)

// SourceMap indexes source content by line. Line boundaries are computed
// once up front so position lookups and snippet extraction stay cheap.
//
// Line numbers are 0-based throughout, matching LSP.
type SourceMap struct {
	source []byte

	// lines holds each line's text without its line ending.
	lines []string

	// lineOffsets[i] is the byte offset in source where line i begins.
	lineOffsets []int
}

// New builds a SourceMap for source. Lines split on \n; a trailing \r is
// stripped from each, so CRLF input yields the same lines as LF.
func New(source []byte) *SourceMap {
	n := bytes.Count(source, []byte{'\n'}) + 1
	sm := &SourceMap{
		source:      source,
		lines:       make([]string, 0, n),
		lineOffsets: make([]int, 0, n),
	}

	start := 0
	for {
		sm.lineOffsets = append(sm.lineOffsets, start)
		rest := source[start:]
		nl := bytes.IndexByte(rest, '\n')
		if nl < 0 {
			sm.lines = append(sm.lines, strings.TrimSuffix(string(rest), "\r"))
			return sm
		}
		sm.lines = append(sm.lines, strings.TrimSuffix(string(rest[:nl]), "\r"))
		start += nl + 1
	}
}

// Lines returns all lines without line endings. Callers must not modify
// the returned slice.
func (sm *SourceMap) Lines() []string {
	return sm.lines
}

// LineCount returns the total number of lines.
func (sm *SourceMap) LineCount() int {
	return len(sm.lines)
}

// Line returns the text of the 0-based line, or "" when out of range.
func (sm *SourceMap) Line(line int) string {
	if line < 0 || line >= len(sm.lines) {
		return ""
	}
	return sm.lines[line]
}

// LineOffset returns the byte offset where the 0-based line starts, or -1
// when out of range.
func (sm *SourceMap) LineOffset(line int) int {
	if line < 0 || line >= len(sm.lineOffsets) {
		return -1
	}
	return sm.lineOffsets[line]
}

// PositionFor converts a byte offset into a 0-based line and column.
// The column counts bytes from the line start, so an offset pointing at a
// line break (or one past the last byte, for exclusive span ends) yields a
// column one past the line's visible text. Offsets beyond the source map
// to the last line.
func (sm *SourceMap) PositionFor(offset int) (line, col int) {
	if offset < 0 {
		return 0, 0
	}
	line, exact := slices.BinarySearch(sm.lineOffsets, offset)
	if !exact {
		line--
	}
	return line, offset - sm.lineOffsets[line]
}

// Snippet joins the 0-based inclusive line range with newlines. The range
// is clamped to the file; an empty intersection yields "".
func (sm *SourceMap) Snippet(startLine, endLine int) string {
	startLine = max(startLine, 0)
	endLine = min(endLine, len(sm.lines)-1)
	if startLine > endLine {
		return ""
	}
	return strings.Join(sm.lines[startLine:endLine+1], "\n")
}

// SnippetAround returns line with up to before/after context lines on each
// side, clamped to the file.
func (sm *SourceMap) SnippetAround(line, before, after int) string {
	return sm.Snippet(line-before, line+after)
}

// Source returns the raw content. Callers must not modify the returned
// slice.
func (sm *SourceMap) Source() []byte {
	return sm.source
}
