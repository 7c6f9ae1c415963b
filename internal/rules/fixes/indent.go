package fixes

import (
	"strings"

	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/sourcemap"
)

// tabWidth is the column width assumed when converting between tabs and
// spaces. C# tooling conventionally renders tabs at four columns.
const tabWidth = 4

// indentationFix rewrites a line's indentation in the expected style. The
// target style is recovered from the diagnostic message; a mixed run
// reported in auto mode before any style was decided has no target and
// gets no fix. Conversion assumes tabWidth columns per tab, which may not
// match the author's editor, so the fix is marked unsafe.
func indentationFix(v *rules.Violation, sm *sourcemap.SourceMap, source []byte) *rules.SuggestedFix {
	var toTabs bool
	switch {
	case strings.HasSuffix(v.Message, "expected tabs"):
		toTabs = true
	case strings.HasSuffix(v.Message, "expected spaces"):
		toTabs = false
	default:
		return nil
	}

	span, ok := spanOf(sm, v.Location)
	if !ok || span.Start == span.End || int(span.End) > len(source) {
		return nil
	}
	indent := string(source[span.Start:span.End])

	newText := spaceIndent(indent)
	style := "spaces"
	if toTabs {
		newText = tabIndent(indent)
		style = "tabs"
	}
	if newText == indent {
		return nil
	}

	return &rules.SuggestedFix{
		Description: "Reindent with " + style,
		Safety:      rules.FixUnsafe,
		IsPreferred: true,
		Edits:       []rules.TextEdit{{Span: span, NewText: newText}},
	}
}

// indentColumns measures the column width of an indentation run, with tabs
// advancing to the next tab stop.
func indentColumns(indent string) int {
	col := 0
	for _, ch := range indent {
		if ch == '\t' {
			col += tabWidth - col%tabWidth
		} else {
			col++
		}
	}
	return col
}

// tabIndent renders an indentation run as tabs, keeping leftover columns
// that don't fill a whole tab stop as trailing spaces.
func tabIndent(indent string) string {
	cols := indentColumns(indent)
	return strings.Repeat("\t", cols/tabWidth) + strings.Repeat(" ", cols%tabWidth)
}

// spaceIndent renders an indentation run as spaces of the same column width.
func spaceIndent(indent string) string {
	return strings.Repeat(" ", indentColumns(indent))
}
