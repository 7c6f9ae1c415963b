// Package fixes derives auto-fix suggestions for rule violations.
//
// Rules report plain diagnostics during analysis; Enrich reconstructs the
// matching text edits afterwards from each violation's location and the
// raw source, so edit construction stays out of the analysis pass.
package fixes

import (
	"slices"
	"strings"

	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/rules/comments"
	"github.com/wharflab/trivet/internal/rules/spacing"
	"github.com/wharflab/trivet/internal/rules/whitespace"
	"github.com/wharflab/trivet/internal/sourcemap"
	"github.com/wharflab/trivet/internal/syntax"
)

var fixableRuleCodes = []string{
	comments.CommentSpacingRuleCode,
	spacing.AttributeBracketsRuleCode,
	spacing.BracketSpacingRuleCode,
	spacing.KeywordSpacingRuleCode,
	whitespace.ConsistentIndentationRuleCode,
	whitespace.FinalNewlineRuleCode,
	whitespace.NoTrailingSpacesRuleCode,
}

// FixableRuleCodes returns the rule codes for which trivet can generate auto-fixes.
func FixableRuleCodes() []string {
	return slices.Clone(fixableRuleCodes)
}

// Enrich adds a SuggestedFix to every violation trivet knows how to repair.
// Violations are modified in place; ones that already carry a fix are left
// alone. source must be the exact content the violations were reported
// against, since edit spans are byte offsets into it.
func Enrich(violations []rules.Violation, source []byte) {
	var sm *sourcemap.SourceMap
	for i := range violations {
		v := &violations[i]
		if v.SuggestedFix != nil || v.Location.IsFileLevel() {
			continue
		}
		if !slices.Contains(fixableRuleCodes, v.RuleCode) {
			continue
		}
		if sm == nil {
			sm = sourcemap.New(source)
		}

		var fix *rules.SuggestedFix
		switch v.RuleCode {
		case comments.CommentSpacingRuleCode:
			fix = commentSpacingFix(v, sm, source)
		case spacing.AttributeBracketsRuleCode:
			fix = attributeBracketsFix(v, sm, source)
		case spacing.BracketSpacingRuleCode:
			fix = bracketSpacingFix(v, sm, source)
		case spacing.KeywordSpacingRuleCode:
			fix = keywordSpacingFix(v, sm, source)
		case whitespace.ConsistentIndentationRuleCode:
			fix = indentationFix(v, sm, source)
		case whitespace.FinalNewlineRuleCode:
			fix = finalNewlineFix(source)
		case whitespace.NoTrailingSpacesRuleCode:
			fix = trailingWhitespaceFix(v, sm)
		}
		if fix == nil {
			continue
		}
		if r := rules.Get(v.RuleCode); r != nil {
			fix.Priority = r.Descriptor().FixPriority
		}
		v.SuggestedFix = fix
	}
}

// offsetOf converts a violation position (1-based line, 0-based column)
// back to a byte offset in the source. Returns -1 for out-of-range lines.
func offsetOf(sm *sourcemap.SourceMap, pos rules.Position) int {
	lineStart := sm.LineOffset(pos.Line - 1)
	if lineStart < 0 {
		return -1
	}
	return lineStart + pos.Column
}

// spanOf converts a single-line violation location to a byte span.
// Multi-line and out-of-range locations yield ok=false.
func spanOf(sm *sourcemap.SourceMap, loc rules.Location) (syntax.Span, bool) {
	if loc.End.Line != loc.Start.Line {
		return syntax.Span{}, false
	}
	start := offsetOf(sm, loc.Start)
	end := offsetOf(sm, loc.End)
	if start < 0 || end < start {
		return syntax.Span{}, false
	}
	return syntax.Span{Start: uint32(start), End: uint32(end)}, true
}

// blankRunAfter returns the span of spaces and tabs starting at offset.
func blankRunAfter(source []byte, offset int) syntax.Span {
	end := offset
	for end < len(source) && isBlank(source[end]) {
		end++
	}
	return syntax.Span{Start: uint32(offset), End: uint32(end)}
}

func isBlank(b byte) bool { return b == ' ' || b == '\t' }

// trailingWhitespaceFix deletes the reported whitespace run.
func trailingWhitespaceFix(v *rules.Violation, sm *sourcemap.SourceMap) *rules.SuggestedFix {
	span, ok := spanOf(sm, v.Location)
	if !ok || span.Start == span.End {
		return nil
	}
	return &rules.SuggestedFix{
		Description: "Remove trailing whitespace",
		Safety:      rules.FixSafe,
		IsPreferred: true,
		Edits:       []rules.TextEdit{{Span: span}},
	}
}

// commentSpacingFix inserts a space after the '//' delimiter. The violation
// location covers the whole comment, so the insertion point is two bytes in.
func commentSpacingFix(v *rules.Violation, sm *sourcemap.SourceMap, source []byte) *rules.SuggestedFix {
	start := offsetOf(sm, v.Location.Start)
	if start < 0 || start+2 > len(source) || string(source[start:start+2]) != "//" {
		return nil
	}
	at := uint32(start + 2)
	return &rules.SuggestedFix{
		Description: "Insert a space after '//'",
		Safety:      rules.FixSafe,
		IsPreferred: true,
		Edits:       []rules.TextEdit{{Span: syntax.Span{Start: at, End: at}, NewText: " "}},
	}
}

// bracketSpacingFix removes the whitespace next to the bracket. The rule
// reports each side separately, so the side comes from the message.
func bracketSpacingFix(v *rules.Violation, sm *sourcemap.SourceMap, source []byte) *rules.SuggestedFix {
	bracket := offsetOf(sm, v.Location.Start)
	if bracket < 0 || bracket >= len(source) || source[bracket] != '[' {
		return nil
	}

	var span syntax.Span
	var desc string
	switch {
	case strings.Contains(v.Message, "preceded"):
		start := bracket
		for start > 0 && isBlank(source[start-1]) {
			start--
		}
		span = syntax.Span{Start: uint32(start), End: uint32(bracket)}
		desc = "Remove the space before '['"
	case strings.Contains(v.Message, "followed"):
		span = blankRunAfter(source, bracket+1)
		desc = "Remove the space after '['"
	default:
		return nil
	}
	if span.Start == span.End {
		return nil
	}
	return &rules.SuggestedFix{
		Description: desc,
		Safety:      rules.FixSafe,
		IsPreferred: true,
		Edits:       []rules.TextEdit{{Span: span}},
	}
}

// attributeBracketsFix removes the whitespace after an attribute list's
// opening bracket.
func attributeBracketsFix(v *rules.Violation, sm *sourcemap.SourceMap, source []byte) *rules.SuggestedFix {
	bracket := offsetOf(sm, v.Location.Start)
	if bracket < 0 || bracket >= len(source) || source[bracket] != '[' {
		return nil
	}
	span := blankRunAfter(source, bracket+1)
	if span.Start == span.End {
		return nil
	}
	return &rules.SuggestedFix{
		Description: "Remove the space after '['",
		Safety:      rules.FixSafe,
		IsPreferred: true,
		Edits:       []rules.TextEdit{{Span: span}},
	}
}

// keywordSpacingFix normalizes the whitespace after the keyword. The
// violation location is the keyword token itself.
func keywordSpacingFix(v *rules.Violation, sm *sourcemap.SourceMap, source []byte) *rules.SuggestedFix {
	kw, ok := spanOf(sm, v.Location)
	if !ok || kw.Start == kw.End || int(kw.End) > len(source) {
		return nil
	}
	keyword := string(source[kw.Start:kw.End])
	run := blankRunAfter(source, int(kw.End))

	switch {
	case strings.Contains(v.Message, "single space"):
		if string(source[run.Start:run.End]) == " " {
			return nil
		}
		return &rules.SuggestedFix{
			Description: "Use a single space after '" + keyword + "'",
			Safety:      rules.FixSafe,
			IsPreferred: true,
			Edits:       []rules.TextEdit{{Span: run, NewText: " "}},
		}
	case strings.Contains(v.Message, "not be followed"):
		if run.Start == run.End {
			return nil
		}
		return &rules.SuggestedFix{
			Description: "Remove the space after '" + keyword + "'",
			Safety:      rules.FixSafe,
			IsPreferred: true,
			Edits:       []rules.TextEdit{{Span: run}},
		}
	}
	return nil
}

// finalNewlineFix appends a line break at the end of the file.
func finalNewlineFix(source []byte) *rules.SuggestedFix {
	if len(source) == 0 || source[len(source)-1] == '\n' {
		return nil
	}
	n := uint32(len(source))
	return &rules.SuggestedFix{
		Description: "Add a trailing newline",
		Safety:      rules.FixSafe,
		IsPreferred: true,
		Edits:       []rules.TextEdit{{Span: syntax.Span{Start: n, End: n}, NewText: "\n"}},
	}
}
