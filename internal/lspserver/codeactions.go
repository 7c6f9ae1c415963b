package lspserver

import (
	"context"
	"strings"

	protocol "github.com/wharflab/trivet/internal/lsp/protocol"

	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/sourcemap"
)

// codeActionsForDocument answers textDocument/codeAction: one quickfix per
// violation with a suggested fix overlapping the requested range, plus the
// fix-all source action.
func (s *Server) codeActionsForDocument(
	ctx context.Context,
	doc *Document,
	params *protocol.CodeActionParams,
) []protocol.CodeAction {
	includeQuickFix := kindRequested(params.Context.Only, protocol.CodeActionKindQuickFix)
	includeFixAll := kindRequested(params.Context.Only, fixAllCodeActionKind)

	// publishDiagnostics already linted this version in push mode.
	violations, ok := s.lintCache.get(doc.URI, doc.Version)
	if !ok {
		violations = s.lintContent(ctx, doc.URI, []byte(doc.Content))
	}

	actions := make([]protocol.CodeAction, 0, len(violations)+1)

	if includeQuickFix {
		sm := sourcemap.New([]byte(doc.Content))
		for _, v := range violations {
			if action := quickFixFor(v, sm, params); action != nil {
				actions = append(actions, *action)
			}
		}
	}

	if includeFixAll {
		if action := s.fixAllCodeAction(ctx, doc); action != nil {
			actions = append(actions, *action)
		}
	}

	return actions
}

func quickFixFor(v rules.Violation, sm *sourcemap.SourceMap, params *protocol.CodeActionParams) *protocol.CodeAction {
	if v.SuggestedFix == nil || len(v.SuggestedFix.Edits) == 0 {
		return nil
	}
	if !rangesOverlap(violationRange(v), params.Range) {
		return nil
	}
	edits := convertTextEdits(v.SuggestedFix.Edits, sm)
	if len(edits) == 0 {
		return nil
	}

	return &protocol.CodeAction{
		Title:       v.SuggestedFix.Description,
		Kind:        ptrTo(protocol.CodeActionKindQuickFix),
		IsPreferred: ptrTo(v.SuggestedFix.IsPreferred || v.SuggestedFix.Safety == rules.FixSafe),
		Diagnostics: matchingDiagnostics(v, params.Context.Diagnostics),
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]*protocol.TextEdit{
				params.TextDocument.URI: edits,
			},
		},
	}
}

// kindRequested says whether kind satisfies the client's only filter. A nil
// filter accepts everything; a listed kind also accepts its sub-kinds
// ("source" covers "source.fixAll.trivet").
func kindRequested(only []protocol.CodeActionKind, kind protocol.CodeActionKind) bool {
	if only == nil {
		return true
	}
	for _, want := range only {
		if want == kind || (want != "" && strings.HasPrefix(string(kind), string(want)+".")) {
			return true
		}
	}
	return false
}

// convertTextEdits maps byte-span edits onto LSP positions. Columns come
// back as byte offsets within the line, which coincide with UTF-16 units
// for the ASCII syntax these rules edit.
func convertTextEdits(edits []rules.TextEdit, sm *sourcemap.SourceMap) []*protocol.TextEdit {
	result := make([]*protocol.TextEdit, 0, len(edits))
	for _, e := range edits {
		startLine, startCol := sm.PositionFor(int(e.Span.Start))
		endLine, endCol := sm.PositionFor(int(e.Span.End))

		result = append(result, &protocol.TextEdit{
			Range: protocol.Range{
				Start: protocol.Position{Line: clampUint32(startLine), Character: clampUint32(startCol)},
				End:   protocol.Position{Line: clampUint32(endLine), Character: clampUint32(endCol)},
			},
			NewText: e.NewText,
		})
	}
	return result
}

// rangesOverlap reports whether two half-open LSP ranges intersect.
// Ranges that merely touch (a.End == b.Start) do not.
func rangesOverlap(a, b protocol.Range) bool {
	return positionLess(a.Start, b.End) && positionLess(b.Start, a.End)
}

func positionLess(p, q protocol.Position) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Character < q.Character)
}

// matchingDiagnostics picks the client-reported diagnostics this violation
// produced, matched by start line and message.
func matchingDiagnostics(v rules.Violation, diagnostics []*protocol.Diagnostic) []*protocol.Diagnostic {
	vRange := violationRange(v)
	var matched []*protocol.Diagnostic
	for _, d := range diagnostics {
		if d.Range.Start.Line == vRange.Start.Line && d.Message == v.Message {
			matched = append(matched, d)
		}
	}
	return matched
}
