package lspserver

import (
	"context"

	protocol "github.com/wharflab/trivet/internal/lsp/protocol"

	"github.com/wharflab/trivet/internal/fix"
)

// fixAllCodeActionKind is advertised during initialize so editors can run
// the action on save through codeActionsOnSave.
const fixAllCodeActionKind = protocol.CodeActionKind("source.fixAll.trivet")

// fixAllCodeAction offers one workspace edit covering every safe fix in
// doc, or nil when nothing is fixable.
func (s *Server) fixAllCodeAction(ctx context.Context, doc *Document) *protocol.CodeAction {
	edits := s.computeFixEdits(ctx, doc.URI, []byte(doc.Content), fix.FixSafe)
	if len(edits) == 0 {
		return nil
	}

	edit := &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]*protocol.TextEdit{
			protocol.DocumentUri(doc.URI): edits,
		},
	}
	return &protocol.CodeAction{
		Title:       "Fix all auto-fixable issues",
		Kind:        ptrTo(fixAllCodeActionKind),
		IsPreferred: ptrTo(true),
		Edit:        edit,
	}
}
