package lspserver

import (
	"log"

	protocol "github.com/wharflab/trivet/internal/lsp/protocol"
)

// clientDiagnosticCaps is the slice of the client's capabilities that
// drives diagnostics routing: document pull support (LSP 3.17) and
// workspace refresh support.
type clientDiagnosticCaps struct {
	pull    bool
	refresh bool
}

func diagnosticCapsOf(params *protocol.InitializeParams) clientDiagnosticCaps {
	var caps clientDiagnosticCaps
	if params == nil || params.Capabilities == nil {
		return caps
	}
	if td := params.Capabilities.TextDocument; td != nil && td.Diagnostic != nil {
		caps.pull = true
	}
	if ws := params.Capabilities.Workspace; ws != nil && ws.Diagnostics != nil &&
		ws.Diagnostics.RefreshSupport != nil && *ws.Diagnostics.RefreshSupport {
		caps.refresh = true
	}
	return caps
}

// configureDiagnosticsMode picks push or pull diagnostics for the session.
// Pull-capable clients get pull so the same findings are not also pushed
// (VS Code shows them twice otherwise); an explicit initialization option
// overrides the choice.
func (s *Server) configureDiagnosticsMode(params *protocol.InitializeParams) {
	caps := diagnosticCapsOf(params)

	push := !caps.pull
	if params != nil && params.InitializationOptions != nil && params.InitializationOptions.DisablePushDiagnostics != nil {
		push = !*params.InitializationOptions.DisablePushDiagnostics
	}

	s.diagMu.Lock()
	s.pushDiagnostics = push
	s.supportsDiagnosticPullMode = caps.pull
	s.supportsDiagnosticRefresh = caps.refresh
	s.diagMu.Unlock()

	if push {
		log.Printf("lsp: diagnostics mode: push (publishDiagnostics)")
		return
	}
	log.Printf("lsp: diagnostics mode: pull (textDocument/diagnostic), refreshSupport=%v", caps.refresh)
}

func (s *Server) pushDiagnosticsEnabled() bool {
	s.diagMu.RLock()
	defer s.diagMu.RUnlock()
	return s.pushDiagnostics
}

func (s *Server) diagnosticRefreshSupported() bool {
	s.diagMu.RLock()
	defer s.diagMu.RUnlock()
	return s.supportsDiagnosticPullMode && s.supportsDiagnosticRefresh
}
