// Package protocol defines the Language Server Protocol types spoken by the
// trivet language server.
//
// LSP 3.17 is a large surface; this package hand-rolls only the slice the
// server actually uses (lifecycle, full-sync document events, push and pull
// diagnostics, code actions, and document formatting). Optional fields are
// pointers so absent and zero values stay distinguishable, and union-typed
// fields from the LSP specification are narrowed to the single variant the
// server emits.
package protocol

// DocumentUri is an LSP document URI.
//
//nolint:staticcheck // Keep LSP spec naming.
type DocumentUri string

// URI is a generic LSP URI.
type URI string

// Method is an LSP method name.
type Method string

// Methods handled or sent by the server.
const (
	MethodInitialize  Method = "initialize"
	MethodInitialized Method = "initialized"
	MethodShutdown    Method = "shutdown"
	MethodExit        Method = "exit"

	MethodTextDocumentDidOpen   Method = "textDocument/didOpen"
	MethodTextDocumentDidChange Method = "textDocument/didChange"
	MethodTextDocumentDidSave   Method = "textDocument/didSave"
	MethodTextDocumentDidClose  Method = "textDocument/didClose"

	MethodTextDocumentPublishDiagnostics Method = "textDocument/publishDiagnostics"
	MethodTextDocumentDiagnostic         Method = "textDocument/diagnostic"
	MethodTextDocumentCodeAction         Method = "textDocument/codeAction"
	MethodTextDocumentFormatting         Method = "textDocument/formatting"

	MethodWorkspaceDidChangeConfiguration Method = "workspace/didChangeConfiguration"
	MethodWorkspaceDiagnosticRefresh      Method = "workspace/diagnostic/refresh"

	MethodCancelRequest Method = "$/cancelRequest"
	MethodSetTrace      Method = "$/setTrace"
)
