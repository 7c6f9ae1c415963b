package protocol

// Position is a zero-based line and character offset in a document.
// Character counts UTF-16 code units, per the default LSP position encoding.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open [start, end) span in a document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// TextEdit replaces Range with NewText.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// WorkspaceEdit carries per-document text edits.
type WorkspaceEdit struct {
	Changes map[DocumentUri][]*TextEdit `json:"changes,omitzero"`
}

// ClientInfo identifies the connecting editor.
type ClientInfo struct {
	Name    string  `json:"name"`
	Version *string `json:"version,omitzero"`
}

// InitializeParams is the payload of the initialize request.
type InitializeParams struct {
	ProcessID             *int32                 `json:"processId,omitzero"`
	ClientInfo            *ClientInfo            `json:"clientInfo,omitzero"`
	Capabilities          *ClientCapabilities    `json:"capabilities,omitzero"`
	InitializationOptions *InitializationOptions `json:"initializationOptions,omitzero"`
}

// InitializationOptions holds trivet-specific client startup options.
type InitializationOptions struct {
	// DisablePushDiagnostics forces the pull-only diagnostics mode even when
	// the negotiated default would publish.
	DisablePushDiagnostics *bool `json:"disablePushDiagnostics,omitzero"`
}

// ClientCapabilities lists the client capabilities the server inspects.
type ClientCapabilities struct {
	TextDocument *TextDocumentClientCapabilities `json:"textDocument,omitzero"`
	Workspace    *WorkspaceClientCapabilities    `json:"workspace,omitzero"`
}

// TextDocumentClientCapabilities narrows text document capabilities to the
// fields that matter for diagnostics mode negotiation.
type TextDocumentClientCapabilities struct {
	Diagnostic *DiagnosticClientCapabilities `json:"diagnostic,omitzero"`
}

// DiagnosticClientCapabilities signals pull-diagnostics support (LSP 3.17).
type DiagnosticClientCapabilities struct {
	DynamicRegistration    *bool `json:"dynamicRegistration,omitzero"`
	RelatedDocumentSupport *bool `json:"relatedDocumentSupport,omitzero"`
}

// WorkspaceClientCapabilities narrows workspace capabilities to the fields
// the server inspects.
type WorkspaceClientCapabilities struct {
	Diagnostics *DiagnosticWorkspaceClientCapabilities `json:"diagnostics,omitzero"`
}

// DiagnosticWorkspaceClientCapabilities signals workspace/diagnostic/refresh
// support.
type DiagnosticWorkspaceClientCapabilities struct {
	RefreshSupport *bool `json:"refreshSupport,omitzero"`
}

// InitializeResult is the server's response to initialize.
type InitializeResult struct {
	Capabilities *ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo         `json:"serverInfo,omitzero"`
}

// ServerInfo identifies the server to the client.
type ServerInfo struct {
	Name    string  `json:"name"`
	Version *string `json:"version,omitzero"`
}

// ServerCapabilities advertises what the server can do.
type ServerCapabilities struct {
	TextDocumentSync           *TextDocumentSyncOptions `json:"textDocumentSync,omitzero"`
	CodeActionProvider         *CodeActionOptions       `json:"codeActionProvider,omitzero"`
	DocumentFormattingProvider *bool                    `json:"documentFormattingProvider,omitzero"`
	DiagnosticProvider         *DiagnosticOptions       `json:"diagnosticProvider,omitzero"`
}

// TextDocumentSyncKind selects how document content is synchronized.
type TextDocumentSyncKind uint32

// Text document sync kinds.
const (
	TextDocumentSyncKindNone        TextDocumentSyncKind = 0
	TextDocumentSyncKindFull        TextDocumentSyncKind = 1
	TextDocumentSyncKindIncremental TextDocumentSyncKind = 2
)

// TextDocumentSyncOptions configures document synchronization.
type TextDocumentSyncOptions struct {
	OpenClose *bool                 `json:"openClose,omitzero"`
	Change    *TextDocumentSyncKind `json:"change,omitzero"`
	Save      *SaveOptions          `json:"save,omitzero"`
}

// SaveOptions configures the didSave notification.
type SaveOptions struct {
	IncludeText *bool `json:"includeText,omitzero"`
}

// DiagnosticOptions advertises pull-diagnostics support.
type DiagnosticOptions struct {
	Identifier            *string `json:"identifier,omitzero"`
	InterFileDependencies bool    `json:"interFileDependencies"`
	WorkspaceDiagnostics  bool    `json:"workspaceDiagnostics"`
}

// TextDocumentItem is a document transferred from the client on open.
type TextDocumentItem struct {
	URI        DocumentUri `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int32       `json:"version"`
	Text       string      `json:"text"`
}

// TextDocumentIdentifier names a document by URI.
type TextDocumentIdentifier struct {
	URI DocumentUri `json:"uri"`
}

// VersionedTextDocumentIdentifier names a document and its version.
type VersionedTextDocumentIdentifier struct {
	URI     DocumentUri `json:"uri"`
	Version int32       `json:"version"`
}

// DidOpenTextDocumentParams is the payload of textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// TextDocumentContentChangeEvent is one content change. With full sync the
// Range is absent and Text carries the whole document.
type TextDocumentContentChangeEvent struct {
	Range *Range `json:"range,omitzero"`
	Text  string `json:"text"`
}

// DidChangeTextDocumentParams is the payload of textDocument/didChange.
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidSaveTextDocumentParams is the payload of textDocument/didSave.
type DidSaveTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Text         *string                `json:"text,omitzero"`
}

// DidCloseTextDocumentParams is the payload of textDocument/didClose.
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DiagnosticSeverity grades a diagnostic.
type DiagnosticSeverity uint32

// Diagnostic severities.
const (
	DiagnosticSeverityError       DiagnosticSeverity = 1
	DiagnosticSeverityWarning     DiagnosticSeverity = 2
	DiagnosticSeverityInformation DiagnosticSeverity = 3
	DiagnosticSeverityHint        DiagnosticSeverity = 4
)

// CodeDescription links a diagnostic to its documentation.
type CodeDescription struct {
	Href URI `json:"href"`
}

// Diagnostic is a single reported issue. Code is always the string rule code;
// the integer variant of the LSP union is never produced.
type Diagnostic struct {
	Range           Range               `json:"range"`
	Severity        *DiagnosticSeverity `json:"severity,omitzero"`
	Code            *string             `json:"code,omitzero"`
	CodeDescription *CodeDescription    `json:"codeDescription,omitzero"`
	Source          *string             `json:"source,omitzero"`
	Message         string              `json:"message"`
}

// PublishDiagnosticsParams is the payload of textDocument/publishDiagnostics.
type PublishDiagnosticsParams struct {
	URI         DocumentUri   `json:"uri"`
	Version     *int32        `json:"version,omitzero"`
	Diagnostics []*Diagnostic `json:"diagnostics"`
}

// DocumentDiagnosticParams is the payload of textDocument/diagnostic.
type DocumentDiagnosticParams struct {
	TextDocument     TextDocumentIdentifier `json:"textDocument"`
	Identifier       *string                `json:"identifier,omitzero"`
	PreviousResultID *string                `json:"previousResultId,omitzero"`
}

// DocumentDiagnosticReportKind discriminates pull-diagnostics responses.
type DocumentDiagnosticReportKind string

// Document diagnostic report kinds.
const (
	DiagnosticReportKindFull      DocumentDiagnosticReportKind = "full"
	DiagnosticReportKindUnchanged DocumentDiagnosticReportKind = "unchanged"
)

// DocumentDiagnosticReport is the response to textDocument/diagnostic.
// A full report sets Items (possibly empty, never nil); an unchanged report
// carries only the result ID the client already has.
type DocumentDiagnosticReport struct {
	Kind     DocumentDiagnosticReportKind `json:"kind"`
	ResultID *string                      `json:"resultId,omitzero"`
	Items    []*Diagnostic                `json:"items,omitzero"`
}

// CodeActionKind classifies a code action.
type CodeActionKind string

// CodeActionKindQuickFix marks fixes for a single diagnostic.
const CodeActionKindQuickFix CodeActionKind = "quickfix"

// CodeActionOptions advertises the kinds of code actions the server offers.
type CodeActionOptions struct {
	CodeActionKinds []CodeActionKind `json:"codeActionKinds,omitzero"`
}

// CodeActionContext carries the diagnostics and kind filter of a
// textDocument/codeAction request.
type CodeActionContext struct {
	Diagnostics []*Diagnostic    `json:"diagnostics"`
	Only        []CodeActionKind `json:"only,omitzero"`
}

// CodeActionParams is the payload of textDocument/codeAction.
type CodeActionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Context      CodeActionContext      `json:"context"`
}

// CodeAction is a single action offered to the client.
type CodeAction struct {
	Title       string          `json:"title"`
	Kind        *CodeActionKind `json:"kind,omitzero"`
	Diagnostics []*Diagnostic   `json:"diagnostics,omitzero"`
	IsPreferred *bool           `json:"isPreferred,omitzero"`
	Edit        *WorkspaceEdit  `json:"edit,omitzero"`
}

// FormattingOptions carries the client's indentation preferences. The server
// formats by applying safe fixes, so these are accepted but not consulted.
type FormattingOptions struct {
	TabSize      uint32 `json:"tabSize"`
	InsertSpaces bool   `json:"insertSpaces"`
}

// DocumentFormattingParams is the payload of textDocument/formatting.
type DocumentFormattingParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Options      FormattingOptions      `json:"options"`
}

// DidChangeConfigurationParams is the payload of
// workspace/didChangeConfiguration. Settings is the raw JSON value; its shape
// is client-specific and parsed leniently.
type DidChangeConfigurationParams struct {
	Settings any `json:"settings"`
}
