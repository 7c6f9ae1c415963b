// Package lspserver implements a Language Server Protocol server for trivet.
//
// The server provides C# style diagnostics, quick-fix code actions, and
// document formatting through LSP. It reuses the same lint pipeline as the
// CLI (syntax parse, rules, processors).
//
// Transport: stdio only (--stdio).
// Protocol: LSP 3.17 types via internal/lsp/protocol, JSON-RPC via
// golang.org/x/exp/jsonrpc2.
package lspserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"sync"

	json "encoding/json/v2"

	"golang.org/x/exp/jsonrpc2"

	protocol "github.com/wharflab/trivet/internal/lsp/protocol"
	"github.com/wharflab/trivet/internal/version"
)

const serverName = "trivet"

// Server is the trivet LSP server.
type Server struct {
	documents *DocumentStore
	lintCache *lintResultCache

	// conn is set by serverBinder.Bind before the first message is read.
	conn *jsonrpc2.Connection

	settingsMu sync.RWMutex
	settings   clientSettings

	diagMu                     sync.RWMutex
	pushDiagnostics            bool
	supportsDiagnosticRefresh  bool
	supportsDiagnosticPullMode bool
}

// New creates a new LSP server.
func New() *Server {
	return &Server{
		documents: NewDocumentStore(),
		lintCache: newLintResultCache(),
		settings:  defaultClientSettings(),
		// Default to push diagnostics (publishDiagnostics). If the client supports
		// the LSP 3.17 pull model, we switch to pull to avoid duplicate diagnostics.
		pushDiagnostics: true,
	}
}

// RunStdio starts the LSP server on stdin/stdout.
// It blocks until the connection is closed or the context is cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.serve(ctx, stdioDialer{})
}

func (s *Server) serve(ctx context.Context, dialer jsonrpc2.Dialer) error {
	conn, err := jsonrpc2.Dial(ctx, dialer, serverBinder{server: s})
	if err != nil {
		return err
	}
	if err := conn.Wait(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// serverBinder wires a Server to its connection. Bind runs before the read
// loop starts, so handlers can rely on s.conn being set.
type serverBinder struct {
	server *Server
}

func (b serverBinder) Bind(_ context.Context, conn *jsonrpc2.Connection) (jsonrpc2.ConnectionOptions, error) {
	b.server.conn = conn
	return jsonrpc2.ConnectionOptions{
		Framer:    jsonrpc2.HeaderFramer(),
		Preempter: &cancelPreempter{conn: conn},
		Handler:   jsonrpc2.HandlerFunc(b.server.handle),
	}, nil
}

// cancelPreempter handles $/cancelRequest before the request queue, so a
// cancellation can reach an in-flight handler.
type cancelPreempter struct {
	conn *jsonrpc2.Connection
}

func (p *cancelPreempter) Preempt(_ context.Context, req *jsonrpc2.Request) (any, error) {
	if req.Method != string(protocol.MethodCancelRequest) {
		return nil, jsonrpc2.ErrNotHandled
	}
	var params struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		// Malformed cancel notifications are ignored.
		return nil, nil //nolint:nilnil // LSP: notifications have no result
	}
	var id jsonrpc2.ID
	switch v := params.ID.(type) {
	case float64:
		id = jsonrpc2.Int64ID(int64(v))
	case string:
		id = jsonrpc2.StringID(v)
	}
	if id.IsValid() && p.conn != nil {
		p.conn.Cancel(id)
	}
	return nil, nil //nolint:nilnil // LSP: notifications have no result
}

// handle dispatches incoming JSON-RPC messages to the appropriate handler.
func (s *Server) handle(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	switch protocol.Method(req.Method) {
	// Lifecycle
	case protocol.MethodInitialize:
		return unmarshalAndCall(ctx, req, s.handleInitialize)
	case protocol.MethodInitialized, protocol.MethodSetTrace:
		return nil, nil //nolint:nilnil // LSP: notifications have no result
	case protocol.MethodShutdown:
		return nil, nil //nolint:nilnil // LSP: shutdown returns null
	case protocol.MethodExit:
		return nil, s.conn.Close()

	// Document sync
	case protocol.MethodTextDocumentDidOpen:
		return nil, unmarshalAndNotify(ctx, req, s.handleDidOpen)
	case protocol.MethodTextDocumentDidChange:
		return nil, unmarshalAndNotify(ctx, req, s.handleDidChange)
	case protocol.MethodTextDocumentDidSave:
		return nil, unmarshalAndNotify(ctx, req, s.handleDidSave)
	case protocol.MethodTextDocumentDidClose:
		return nil, unmarshalAndNotify(ctx, req, s.handleDidClose)

	// Language features
	case protocol.MethodTextDocumentCodeAction:
		return unmarshalAndCall(ctx, req, s.handleCodeAction)
	case protocol.MethodTextDocumentDiagnostic:
		return unmarshalAndCall(ctx, req, s.handleDiagnostic)
	case protocol.MethodTextDocumentFormatting:
		return unmarshalAndCall(ctx, req, s.handleFormatting)

	// Workspace
	case protocol.MethodWorkspaceDidChangeConfiguration:
		return nil, unmarshalAndNotify(ctx, req, s.handleDidChangeConfiguration)

	default:
		if req.IsCall() {
			return nil, fmt.Errorf("%w: %s", jsonrpc2.ErrMethodNotFound, req.Method)
		}
		return nil, nil //nolint:nilnil // unknown notifications are ignored
	}
}

// unmarshalAndCall unmarshals request params into T using json/v2 and calls
// fn. The connection marshals the returned result.
func unmarshalAndCall[T any](ctx context.Context, req *jsonrpc2.Request, fn func(context.Context, *T) (any, error)) (any, error) {
	var params T
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err)
		}
	}
	return fn(ctx, &params)
}

// unmarshalAndNotify unmarshals request params into T using json/v2 and calls
// fn (for notifications that have no return).
func unmarshalAndNotify[T any](ctx context.Context, req *jsonrpc2.Request, fn func(context.Context, *T)) error {
	var params T
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err)
		}
	}
	fn(ctx, &params)
	return nil
}

// notify sends a server-to-client notification.
func (s *Server) notify(ctx context.Context, method protocol.Method, params any) error {
	return s.conn.Notify(ctx, string(method), params)
}

// handleInitialize responds to the initialize request with server capabilities.
func (s *Server) handleInitialize(_ context.Context, params *protocol.InitializeParams) (any, error) {
	log.Printf("lsp: initialize from %s", clientInfoString(params))

	s.configureDiagnosticsMode(params)

	ver := version.RawVersion()

	return &protocol.InitializeResult{
		Capabilities: &protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrTo(true),
				Change:    ptrTo(protocol.TextDocumentSyncKindFull),
				Save:      &protocol.SaveOptions{IncludeText: ptrTo(true)},
			},
			CodeActionProvider: &protocol.CodeActionOptions{
				CodeActionKinds: []protocol.CodeActionKind{
					protocol.CodeActionKindQuickFix,
					fixAllCodeActionKind,
				},
			},
			DocumentFormattingProvider: ptrTo(true),
			DiagnosticProvider: &protocol.DiagnosticOptions{
				Identifier: ptrTo(serverName),
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: &ver,
		},
	}, nil
}

// handleDidOpen lints the opened document and publishes diagnostics.
func (s *Server) handleDidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) {
	uri := string(params.TextDocument.URI)
	if uri == "" {
		return
	}
	s.documents.Open(uri, params.TextDocument.LanguageID, params.TextDocument.Version, params.TextDocument.Text)

	if doc := s.documents.Get(uri); doc != nil && s.pushDiagnosticsEnabled() {
		s.publishDiagnostics(ctx, doc)
	}
}

// handleDidChange updates the document and re-lints.
func (s *Server) handleDidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) {
	uri := string(params.TextDocument.URI)

	// With full sync, there's exactly one content change containing the full text.
	for _, change := range params.ContentChanges {
		s.documents.Update(uri, params.TextDocument.Version, change.Text)
	}

	if doc := s.documents.Get(uri); doc != nil && s.pushDiagnosticsEnabled() {
		s.publishDiagnostics(ctx, doc)
	}
}

// handleDidSave re-lints on save.
func (s *Server) handleDidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) {
	uri := string(params.TextDocument.URI)
	if params.Text != nil && *params.Text != "" {
		s.documents.Update(uri, 0, *params.Text)
	}

	if doc := s.documents.Get(uri); doc != nil && s.pushDiagnosticsEnabled() {
		s.publishDiagnostics(ctx, doc)
	}
}

// handleDidClose clears diagnostics and removes the document.
func (s *Server) handleDidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) {
	uri := string(params.TextDocument.URI)
	// Capture version before closing so clearDiagnostics can include it.
	var docVersion *int32
	if doc := s.documents.Get(uri); doc != nil {
		docVersion = &doc.Version
	}
	s.documents.Close(uri)
	s.lintCache.delete(uri)
	if s.pushDiagnosticsEnabled() {
		s.clearDiagnostics(ctx, uri, docVersion)
	}
}

// handleCodeAction returns quick-fix code actions.
func (s *Server) handleCodeAction(ctx context.Context, params *protocol.CodeActionParams) (any, error) {
	doc := s.documents.Get(string(params.TextDocument.URI))
	if doc == nil {
		return nil, nil //nolint:nilnil // LSP: null result is valid for "no actions"
	}

	actions := s.codeActionsForDocument(ctx, doc, params)
	if len(actions) == 0 {
		return nil, nil //nolint:nilnil // LSP: null result is valid for "no actions"
	}
	return actions, nil
}

// clientInfoString formats client info for logging.
func clientInfoString(params *protocol.InitializeParams) string {
	if params == nil {
		return "unknown"
	}
	if ci := params.ClientInfo; ci != nil && ci.Name != "" {
		if ci.Version != nil {
			return ci.Name + " " + *ci.Version
		}
		return ci.Name
	}
	if params.ProcessID != nil {
		return "pid " + strconv.FormatInt(int64(*params.ProcessID), 10)
	}
	return "unknown"
}

func ptrTo[T any](v T) *T {
	return &v
}

// stdioDialer hands the server's stdin/stdout to the JSON-RPC connection.
type stdioDialer struct{}

func (stdioDialer) Dial(context.Context) (io.ReadWriteCloser, error) {
	return stdioReadWriteCloser{}, nil
}

// stdioReadWriteCloser wraps stdin/stdout as an io.ReadWriteCloser for JSON-RPC.
type stdioReadWriteCloser struct{}

func (stdioReadWriteCloser) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriteCloser) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioReadWriteCloser) Close() error                { return nil }
