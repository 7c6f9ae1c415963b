package lspserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	protocol "github.com/wharflab/trivet/internal/lsp/protocol"

	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/linter"
	"github.com/wharflab/trivet/internal/processor"
	"github.com/wharflab/trivet/internal/rules"
)

// lintResultCache remembers the violations computed for a document version
// so a codeAction request arriving right after publishDiagnostics does not
// lint the same content twice.
type lintResultCache struct {
	mu      sync.Mutex
	entries map[string]lintCacheEntry
}

type lintCacheEntry struct {
	version    int32
	violations []rules.Violation
}

func newLintResultCache() *lintResultCache {
	return &lintResultCache{entries: make(map[string]lintCacheEntry)}
}

func (c *lintResultCache) get(uri string, version int32) ([]rules.Violation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[uri]
	if !ok || entry.version != version {
		return nil, false
	}
	return entry.violations, true
}

func (c *lintResultCache) set(uri string, version int32, violations []rules.Violation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[uri] = lintCacheEntry{version: version, violations: violations}
}

func (c *lintResultCache) delete(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, uri)
}

func (c *lintResultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]lintCacheEntry)
}

// publishDiagnostics lints doc and pushes the result to the client.
func (s *Server) publishDiagnostics(ctx context.Context, doc *Document) {
	violations := s.lintContent(ctx, doc.URI, []byte(doc.Content))
	s.lintCache.set(doc.URI, doc.Version, violations)

	version := doc.Version
	if err := s.notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(doc.URI),
		Version:     &version,
		Diagnostics: convertDiagnostics(violations),
	}); err != nil {
		log.Printf("lsp: failed to publish diagnostics for %s: %v", doc.URI, err)
	}
}

// clearDiagnostics publishes an empty set for a URI, wiping any displayed
// issues. version is the last known document version, nil when unknown.
func (s *Server) clearDiagnostics(ctx context.Context, docURI string, version *int32) {
	if err := s.notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(docURI),
		Version:     version,
		Diagnostics: []*protocol.Diagnostic{},
	}); err != nil {
		log.Printf("lsp: failed to clear diagnostics for %s: %v", docURI, err)
	}
}

// handleDiagnostic serves textDocument/diagnostic pulls. Open documents are
// linted from editor content; everything else comes from disk.
func (s *Server) handleDiagnostic(ctx context.Context, params *protocol.DocumentDiagnosticParams) (any, error) {
	uri := string(params.TextDocument.URI)
	if doc := s.documents.Get(uri); doc != nil {
		return s.pullFromOpenDocument(ctx, doc, params.PreviousResultID), nil
	}
	return s.pullFromDisk(ctx, uri, params.PreviousResultID), nil
}

// pullFromOpenDocument uses the document version as the result ID, so a
// client re-pulling an unchanged document gets a short unchanged report.
func (s *Server) pullFromOpenDocument(ctx context.Context, doc *Document, prev *string) *protocol.DocumentDiagnosticReport {
	resultID := fmt.Sprintf("v%d", doc.Version)
	if prev != nil && *prev == resultID {
		return unchangedReport(resultID)
	}

	violations := s.lintContent(ctx, doc.URI, []byte(doc.Content))
	return fullReport(resultID, convertDiagnostics(violations))
}

// pullFromDisk lints the on-disk file, keyed by a content hash instead of a
// version. Unreadable files report clean rather than erroring: the client
// keeps polling deleted files until the workspace catches up.
func (s *Server) pullFromDisk(ctx context.Context, docURI string, prev *string) *protocol.DocumentDiagnosticReport {
	content, err := os.ReadFile(uriToPath(docURI))
	if err != nil {
		return &protocol.DocumentDiagnosticReport{
			Kind:  protocol.DiagnosticReportKindFull,
			Items: []*protocol.Diagnostic{},
		}
	}

	resultID := contentResultID(content)
	if prev != nil && *prev == resultID {
		return unchangedReport(resultID)
	}

	violations := s.lintContent(ctx, docURI, content)
	return fullReport(resultID, convertDiagnostics(violations))
}

func fullReport(resultID string, items []*protocol.Diagnostic) *protocol.DocumentDiagnosticReport {
	return &protocol.DocumentDiagnosticReport{
		Kind:     protocol.DiagnosticReportKindFull,
		ResultID: &resultID,
		Items:    items,
	}
}

func unchangedReport(resultID string) *protocol.DocumentDiagnosticReport {
	return &protocol.DocumentDiagnosticReport{
		Kind:     protocol.DiagnosticReportKindUnchanged,
		ResultID: &resultID,
	}
}

// contentResultID derives a pull-diagnostics result ID from file content:
// the first 8 bytes of its SHA-256, hex encoded.
func contentResultID(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8])
}

// logChannel sends lint pipeline output to the server log on stderr. Stdout
// carries the protocol stream and must stay clean.
type logChannel struct{}

func (logChannel) Log(_ linter.Level, msg string) { log.Printf("lsp: %s", msg) }
func (logChannel) Progress(string, int)           {}
func (logChannel) Warn(msg string)                { log.Printf("lsp: warn: %s", msg) }

func (s *Server) lintInput(docURI string, content []byte) linter.Input {
	filePath := uriToPath(docURI)
	return linter.Input{
		FilePath: filePath,
		Content:  content,
		Config:   s.resolveConfig(filePath),
		Channel:  logChannel{},
	}
}

// resolveConfig merges editor settings with filesystem config according to
// the folder's configuration preference. A nil return defers to LintFile's
// own discovery.
func (s *Server) resolveConfig(filePath string) *config.Config {
	fs := s.settingsForFile(filePath)
	if len(fs.ConfigurationOverrides) == 0 && fs.ConfigurationPreference != config.ConfigurationPreferenceEditorOnly {
		return nil
	}
	cfg, err := config.LoadWithOverrides(filePath, fs.ConfigurationOverrides, fs.ConfigurationPreference)
	if err != nil {
		log.Printf("lsp: config resolve failed for %s: %v", filePath, err)
		return nil
	}
	return cfg
}

// lintContent runs the shared lint pipeline with the LSP processor chain.
func (s *Server) lintContent(ctx context.Context, docURI string, content []byte) []rules.Violation {
	input := s.lintInput(docURI, content)
	result, err := linter.LintFile(ctx, input)
	if err != nil {
		log.Printf("lsp: lint error for %s: %v", input.FilePath, err)
		return nil
	}

	chain := linter.LSPProcessors()
	procCtx := processor.NewContext(
		map[string]*config.Config{input.FilePath: result.Config},
		result.Config,
		map[string][]byte{input.FilePath: content},
	)
	return chain.Process(result.Violations, procCtx)
}

func convertDiagnostics(violations []rules.Violation) []*protocol.Diagnostic {
	diagnostics := make([]*protocol.Diagnostic, 0, len(violations))
	for _, v := range violations {
		d := &protocol.Diagnostic{
			Range:    violationRange(v),
			Severity: ptrTo(severityToLSP(v.Severity)),
			Source:   ptrTo(serverName),
			Code:     ptrTo(v.RuleCode),
			Message:  v.Message,
		}
		if v.DocURL != "" {
			d.CodeDescription = &protocol.CodeDescription{
				Href: protocol.URI(v.DocURL),
			}
		}
		diagnostics = append(diagnostics, d)
	}
	return diagnostics
}

// violationRange maps a violation location (1-based lines, 0-based byte
// columns) onto an LSP range (0-based lines, 0-based characters).
func violationRange(v rules.Violation) protocol.Range {
	loc := v.Location
	if loc.IsFileLevel() {
		return protocol.Range{}
	}

	startLine := clampUint32(loc.Start.Line - 1)
	startChar := clampUint32(loc.Start.Column)

	endLine := startLine
	endChar := startChar
	if !loc.IsPointLocation() {
		endLine = clampUint32(loc.End.Line - 1)
		endChar = clampUint32(loc.End.Column)
	}

	// A zero-width range would be invisible in most editors. Stretch it to
	// the rest of the line; clients clamp to the actual line length.
	if endLine == startLine && endChar == startChar {
		endChar = startChar + 1000
	}

	return protocol.Range{
		Start: protocol.Position{Line: startLine, Character: startChar},
		End:   protocol.Position{Line: endLine, Character: endChar},
	}
}

// severityToLSP maps lint severities onto the four LSP levels. SeverityOff
// never reaches here when the processor chain is in place; it degrades to
// Warning like any unknown value.
func severityToLSP(s rules.Severity) protocol.DiagnosticSeverity {
	switch s {
	case rules.SeverityError:
		return protocol.DiagnosticSeverityError
	case rules.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case rules.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	case rules.SeverityStyle:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityWarning
	}
}

// clampUint32 converts an int to uint32, flooring negatives at 0.
func clampUint32(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v) //nolint:gosec // line/column numbers are well within uint32 range
}

// uriToPath turns a file:// URI into a local path.
func uriToPath(docURI string) string {
	parsed, err := url.Parse(docURI)
	if err != nil {
		return strings.TrimPrefix(docURI, "file://")
	}
	path := parsed.Path
	if runtime.GOOS == "windows" {
		// file://server/share/x parses the UNC host separately.
		if parsed.Host != "" {
			path = `//` + parsed.Host + path
		}
		// file:///C:/x parses to /C:/x; drop the leading slash.
		if len(path) > 2 && path[0] == '/' && path[2] == ':' {
			path = path[1:]
		}
	}
	return filepath.FromSlash(path)
}
