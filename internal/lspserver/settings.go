package lspserver

import (
	"cmp"
	"context"
	"log"
	"path/filepath"
	"slices"
	"strings"
	"time"

	json "encoding/json/v2"

	protocol "github.com/wharflab/trivet/internal/lsp/protocol"

	"github.com/wharflab/trivet/internal/config"
)

// clientSettings is the parsed form of the editor-side configuration: one
// global block plus optional per-workspace-folder blocks. Workspaces are
// held sorted longest-root-first so a lookup can return the first match.
type clientSettings struct {
	Global     folderSettings
	Workspaces []workspaceFolderSettings
}

type workspaceFolderSettings struct {
	Root     string
	Settings folderSettings
}

type folderSettings struct {
	ConfigurationPreference config.ConfigurationPreference
	ConfigurationOverrides  map[string]any
}

func defaultClientSettings() clientSettings {
	return clientSettings{
		Global: folderSettings{
			ConfigurationPreference: config.ConfigurationPreferenceEditorFirst,
		},
	}
}

func (s *Server) handleDidChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) {
	next, ok := parseClientSettings(params.Settings)
	if !ok {
		log.Printf("lsp: didChangeConfiguration: unable to parse settings payload")
		return
	}

	s.settingsMu.Lock()
	s.settings = next
	s.settingsMu.Unlock()

	// Cached lint results were computed under the old settings.
	s.lintCache.clear()

	if s.pushDiagnosticsEnabled() {
		for _, doc := range s.documents.All() {
			s.publishDiagnostics(ctx, doc)
		}
		return
	}

	// Pull clients re-lint on their own schedule; ask for a refresh so
	// open editors pick up the new settings promptly.
	if s.diagnosticRefreshSupported() {
		reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		call := s.conn.Call(reqCtx, string(protocol.MethodWorkspaceDiagnosticRefresh), nil)
		if err := call.Await(reqCtx, nil); err != nil {
			log.Printf("lsp: workspace/diagnostic/refresh failed: %v", err)
		}
	}
}

// settingsForFile returns the settings of the innermost workspace folder
// containing filePath, or the global settings when no folder does.
func (s *Server) settingsForFile(filePath string) folderSettings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()

	filePath = filepath.Clean(filePath)
	for _, ws := range s.settings.Workspaces {
		if ws.Root != "" && pathWithin(ws.Root, filePath) {
			return ws.Settings
		}
	}
	return s.settings.Global
}

func pathWithin(root, filePath string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filePath)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}

// settingsPayload mirrors the JSON envelope clients send, either bare or
// nested under a "trivet" key.
type settingsPayload struct {
	Version    int                `json:"version"`
	Global     folderPayload      `json:"global"`
	Workspaces []workspacePayload `json:"workspaces"`
}

type workspacePayload struct {
	URI      string        `json:"uri"`
	Settings folderPayload `json:"settings"`
}

type folderPayload struct {
	ConfigurationPreference config.ConfigurationPreference `json:"configurationPreference"`
	Configuration           any                            `json:"configuration"`
}

func (p folderPayload) toSettings() folderSettings {
	return folderSettings{
		ConfigurationPreference: cmp.Or(p.ConfigurationPreference, config.ConfigurationPreferenceEditorFirst),
		ConfigurationOverrides:  overridesFrom(p.Configuration),
	}
}

func parseClientSettings(settings any) (clientSettings, bool) {
	if m, ok := settings.(map[string]any); ok {
		if nested, ok := m["trivet"]; ok {
			settings = nested
		}
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return clientSettings{}, false
	}
	var payload settingsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return clientSettings{}, false
	}

	out := clientSettings{Global: payload.Global.toSettings()}
	for _, ws := range payload.Workspaces {
		out.Workspaces = append(out.Workspaces, workspaceFolderSettings{
			Root:     uriToPath(ws.URI),
			Settings: ws.Settings.toSettings(),
		})
	}

	// Longest root first so nested workspace folders shadow their parents.
	slices.SortFunc(out.Workspaces, func(a, b workspaceFolderSettings) int {
		return cmp.Compare(len(b.Root), len(a.Root))
	})
	return out, true
}

func overridesFrom(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	return m
}
