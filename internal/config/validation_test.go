package config

import (
	"strings"
	"testing"

	_ "github.com/wharflab/trivet/internal/rules/all"
)

func TestDecodeConfig_CoercesStringTypesUsingSchema(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"editorconfig": "false",
		"rules": map[string]any{
			"include": "trivet/max-lines,trivet/final-newline",
			"max-lines": map[string]any{
				"max":           "500",
				"skip-comments": "false",
			},
		},
		"output": map[string]any{
			"show-source": "false",
		},
		"cache": map[string]any{
			"enabled": "false",
		},
		"file-validation": map[string]any{
			"max-file-size": "1024",
		},
	}

	cfg, err := decodeConfig(raw)
	if err != nil {
		t.Fatalf("decodeConfig() error = %v", err)
	}

	if cfg.Output.ShowSource {
		t.Fatal("cfg.Output.ShowSource = true, want false")
	}
	if cfg.EditorConfig {
		t.Fatal("cfg.EditorConfig = true, want false")
	}
	if cfg.Cache.Enabled {
		t.Fatal("cfg.Cache.Enabled = true, want false")
	}
	if cfg.FileValidation.MaxFileSize != 1024 {
		t.Fatalf("cfg.FileValidation.MaxFileSize = %d, want 1024", cfg.FileValidation.MaxFileSize)
	}

	if got := cfg.Rules.Include; len(got) != 2 || got[0] != "trivet/max-lines" || got[1] != "trivet/final-newline" {
		t.Fatalf("cfg.Rules.Include = %#v, want [trivet/max-lines trivet/final-newline]", got)
	}

	opts := cfg.Rules.GetOptions("trivet/max-lines")
	if opts == nil {
		t.Fatal("cfg.Rules.GetOptions(trivet/max-lines) = nil, want map")
	}
	if got := asInt64(t, opts["max"]); got != 500 {
		t.Fatalf("max-lines opts[max] = %d, want 500", got)
	}
	skipComments, ok := opts["skip-comments"].(bool)
	if !ok {
		t.Fatalf("max-lines opts[skip-comments] type = %T, want bool", opts["skip-comments"])
	}
	if skipComments {
		t.Fatal("max-lines opts[skip-comments] = true, want false")
	}
}

func TestDecodeConfig_Shorthand(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"rules": map[string]any{
			"trivet": map[string]any{
				"max-lines":              120,
				"consistent-indentation": "tabs",
				"bracket-spacing":        "off",
			},
		},
	}

	cfg, err := decodeConfig(raw)
	if err != nil {
		t.Fatalf("decodeConfig() error = %v", err)
	}

	if got := asInt64(t, cfg.Rules.GetOptions("trivet/max-lines")["max"]); got != 120 {
		t.Errorf("max-lines max = %d, want 120", got)
	}
	if got := cfg.Rules.GetOptions("trivet/consistent-indentation")["style"]; got != "tabs" {
		t.Errorf("consistent-indentation style = %v, want tabs", got)
	}
	if got := cfg.Rules.GetSeverity("trivet/bracket-spacing"); got != "off" {
		t.Errorf("bracket-spacing severity = %q, want off", got)
	}
}

func TestDecodeConfig_PreservesRuleControlKeys(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"rules": map[string]any{
			"trivet": map[string]any{
				"no-trailing-spaces": map[string]any{
					"severity":         "error",
					"fix":              "never",
					"exclude":          map[string]any{"paths": []any{"vendor/**"}},
					"skip-blank-lines": true,
				},
			},
		},
	}

	cfg, err := decodeConfig(raw)
	if err != nil {
		t.Fatalf("decodeConfig() error = %v", err)
	}

	if got := cfg.Rules.GetSeverity("trivet/no-trailing-spaces"); got != "error" {
		t.Errorf("severity = %q, want error", got)
	}
	if got := cfg.Rules.GetFixMode("trivet/no-trailing-spaces"); got != FixModeNever {
		t.Errorf("fix mode = %q, want never", got)
	}
	if got := cfg.Rules.GetExcludePaths("trivet/no-trailing-spaces"); len(got) != 1 || got[0] != "vendor/**" {
		t.Errorf("exclude paths = %#v, want [vendor/**]", got)
	}

	opts := cfg.Rules.GetOptions("trivet/no-trailing-spaces")
	if got, ok := opts["skip-blank-lines"].(bool); !ok || !got {
		t.Errorf("opts[skip-blank-lines] = %v, want true", opts["skip-blank-lines"])
	}
	for _, key := range []string{"severity", "fix", "exclude"} {
		if _, present := opts[key]; present {
			t.Errorf("opts contains control key %q", key)
		}
	}
}

func TestDecodeConfig_TopLevelAliasWinsOverSection(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"format": "sarif",
		"output": map[string]any{"format": "json"},
	}

	cfg, err := decodeConfig(raw)
	if err != nil {
		t.Fatalf("decodeConfig() error = %v", err)
	}
	if cfg.Output.Format != "sarif" {
		t.Fatalf("Format = %q, want sarif (alias wins)", cfg.Output.Format)
	}
}

func TestDecodeConfig_AcceptsKnownFormats(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"text", "auto", "json", "sarif", "github-actions", "github", "markdown", "md"} {
		t.Run(format, func(t *testing.T) {
			t.Parallel()

			raw := map[string]any{"output": map[string]any{"format": format}}
			cfg, err := decodeConfig(raw)
			if err != nil {
				t.Fatalf("decodeConfig() error = %v", err)
			}
			if cfg.Output.Format != format {
				t.Errorf("Format = %q, want %q", cfg.Output.Format, format)
			}
		})
	}
}

func TestDecodeConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     map[string]any
		wantErr string
	}{
		{
			name:    "invalid format",
			raw:     map[string]any{"output": map[string]any{"format": "xml"}},
			wantErr: "invalid output format",
		},
		{
			name:    "invalid fail-level",
			raw:     map[string]any{"output": map[string]any{"fail-level": "fatal"}},
			wantErr: "invalid fail-level",
		},
		{
			name: "invalid severity",
			raw: map[string]any{
				"rules": map[string]any{
					"trivet": map[string]any{
						"max-lines": map[string]any{"severity": "severe"},
					},
				},
			},
			wantErr: "invalid severity",
		},
		{
			name: "invalid fix mode",
			raw: map[string]any{
				"rules": map[string]any{
					"trivet": map[string]any{
						"max-lines": map[string]any{"fix": "sometimes"},
					},
				},
			},
			wantErr: "invalid fix mode",
		},
		{
			name: "options for rule without schema",
			raw: map[string]any{
				"rules": map[string]any{
					"trivet": map[string]any{
						"bracket-spacing": map[string]any{"width": 2},
					},
				},
			},
			wantErr: "does not support options",
		},
		{
			name: "options for unknown rule",
			raw: map[string]any{
				"rules": map[string]any{
					"trivet": map[string]any{
						"nonexistent": map[string]any{"foo": 1},
					},
				},
			},
			wantErr: "does not support options",
		},
		{
			name: "unknown option rejected by schema",
			raw: map[string]any{
				"rules": map[string]any{
					"trivet": map[string]any{
						"no-trailing-spaces": map[string]any{"bogus": true},
					},
				},
			},
			wantErr: "invalid options",
		},
		{
			name: "non-table rule entry",
			raw: map[string]any{
				"rules": map[string]any{
					"trivet": map[string]any{
						"final-newline": []any{"yes"},
					},
				},
			},
			wantErr: "must be a table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := decodeConfig(tt.raw)
			if err == nil {
				t.Fatal("decodeConfig() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("decodeConfig() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeConfig_UnknownRuleSeverityAllowed(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"rules": map[string]any{
			"trivet": map[string]any{
				"future-rule": map[string]any{"severity": "warning"},
			},
		},
	}

	cfg, err := decodeConfig(raw)
	if err != nil {
		t.Fatalf("decodeConfig() error = %v", err)
	}
	if got := cfg.Rules.GetSeverity("trivet/future-rule"); got != "warning" {
		t.Fatalf("GetSeverity(trivet/future-rule) = %q, want warning", got)
	}
}
