package config

import (
	"os"
	"path/filepath"
	"testing"

	_ "github.com/wharflab/trivet/internal/rules/all"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Output.Format != "text" {
		t.Errorf("Default format = %q, want %q", cfg.Output.Format, "text")
	}
	if cfg.Output.FailLevel != "style" {
		t.Errorf("Default fail-level = %q, want %q", cfg.Output.FailLevel, "style")
	}
	if cfg.FileValidation.MaxFileSize != 4*1024*1024 {
		t.Errorf("Default max-file-size = %d, want 4 MiB", cfg.FileValidation.MaxFileSize)
	}
	if !cfg.Cache.Enabled {
		t.Error("Default cache.enabled = false, want true")
	}
	if !cfg.EditorConfig {
		t.Error("Default editorconfig = false, want true")
	}
}

func TestDiscover(t *testing.T) {
	tmpDir := t.TempDir()

	subDir := filepath.Join(tmpDir, "project", "src")
	if err := os.MkdirAll(subDir, 0o750); err != nil {
		t.Fatal(err)
	}

	sourcePath := filepath.Join(subDir, "Program.cs")
	if err := os.WriteFile(sourcePath, []byte("class C { }\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("no config file", func(t *testing.T) {
		result := Discover(sourcePath)
		if result != "" {
			t.Errorf("Discover() = %q, want empty string", result)
		}
	})

	t.Run("config in same directory", func(t *testing.T) {
		configPath := filepath.Join(subDir, ".trivet.toml")
		if err := os.WriteFile(configPath, []byte("format = \"json\""), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(configPath)

		result := Discover(sourcePath)
		if result != configPath {
			t.Errorf("Discover() = %q, want %q", result, configPath)
		}
	})

	t.Run("config in parent directory", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "project", "trivet.toml")
		if err := os.WriteFile(configPath, []byte("format = \"json\""), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(configPath)

		result := Discover(sourcePath)
		if result != configPath {
			t.Errorf("Discover() = %q, want %q", result, configPath)
		}
	})

	t.Run("prefers .trivet.toml over trivet.toml", func(t *testing.T) {
		hiddenConfig := filepath.Join(subDir, ".trivet.toml")
		visibleConfig := filepath.Join(subDir, "trivet.toml")

		if err := os.WriteFile(hiddenConfig, []byte("# hidden"), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(hiddenConfig)

		if err := os.WriteFile(visibleConfig, []byte("# visible"), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(visibleConfig)

		result := Discover(sourcePath)
		if result != hiddenConfig {
			t.Errorf("Discover() = %q, want %q (should prefer .trivet.toml)", result, hiddenConfig)
		}
	})

	t.Run("prefers toml over yaml", func(t *testing.T) {
		tomlConfig := filepath.Join(subDir, "trivet.toml")
		yamlConfig := filepath.Join(subDir, ".trivet.yaml")

		if err := os.WriteFile(tomlConfig, []byte("# toml"), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(tomlConfig)

		if err := os.WriteFile(yamlConfig, []byte("# yaml"), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(yamlConfig)

		result := Discover(sourcePath)
		if result != tomlConfig {
			t.Errorf("Discover() = %q, want %q (toml names come first)", result, tomlConfig)
		}
	})

	t.Run("closer config wins", func(t *testing.T) {
		rootConfig := filepath.Join(tmpDir, "project", "trivet.toml")
		if err := os.WriteFile(rootConfig, []byte("# root"), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(rootConfig)

		srcConfig := filepath.Join(subDir, "trivet.toml")
		if err := os.WriteFile(srcConfig, []byte("# src"), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(srcConfig)

		result := Discover(sourcePath)
		if result != srcConfig {
			t.Errorf("Discover() = %q, want %q (closer config should win)", result, srcConfig)
		}
	})
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	sourcePath := filepath.Join(tmpDir, "Program.cs")
	if err := os.WriteFile(sourcePath, []byte("class C { }\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("loads defaults when no config", func(t *testing.T) {
		cfg, err := Load(sourcePath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Output.Format != "text" {
			t.Errorf("Format = %q, want %q", cfg.Output.Format, "text")
		}
		if cfg.ConfigFile != "" {
			t.Errorf("ConfigFile = %q, want empty", cfg.ConfigFile)
		}
	})

	t.Run("loads toml config file", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, ".trivet.toml")
		configContent := `
format = "json"

[rules.max-lines]
max = 500
skip-blank-lines = false
`
		if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(configPath)

		cfg, err := Load(sourcePath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Output.Format != "json" {
			t.Errorf("Format = %q, want %q", cfg.Output.Format, "json")
		}
		if cfg.ConfigFile != configPath {
			t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, configPath)
		}

		opts := cfg.Rules.GetOptions("trivet/max-lines")
		if opts == nil {
			t.Fatal("GetOptions(trivet/max-lines) = nil, want map")
		}
		if got := asInt64(t, opts["max"]); got != 500 {
			t.Errorf("max-lines max = %d, want 500", got)
		}
		if got, ok := opts["skip-blank-lines"].(bool); !ok || got {
			t.Errorf("max-lines skip-blank-lines = %v, want false", opts["skip-blank-lines"])
		}
	})

	t.Run("loads yaml config file", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, ".trivet.yaml")
		configContent := `
output:
  format: sarif
rules:
  include:
    - trivet/*
`
		if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(configPath)

		cfg, err := Load(sourcePath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Output.Format != "sarif" {
			t.Errorf("Format = %q, want %q", cfg.Output.Format, "sarif")
		}
		if len(cfg.Rules.Include) != 1 || cfg.Rules.Include[0] != "trivet/*" {
			t.Errorf("Include = %#v, want [trivet/*]", cfg.Rules.Include)
		}
	})

	t.Run("environment variables override config", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, ".trivet.toml")
		configContent := `
format = "json"

[rules.max-lines]
max = 500
`
		if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(configPath)

		t.Setenv("TRIVET_FORMAT", "text")
		t.Setenv("TRIVET_RULES_MAX_LINES_MAX", "100")

		cfg, err := Load(sourcePath)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Output.Format != "text" {
			t.Errorf("Format = %q, want %q (env should override)", cfg.Output.Format, "text")
		}

		opts := cfg.Rules.GetOptions("trivet/max-lines")
		if got := asInt64(t, opts["max"]); got != 100 {
			t.Errorf("max-lines max = %d, want 100 (env should override)", got)
		}
	})
}

func TestLoadWithOverrides(t *testing.T) {
	tmpDir := t.TempDir()

	sourcePath := filepath.Join(tmpDir, "Program.cs")
	if err := os.WriteFile(sourcePath, []byte("class C { }\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".trivet.toml")
	if err := os.WriteFile(configPath, []byte("format = \"json\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	overrides := map[string]any{
		"output": map[string]any{"format": "sarif"},
	}

	t.Run("editorFirst overrides win", func(t *testing.T) {
		cfg, err := LoadWithOverrides(sourcePath, overrides, ConfigurationPreferenceEditorFirst)
		if err != nil {
			t.Fatalf("LoadWithOverrides() error = %v", err)
		}
		if cfg.Output.Format != "sarif" {
			t.Errorf("Format = %q, want sarif", cfg.Output.Format)
		}
	})

	t.Run("filesystemFirst config file wins", func(t *testing.T) {
		cfg, err := LoadWithOverrides(sourcePath, overrides, ConfigurationPreferenceFilesystemFirst)
		if err != nil {
			t.Fatalf("LoadWithOverrides() error = %v", err)
		}
		if cfg.Output.Format != "json" {
			t.Errorf("Format = %q, want json", cfg.Output.Format)
		}
	})

	t.Run("editorOnly skips filesystem config", func(t *testing.T) {
		cfg, err := LoadWithOverrides(sourcePath, overrides, ConfigurationPreferenceEditorOnly)
		if err != nil {
			t.Fatalf("LoadWithOverrides() error = %v", err)
		}
		if cfg.Output.Format != "sarif" {
			t.Errorf("Format = %q, want sarif", cfg.Output.Format)
		}
		if cfg.ConfigFile != "" {
			t.Errorf("ConfigFile = %q, want empty", cfg.ConfigFile)
		}
	})
}

func TestEnvKeyTransform(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"TRIVET_FORMAT", "format"},
		{"TRIVET_FAIL_LEVEL", "fail-level"},
		{"TRIVET_RULES_MAX_LINES_MAX", "rules.max-lines.max"},
		{"TRIVET_RULES_TRIVET_MAX_LINES_MAX", "rules.trivet.max-lines.max"},
		{"TRIVET_RULES_TRIVET_NO_TRAILING_SPACES_SKIP_BLANK_LINES", "rules.trivet.no-trailing-spaces.skip-blank-lines"},
		{"TRIVET_FILE_VALIDATION_MAX_FILE_SIZE", "file-validation.max-file-size"},
		{"TRIVET_CACHE_ENABLED", "cache.enabled"},
		{"TRIVET_EDITORCONFIG", "editorconfig"},
		{"TRIVET_SOME_RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		got, _ := envKeyTransform(tt.input, "value")
		if got != tt.want {
			t.Errorf("envKeyTransform(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func asInt64(t *testing.T, v any) int64 {
	t.Helper()
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	default:
		t.Fatalf("value type = %T, want int/int64", v)
		return 0
	}
}
