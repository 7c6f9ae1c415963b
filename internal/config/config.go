// Package config provides configuration loading and discovery for trivet.
//
// Configuration is loaded from multiple sources with the following priority
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (TRIVET_* prefix)
//  3. Config file (closest .trivet.toml, trivet.toml, .trivet.yaml, or trivet.yaml)
//  4. Built-in defaults
//
// Config file discovery follows a cascading pattern similar to Ruff:
// starting from the target file's directory, walk up the filesystem
// until a config file is found. The closest config wins (no merging).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"go.yaml.in/yaml/v4"
)

// ConfigFileNames defines the config file names to search for, in priority order.
var ConfigFileNames = []string{".trivet.toml", "trivet.toml", ".trivet.yaml", "trivet.yaml"}

// EnvPrefix is the prefix for environment variables.
const EnvPrefix = "TRIVET_"

// Config represents the complete trivet configuration.
type Config struct {
	// Rules contains configuration for individual linting rules.
	Rules RulesConfig `json:"rules" koanf:"rules"`

	// Output configures output format and destination.
	Output OutputConfig `json:"output" koanf:"output"`

	// FileValidation configures pre-parse file validation checks.
	FileValidation FileValidationConfig `json:"file-validation" koanf:"file-validation"`

	// Cache configures the on-disk result cache.
	Cache CacheConfig `json:"cache" koanf:"cache"`

	// EditorConfig enables per-file defaults from .editorconfig files.
	EditorConfig bool `json:"editorconfig" koanf:"editorconfig"`

	// ConfigFile is the path to the config file that was loaded (if any).
	// This is metadata, not loaded from config.
	ConfigFile string `json:"-" koanf:"-"`
}

// FileValidationConfig configures pre-parse file validation checks.
//
// Example TOML configuration:
//
//	[file-validation]
//	max-file-size = 102400
type FileValidationConfig struct {
	// MaxFileSize is the maximum file size in bytes (0 = unlimited).
	MaxFileSize int64 `json:"max-file-size,omitempty" koanf:"max-file-size"`
}

// OutputConfig configures output formatting and behavior.
type OutputConfig struct {
	// Format specifies the output format.
	Format string `json:"format,omitempty" koanf:"format"`

	// Path specifies where to write output.
	Path string `json:"path,omitempty" koanf:"path"`

	// ShowSource enables source code snippets in text output.
	ShowSource bool `json:"show-source,omitempty" koanf:"show-source"`

	// FailLevel sets the minimum severity level that causes a non-zero exit code.
	FailLevel string `json:"fail-level,omitempty" koanf:"fail-level"`
}

// CacheConfig configures the on-disk result cache.
//
// Example TOML configuration:
//
//	[cache]
//	enabled = true
//	dir = "/tmp/trivet-cache"
type CacheConfig struct {
	// Enabled toggles the result cache.
	Enabled bool `json:"enabled,omitempty" koanf:"enabled"`

	// Dir overrides the cache directory (default: user cache dir).
	Dir string `json:"dir,omitempty" koanf:"dir"`
}

// Default returns the default configuration.
// Rule-specific defaults are owned by each rule via ConfigurableRule.DefaultConfig().
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format:     "text",
			Path:       "stdout",
			ShowSource: true,
			FailLevel:  "style", // Any violation causes exit code 1
		},
		Rules: RulesConfig{}, // Empty - defaults come from rules
		FileValidation: FileValidationConfig{
			MaxFileSize: 4 * 1024 * 1024, // 4 MiB
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		EditorConfig: true,
	}
}

// Load loads configuration for a target file path.
// It discovers the closest config file, loads it, and applies
// environment variable overrides.
func Load(targetPath string) (*Config, error) {
	return loadWithConfigPath(Discover(targetPath))
}

// LoadFromFile loads configuration from a specific config file path.
// Unlike Load, it does not perform config discovery.
func LoadFromFile(configPath string) (*Config, error) {
	return loadWithConfigPath(configPath)
}

// loadWithConfigPath is an internal helper that loads config with an optional config file path.
func loadWithConfigPath(configPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	// 2. Load config file if provided
	if err := loadConfigFile(k, configPath); err != nil {
		return nil, err
	}

	// 3. Load environment variables (TRIVET_* prefix)
	// TRIVET_RULES_MAX_LINES_MAX -> rules.max-lines.max
	if err := loadEnv(k); err != nil {
		return nil, err
	}

	// 4. Validate merged raw config and decode.
	cfg, err := decodeConfig(k.Raw())
	if err != nil {
		return nil, err
	}

	cfg.ConfigFile = configPath
	return cfg, nil
}

func loadConfigFile(k *koanf.Koanf, configPath string) error {
	if configPath == "" {
		return nil
	}
	return k.Load(file.Provider(configPath), parserFor(configPath))
}

func loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKeyTransform,
	}), nil)
}

// parserFor selects a koanf parser from the config file extension.
func parserFor(configPath string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		return yamlParser{}
	default:
		return toml.Parser()
	}
}

// yamlParser adapts go.yaml.in/yaml/v4 to the koanf.Parser interface.
type yamlParser struct{}

func (yamlParser) Unmarshal(b []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (yamlParser) Marshal(m map[string]any) ([]byte, error) {
	return yaml.Marshal(m)
}

// knownHyphenatedKeys maps dot-separated patterns to their hyphenated equivalents.
// Add new entries here when adding rules with hyphenated names.
var knownHyphenatedKeys = map[string]string{
	"max.lines":              "max-lines",
	"max.file.size":          "max-file-size",
	"skip.blank.lines":       "skip-blank-lines",
	"skip.comments":          "skip-comments",
	"ignore.comments":        "ignore-comments",
	"bracket.spacing":        "bracket-spacing",
	"attribute.brackets":     "attribute-brackets",
	"keyword.spacing":        "keyword-spacing",
	"comment.spacing":        "comment-spacing",
	"no.trailing.spaces":     "no-trailing-spaces",
	"final.newline":          "final-newline",
	"consistent.indentation": "consistent-indentation",
	"secrets.in.comments":    "secrets-in-comments",
	"show.source":            "show-source",
	"fail.level":             "fail-level",
	"file.validation":        "file-validation",
}

var allowedEnvTopLevelKeys = map[string]struct{}{
	"rules":           {},
	"output":          {},
	"cache":           {},
	"editorconfig":    {},
	"file-validation": {},
	// Compatibility aliases normalized in normalizeOutputAliases.
	"format":      {},
	"path":        {},
	"show-source": {},
	"fail-level":  {},
}

// envKeyTransform converts environment variable names to config keys.
// TRIVET_FORMAT -> format
// TRIVET_RULES_MAX_LINES_MAX -> rules.max-lines.max
func envKeyTransform(k, v string) (string, any) {
	// Remove TRIVET_ prefix (already stripped by Prefix option, but keeping for safety)
	s := strings.TrimPrefix(k, EnvPrefix)
	// Convert to lowercase and replace _ with . for nesting
	s = strings.ToLower(s)
	// RULES_MAX_LINES_MAX -> rules.max.lines.max
	s = strings.ReplaceAll(s, "_", ".")
	// Fix known hyphenated keys using lookup table
	for pattern, replacement := range knownHyphenatedKeys {
		s = strings.ReplaceAll(s, pattern, replacement)
	}

	topLevel := s
	if before, _, ok := strings.Cut(s, "."); ok {
		topLevel = before
	}
	if _, ok := allowedEnvTopLevelKeys[topLevel]; !ok {
		return "", nil
	}

	return s, v
}

// Discover finds the closest config file for a target file path.
// It walks up the directory tree from the target's directory,
// checking for config files at each level.
// Returns empty string if no config file is found.
func Discover(targetPath string) string {
	// Get absolute path to handle relative paths correctly
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return ""
	}

	// Start from the target's directory
	dir := filepath.Dir(absPath)

	for {
		// Check each config file name in priority order
		for _, name := range ConfigFileNames {
			configPath := filepath.Join(dir, name)
			if fileExists(configPath) {
				return configPath
			}
		}

		// Move up to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return ""
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
