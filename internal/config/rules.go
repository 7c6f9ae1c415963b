package config

import (
	"maps"
	"slices"
	"strings"

	"github.com/wharflab/trivet/internal/rules/configutil"
)

// FixMode controls when auto-fixes are applied for a rule.
type FixMode string

const (
	// FixModeNever disables fixes even with --fix.
	FixModeNever FixMode = "never"

	// FixModeExplicit requires --fix-rule to apply.
	FixModeExplicit FixMode = "explicit"

	// FixModeAlways applies with --fix when safety threshold is met (default).
	FixModeAlways FixMode = "always"

	// FixModeUnsafeOnly requires --fix-unsafe to apply.
	FixModeUnsafeOnly FixMode = "unsafe-only"
)

// RuleConfig is the per-rule block of the config file. Rule-specific
// options sit flattened next to the common keys:
//
//	[rules.trivet.max-lines]
//	severity = "warning"
//	fix = "always"
//	max = 100
//	skip-blank-lines = true
type RuleConfig struct {
	// Severity overrides the rule's default severity.
	// Use "off" to disable the rule.
	Severity string `json:"severity,omitempty" jsonschema:"enum=off,enum=error,enum=warning,enum=info,enum=style" koanf:"severity"`

	// Fix controls when auto-fixes are applied for this rule.
	// Values: never, explicit, always (default), unsafe-only.
	Fix FixMode `json:"fix,omitempty" jsonschema:"enum=never,enum=explicit,enum=always,enum=unsafe-only" koanf:"fix"`

	// Exclude contains path patterns where this rule should not run.
	Exclude ExcludeConfig `json:"exclude" koanf:"exclude"`

	// Options contains rule-specific configuration options.
	Options map[string]any `json:"-" koanf:",remain"`
}

// ExcludeConfig defines file exclusion patterns for a rule.
type ExcludeConfig struct {
	// Paths contains glob patterns for files to exclude.
	Paths []string `json:"paths,omitempty" jsonschema:"description=Glob patterns for files to exclude (e.g. test/**)" koanf:"paths"`
}

// RulesConfig selects which rules run and carries their per-rule blocks.
// Selection follows Ruff's include/exclude pattern scheme:
//
//	[rules]
//	include = ["trivet/*"]            # every trivet rule
//	exclude = ["trivet/max-lines"]    # minus this one
//
//	[rules.trivet.bracket-spacing]
//	severity = "info"
type RulesConfig struct {
	// Include explicitly enables rules.
	Include []string `json:"include,omitempty" jsonschema:"description=Enable rules by pattern (e.g. trivet/*)" koanf:"include"`

	// Exclude explicitly disables rules.
	Exclude []string `json:"exclude,omitempty" jsonschema:"description=Disable rules by pattern" koanf:"exclude"`

	// Trivet contains configuration for trivet/* rules.
	Trivet map[string]RuleConfig `json:"trivet,omitempty" jsonschema:"description=Configuration for trivet/* rules" koanf:"trivet"`
}

// Get returns a copy of the configuration block for a namespaced rule code
// such as "trivet/bracket-spacing", or nil when the rule has none.
func (rc *RulesConfig) Get(ruleCode string) *RuleConfig {
	if rc == nil {
		return nil
	}
	ns, name := splitRuleCode(ruleCode)
	if cfg, ok := rc.namespaceRules(ns)[name]; ok {
		return &cfg
	}
	return nil
}

// splitRuleCode separates "trivet/bracket-spacing" into namespace and
// name. A bare name has an empty namespace.
func splitRuleCode(ruleCode string) (ns, name string) {
	if before, after, ok := strings.Cut(ruleCode, "/"); ok && before != "" {
		return before, after
	}
	return "", ruleCode
}

// IsEnabled resolves the include/exclude patterns for a rule. Include wins
// over Exclude; nil means neither matched and the rule default applies.
func (rc *RulesConfig) IsEnabled(ruleCode string) *bool {
	if rc == nil {
		return nil
	}
	switch {
	case anyPatternMatches(rc.Include, ruleCode):
		enabled := true
		return &enabled
	case anyPatternMatches(rc.Exclude, ruleCode):
		enabled := false
		return &enabled
	default:
		return nil
	}
}

func anyPatternMatches(patterns []string, ruleCode string) bool {
	for _, pattern := range patterns {
		if patternMatches(pattern, ruleCode) {
			return true
		}
	}
	return false
}

// patternMatches accepts "*" (everything), an exact rule code, or a
// namespace wildcard like "trivet/*".
func patternMatches(pattern, ruleCode string) bool {
	if pattern == "*" || pattern == ruleCode {
		return true
	}
	if ns, ok := strings.CutSuffix(pattern, "/*"); ok {
		codeNS, _ := splitRuleCode(ruleCode)
		return codeNS == ns
	}
	return false
}

// GetSeverity returns the configured severity override for a rule, or ""
// when none is set.
func (rc *RulesConfig) GetSeverity(ruleCode string) string {
	if cfg := rc.Get(ruleCode); cfg != nil {
		return cfg.Severity
	}
	return ""
}

// GetFixMode returns the configured fix mode for a rule, defaulting to
// FixModeAlways.
func (rc *RulesConfig) GetFixMode(ruleCode string) FixMode {
	if cfg := rc.Get(ruleCode); cfg != nil && cfg.Fix != "" {
		return cfg.Fix
	}
	return FixModeAlways
}

// GetExcludePaths returns a copy of the rule's path exclusion patterns.
func (rc *RulesConfig) GetExcludePaths(ruleCode string) []string {
	cfg := rc.Get(ruleCode)
	if cfg == nil || cfg.Exclude.Paths == nil {
		return nil
	}
	return slices.Clone(cfg.Exclude.Paths)
}

// GetOptions returns a copy of the rule's flattened option map, or nil
// when the rule has none.
func (rc *RulesConfig) GetOptions(ruleCode string) map[string]any {
	cfg := rc.Get(ruleCode)
	if cfg == nil || cfg.Options == nil {
		return nil
	}
	return maps.Clone(cfg.Options)
}

// DecodeRuleOptions returns typed rule options merged over defaults.
// Returns defaults if the rule has no options or decoding fails.
func DecodeRuleOptions[T any](rc *RulesConfig, ruleCode string, defaults T) T {
	if rc == nil {
		return defaults
	}
	return configutil.Resolve(rc.GetOptions(ruleCode), defaults)
}

// Set stores the configuration block for a rule, creating the namespace
// map as needed. Unknown namespaces are rejected.
func (rc *RulesConfig) Set(ruleCode string, cfg RuleConfig) bool {
	ns, name := splitRuleCode(ruleCode)
	if ns != "trivet" {
		return false
	}
	if rc.Trivet == nil {
		rc.Trivet = make(map[string]RuleConfig)
	}
	rc.Trivet[name] = cfg
	return true
}

func (rc *RulesConfig) namespaceRules(ns string) map[string]RuleConfig {
	if ns == "trivet" {
		return rc.Trivet
	}
	return nil
}
