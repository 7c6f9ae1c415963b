package linter

import (
	"slices"

	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/rules/whitespace"
)

// EnabledRuleCodes returns the sorted codes of every rule that would run
// under the given config, ignoring per-file editorconfig gating.
func EnabledRuleCodes(cfg *config.Config) []string {
	enabled := enabledRulesFor(cfg, config.FileDefaults{})
	codes := make([]string, 0, len(enabled))
	for _, rule := range enabled {
		codes = append(codes, rule.Descriptor().Code)
	}
	slices.Sort(codes)
	return codes
}

// enabledRulesFor resolves the default registry against cfg and a file's
// editorconfig defaults. The analyzer is built from the returned rules, so
// disabled rules never run at all.
func enabledRulesFor(cfg *config.Config, defaults config.FileDefaults) []rules.Rule {
	var enabled []rules.Rule
	for _, rule := range rules.DefaultRegistry().Rules() {
		if isRuleEnabled(rule.Descriptor(), cfg, defaults) {
			enabled = append(enabled, rule)
		}
	}
	return enabled
}

// isRuleEnabled checks if a rule is effectively enabled based on config.
func isRuleEnabled(desc rules.Descriptor, cfg *config.Config, defaults config.FileDefaults) bool {
	enabledByDefault := desc.EnabledByDefault && desc.DefaultSeverity != rules.SeverityOff

	if cfg != nil {
		// Check if explicitly enabled/disabled by include/exclude pattern.
		if enabled := cfg.Rules.IsEnabled(desc.Code); enabled != nil {
			return *enabled
		}

		if rc := cfg.Rules.Get(desc.Code); rc != nil {
			// Respect explicit severity overrides (on/off).
			if rc.Severity != "" {
				return rc.Severity != "off"
			}
			// Configuring a rule's options enables it.
			if len(rc.Options) > 0 {
				return true
			}
		}
	}

	// editorconfig can switch off the two rules it covers for a file.
	// Explicit trivet configuration above always wins over it.
	switch desc.Code {
	case whitespace.NoTrailingSpacesRuleCode:
		if defaults.TrimTrailingWhitespace != nil && !*defaults.TrimTrailingWhitespace {
			return false
		}
	case whitespace.FinalNewlineRuleCode:
		if defaults.InsertFinalNewline != nil && !*defaults.InsertFinalNewline {
			return false
		}
	}

	return enabledByDefault
}

// ruleConfigsFor collects per-rule options for the analyzer, seeding the
// indentation style from editorconfig when the config left it open.
func ruleConfigsFor(cfg *config.Config, defaults config.FileDefaults) map[string]any {
	if cfg == nil {
		return nil
	}

	configs := make(map[string]any)
	for _, code := range rules.Codes() {
		if opts := cfg.Rules.GetOptions(code); opts != nil {
			configs[code] = opts
		}
	}

	if defaults.IndentStyle != "" {
		code := whitespace.ConsistentIndentationRuleCode
		// GetOptions returns a copy, so adding the style is safe.
		opts, _ := configs[code].(map[string]any)
		if _, set := opts["style"]; !set {
			if opts == nil {
				opts = make(map[string]any, 1)
			}
			opts["style"] = defaults.IndentStyle
			configs[code] = opts
		}
	}

	return configs
}
