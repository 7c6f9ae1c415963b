package config

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"

	"github.com/wharflab/trivet/internal/ruleconfig"
	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/rules/configutil"
)

var validFormats = map[string]struct{}{
	"text":           {},
	"auto":           {},
	"json":           {},
	"sarif":          {},
	"github-actions": {},
	"github":         {},
	"markdown":       {},
	"md":             {},
}

var validSeverities = map[string]struct{}{
	"off":     {},
	"error":   {},
	"warning": {},
	"info":    {},
	"style":   {},
}

var validFailLevels = map[string]struct{}{
	"error":   {},
	"warning": {},
	"info":    {},
	"style":   {},
}

var validFixModes = map[string]struct{}{
	"never":       {},
	"explicit":    {},
	"always":      {},
	"unsafe-only": {},
}

func decodeConfig(raw map[string]any) (*Config, error) {
	if err := validateAndNormalize(raw); err != nil {
		return nil, err
	}

	normalized := koanf.New(".")
	if err := normalized.Load(confmap.Provider(raw, ""), nil); err != nil {
		return nil, fmt.Errorf("load normalized config: %w", err)
	}

	cfg := &Config{}
	if err := normalized.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func validateAndNormalize(raw map[string]any) error {
	normalizeOutputAliases(raw)
	normalizeBareRuleEntries(raw)
	normalizeRuleShorthand(raw)
	coerceRawConfig(raw)

	if err := validateOutput(raw); err != nil {
		return err
	}
	return validateRuleEntries(raw)
}

// normalizeOutputAliases moves top-level format/path/show-source/fail-level
// keys into the output section. Defaults never produce top-level aliases, so
// an alias present in the merged config came from a file or the environment
// and wins over the section value.
func normalizeOutputAliases(raw map[string]any) {
	outputRaw, _ := raw["output"].(map[string]any)
	if outputRaw == nil {
		outputRaw = make(map[string]any)
		raw["output"] = outputRaw
	}

	for _, key := range []string{"format", "path", "show-source", "fail-level"} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		outputRaw[key] = value
		delete(raw, key)
	}
}

// normalizeBareRuleEntries moves rules.<name> entries into the trivet
// namespace so `[rules.max-lines]` and `[rules.trivet.max-lines]` are
// equivalent.
func normalizeBareRuleEntries(raw map[string]any) {
	rulesRaw, ok := raw["rules"].(map[string]any)
	if !ok {
		return
	}

	trivetRaw, _ := rulesRaw["trivet"].(map[string]any)
	if trivetRaw == nil {
		trivetRaw = make(map[string]any)
		rulesRaw["trivet"] = trivetRaw
	}

	reserved := map[string]struct{}{
		"include": {},
		"exclude": {},
		"trivet":  {},
	}

	for key, value := range rulesRaw {
		if _, isReserved := reserved[key]; isReserved {
			continue
		}
		if _, exists := trivetRaw[key]; !exists {
			trivetRaw[key] = value
		}
		delete(rulesRaw, key)
	}
}

func normalizeRuleShorthand(raw map[string]any) {
	rulesRaw, ok := raw["rules"].(map[string]any)
	if !ok {
		return
	}

	ruleconfig.CanonicalizeRulesMap(rulesRaw)
}

// coerceRawConfig converts string values sourced from environment variables
// into the types the config schema expects. TOML and YAML files produce
// typed values already; only scalar strings are rewritten.
func coerceRawConfig(raw map[string]any) {
	if s, ok := raw["editorconfig"].(string); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			raw["editorconfig"] = b
		}
	}

	if outputRaw, ok := raw["output"].(map[string]any); ok {
		if s, ok := outputRaw["show-source"].(string); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
				outputRaw["show-source"] = b
			}
		}
	}

	if cacheRaw, ok := raw["cache"].(map[string]any); ok {
		if s, ok := cacheRaw["enabled"].(string); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
				cacheRaw["enabled"] = b
			}
		}
	}

	if fvRaw, ok := raw["file-validation"].(map[string]any); ok {
		if s, ok := fvRaw["max-file-size"].(string); ok {
			if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				fvRaw["max-file-size"] = n
			}
		}
	}

	rulesRaw, ok := raw["rules"].(map[string]any)
	if !ok {
		return
	}

	for _, key := range []string{"include", "exclude"} {
		if s, ok := rulesRaw[key].(string); ok {
			rulesRaw[key] = splitPatternList(s)
		}
	}

	trivetRaw, ok := rulesRaw["trivet"].(map[string]any)
	if !ok {
		return
	}
	for name, entryRaw := range trivetRaw {
		entry, ok := entryRaw.(map[string]any)
		if !ok {
			continue
		}
		coerceRuleEntry(rules.TrivetRulePrefix+name, entry)
	}
}

// coerceRuleEntry rewrites string option values to the types named by the
// rule's schema. Unknown rules and non-string values pass through untouched.
func coerceRuleEntry(ruleCode string, entry map[string]any) {
	rule := rules.Get(ruleCode)
	if rule == nil {
		return
	}
	provider, ok := rule.(rules.SchemaProvider)
	if !ok {
		return
	}
	props := schemaProperties(provider.Schema())
	if props == nil {
		return
	}

	for key, value := range entry {
		s, isString := value.(string)
		if !isString {
			continue
		}
		switch propertyType(props, key) {
		case "integer":
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				entry[key] = n
			}
		case "number":
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				entry[key] = f
			}
		case "boolean":
			if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
				entry[key] = b
			}
		}
	}
}

// schemaProperties returns the properties map of a rule schema, looking
// through a top-level oneOf for the object branch (shorthand schemas).
func schemaProperties(schema map[string]any) map[string]any {
	if props, ok := schema["properties"].(map[string]any); ok {
		return props
	}
	branches, ok := schema["oneOf"].([]any)
	if !ok {
		return nil
	}
	for _, branchRaw := range branches {
		branch, ok := branchRaw.(map[string]any)
		if !ok {
			continue
		}
		if props, ok := branch["properties"].(map[string]any); ok {
			return props
		}
	}
	return nil
}

func propertyType(props map[string]any, key string) string {
	prop, ok := props[key].(map[string]any)
	if !ok {
		return ""
	}
	typ, _ := prop["type"].(string)
	return typ
}

func splitPatternList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func validateOutput(raw map[string]any) error {
	outputRaw, ok := raw["output"].(map[string]any)
	if !ok {
		return nil
	}

	if format, ok := outputRaw["format"].(string); ok {
		if _, valid := validFormats[format]; !valid {
			return fmt.Errorf(
				"invalid output format %q (valid: %s)",
				format, joinSortedKeys(validFormats),
			)
		}
	}

	if level, ok := outputRaw["fail-level"].(string); ok {
		if _, valid := validFailLevels[level]; !valid {
			return fmt.Errorf(
				"invalid fail-level %q (valid: %s)",
				level, joinSortedKeys(validFailLevels),
			)
		}
	}

	return nil
}

// validateRuleEntries checks every rules.trivet.<name> entry: severity and
// fix enums, and rule options against the rule's schema. Entries for rules
// the registry doesn't know are allowed as long as they carry no options
// (forward compatibility with configs written for newer releases).
func validateRuleEntries(raw map[string]any) error {
	rulesRaw, ok := raw["rules"].(map[string]any)
	if !ok {
		return nil
	}
	trivetRaw, ok := rulesRaw["trivet"].(map[string]any)
	if !ok {
		return nil
	}

	for _, name := range slices.Sorted(maps.Keys(trivetRaw)) {
		ruleCode := rules.TrivetRulePrefix + name

		entry, ok := trivetRaw[name].(map[string]any)
		if !ok {
			return fmt.Errorf("rules.trivet.%s must be a table, got %T", name, trivetRaw[name])
		}

		if sevRaw, ok := entry["severity"]; ok {
			sev, isString := sevRaw.(string)
			if !isString {
				return fmt.Errorf("rules.trivet.%s: severity must be a string, got %T", name, sevRaw)
			}
			if _, valid := validSeverities[sev]; !valid {
				return fmt.Errorf(
					"rules.trivet.%s: invalid severity %q (valid: %s)",
					name, sev, joinSortedKeys(validSeverities),
				)
			}
		}

		if fixRaw, ok := entry["fix"]; ok {
			fix, isString := fixRaw.(string)
			if !isString {
				return fmt.Errorf("rules.trivet.%s: fix must be a string, got %T", name, fixRaw)
			}
			if _, valid := validFixModes[fix]; !valid {
				return fmt.Errorf(
					"rules.trivet.%s: invalid fix mode %q (valid: %s)",
					name, fix, joinSortedKeys(validFixModes),
				)
			}
		}

		opts := optionsFromRuleEntry(entry)
		if len(opts) == 0 {
			continue
		}

		provider, hasSchema := rules.Get(ruleCode).(rules.SchemaProvider)
		if !hasSchema {
			optKeys := slices.Sorted(maps.Keys(opts))
			return fmt.Errorf(
				"rule %s does not support options (%s)",
				ruleCode, strings.Join(optKeys, ", "),
			)
		}
		if err := configutil.ValidateWithSchema(opts, provider.Schema()); err != nil {
			return fmt.Errorf("invalid options for %s: %w", ruleCode, err)
		}
	}

	return nil
}

// optionsFromRuleEntry returns the rule-specific options of an entry, with
// the severity/fix/exclude control keys removed.
func optionsFromRuleEntry(entry any) map[string]any {
	obj, ok := entry.(map[string]any)
	if !ok {
		return nil
	}
	if len(obj) == 0 {
		return nil
	}

	options := make(map[string]any, len(obj))
	maps.Copy(options, obj)
	delete(options, "severity")
	delete(options, "fix")
	delete(options, "exclude")
	if len(options) == 0 {
		return nil
	}
	return options
}

func joinSortedKeys(set map[string]struct{}) string {
	return strings.Join(slices.Sorted(maps.Keys(set)), ", ")
}
