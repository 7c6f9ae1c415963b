// Package ruleconfig normalizes shorthand rule configuration values into
// their canonical object form before schema validation.
package ruleconfig

import (
	"math"
	"strconv"
	"strings"
)

type shorthandKind int

const (
	shorthandInteger shorthandKind = iota
	shorthandString
)

type shorthandSpec struct {
	optionKey string
	kind      shorthandKind
}

// accepts reports whether value can stand in for the spec's option key.
// Maps are already canonical and never rewrapped.
func (s shorthandSpec) accepts(value any) bool {
	if _, isMap := value.(map[string]any); isMap {
		return false
	}
	switch s.kind {
	case shorthandInteger:
		return isIntegerLike(value)
	case shorthandString:
		_, ok := value.(string)
		return ok
	default:
		return false
	}
}

var shorthandByRule = map[string]shorthandSpec{
	"trivet/max-lines":              {optionKey: "max", kind: shorthandInteger},
	"trivet/consistent-indentation": {optionKey: "style", kind: shorthandString},
}

// severityNames are the values a bare string is read as severity shorthand
// for. Checked before rule-specific string shorthand, so
// `consistent-indentation = "style"` selects the style severity, never the
// style option.
var severityNames = map[string]struct{}{
	"off":     {},
	"error":   {},
	"warning": {},
	"info":    {},
	"style":   {},
}

// CanonicalizeRuleOptions rewrites supported shorthand values into the
// object form the schema expects. A bare severity string becomes
// {"severity": value} for any rule; rule-specific shorthands
// (`max-lines = 120`, `consistent-indentation = "tabs"`) wrap the value in
// the rule's primary option key. Anything else passes through untouched.
func CanonicalizeRuleOptions(ruleCode string, value any) any {
	if s, ok := value.(string); ok {
		if _, isSeverity := severityNames[s]; isSeverity {
			return map[string]any{"severity": s}
		}
	}

	spec, ok := shorthandByRule[ruleCode]
	if !ok || !spec.accepts(value) {
		return value
	}
	return map[string]any{spec.optionKey: value}
}

// CanonicalizeRulesMap rewrites shorthand values under
// rules.<namespace>.<rule> in place.
func CanonicalizeRulesMap(rules map[string]any) {
	for namespace, namespaceRaw := range rules {
		ruleEntries, ok := namespaceRaw.(map[string]any)
		if !ok {
			continue
		}
		for ruleName, value := range ruleEntries {
			ruleEntries[ruleName] = CanonicalizeRuleOptions(namespace+"/"+ruleName, value)
		}
	}
}

// isIntegerLike accepts anything TOML or JSON might hand us for an integer
// option: signed and unsigned ints, whole floats, and decimal strings.
func isIntegerLike(value any) bool {
	switch typed := value.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return true
	case uint:
		return uint64(typed) <= math.MaxInt64
	case uint64:
		return typed <= math.MaxInt64
	case float32:
		return isWholeFloat(float64(typed))
	case float64:
		return isWholeFloat(typed)
	case string:
		_, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		return err == nil
	default:
		return false
	}
}

func isWholeFloat(f float64) bool {
	return f == math.Trunc(f) && !math.IsInf(f, 0) && !math.IsNaN(f) &&
		f >= math.MinInt64 && f <= math.MaxInt64
}
