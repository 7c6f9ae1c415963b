package processor

import (
	"github.com/wharflab/trivet/internal/rules"
)

// EnableFilter drops violations whose rule is turned off, either through
// an "off" severity (SeverityOverride runs first) or through the config's
// Include/Exclude rule patterns.
type EnableFilter struct{}

// NewEnableFilter creates an enable filter processor.
func NewEnableFilter() *EnableFilter {
	return &EnableFilter{}
}

// Name implements Processor.
func (*EnableFilter) Name() string {
	return "enable-filter"
}

// Process implements Processor.
func (*EnableFilter) Process(violations []rules.Violation, ctx *Context) []rules.Violation {
	return keepIf(violations, func(v rules.Violation) bool {
		if v.Severity == rules.SeverityOff {
			return false
		}

		cfg := ctx.ConfigForFile(v.Location.File)
		if cfg == nil {
			return true
		}
		// Nil means the patterns say nothing about this rule; keep it.
		if enabled := cfg.Rules.IsEnabled(v.RuleCode); enabled != nil {
			return *enabled
		}
		return true
	})
}
