package processor

import (
	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/rules"
)

// SeverityOverride rewrites violation severities from configuration. An
// explicit severity in the config wins; otherwise a rule that defaults to
// "off" but has options configured is promoted to warning, so configuring
// an opt-in rule is enough to turn it on.
type SeverityOverride struct {
	registry *rules.Registry
}

// NewSeverityOverride creates a severity override processor backed by the
// default rule registry.
func NewSeverityOverride() *SeverityOverride {
	return NewSeverityOverrideWithRegistry(rules.DefaultRegistry())
}

// NewSeverityOverrideWithRegistry creates a severity override processor
// backed by the given registry. A nil registry falls back to the default.
func NewSeverityOverrideWithRegistry(registry *rules.Registry) *SeverityOverride {
	if registry == nil {
		registry = rules.DefaultRegistry()
	}
	return &SeverityOverride{registry: registry}
}

// Name implements Processor.
func (*SeverityOverride) Name() string {
	return "severity-override"
}

// Process implements Processor.
func (p *SeverityOverride) Process(violations []rules.Violation, ctx *Context) []rules.Violation {
	return mapViolations(violations, func(v rules.Violation) rules.Violation {
		cfg := ctx.ConfigForFile(v.Location.File)
		if cfg == nil {
			return v
		}

		if override := cfg.Rules.GetSeverity(v.RuleCode); override != "" {
			sev, err := rules.ParseSeverity(override)
			if err != nil {
				// Unparseable severity string in config; leave the
				// violation as the rule reported it.
				return v
			}
			v.Severity = sev
			return v
		}

		if p.optionsEnable(cfg, v.RuleCode) {
			v.Severity = rules.SeverityWarning
		}
		return v
	})
}

// optionsEnable reports whether code is an off-by-default rule the user
// has turned on implicitly by configuring options for it.
func (p *SeverityOverride) optionsEnable(cfg *config.Config, code string) bool {
	rc := cfg.Rules.Get(code)
	if rc == nil || len(rc.Options) == 0 {
		return false
	}
	rule := p.registry.Get(code)
	return rule != nil && rule.Descriptor().DefaultSeverity == rules.SeverityOff
}
