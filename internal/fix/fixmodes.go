package fix

import (
	"github.com/wharflab/trivet/internal/config"
	"github.com/wharflab/trivet/internal/rules"
)

// BuildFixModes extracts per-rule fix mode settings from a config.
// Returned keys use the canonical rule code format: "trivet/<ruleName>".
//
// Nil is returned when cfg is nil.
func BuildFixModes(cfg *config.Config) map[string]FixMode {
	if cfg == nil {
		return nil
	}

	modes := make(map[string]FixMode)
	for name, ruleCfg := range cfg.Rules.Trivet {
		if ruleCfg.Fix == "" {
			continue
		}
		modes[rules.TrivetRulePrefix+name] = ruleCfg.Fix
	}
	return modes
}
