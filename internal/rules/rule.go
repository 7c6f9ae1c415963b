package rules

import "fmt"

// TrivetDocURL returns the documentation URL for a built-in rule code.
func TrivetDocURL(code string) string {
	return "https://github.com/wharflab/trivet/blob/main/docs/rules/" + code + ".md"
}

// Descriptor contains static information about a rule.
type Descriptor struct {
	// Code is the unique identifier (e.g., "trivet/bracket-spacing").
	Code string

	// Name is the human-readable rule name.
	Name string

	// Description explains what the rule checks.
	Description string

	// Template is the diagnostic message template. Placeholders are filled
	// in order from Diagnostic.Args using fmt verbs (typically %s).
	// Rules with a fixed message leave Args empty and use the template as-is.
	Template string

	// DocURL links to detailed documentation.
	DocURL string

	// DefaultSeverity is the severity when not overridden.
	DefaultSeverity Severity

	// Category groups related rules (e.g., "spacing", "readability").
	Category string

	// EnabledByDefault indicates if the rule runs without explicit opt-in.
	EnabledByDefault bool

	// IsExperimental marks rules that may change or be removed.
	IsExperimental bool

	// FixPriority orders this rule's suggested fixes relative to other
	// rules editing the same file. Lower priorities apply first; zero is
	// fine for rules whose fixes never interact.
	FixPriority int
}

// Message renders the diagnostic message for the given positional args.
// A descriptor whose template takes no placeholders is returned as-is.
func (d Descriptor) Message(args []string) string {
	if len(args) == 0 {
		return d.Template
	}
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = a
	}
	return fmt.Sprintf(d.Template, vals...)
}

// Rule is the interface that all checking rules must implement.
//
// Rules are stateless: all per-file state lives in the callback contexts,
// and a single rule instance may be exercised concurrently across files.
type Rule interface {
	// Descriptor returns static information about the rule.
	Descriptor() Descriptor

	// Subscribe declares which syntax elements the rule wants to see.
	// It is called once per analyzer construction, never per file.
	Subscribe(s *Subscriptions)
}

// ConfigurableRule is an optional interface for rules that accept configuration.
type ConfigurableRule interface {
	Rule

	// DefaultConfig returns the default configuration for this rule.
	DefaultConfig() any

	// ValidateConfig checks if a configuration is valid for this rule.
	ValidateConfig(config any) error
}

// SchemaProvider is an optional interface for rules that expose a JSON
// Schema describing their configuration. The schema is surfaced by the
// rules command and used for config validation.
type SchemaProvider interface {
	Schema() map[string]any
}
