// Package rules provides the core rule system for the C# style checker.
package rules

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity represents the severity level of a rule violation.
//
// The numeric order is meaningful: lower values are more severe, so
// threshold checks compare directly against the constant values.
//
//nolint:recvcheck // UnmarshalJSON requires pointer receiver per json.Unmarshaler interface
type Severity int

const (
	// SeverityError indicates a critical issue that should fail the check.
	SeverityError Severity = iota
	// SeverityWarning indicates a significant issue that may cause problems.
	SeverityWarning
	// SeverityInfo indicates a suggestion or best practice recommendation.
	SeverityInfo
	// SeverityStyle indicates a style/formatting preference.
	SeverityStyle

	// SeverityOff disables the rule completely.
	// Placed after other severities to avoid zero-value confusion.
	SeverityOff
)

var severityNames = map[Severity]string{
	SeverityError:   "error",
	SeverityWarning: "warning",
	SeverityInfo:    "info",
	SeverityStyle:   "style",
	SeverityOff:     "off",
}

var severityValues = map[string]Severity{
	"error":   SeverityError,
	"warning": SeverityWarning,
	"warn":    SeverityWarning,
	"info":    SeverityInfo,
	"style":   SeverityStyle,
	"off":     SeverityOff,
}

// String returns the configuration-file spelling of the severity.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSeverity parses a severity string, case-insensitively. "warn" is
// accepted as an alias for "warning".
func ParseSeverity(s string) (Severity, error) {
	if sev, ok := severityValues[strings.ToLower(s)]; ok {
		return sev, nil
	}
	return SeverityError, fmt.Errorf("unknown severity: %q", s)
}

// MarshalJSON implements json.Marshaler.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
// Pointer receiver required by json.Unmarshaler interface.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseSeverity(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// IsMoreSevereThan returns true if s is more severe than other.
func (s Severity) IsMoreSevereThan(other Severity) bool {
	return s < other
}

// IsAtLeast returns true if s is at least as severe as threshold.
func (s Severity) IsAtLeast(threshold Severity) bool {
	return s <= threshold
}
