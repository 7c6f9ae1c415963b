// Package testutil provides test helpers for the C# style checker.
package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/wharflab/trivet/internal/engine"
	"github.com/wharflab/trivet/internal/parser"
	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/sourcemap"
	"github.com/wharflab/trivet/internal/syntax"
)

// MustParse parses C# source from a string and fails the test on error.
//
// Use this when you need the raw tree (e.g., testing lexer or parser
// features). For rule testing, prefer CheckRule which runs the full
// subscription and dispatch pipeline.
func MustParse(tb testing.TB, content string) *syntax.Tree {
	tb.Helper()

	tree, err := parser.Parse(content)
	if err != nil {
		tb.Fatalf("failed to parse source: %v", err)
	}
	return tree
}

// CheckRule runs a single rule against the given source through a real
// analyzer and converts the resulting diagnostics to violations, the same
// way the lint runner does. Config may be nil to use the rule's defaults.
func CheckRule(tb testing.TB, rule rules.Rule, content string, config any) []rules.Violation {
	tb.Helper()

	tree := MustParse(tb, content)

	desc := rule.Descriptor()
	reg := rules.NewRegistry()
	reg.Register(rule)

	var configs map[string]any
	if config != nil {
		configs = map[string]any{desc.Code: config}
	}

	analyzer := engine.New(reg, configs)
	result, err := analyzer.Analyze(context.Background(), tree)
	if err != nil {
		tb.Fatalf("analysis failed: %v", err)
	}

	descriptors := map[string]rules.Descriptor{
		desc.Code:              desc,
		engine.RuleFailureCode: engine.RuleFailureDescriptor,
	}

	sm := sourcemap.New([]byte(content))
	violations := make([]rules.Violation, 0, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		dd, ok := descriptors[d.Code]
		if !ok {
			tb.Fatalf("diagnostic with unknown code %q", d.Code)
		}

		startLine, startCol := sm.PositionFor(int(d.Span.Start))
		endLine, endCol := sm.PositionFor(int(d.Span.End))
		loc := rules.Location{
			File:  "Program.cs",
			Start: rules.Position{Line: startLine + 1, Column: startCol},
			End:   rules.Position{Line: endLine + 1, Column: endCol},
		}

		v := rules.NewViolation(loc, d.Code, dd.Message(d.Args), dd.DefaultSeverity)
		if dd.DocURL != "" {
			v = v.WithDocURL(dd.DocURL)
		}
		violations = append(violations, v)
	}
	return violations
}

// RuleTestCase defines a test case for table-driven rule tests.
type RuleTestCase struct {
	// Name is the test case name.
	Name string

	// Content is the C# source to check.
	Content string

	// Config is the optional rule configuration.
	Config any

	// WantViolations is the expected number of violations.
	// Use -1 to skip the count check.
	WantViolations int

	// WantCodes is the expected rule codes in violation order (for detailed checks).
	WantCodes []string

	// WantMessages are substrings expected in violation messages.
	WantMessages []string

	// WantLines are the expected 1-based start lines, in violation order.
	WantLines []int

	// WantColumns are the expected 0-based start columns, in violation order.
	WantColumns []int
}

// RunRuleTests runs a table of test cases against a rule.
func RunRuleTests(t *testing.T, rule rules.Rule, cases []RuleTestCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			violations := CheckRule(t, rule, tc.Content, tc.Config)

			// Check violation count
			if tc.WantViolations >= 0 && len(violations) != tc.WantViolations {
				t.Errorf("got %d violations, want %d", len(violations), tc.WantViolations)
				for i, v := range violations {
					t.Logf("  [%d] %s: %s", i, v.RuleCode, v.Message)
				}
			}

			// Check violation codes
			if len(tc.WantCodes) > 0 {
				if len(violations) != len(tc.WantCodes) {
					t.Errorf("got %d violations, want %d", len(violations), len(tc.WantCodes))
				} else {
					for i, code := range tc.WantCodes {
						if violations[i].RuleCode != code {
							t.Errorf("violation[%d].RuleCode = %q, want %q", i, violations[i].RuleCode, code)
						}
					}
				}
			}

			// Check message substrings
			if len(tc.WantMessages) > 0 {
				for i, msg := range tc.WantMessages {
					if i >= len(violations) {
						t.Errorf(
							"expected violation[%d] with message containing %q, but only got %d violations",
							i,
							msg,
							len(violations),
						)
						continue
					}
					if !strings.Contains(violations[i].Message, msg) {
						t.Errorf("violation[%d].Message = %q, want substring %q", i, violations[i].Message, msg)
					}
				}
			}

			// Check start positions
			for i, line := range tc.WantLines {
				if i >= len(violations) {
					t.Errorf("expected violation[%d] at line %d, but only got %d violations", i, line, len(violations))
					continue
				}
				if violations[i].Line() != line {
					t.Errorf("violation[%d] at line %d, want line %d", i, violations[i].Line(), line)
				}
			}
			for i, col := range tc.WantColumns {
				if i >= len(violations) {
					t.Errorf("expected violation[%d] at column %d, but only got %d violations", i, col, len(violations))
					continue
				}
				if violations[i].Location.Start.Column != col {
					t.Errorf("violation[%d] at column %d, want column %d", i, violations[i].Location.Start.Column, col)
				}
			}
		})
	}
}

// AssertNoViolations fails the test if there are any violations.
func AssertNoViolations(tb testing.TB, violations []rules.Violation) {
	tb.Helper()
	if len(violations) > 0 {
		tb.Errorf("expected no violations, got %d:", len(violations))
		for _, v := range violations {
			tb.Logf("  - %s at line %d: %s", v.RuleCode, v.Line(), v.Message)
		}
	}
}

// AssertViolationCount fails if the violation count doesn't match.
func AssertViolationCount(tb testing.TB, violations []rules.Violation, want int) {
	tb.Helper()
	if len(violations) != want {
		tb.Errorf("got %d violations, want %d", len(violations), want)
		for _, v := range violations {
			tb.Logf("  - %s at line %d: %s", v.RuleCode, v.Line(), v.Message)
		}
	}
}
