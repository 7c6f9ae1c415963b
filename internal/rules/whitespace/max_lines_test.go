package whitespace

import (
	"strings"
	"testing"

	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/testutil"
)

var (
	_ rules.Rule             = (*MaxLinesRule)(nil)
	_ rules.ConfigurableRule = (*MaxLinesRule)(nil)
)

func intPtr(n int) *int { return &n }

func TestMaxLinesDescriptor(t *testing.T) {
	t.Parallel()
	desc := NewMaxLinesRule().Descriptor()

	if desc.Code != "trivet/max-lines" {
		t.Errorf("Code = %q, want %q", desc.Code, "trivet/max-lines")
	}
	if desc.Category != "maintainability" {
		t.Errorf("Category = %q, want %q", desc.Category, "maintainability")
	}
	if desc.DefaultSeverity != rules.SeverityError {
		t.Errorf("DefaultSeverity = %v, want %v", desc.DefaultSeverity, rules.SeverityError)
	}
	if desc.EnabledByDefault {
		t.Error("EnabledByDefault = true, want false")
	}
}

func TestMaxLinesDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := NewMaxLinesRule().DefaultConfig()
	got, ok := cfg.(MaxLinesConfig)
	if !ok {
		t.Fatalf("DefaultConfig() type = %T, want MaxLinesConfig", cfg)
	}
	if got.Max == nil || *got.Max != 1000 {
		t.Errorf("Max = %v, want 1000", got.Max)
	}
	if got.SkipBlankLines == nil || !*got.SkipBlankLines {
		t.Errorf("SkipBlankLines = %v, want true", got.SkipBlankLines)
	}
	if got.SkipComments == nil || !*got.SkipComments {
		t.Errorf("SkipComments = %v, want true", got.SkipComments)
	}
}

func TestMaxLinesValidateConfig(t *testing.T) {
	t.Parallel()
	r := NewMaxLinesRule()

	tests := []struct {
		name    string
		config  any
		wantErr bool
	}{
		{name: "nil config", config: nil, wantErr: false},
		{name: "integer shorthand", config: 100, wantErr: false},
		{name: "zero disables", config: 0, wantErr: false},
		{name: "negative", config: -1, wantErr: true},
		{name: "full object", config: map[string]any{"max": 100, "skip-blank-lines": false}, wantErr: false},
		{name: "extra key", config: map[string]any{"maximum": 100}, wantErr: true},
		{name: "wrong type", config: map[string]any{"max": "100"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := r.ValidateConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaxLinesCheck(t *testing.T) {
	t.Parallel()

	boolFalse := func() *bool { b := false; return &b }

	testutil.RunRuleTests(t, NewMaxLinesRule(), []testutil.RuleTestCase{
		// === Under the limit ===
		{
			Name:           "short file",
			Content:        "int a;\nint b;\nint c;\n",
			Config:         MaxLinesConfig{Max: intPtr(5)},
			WantViolations: 0,
		},
		{
			Name:           "exactly at the limit",
			Content:        "int a;\nint b;\nint c;\n",
			Config:         MaxLinesConfig{Max: intPtr(3)},
			WantViolations: 0,
		},

		// === Over the limit ===
		{
			Name:           "over the limit",
			Content:        "int a;\nint b;\nint c;\nint d;\nint e;\nint f;\n",
			Config:         MaxLinesConfig{Max: intPtr(5)},
			WantViolations: 1,
			WantMessages:   []string{"file has 6 lines, maximum allowed is 5"},
			WantLines:      []int{6},
		},
		{
			Name:           "integer shorthand",
			Content:        "int a;\nint b;\nint c;\nint d;\n",
			Config:         3,
			WantViolations: 1,
			WantMessages:   []string{"file has 4 lines, maximum allowed is 3"},
		},
		{
			Name:           "long generated file",
			Content:        strings.Repeat("int a;\n", 1001),
			WantViolations: 1,
			WantMessages:   []string{"file has 1001 lines, maximum allowed is 1000"},
			WantLines:      []int{1001},
		},

		// === Blank lines ===
		{
			Name:           "blank lines skipped by default",
			Content:        "int a;\n\n\nint b;\n\nint c;\n",
			Config:         MaxLinesConfig{Max: intPtr(3)},
			WantViolations: 0,
		},
		{
			Name:           "blank lines counted when skip-blank-lines is false",
			Content:        "int a;\n\n\nint b;\n\nint c;\n",
			Config:         MaxLinesConfig{Max: intPtr(3), SkipBlankLines: boolFalse()},
			WantViolations: 1,
			WantMessages:   []string{"file has 6 lines, maximum allowed is 3"},
		},

		// === Comment lines ===
		{
			Name:           "comment-only lines skipped by default",
			Content:        "// a\n// b\nint x;\nint y;\n",
			Config:         MaxLinesConfig{Max: intPtr(2)},
			WantViolations: 0,
		},
		{
			Name:           "block comment spanning lines skipped by default",
			Content:        "/*\n a\n b\n*/\nint x;\n",
			Config:         MaxLinesConfig{Max: intPtr(1)},
			WantViolations: 0,
		},
		{
			Name:           "comment lines counted when skip-comments is false",
			Content:        "// a\n// b\nint x;\nint y;\n",
			Config:         MaxLinesConfig{Max: intPtr(2), SkipComments: boolFalse()},
			WantViolations: 1,
			WantMessages:   []string{"file has 4 lines, maximum allowed is 2"},
		},
		{
			Name:           "trailing comment does not make a code line skippable",
			Content:        "int a; // one\nint b; // two\nint c;\n",
			Config:         MaxLinesConfig{Max: intPtr(2)},
			WantViolations: 1,
			WantMessages:   []string{"file has 3 lines, maximum allowed is 2"},
		},

		// === Comment markers inside strings ===
		{
			Name:           "comment markers inside string literals still count as code",
			Content:        "var a = \"// x\";\nvar b = \"// y\";\nvar c = \"// z\";\n",
			Config:         MaxLinesConfig{Max: intPtr(2)},
			WantViolations: 1,
			WantMessages:   []string{"file has 3 lines, maximum allowed is 2"},
		},

		// === Disabled ===
		{
			Name:           "zero max disables the rule",
			Content:        "int a;\nint b;\nint c;\n",
			Config:         MaxLinesConfig{Max: intPtr(0)},
			WantViolations: 0,
		},
	})
}
