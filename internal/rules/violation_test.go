package rules

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/wharflab/trivet/internal/syntax"
)

func TestNewViolationAccessors(t *testing.T) {
	t.Parallel()

	v := NewViolation(NewLineLocation("src/Widget.cs", 5), "trivet/final-newline", "missing final newline", SeverityWarning)

	if v.File() != "src/Widget.cs" || v.Line() != 5 {
		t.Errorf("File()/Line() = %q/%d, want src/Widget.cs/5", v.File(), v.Line())
	}
	if v.RuleCode != "trivet/final-newline" || v.Severity != SeverityWarning {
		t.Errorf("violation = %+v, want rule and severity preserved", v)
	}
	if v.Detail != "" || v.DocURL != "" || v.SuggestedFix != nil {
		t.Errorf("optional fields should start empty: %+v", v)
	}
}

func TestViolationWithMethodsCopy(t *testing.T) {
	t.Parallel()

	base := NewViolation(NewLineLocation("Program.cs", 1), "trivet/comment-spacing", "msg", SeverityError)

	enriched := base.
		WithDetail("comments need a space after the marker").
		WithDocURL("https://example.com/comment-spacing").
		WithSourceCode("//bad")

	if enriched.Detail == "" || enriched.DocURL == "" || enriched.SourceCode != "//bad" {
		t.Errorf("With methods dropped fields: %+v", enriched)
	}
	// Value receivers: the original must stay untouched.
	if base.Detail != "" || base.DocURL != "" || base.SourceCode != "" {
		t.Errorf("With methods mutated the receiver: %+v", base)
	}

	fix := &SuggestedFix{
		Description: "remove the space",
		Edits:       []TextEdit{{Span: syntax.Span{Start: 10, End: 11}}},
	}
	withFix := base.WithSuggestedFix(fix)
	if withFix.SuggestedFix != fix {
		t.Error("WithSuggestedFix did not attach the fix")
	}
	if base.SuggestedFix != nil {
		t.Error("WithSuggestedFix mutated the receiver")
	}
}

func TestViolationJSONShape(t *testing.T) {
	t.Parallel()

	v := NewViolation(NewRangeLocation("Program.cs", 2, 4, 2, 5), "trivet/bracket-spacing", "space after [", SeverityWarning).
		WithDocURL("https://example.com/bracket-spacing").
		WithSuggestedFix(&SuggestedFix{
			Description: "delete the space",
			Safety:      FixSafe,
			Edits:       []TextEdit{{Span: syntax.Span{Start: 20, End: 21}, NewText: ""}},
		})

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	s := string(data)
	for _, want := range []string{`"rule":"trivet/bracket-spacing"`, `"severity":"warning"`, `"docUrl"`, `"suggestedFix"`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON missing %s:\n%s", want, s)
		}
	}
	if strings.Contains(s, `"detail"`) || strings.Contains(s, `"sourceCode"`) {
		t.Errorf("empty optional fields serialized:\n%s", s)
	}

	var parsed Violation
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if parsed.RuleCode != v.RuleCode || parsed.Severity != v.Severity || parsed.Line() != 2 {
		t.Errorf("round trip = %+v, want %+v", parsed, v)
	}
	if parsed.SuggestedFix == nil || parsed.SuggestedFix.Edits[0].Span != (syntax.Span{Start: 20, End: 21}) {
		t.Errorf("fix did not survive the round trip: %+v", parsed.SuggestedFix)
	}
}

func TestRulePrefixes(t *testing.T) {
	t.Parallel()

	if !strings.HasPrefix(TrivetRulePrefix+"max-lines", "trivet/") {
		t.Errorf("TrivetRulePrefix = %q", TrivetRulePrefix)
	}
	if EngineRulePrefix != "engine/" {
		t.Errorf("EngineRulePrefix = %q, want engine/", EngineRulePrefix)
	}
}
