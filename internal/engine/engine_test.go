package engine

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/wharflab/trivet/internal/parser"
	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/syntax"
)

var allTokenKinds = []syntax.Kind{
	syntax.KindUnknown, syntax.KindEOF, syntax.KindIdentifier, syntax.KindKeyword,
	syntax.KindNumber, syntax.KindString, syntax.KindChar, syntax.KindLBracket,
	syntax.KindRBracket, syntax.KindLParen, syntax.KindRParen, syntax.KindLBrace,
	syntax.KindRBrace, syntax.KindSemicolon, syntax.KindComma, syntax.KindDot,
	syntax.KindColon, syntax.KindOperator,
}

var allTriviaKinds = []syntax.TriviaKind{
	syntax.TriviaWhitespace, syntax.TriviaEndOfLine, syntax.TriviaLineComment,
	syntax.TriviaDocComment, syntax.TriviaBlockComment, syntax.TriviaRegion,
	syntax.TriviaDirective,
}

// probeRule records every element it is shown, in order.
type probeRule struct {
	code   string
	visits *[]string
}

func (r *probeRule) Descriptor() rules.Descriptor {
	return rules.Descriptor{Code: r.code, Name: r.code, Template: "probe"}
}

func (r *probeRule) Subscribe(s *rules.Subscriptions) {
	s.OnTree(func(c *rules.TreeContext) {
		*r.visits = append(*r.visits, r.code+":tree")
	})
	s.OnTokens(func(c *rules.TokenContext) {
		*r.visits = append(*r.visits, fmt.Sprintf("%s:tok:%s@%d", r.code, c.Token.Kind(), c.Token.Span().Start))
	}, allTokenKinds...)
	s.OnTrivia(func(c *rules.TriviaContext) {
		*r.visits = append(*r.visits, fmt.Sprintf("%s:trv:%s@%d", r.code, c.Trivia.Kind(), c.Trivia.Span().Start))
	}, allTriviaKinds...)
}

// expectedVisits walks the tree the way the engine promises to: tree first,
// then per token its leading trivia, the token, and its trailing trivia.
func expectedVisits(tree *syntax.Tree, code string) []string {
	want := []string{code + ":tree"}
	for _, node := range tree.TopLevel() {
		for tok := range node.Tokens() {
			for tr := range tok.Leading().All() {
				want = append(want, fmt.Sprintf("%s:trv:%s@%d", code, tr.Kind(), tr.Span().Start))
			}
			want = append(want, fmt.Sprintf("%s:tok:%s@%d", code, tok.Kind(), tok.Span().Start))
			for tr := range tok.Trailing().All() {
				want = append(want, fmt.Sprintf("%s:trv:%s@%d", code, tr.Kind(), tr.Span().Start))
			}
		}
	}
	return want
}

func mustParse(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	tree, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return tree
}

func TestAnalyze_VisitsEveryElementOnceInSourceOrder(t *testing.T) {
	src := "int x;\n// note\nint y = 2; /* block */\n[Obsolete]\nvoid M() { }\n"
	tree := mustParse(t, src)

	var visits []string
	reg := rules.NewRegistry()
	reg.Register(&probeRule{code: "probe", visits: &visits})

	res, err := New(reg, nil).Analyze(context.Background(), tree)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if res.Incomplete {
		t.Error("Incomplete = true, want false")
	}

	want := expectedVisits(tree, "probe")
	if !slices.Equal(visits, want) {
		t.Errorf("visit order mismatch\n got: %v\nwant: %v", visits, want)
	}

	// Every token of the file is covered, exactly once.
	tokenVisits := 0
	for _, v := range visits {
		if strings.HasPrefix(v, "probe:tok:") {
			tokenVisits++
		}
	}
	if tokenVisits != tree.TokenCount() {
		t.Errorf("visited %d tokens, file has %d", tokenVisits, tree.TokenCount())
	}
}

func TestAnalyze_RegistrationOrderBreaksTies(t *testing.T) {
	tree := mustParse(t, "x y")

	var visits []string
	record := func(code string) rules.TokenHandler {
		return func(c *rules.TokenContext) {
			visits = append(visits, code+":"+c.Token.Text())
		}
	}

	reg := rules.NewRegistry()
	reg.Register(&hookRule{code: "first", subscribe: func(s *rules.Subscriptions) {
		s.OnTokens(record("first"), syntax.KindIdentifier)
	}})
	reg.Register(&hookRule{code: "second", subscribe: func(s *rules.Subscriptions) {
		s.OnTokens(record("second"), syntax.KindIdentifier)
	}})

	if _, err := New(reg, nil).Analyze(context.Background(), tree); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	want := []string{"first:x", "second:x", "first:y", "second:y"}
	if !slices.Equal(visits, want) {
		t.Errorf("visits = %v, want %v", visits, want)
	}
}

// hookRule adapts a closure into a Rule.
type hookRule struct {
	code      string
	subscribe func(*rules.Subscriptions)
}

func (r *hookRule) Descriptor() rules.Descriptor {
	return rules.Descriptor{Code: r.code, Name: r.code, Template: "hook"}
}

func (r *hookRule) Subscribe(s *rules.Subscriptions) { r.subscribe(s) }

func TestAnalyze_PanicIsolation(t *testing.T) {
	tree := mustParse(t, "[a] [b]")

	healthyDesc := rules.Descriptor{Code: "healthy", Template: "bracket"}
	reg := rules.NewRegistry()
	reg.Register(&hookRule{code: "healthy", subscribe: func(s *rules.Subscriptions) {
		s.OnTokens(func(c *rules.TokenContext) {
			c.Report(healthyDesc, c.Token.Span())
		}, syntax.KindLBracket)
	}})
	reg.Register(&hookRule{code: "angry", subscribe: func(s *rules.Subscriptions) {
		s.OnTokens(func(c *rules.TokenContext) {
			panic("boom")
		}, syntax.KindLBracket)
	}})

	res, err := New(reg, nil).Analyze(context.Background(), tree)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	// healthy fires on both brackets; angry panics on the first and is
	// skipped for the second, yielding exactly one internal diagnostic.
	if len(res.Diagnostics) != 3 {
		t.Fatalf("got %d diagnostics, want 3: %v", len(res.Diagnostics), res.Diagnostics)
	}

	if res.Diagnostics[0].Code != "healthy" || res.Diagnostics[0].Span.Start != 0 {
		t.Errorf("diag[0] = %+v, want healthy at 0", res.Diagnostics[0])
	}

	failure := res.Diagnostics[1]
	if failure.Kind != rules.DiagnosticInternal {
		t.Errorf("failure.Kind = %v, want DiagnosticInternal", failure.Kind)
	}
	if failure.Code != RuleFailureCode {
		t.Errorf("failure.Code = %q, want %q", failure.Code, RuleFailureCode)
	}
	wantArgs := []string{"angry", "boom"}
	if !slices.Equal(failure.Args, wantArgs) {
		t.Errorf("failure.Args = %v, want %v", failure.Args, wantArgs)
	}
	if failure.Span.Start != 0 {
		t.Errorf("failure.Span.Start = %d, want 0 (first bracket)", failure.Span.Start)
	}

	if res.Diagnostics[2].Code != "healthy" || res.Diagnostics[2].Span.Start != 4 {
		t.Errorf("diag[2] = %+v, want healthy at 4", res.Diagnostics[2])
	}
}

func TestAnalyze_PanicInTreeHandlerSkipsRuleForFile(t *testing.T) {
	tree := mustParse(t, "x;")

	fired := false
	reg := rules.NewRegistry()
	reg.Register(&hookRule{code: "fragile", subscribe: func(s *rules.Subscriptions) {
		s.OnTree(func(c *rules.TreeContext) { panic("setup failed") })
		s.OnTokens(func(c *rules.TokenContext) { fired = true }, syntax.KindIdentifier)
	}})

	res, err := New(reg, nil).Analyze(context.Background(), tree)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if fired {
		t.Error("token handler fired after the rule's tree handler panicked")
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != RuleFailureCode {
		t.Errorf("diagnostics = %v, want a single %s", res.Diagnostics, RuleFailureCode)
	}
}

func TestAnalyze_CancelledBeforeStart(t *testing.T) {
	tree := mustParse(t, "int x;")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var visits []string
	reg := rules.NewRegistry()
	reg.Register(&probeRule{code: "probe", visits: &visits})

	res, err := New(reg, nil).Analyze(ctx, tree)
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if !res.Incomplete {
		t.Error("Incomplete = false, want true")
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("got %d diagnostics, want 0", len(res.Diagnostics))
	}
	if len(visits) != 0 {
		t.Errorf("rule saw %d elements after pre-start cancellation", len(visits))
	}
}

func TestAnalyze_CancellationBetweenSegments(t *testing.T) {
	// Three statements, three top-level segments (plus the EOF segment).
	tree := mustParse(t, "int a;int b;int c;")

	ctx, cancel := context.WithCancel(context.Background())
	desc := rules.Descriptor{Code: "cutter", Template: "semi"}

	reg := rules.NewRegistry()
	reg.Register(&hookRule{code: "cutter", subscribe: func(s *rules.Subscriptions) {
		s.OnTokens(func(c *rules.TokenContext) {
			c.Report(desc, c.Token.Span())
			cancel()
		}, syntax.KindSemicolon)
	}})

	res, err := New(reg, nil).Analyze(ctx, tree)
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if !res.Incomplete {
		t.Error("Incomplete = false, want true")
	}

	// The first segment finishes (its semicolon is reported); the pass
	// stops before the second segment starts.
	if len(res.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %v", len(res.Diagnostics), res.Diagnostics)
	}
	if res.Diagnostics[0].Span.Start != 5 {
		t.Errorf("diagnostic at %d, want 5 (first semicolon)", res.Diagnostics[0].Span.Start)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	tree := mustParse(t, "[ x]\nint y;\n")

	desc := rules.Descriptor{Code: "brackets", Template: "found"}
	reg := rules.NewRegistry()
	reg.Register(&hookRule{code: "brackets", subscribe: func(s *rules.Subscriptions) {
		s.OnTokens(func(c *rules.TokenContext) {
			c.Report(desc, c.Token.Span(), c.Token.Text())
		}, syntax.KindLBracket, syntax.KindRBracket)
	}})

	a := New(reg, nil)
	first, err := a.Analyze(context.Background(), tree)
	if err != nil {
		t.Fatalf("first Analyze error: %v", err)
	}
	second, err := a.Analyze(context.Background(), tree)
	if err != nil {
		t.Fatalf("second Analyze error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ between runs\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if len(first.Diagnostics) != 2 {
		t.Errorf("got %d diagnostics, want 2", len(first.Diagnostics))
	}
}

func TestAnalyze_ReportedArgsAreInsulatedFromRuleMutation(t *testing.T) {
	tree := mustParse(t, "x")

	desc := rules.Descriptor{Code: "mutator", Template: "%s"}
	args := []string{"original"}

	reg := rules.NewRegistry()
	reg.Register(&hookRule{code: "mutator", subscribe: func(s *rules.Subscriptions) {
		s.OnTokens(func(c *rules.TokenContext) {
			c.Report(desc, c.Token.Span(), args...)
			args[0] = "mutated"
		}, syntax.KindIdentifier)
	}})

	res, err := New(reg, nil).Analyze(context.Background(), tree)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if res.Diagnostics[0].Args[0] != "original" {
		t.Errorf("Args[0] = %q, want %q", res.Diagnostics[0].Args[0], "original")
	}
}

func TestAnalyze_DuplicateKindsFireOnce(t *testing.T) {
	tree := mustParse(t, "x")

	count := 0
	reg := rules.NewRegistry()
	reg.Register(&hookRule{code: "dup", subscribe: func(s *rules.Subscriptions) {
		s.OnTokens(func(c *rules.TokenContext) { count++ },
			syntax.KindIdentifier, syntax.KindIdentifier)
	}})

	if _, err := New(reg, nil).Analyze(context.Background(), tree); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if count != 1 {
		t.Errorf("handler fired %d times for one identifier, want 1", count)
	}
}

func TestNew_FreezesRegistry(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Register(&hookRule{code: "early", subscribe: func(s *rules.Subscriptions) {
		s.OnTree(func(c *rules.TreeContext) {})
	}})

	New(reg, nil)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic registering into a frozen registry")
		}
	}()
	reg.Register(&hookRule{code: "late", subscribe: func(s *rules.Subscriptions) {}})
}

type countedConfig struct {
	Max int
}

type configProbe struct {
	seen *[]int
}

func (r *configProbe) Descriptor() rules.Descriptor {
	return rules.Descriptor{Code: "config-probe", Name: "Config Probe", Template: "probe"}
}

func (r *configProbe) Subscribe(s *rules.Subscriptions) {
	s.OnTree(func(c *rules.TreeContext) {
		cfg, _ := c.Config.(countedConfig)
		*r.seen = append(*r.seen, cfg.Max)
	})
}

func (r *configProbe) DefaultConfig() any { return countedConfig{Max: 7} }

func (r *configProbe) ValidateConfig(config any) error { return nil }

func TestAnalyze_ConfigResolution(t *testing.T) {
	tree := mustParse(t, "x")

	t.Run("default", func(t *testing.T) {
		var seen []int
		reg := rules.NewRegistry()
		reg.Register(&configProbe{seen: &seen})

		if _, err := New(reg, nil).Analyze(context.Background(), tree); err != nil {
			t.Fatalf("Analyze error: %v", err)
		}
		if len(seen) != 1 || seen[0] != 7 {
			t.Errorf("seen = %v, want [7] (default config)", seen)
		}
	})

	t.Run("override", func(t *testing.T) {
		var seen []int
		reg := rules.NewRegistry()
		reg.Register(&configProbe{seen: &seen})

		configs := map[string]any{"config-probe": countedConfig{Max: 3}}
		if _, err := New(reg, configs).Analyze(context.Background(), tree); err != nil {
			t.Fatalf("Analyze error: %v", err)
		}
		if len(seen) != 1 || seen[0] != 3 {
			t.Errorf("seen = %v, want [3] (override)", seen)
		}
	})
}

func TestAnalyze_MalformedDispatchPanics(t *testing.T) {
	tree := mustParse(t, "x")

	// Hand-build an analyzer whose dispatch table routes identifiers to a
	// handler that declared only keywords. This cannot happen through New;
	// the engine must treat it as fatal rather than isolate it.
	a := &Analyzer{
		codes:   []string{"broken"},
		configs: []any{nil},
		tokenSubs: map[syntax.Kind][]tokenSub{
			syntax.KindIdentifier: {{
				rule:    0,
				kinds:   []syntax.Kind{syntax.KindKeyword},
				handler: func(c *rules.TokenContext) {},
			}},
		},
		triviaSubs: map[syntax.TriviaKind][]triviaSub{},
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for malformed dispatch")
		}
	}()
	_, _ = a.Analyze(context.Background(), tree)
}
