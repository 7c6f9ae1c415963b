// Package engine dispatches parsed syntax trees to subscribed rules.
//
// An Analyzer walks each file exactly once, in source order: tree handlers
// first, then for every token its leading trivia, the token itself, and its
// trailing trivia. Rules see only the elements they subscribed to. When
// several rules subscribe to the same element, their handlers fire in
// registration order.
package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/wharflab/trivet/internal/rules"
	"github.com/wharflab/trivet/internal/syntax"
)

// RuleFailureCode is the code of the engine-internal diagnostic reported
// when a rule callback panics.
const RuleFailureCode = rules.EngineRulePrefix + "rule-failure"

// RuleFailureDescriptor describes the diagnostic synthesized when a rule
// callback panics on a file. The first template argument is the failing
// rule's code, the second the panic value.
var RuleFailureDescriptor = rules.Descriptor{
	Code:            RuleFailureCode,
	Name:            "Rule Failure",
	Description:     "A rule callback panicked while analyzing a file",
	Template:        "rule %s failed on this file: %s",
	DefaultSeverity: rules.SeverityWarning,
	Category:        "engine",
}

// Result is the outcome of analyzing one file.
type Result struct {
	// Diagnostics holds the findings in report order.
	Diagnostics []rules.Diagnostic

	// Incomplete is true when analysis stopped early due to cancellation.
	// Diagnostics reported before the stop remain valid.
	Incomplete bool
}

type treeSub struct {
	rule    int
	handler rules.TreeHandler
}

type tokenSub struct {
	rule    int
	kinds   []syntax.Kind
	handler rules.TokenHandler
}

type triviaSub struct {
	rule    int
	kinds   []syntax.TriviaKind
	handler rules.TriviaHandler
}

// Analyzer dispatches syntax elements to subscribed rules.
//
// Construction freezes the registry and snapshots every rule's
// subscriptions. An Analyzer is immutable afterwards and safe for
// concurrent use across files.
type Analyzer struct {
	codes      []string
	configs    []any
	treeSubs   []treeSub
	tokenSubs  map[syntax.Kind][]tokenSub
	triviaSubs map[syntax.TriviaKind][]triviaSub
}

// New builds an Analyzer from the rules in reg.
//
// The registry is frozen so analysis never observes late registrations.
// ruleConfigs maps rule codes to resolved configuration values; a rule
// without an entry receives its DefaultConfig when it implements
// rules.ConfigurableRule, nil otherwise.
func New(reg *rules.Registry, ruleConfigs map[string]any) *Analyzer {
	reg.Freeze()
	list := reg.Rules()

	a := &Analyzer{
		codes:      make([]string, len(list)),
		configs:    make([]any, len(list)),
		tokenSubs:  make(map[syntax.Kind][]tokenSub),
		triviaSubs: make(map[syntax.TriviaKind][]triviaSub),
	}

	for i, rule := range list {
		desc := rule.Descriptor()
		a.codes[i] = desc.Code

		cfg, ok := ruleConfigs[desc.Code]
		if !ok {
			if cr, isConfigurable := rule.(rules.ConfigurableRule); isConfigurable {
				cfg = cr.DefaultConfig()
			}
		}
		a.configs[i] = cfg

		var subs rules.Subscriptions
		rule.Subscribe(&subs)

		for _, h := range subs.TreeHandlers() {
			a.treeSubs = append(a.treeSubs, treeSub{rule: i, handler: h})
		}
		for _, ts := range subs.TokenSubscriptions() {
			sub := tokenSub{rule: i, kinds: ts.Kinds, handler: ts.Handler}
			for _, k := range dedupKinds(ts.Kinds) {
				a.tokenSubs[k] = append(a.tokenSubs[k], sub)
			}
		}
		for _, ts := range subs.TriviaSubscriptions() {
			sub := triviaSub{rule: i, kinds: ts.Kinds, handler: ts.Handler}
			for _, k := range dedupKinds(ts.Kinds) {
				a.triviaSubs[k] = append(a.triviaSubs[k], sub)
			}
		}
	}
	return a
}

// dedupKinds drops repeated kinds so a handler subscribed to the same kind
// twice in one call still fires once per element.
func dedupKinds[K comparable](kinds []K) []K {
	out := make([]K, 0, len(kinds))
	for _, k := range kinds {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

// pass is the per-file dispatch state. A fresh pass is built for every
// Analyze call, keeping the Analyzer itself stateless across files.
type pass struct {
	analyzer *Analyzer
	tree     *syntax.Tree
	diags    []rules.Diagnostic

	// failed marks rules whose callback panicked on this file; the rule
	// is skipped for the remainder of the file.
	failed []bool
}

// Report implements rules.Reporter. Args are cloned so later mutation by
// the rule cannot alter an already-reported diagnostic.
func (p *pass) Report(d rules.Diagnostic) {
	d.Args = slices.Clone(d.Args)
	p.diags = append(p.diags, d)
}

// Analyze runs every subscribed rule over tree in a single source-order
// traversal.
//
// Cancellation is checked between top-level node visits. On cancellation
// the returned Result carries every diagnostic reported before the stop,
// Incomplete is set, and the context error is returned.
//
// A panic in one rule's callback is isolated: the engine reports an
// internal diagnostic naming the failing rule, skips that rule for the
// rest of the file, and continues the pass for all other rules.
func (a *Analyzer) Analyze(ctx context.Context, tree *syntax.Tree) (Result, error) {
	p := &pass{
		analyzer: a,
		tree:     tree,
		failed:   make([]bool, len(a.codes)),
	}

	if err := ctx.Err(); err != nil {
		return Result{Incomplete: true}, err
	}

	fileSpan := syntax.Span{Start: 0, End: uint32(len(tree.Source()))}
	for _, ts := range a.treeSubs {
		if p.failed[ts.rule] {
			continue
		}
		tc := &rules.TreeContext{RuleContext: p.ruleContext(ts.rule)}
		p.invoke(ts.rule, fileSpan, func() { ts.handler(tc) })
	}

	for _, node := range tree.TopLevel() {
		if err := ctx.Err(); err != nil {
			return Result{Diagnostics: p.diags, Incomplete: true}, err
		}
		for tok := range node.Tokens() {
			p.dispatchTrivia(tok.Leading())
			p.dispatchToken(tok)
			p.dispatchTrivia(tok.Trailing())
		}
	}

	return Result{Diagnostics: p.diags}, nil
}

func (p *pass) ruleContext(rule int) rules.RuleContext {
	return rules.RuleContext{
		Tree:   p.tree,
		Config: p.analyzer.configs[rule],
		Sink:   p,
	}
}

func (p *pass) dispatchToken(tok syntax.Token) {
	for _, sub := range p.analyzer.tokenSubs[tok.Kind()] {
		if p.failed[sub.rule] {
			continue
		}
		// A kind mismatch here means the dispatch tables were built
		// wrong. That is an engine bug, so it must not be swallowed by
		// the rule isolation below.
		if !slices.Contains(sub.kinds, tok.Kind()) {
			panic(fmt.Sprintf("engine: %v token dispatched to handler subscribed to %v", tok.Kind(), sub.kinds))
		}
		tc := &rules.TokenContext{RuleContext: p.ruleContext(sub.rule), Token: tok}
		p.invoke(sub.rule, tok.Span(), func() { sub.handler(tc) })
	}
}

func (p *pass) dispatchTrivia(list syntax.TriviaList) {
	for i := range list.Len() {
		tr := list.At(i)
		for _, sub := range p.analyzer.triviaSubs[tr.Kind()] {
			if p.failed[sub.rule] {
				continue
			}
			if !slices.Contains(sub.kinds, tr.Kind()) {
				panic(fmt.Sprintf("engine: %v trivia dispatched to handler subscribed to %v", tr.Kind(), sub.kinds))
			}
			tc := &rules.TriviaContext{RuleContext: p.ruleContext(sub.rule), Trivia: tr}
			p.invoke(sub.rule, tr.Span(), func() { sub.handler(tc) })
		}
	}
}

// invoke runs one rule callback with panic isolation. On panic the rule is
// marked failed for the rest of the file and an internal diagnostic naming
// the rule is reported at the element that was being visited.
func (p *pass) invoke(rule int, span syntax.Span, call func()) {
	defer func() {
		if r := recover(); r != nil {
			p.failed[rule] = true
			p.Report(rules.Diagnostic{
				Kind: rules.DiagnosticInternal,
				Code: RuleFailureCode,
				Span: span,
				Args: []string{p.analyzer.codes[rule], fmt.Sprint(r)},
			})
		}
	}()
	call()
}
