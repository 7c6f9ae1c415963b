package rules

import "github.com/wharflab/trivet/internal/syntax"

// Reporter receives diagnostics from rule callbacks.
//
// Implementations must treat the diagnostic stream as append-only:
// a reported diagnostic is never modified or dropped by a later report.
type Reporter interface {
	Report(d Diagnostic)
}

// RuleContext carries the per-file state shared by all callback contexts.
//
// Contexts are read-only from the rule's perspective: rules must not mutate
// Tree or Config, and must not retain the context past the callback.
type RuleContext struct {
	// Tree is the file being analyzed.
	Tree *syntax.Tree

	// Config is the rule-specific configuration (type depends on rule).
	// Nil when the rule has no configuration or none was provided.
	Config any

	// Sink receives diagnostics reported by the rule.
	Sink Reporter
}

// Report emits a diagnostic for the given descriptor at the given span.
// Message arguments are positional and fill the descriptor's template
// when the diagnostic is rendered.
func (c *RuleContext) Report(desc Descriptor, span syntax.Span, args ...string) {
	c.Sink.Report(Diagnostic{
		Kind: DiagnosticRule,
		Code: desc.Code,
		Span: span,
		Args: args,
	})
}

// TreeContext is passed to tree handlers, once per file.
type TreeContext struct {
	RuleContext
}

// TokenContext is passed to token handlers.
type TokenContext struct {
	RuleContext

	// Token is the token being visited.
	Token syntax.Token
}

// TriviaContext is passed to trivia handlers.
type TriviaContext struct {
	RuleContext

	// Trivia is the trivia piece being visited.
	Trivia syntax.Trivia
}

// TreeHandler is invoked once per file, before any token or trivia handlers.
type TreeHandler func(c *TreeContext)

// TokenHandler is invoked for each token matching the subscribed kinds.
type TokenHandler func(c *TokenContext)

// TriviaHandler is invoked for each trivia piece matching the subscribed kinds.
type TriviaHandler func(c *TriviaContext)

// TokenSubscription pairs a handler with the token kinds it wants to see.
type TokenSubscription struct {
	Kinds   []syntax.Kind
	Handler TokenHandler
}

// TriviaSubscription pairs a handler with the trivia kinds it wants to see.
type TriviaSubscription struct {
	Kinds   []syntax.TriviaKind
	Handler TriviaHandler
}

// Subscriptions collects the callbacks a rule registers during Subscribe.
//
// Handlers fire during a single source-order traversal of each file: every
// subscribed element is seen exactly once per rule. When several rules
// subscribe to the same element, their handlers fire in registration order.
type Subscriptions struct {
	tree   []TreeHandler
	tokens []TokenSubscription
	trivia []TriviaSubscription
}

// OnTree registers a handler invoked once per file, before token and
// trivia handlers.
func (s *Subscriptions) OnTree(fn TreeHandler) {
	s.tree = append(s.tree, fn)
}

// OnTokens registers a handler for the given token kinds.
// Panics if no kinds are given: a kindless subscription would never fire
// and always indicates a rule bug.
func (s *Subscriptions) OnTokens(fn TokenHandler, kinds ...syntax.Kind) {
	if len(kinds) == 0 {
		panic("rules: OnTokens requires at least one token kind")
	}
	s.tokens = append(s.tokens, TokenSubscription{Kinds: kinds, Handler: fn})
}

// OnTrivia registers a handler for the given trivia kinds.
// Panics if no kinds are given.
func (s *Subscriptions) OnTrivia(fn TriviaHandler, kinds ...syntax.TriviaKind) {
	if len(kinds) == 0 {
		panic("rules: OnTrivia requires at least one trivia kind")
	}
	s.trivia = append(s.trivia, TriviaSubscription{Kinds: kinds, Handler: fn})
}

// TreeHandlers returns the registered tree handlers.
func (s *Subscriptions) TreeHandlers() []TreeHandler { return s.tree }

// TokenSubscriptions returns the registered token subscriptions.
func (s *Subscriptions) TokenSubscriptions() []TokenSubscription { return s.tokens }

// TriviaSubscriptions returns the registered trivia subscriptions.
func (s *Subscriptions) TriviaSubscriptions() []TriviaSubscription { return s.trivia }
