// Package syntax defines the immutable concrete syntax tree trivet checks:
// tokens, the trivia attached to them, and the structural nodes grouping
// them. Tokens and trivia together losslessly reconstruct the source text.
//
// Trees are built once by the parser and never mutated afterwards. Token,
// Trivia and Node are lightweight handles into the tree's backing arrays;
// the zero value of each is "nil" and reports IsNil() == true.
//
// Trivia attachment follows one invariant everywhere: trivia after a token
// up to and including the first end-of-line belongs to that token's
// trailing list, and everything else belongs to the next token's leading
// list (the first token of the file owns everything before it). A token's
// leading trivia therefore always begins at the start of a line.
package syntax

import "iter"

type tokenData struct {
	kind       Kind
	span       Span
	parent     int32
	leadingLo  uint32
	leadingHi  uint32
	trailingLo uint32
	trailingHi uint32
}

type triviaData struct {
	kind     TriviaKind
	span     Span
	owner    int32
	trailing bool
}

type nodeData struct {
	kind   NodeKind
	parent int32
	first  int32 // first token index, -1 while empty
	last   int32 // last token index, inclusive
}

// Tree is an immutable concrete syntax tree over a single source file.
type Tree struct {
	src      string
	tokens   []tokenData
	trivia   []triviaData
	nodes    []nodeData
	topLevel []int32
}

// Source returns the full source text the tree was built from.
func (t *Tree) Source() string {
	return t.src
}

// Text returns the source text covered by span.
func (t *Tree) Text(span Span) string {
	return t.src[span.Start:span.End]
}

// TokenCount returns the number of tokens, including the closing EOF token.
func (t *Tree) TokenCount() int {
	return len(t.tokens)
}

// TokenAt returns the i-th token in source order.
func (t *Tree) TokenAt(i int) Token {
	if i < 0 || i >= len(t.tokens) {
		return Token{}
	}
	return Token{tree: t, idx: int32(i)}
}

// Tokens iterates every token in source order.
func (t *Tree) Tokens() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for i := range t.tokens {
			if !yield(Token{tree: t, idx: int32(i)}) {
				return
			}
		}
	}
}

// Root returns the file node.
func (t *Tree) Root() Node {
	if len(t.nodes) == 0 {
		return Node{}
	}
	return Node{tree: t, idx: 0}
}

// TopLevel returns the root's child nodes in source order.
func (t *Tree) TopLevel() []Node {
	out := make([]Node, len(t.topLevel))
	for i, idx := range t.topLevel {
		out[i] = Node{tree: t, idx: idx}
	}
	return out
}
