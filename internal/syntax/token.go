package syntax

// Token is a handle to a single token in a Tree.
type Token struct {
	tree *Tree
	idx  int32
}

// IsNil reports whether the handle points at no token.
func (t Token) IsNil() bool {
	return t.tree == nil
}

// Kind returns the token's lexical class.
func (t Token) Kind() Kind {
	return t.tree.tokens[t.idx].kind
}

// Span returns the token's byte range, excluding any trivia.
func (t Token) Span() Span {
	return t.tree.tokens[t.idx].span
}

// Text returns the token's source text.
func (t Token) Text() string {
	return t.tree.Text(t.Span())
}

// Leading returns the trivia attached before the token.
func (t Token) Leading() TriviaList {
	d := t.tree.tokens[t.idx]
	return TriviaList{tree: t.tree, lo: d.leadingLo, hi: d.leadingHi}
}

// Trailing returns the trivia attached after the token, up to and
// including the first end-of-line.
func (t Token) Trailing() TriviaList {
	d := t.tree.tokens[t.idx]
	return TriviaList{tree: t.tree, lo: d.trailingLo, hi: d.trailingHi}
}

// Prev returns the previous token in source order, or a nil handle at the
// start of the file.
func (t Token) Prev() Token {
	if t.idx == 0 {
		return Token{}
	}
	return Token{tree: t.tree, idx: t.idx - 1}
}

// Next returns the next token in source order, or a nil handle at the end
// of the file.
func (t Token) Next() Token {
	if int(t.idx)+1 >= len(t.tree.tokens) {
		return Token{}
	}
	return Token{tree: t.tree, idx: t.idx + 1}
}

// Parent returns the innermost node containing the token.
func (t Token) Parent() Node {
	return Node{tree: t.tree, idx: t.tree.tokens[t.idx].parent}
}

// IsFirstInLine reports whether no token precedes t on its line. Leading
// trivia always reaches back to a line start, so any leading trivia means
// the token opens its line; otherwise the previous token must have ended
// the previous line.
func (t Token) IsFirstInLine() bool {
	if t.Leading().Len() > 0 {
		return true
	}
	prev := t.Prev()
	if prev.IsNil() {
		return true
	}
	trailing := prev.Trailing()
	if trailing.Len() == 0 {
		return false
	}
	return trailing.At(trailing.Len()-1).Kind() == TriviaEndOfLine
}
