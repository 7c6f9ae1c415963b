package syntax

import "iter"

// Trivia is a handle to one trivia item.
type Trivia struct {
	tree *Tree
	idx  int32
}

// IsNil reports whether the handle points at no trivia.
func (t Trivia) IsNil() bool {
	return t.tree == nil
}

// Kind returns the trivia's class.
func (t Trivia) Kind() TriviaKind {
	return t.tree.trivia[t.idx].kind
}

// Span returns the trivia's byte range. Line comments and directives end
// before their line break; the break is a separate end-of-line item.
func (t Trivia) Span() Span {
	return t.tree.trivia[t.idx].span
}

// Text returns the trivia's source text.
func (t Trivia) Text() string {
	return t.tree.Text(t.Span())
}

// Owner returns the token whose leading or trailing list contains the
// trivia.
func (t Trivia) Owner() Token {
	return Token{tree: t.tree, idx: t.tree.trivia[t.idx].owner}
}

// IsTrailing reports whether the trivia sits in its owner's trailing list.
func (t Trivia) IsTrailing() bool {
	return t.tree.trivia[t.idx].trailing
}

// Prev returns the previous trivia item in source order, which may belong
// to a different token. Nil at the start of the file.
func (t Trivia) Prev() Trivia {
	if t.idx == 0 {
		return Trivia{}
	}
	return Trivia{tree: t.tree, idx: t.idx - 1}
}

// Next returns the next trivia item in source order, which may belong to a
// different token and may be separated from t by a token. Nil at the end
// of the file.
func (t Trivia) Next() Trivia {
	if int(t.idx)+1 >= len(t.tree.trivia) {
		return Trivia{}
	}
	return Trivia{tree: t.tree, idx: t.idx + 1}
}

// TriviaList is one token's leading or trailing trivia sequence.
type TriviaList struct {
	tree *Tree
	lo   uint32
	hi   uint32
}

// Len returns the number of items in the list.
func (l TriviaList) Len() int {
	return int(l.hi - l.lo)
}

// At returns the i-th item.
func (l TriviaList) At(i int) Trivia {
	return Trivia{tree: l.tree, idx: int32(l.lo) + int32(i)}
}

// All iterates the list in source order.
func (l TriviaList) All() iter.Seq[Trivia] {
	return func(yield func(Trivia) bool) {
		for i := l.lo; i < l.hi; i++ {
			if !yield(Trivia{tree: l.tree, idx: int32(i)}) {
				return
			}
		}
	}
}

// Has reports whether the list contains an item of the given kind.
func (l TriviaList) Has(kind TriviaKind) bool {
	for i := l.lo; i < l.hi; i++ {
		if l.tree.trivia[i].kind == kind {
			return true
		}
	}
	return false
}

// Span returns the byte range covered by the whole list, or an empty span
// when the list is empty.
func (l TriviaList) Span() Span {
	if l.Len() == 0 {
		return Span{}
	}
	return Span{Start: l.tree.trivia[l.lo].span.Start, End: l.tree.trivia[l.hi-1].span.End}
}
