package syntax

import "iter"

// Node is a handle to a structural node in a Tree. Nodes nest: the file
// root contains segments, segments contain attribute lists and bracket
// groups, and groups may contain further groups.
type Node struct {
	tree *Tree
	idx  int32
}

// IsNil reports whether the handle points at no node.
func (n Node) IsNil() bool {
	return n.tree == nil
}

// Kind returns the node's structural class.
func (n Node) Kind() NodeKind {
	return n.tree.nodes[n.idx].kind
}

// Parent returns the enclosing node, or a nil handle on the root.
func (n Node) Parent() Node {
	parent := n.tree.nodes[n.idx].parent
	if parent < 0 {
		return Node{}
	}
	return Node{tree: n.tree, idx: parent}
}

// FirstToken returns the node's first token, or a nil handle when the node
// is empty.
func (n Node) FirstToken() Token {
	first := n.tree.nodes[n.idx].first
	if first < 0 {
		return Token{}
	}
	return Token{tree: n.tree, idx: first}
}

// LastToken returns the node's last token, or a nil handle when the node
// is empty.
func (n Node) LastToken() Token {
	last := n.tree.nodes[n.idx].last
	if last < 0 {
		return Token{}
	}
	return Token{tree: n.tree, idx: last}
}

// Tokens iterates the node's tokens in source order, including the tokens
// of nested nodes.
func (n Node) Tokens() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		d := n.tree.nodes[n.idx]
		if d.first < 0 {
			return
		}
		for i := d.first; i <= d.last; i++ {
			if !yield(Token{tree: n.tree, idx: i}) {
				return
			}
		}
	}
}

// Span returns the byte range from the node's first token to its last,
// excluding surrounding trivia. Empty nodes return an empty span.
func (n Node) Span() Span {
	d := n.tree.nodes[n.idx]
	if d.first < 0 {
		return Span{}
	}
	return Span{
		Start: n.tree.tokens[d.first].span.Start,
		End:   n.tree.tokens[d.last].span.End,
	}
}
