package syntax

// TriviaPiece is a single trivia item produced by the lexer before it is
// attached to a tree.
type TriviaPiece struct {
	Kind TriviaKind
	Span Span
}

// Builder assembles a Tree. The parser opens and closes nodes around the
// tokens it adds; a token belongs to the innermost node open at the time
// it is added. Builders are single-use: Finish returns the tree and the
// builder must not be touched afterwards.
type Builder struct {
	tree  *Tree
	stack []int32
}

// NewBuilder starts a tree over src with an empty file root.
func NewBuilder(src string) *Builder {
	t := &Tree{src: src}
	t.nodes = append(t.nodes, nodeData{kind: NodeFile, parent: -1, first: -1, last: -1})
	return &Builder{tree: t, stack: []int32{0}}
}

// OpenNode starts a child node of the innermost open node. Children of the
// root become the tree's top-level nodes.
func (b *Builder) OpenNode(kind NodeKind) {
	parent := b.stack[len(b.stack)-1]
	idx := int32(len(b.tree.nodes))
	b.tree.nodes = append(b.tree.nodes, nodeData{kind: kind, parent: parent, first: -1, last: -1})
	if parent == 0 {
		b.tree.topLevel = append(b.tree.topLevel, idx)
	}
	b.stack = append(b.stack, idx)
}

// CloseNode ends the innermost open node. The root never closes.
func (b *Builder) CloseNode() {
	if len(b.stack) > 1 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

// Depth returns the number of open nodes, counting the root.
func (b *Builder) Depth() int {
	return len(b.stack)
}

// AddToken appends a token with its attached trivia. Tokens must be added
// in source order; leading and trailing spans must fall between the
// previous token and the next.
func (b *Builder) AddToken(kind Kind, span Span, leading, trailing []TriviaPiece) {
	t := b.tree
	tokIdx := int32(len(t.tokens))

	leadingLo := uint32(len(t.trivia))
	for _, p := range leading {
		t.trivia = append(t.trivia, triviaData{kind: p.Kind, span: p.Span, owner: tokIdx})
	}
	leadingHi := uint32(len(t.trivia))

	trailingLo := leadingHi
	for _, p := range trailing {
		t.trivia = append(t.trivia, triviaData{kind: p.Kind, span: p.Span, owner: tokIdx, trailing: true})
	}
	trailingHi := uint32(len(t.trivia))

	t.tokens = append(t.tokens, tokenData{
		kind:       kind,
		span:       span,
		parent:     b.stack[len(b.stack)-1],
		leadingLo:  leadingLo,
		leadingHi:  leadingHi,
		trailingLo: trailingLo,
		trailingHi: trailingHi,
	})

	for _, nodeIdx := range b.stack {
		d := &t.nodes[nodeIdx]
		if d.first < 0 {
			d.first = tokIdx
		}
		d.last = tokIdx
	}
}

// Finish closes any open nodes and returns the completed tree.
func (b *Builder) Finish() *Tree {
	b.stack = b.stack[:1]
	t := b.tree
	b.tree = nil
	return t
}
