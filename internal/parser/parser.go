// Package parser builds the syntax tree for a C# source file.
//
// The parser does not understand the full C# grammar. It groups the token
// stream structurally: statement-ish segments split at `;`, `{` and `}`
// boundaries, attribute lists, and other balanced bracket groups. That is
// exactly the structure the bracket rules need; everything else stays a
// flat token run. Malformed input never fails to parse.
package parser

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/wharflab/trivet/internal/lexer"
	"github.com/wharflab/trivet/internal/syntax"
)

// Parse lexes and structures src into a tree.
func Parse(src string) (*syntax.Tree, error) {
	if _, err := safecast.Conv[uint32](len(src)); err != nil {
		return nil, fmt.Errorf("source too large: %d bytes", len(src))
	}
	p := &parser{
		src:  src,
		b:    syntax.NewBuilder(src),
		toks: lexer.Scan(src),
	}
	p.run()
	return p.b.Finish(), nil
}

type parser struct {
	src  string
	b    *syntax.Builder
	toks []lexer.Token

	// open bracket nodes, innermost last
	brackets []syntax.NodeKind

	segmentOpen    bool
	prevClosedAttr bool
}

func (p *parser) run() {
	for i, tok := range p.toks {
		if !p.segmentOpen {
			p.b.OpenNode(syntax.NodeSegment)
			p.segmentOpen = true
		}

		closedAttr := false
		switch tok.Kind {
		case syntax.KindEOF:
			// implicitly close unbalanced groups so the EOF token
			// belongs to the segment itself
			for range p.brackets {
				p.b.CloseNode()
			}
			p.brackets = p.brackets[:0]
			p.add(tok)

		case syntax.KindLBracket:
			kind := syntax.NodeBracketGroup
			if p.attributePosition(i) {
				kind = syntax.NodeAttributeList
			}
			p.b.OpenNode(kind)
			p.brackets = append(p.brackets, kind)
			p.add(tok)

		case syntax.KindRBracket:
			p.add(tok)
			if n := len(p.brackets); n > 0 {
				closedAttr = p.brackets[n-1] == syntax.NodeAttributeList
				p.brackets = p.brackets[:n-1]
				p.b.CloseNode()
			}

		case syntax.KindSemicolon, syntax.KindLBrace, syntax.KindRBrace:
			p.add(tok)
			if len(p.brackets) == 0 {
				p.b.CloseNode()
				p.segmentOpen = false
			}

		default:
			p.add(tok)
		}
		p.prevClosedAttr = closedAttr
	}
}

func (p *parser) add(tok lexer.Token) {
	p.b.AddToken(tok.Kind, tok.Span, tok.Leading, tok.Trailing)
}

// attributePosition reports whether the opening bracket at index i starts
// an attribute list rather than an element access or array rank. The
// boundary: attributes follow the start of the file, a statement or block
// boundary, an opening parenthesis or comma (parameter attributes), a `<`
// (generic parameter attributes), or another attribute list.
func (p *parser) attributePosition(i int) bool {
	if i == 0 {
		return true
	}
	prev := p.toks[i-1]
	switch prev.Kind {
	case syntax.KindLBrace, syntax.KindRBrace, syntax.KindSemicolon,
		syntax.KindLParen, syntax.KindComma:
		return true
	case syntax.KindOperator:
		return p.text(prev) == "<"
	case syntax.KindRBracket:
		return p.prevClosedAttr
	default:
		return false
	}
}

func (p *parser) text(tok lexer.Token) string {
	return p.src[tok.Span.Start:tok.Span.End]
}
