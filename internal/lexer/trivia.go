package lexer

import (
	"strings"

	"github.com/wharflab/trivet/internal/syntax"
)

const bom = "\xef\xbb\xbf"

// scanTrivia collects trivia pieces up to the next token. In trailing mode
// it stops after consuming the first end-of-line, per the attachment
// policy; the rest becomes the next token's leading trivia.
func (s *scanner) scanTrivia(trailing bool) []syntax.TriviaPiece {
	var pieces []syntax.TriviaPiece
	for !s.eof() {
		start := s.off
		c := s.src[s.off]

		switch {
		case s.off == 0 && strings.HasPrefix(s.src, bom):
			s.off += len(bom)
			for !s.eof() && isSpaceByte(s.src[s.off]) {
				s.off++
			}
			pieces = append(pieces, s.piece(syntax.TriviaWhitespace, start))

		case isSpaceByte(c):
			s.off++
			for !s.eof() && isSpaceByte(s.src[s.off]) {
				s.off++
			}
			pieces = append(pieces, s.piece(syntax.TriviaWhitespace, start))

		case c == '\n' || c == '\r':
			s.off++
			if c == '\r' && !s.eof() && s.src[s.off] == '\n' {
				s.off++
			}
			pieces = append(pieces, s.piece(syntax.TriviaEndOfLine, start))
			s.atLineStart = true
			if trailing {
				return pieces
			}

		case c == '/' && s.peekAt(1) == '/':
			pieces = append(pieces, s.piece(s.scanLineComment(), start))
			s.atLineStart = false

		case c == '/' && s.peekAt(1) == '*':
			s.scanBlockComment()
			pieces = append(pieces, s.piece(syntax.TriviaBlockComment, start))
			s.atLineStart = false

		case c == '#' && s.atLineStart:
			pieces = append(pieces, s.piece(s.scanDirective(), start))
			s.atLineStart = false

		default:
			return pieces
		}
	}
	return pieces
}

func (s *scanner) piece(kind syntax.TriviaKind, start int) syntax.TriviaPiece {
	return syntax.TriviaPiece{Kind: kind, Span: s.span(start)}
}

// scanLineComment consumes a // comment up to (excluding) the line break.
// Exactly three slashes start a doc comment; two or four or more start a
// plain comment, so //// disabled code stays a line comment.
func (s *scanner) scanLineComment() syntax.TriviaKind {
	kind := syntax.TriviaLineComment
	s.off += 2
	if !s.eof() && s.src[s.off] == '/' && s.peekAt(1) != '/' {
		kind = syntax.TriviaDocComment
	}
	s.skipToLineBreak()
	return kind
}

// scanBlockComment consumes a /* */ comment, tolerating a missing
// terminator by running to the end of the file. Block comments do not
// nest.
func (s *scanner) scanBlockComment() {
	s.off += 2
	for !s.eof() {
		if s.src[s.off] == '*' && s.peekAt(1) == '/' {
			s.off += 2
			return
		}
		s.off++
	}
}

// scanDirective consumes a preprocessor line up to (excluding) the line
// break and classifies region markers.
func (s *scanner) scanDirective() syntax.TriviaKind {
	start := s.off
	s.skipToLineBreak()
	body := strings.TrimLeft(s.src[start+1:s.off], " \t")
	if strings.HasPrefix(body, "region") || strings.HasPrefix(body, "endregion") {
		return syntax.TriviaRegion
	}
	return syntax.TriviaDirective
}

func (s *scanner) skipToLineBreak() {
	for !s.eof() && s.src[s.off] != '\n' && s.src[s.off] != '\r' {
		s.off++
	}
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\v' || c == '\f'
}
