// Package lexer scans C# source text into the token and trivia stream that
// the parser assembles into a syntax.Tree.
//
// The scan is lossless: every byte of the input lands in exactly one token
// or trivia span. Malformed input never fails; unterminated strings and
// comments simply end where the line or file does.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wharflab/trivet/internal/syntax"
)

// Token is one scanned token with the trivia attached to it. Trailing
// trivia runs from the token up to and including the first end-of-line;
// everything after that belongs to the next token's leading list.
type Token struct {
	Kind     syntax.Kind
	Span     syntax.Span
	Leading  []syntax.TriviaPiece
	Trailing []syntax.TriviaPiece
}

// Scan tokenizes src. The returned slice always ends with a KindEOF token
// whose leading trivia holds whatever follows the last real token. The
// caller must ensure src fits in a uint32 offset; the parser enforces that
// before calling.
func Scan(src string) []Token {
	s := &scanner{src: src, atLineStart: true}
	var toks []Token
	for {
		leading := s.scanTrivia(false)
		if s.eof() {
			toks = append(toks, Token{
				Kind:    syntax.KindEOF,
				Span:    syntax.Point(uint32(s.off)),
				Leading: leading,
			})
			return toks
		}
		kind, span := s.scanToken()
		trailing := s.scanTrivia(true)
		toks = append(toks, Token{Kind: kind, Span: span, Leading: leading, Trailing: trailing})
	}
}

type scanner struct {
	src string
	off int

	// atLineStart is true while only whitespace has been seen since the
	// last line break. Preprocessor directives only count at line starts.
	atLineStart bool
}

func (s *scanner) eof() bool {
	return s.off >= len(s.src)
}

func (s *scanner) peekAt(n int) byte {
	if s.off+n >= len(s.src) {
		return 0
	}
	return s.src[s.off+n]
}

func (s *scanner) span(start int) syntax.Span {
	return syntax.Span{Start: uint32(start), End: uint32(s.off)}
}

func (s *scanner) scanToken() (syntax.Kind, syntax.Span) {
	s.atLineStart = false
	start := s.off
	c := s.src[s.off]

	switch {
	case c == '@':
		switch {
		case s.peekAt(1) == '"':
			s.off++
			s.scanVerbatimString()
		case s.peekAt(1) == '$' && s.peekAt(2) == '"':
			s.off += 2
			s.scanInterpolatedString(true)
		default:
			s.off++
			s.scanIdentTail()
			return syntax.KindIdentifier, s.span(start)
		}
		return syntax.KindString, s.span(start)

	case c == '$':
		switch {
		case s.peekAt(1) == '"' && s.peekAt(2) == '"' && s.peekAt(3) == '"':
			s.off++
			s.scanRawString()
		case s.peekAt(1) == '"':
			s.off++
			s.scanInterpolatedString(false)
		case s.peekAt(1) == '@' && s.peekAt(2) == '"':
			s.off += 2
			s.scanInterpolatedString(true)
		default:
			s.off++
			return syntax.KindUnknown, s.span(start)
		}
		return syntax.KindString, s.span(start)

	case c == '"':
		if s.peekAt(1) == '"' && s.peekAt(2) == '"' {
			s.scanRawString()
		} else {
			s.scanString()
		}
		return syntax.KindString, s.span(start)

	case c == '\'':
		s.scanChar()
		return syntax.KindChar, s.span(start)

	case isDigit(c):
		s.scanNumber()
		return syntax.KindNumber, s.span(start)

	case isIdentStart(c):
		s.scanIdentTail()
		if isKeyword(s.src[start:s.off]) {
			return syntax.KindKeyword, s.span(start)
		}
		return syntax.KindIdentifier, s.span(start)

	case c >= utf8.RuneSelf:
		r, size := utf8.DecodeRuneInString(s.src[s.off:])
		s.off += size
		if unicode.IsLetter(r) {
			s.scanIdentTail()
			return syntax.KindIdentifier, s.span(start)
		}
		return syntax.KindUnknown, s.span(start)
	}

	switch c {
	case '[':
		s.off++
		return syntax.KindLBracket, s.span(start)
	case ']':
		s.off++
		return syntax.KindRBracket, s.span(start)
	case '(':
		s.off++
		return syntax.KindLParen, s.span(start)
	case ')':
		s.off++
		return syntax.KindRParen, s.span(start)
	case '{':
		s.off++
		return syntax.KindLBrace, s.span(start)
	case '}':
		s.off++
		return syntax.KindRBrace, s.span(start)
	case ';':
		s.off++
		return syntax.KindSemicolon, s.span(start)
	case ',':
		s.off++
		return syntax.KindComma, s.span(start)
	case '.':
		s.off++
		return syntax.KindDot, s.span(start)
	case ':':
		if s.peekAt(1) == ':' {
			s.off += 2
			return syntax.KindOperator, s.span(start)
		}
		s.off++
		return syntax.KindColon, s.span(start)
	}

	if op := s.matchOperator(); op > 0 {
		s.off += op
		return syntax.KindOperator, s.span(start)
	}

	// Anything left is a byte the language has no use for.
	s.off++
	return syntax.KindUnknown, s.span(start)
}

// bump2 advances past an escape sequence without running off the end of
// an unterminated literal.
func (s *scanner) bump2() {
	s.off += 2
	if s.off > len(s.src) {
		s.off = len(s.src)
	}
}

// operator tables, longest first for maximal munch
var (
	operators4 = []string{">>>="}
	operators3 = []string{"<<=", ">>=", "??=", ">>>"}
	operators2 = []string{
		"==", "!=", "<=", ">=", "&&", "||", "++", "--",
		"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
		"??", "?.", "=>", "<<", ">>",
	}
	operators1 = "+-*/%&|^!~<>=?"
)

func (s *scanner) matchOperator() int {
	rest := s.src[s.off:]
	for _, op := range operators4 {
		if strings.HasPrefix(rest, op) {
			return len(op)
		}
	}
	for _, op := range operators3 {
		if strings.HasPrefix(rest, op) {
			return len(op)
		}
	}
	for _, op := range operators2 {
		if strings.HasPrefix(rest, op) {
			return len(op)
		}
	}
	if strings.IndexByte(operators1, rest[0]) >= 0 {
		return 1
	}
	return 0
}

func (s *scanner) scanIdentTail() {
	for !s.eof() {
		c := s.src[s.off]
		if isIdentStart(c) || isDigit(c) {
			s.off++
			continue
		}
		if c < utf8.RuneSelf {
			return
		}
		r, size := utf8.DecodeRuneInString(s.src[s.off:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return
		}
		s.off += size
	}
}

func (s *scanner) scanNumber() {
	if s.src[s.off] == '0' && (s.peekAt(1) == 'x' || s.peekAt(1) == 'X' || s.peekAt(1) == 'b' || s.peekAt(1) == 'B') {
		s.off += 2
		for !s.eof() && (isHexDigit(s.src[s.off]) || s.src[s.off] == '_') {
			s.off++
		}
	} else {
		s.scanDigits()
		if !s.eof() && s.src[s.off] == '.' && isDigit(s.peekAt(1)) {
			s.off++
			s.scanDigits()
		}
		if !s.eof() && (s.src[s.off] == 'e' || s.src[s.off] == 'E') {
			next := s.peekAt(1)
			if isDigit(next) {
				s.off++
				s.scanDigits()
			} else if (next == '+' || next == '-') && isDigit(s.peekAt(2)) {
				s.off += 2
				s.scanDigits()
			}
		}
	}
	// type suffixes: 1f, 2UL, 3.5m, ...
	for !s.eof() && isNumberSuffix(s.src[s.off]) {
		s.off++
	}
}

func (s *scanner) scanDigits() {
	for !s.eof() && (isDigit(s.src[s.off]) || s.src[s.off] == '_') {
		s.off++
	}
}

// scanString consumes a regular string literal from its opening quote.
// Unterminated strings end at the line break.
func (s *scanner) scanString() {
	s.off++
	for !s.eof() {
		switch s.src[s.off] {
		case '\\':
			s.bump2()
		case '"':
			s.off++
			return
		case '\n', '\r':
			return
		default:
			s.off++
		}
	}
}

// scanVerbatimString consumes an @"..." literal from its quote. Doubled
// quotes escape; line breaks are part of the literal.
func (s *scanner) scanVerbatimString() {
	s.off++
	for !s.eof() {
		if s.src[s.off] == '"' {
			if s.peekAt(1) == '"' {
				s.off += 2
				continue
			}
			s.off++
			return
		}
		s.off++
	}
}

// scanRawString consumes a """...""" literal from its first quote. The
// literal ends at a run of quotes at least as long as the opener.
func (s *scanner) scanRawString() {
	quotes := 0
	for !s.eof() && s.src[s.off] == '"' {
		quotes++
		s.off++
	}
	run := 0
	for !s.eof() {
		if s.src[s.off] == '"' {
			run++
			s.off++
			if run == quotes {
				return
			}
			continue
		}
		run = 0
		s.off++
	}
}

// scanInterpolatedString consumes the body of a $"..." or verbatim
// $@"..." literal from the opening quote, stepping over interpolation
// holes so quotes inside them do not end the literal.
func (s *scanner) scanInterpolatedString(verbatim bool) {
	s.off++
	for !s.eof() {
		switch c := s.src[s.off]; c {
		case '\\':
			if verbatim {
				s.off++
			} else {
				s.bump2()
			}
		case '"':
			if verbatim && s.peekAt(1) == '"' {
				s.off += 2
				continue
			}
			s.off++
			return
		case '{':
			if s.peekAt(1) == '{' {
				s.off += 2
				continue
			}
			s.off++
			s.scanHole()
		case '}':
			if s.peekAt(1) == '}' {
				s.off += 2
				continue
			}
			s.off++
		case '\n', '\r':
			if !verbatim {
				return
			}
			s.off++
		default:
			s.off++
		}
	}
}

// scanHole steps over one interpolation hole, tracking brace depth and
// skipping nested string and char literals.
func (s *scanner) scanHole() {
	depth := 1
	for !s.eof() && depth > 0 {
		switch s.src[s.off] {
		case '{':
			depth++
			s.off++
		case '}':
			depth--
			s.off++
		case '"':
			s.scanString()
		case '\'':
			s.scanChar()
		default:
			s.off++
		}
	}
}

// scanChar consumes a char literal from its opening quote. Unterminated
// literals end at the line break.
func (s *scanner) scanChar() {
	s.off++
	for !s.eof() {
		switch s.src[s.off] {
		case '\\':
			s.bump2()
		case '\'':
			s.off++
			return
		case '\n', '\r':
			return
		default:
			s.off++
		}
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isNumberSuffix(c byte) bool {
	switch c {
	case 'f', 'F', 'd', 'D', 'm', 'M', 'u', 'U', 'l', 'L':
		return true
	default:
		return false
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
