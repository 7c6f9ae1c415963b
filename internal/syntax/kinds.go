package syntax

// Kind tags a token with its lexical class. Rules subscribe to the kinds
// they care about, so the set stays deliberately coarse: punctuation that
// rules reason about individually gets its own kind, everything else is
// folded into broader classes.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindEOF
	KindIdentifier
	KindKeyword
	KindNumber
	KindString
	KindChar
	KindLBracket
	KindRBracket
	KindLParen
	KindRParen
	KindLBrace
	KindRBrace
	KindSemicolon
	KindComma
	KindDot
	KindColon
	KindOperator
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindEOF:
		return "eof"
	case KindIdentifier:
		return "identifier"
	case KindKeyword:
		return "keyword"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindChar:
		return "char"
	case KindLBracket:
		return "lbracket"
	case KindRBracket:
		return "rbracket"
	case KindLParen:
		return "lparen"
	case KindRParen:
		return "rparen"
	case KindLBrace:
		return "lbrace"
	case KindRBrace:
		return "rbrace"
	case KindSemicolon:
		return "semicolon"
	case KindComma:
		return "comma"
	case KindDot:
		return "dot"
	case KindColon:
		return "colon"
	case KindOperator:
		return "operator"
	default:
		return "invalid"
	}
}

// TriviaKind tags a trivia item: the non-semantic text attached to tokens.
type TriviaKind uint8

const (
	TriviaWhitespace TriviaKind = iota
	TriviaEndOfLine
	TriviaLineComment
	TriviaDocComment
	TriviaBlockComment
	TriviaRegion
	TriviaDirective
)

func (k TriviaKind) String() string {
	switch k {
	case TriviaWhitespace:
		return "whitespace"
	case TriviaEndOfLine:
		return "end-of-line"
	case TriviaLineComment:
		return "line-comment"
	case TriviaDocComment:
		return "doc-comment"
	case TriviaBlockComment:
		return "block-comment"
	case TriviaRegion:
		return "region"
	case TriviaDirective:
		return "directive"
	default:
		return "invalid"
	}
}

// IsComment reports whether the trivia kind carries comment text.
func (k TriviaKind) IsComment() bool {
	switch k {
	case TriviaLineComment, TriviaDocComment, TriviaBlockComment:
		return true
	default:
		return false
	}
}

// NodeKind tags a structural node.
type NodeKind uint8

const (
	// NodeFile is the root node of every tree.
	NodeFile NodeKind = iota
	// NodeSegment is a statement-ish run of tokens ending at a `;`, `{`
	// or `}` boundary. Segments are the tree's top-level children and the
	// unit between which a long analysis checks for cancellation.
	NodeSegment
	// NodeAttributeList is a balanced `[...]` in attribute position.
	NodeAttributeList
	// NodeBracketGroup is any other balanced `[...]`, such as an element
	// access, indexer or array rank specifier.
	NodeBracketGroup
)

func (k NodeKind) String() string {
	switch k {
	case NodeFile:
		return "file"
	case NodeSegment:
		return "segment"
	case NodeAttributeList:
		return "attribute-list"
	case NodeBracketGroup:
		return "bracket-group"
	default:
		return "invalid"
	}
}
