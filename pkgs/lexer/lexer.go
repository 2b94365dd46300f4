// Package lexer tokenizes Rocket source text.
package lexer

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/aledsdavies/rocket/pkgs/token"
)

// SyntaxError is a lexical error carrying the 1-based line/column at which
// it occurred.
type SyntaxError struct {
	Line, Col int
	Msg       string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// ASCII classification tables, following the teacher's fast-path lookup
// idiom: branching on a [128]bool beats repeated unicode.Is* calls on the
// hot path, and the grammar only ever needs ASCII identifier/digit classes.
var (
	isSpace      [128]bool
	isIdentStart [128]bool
	isIdentPart  [128]bool
	isDigitTbl   [128]bool
)

func init() {
	for i := 0; i < 128; i++ {
		c := byte(i)
		isSpace[i] = c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v'
		isDigitTbl[i] = '0' <= c && c <= '9'
		isIdentStart[i] = ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
		isIdentPart[i] = isIdentStart[i] || isDigitTbl[i]
	}
}

func isWordByte(c byte) bool {
	return int(c) < 128 && isIdentPart[c]
}

// state is a saved lexer position, used for one-token lookahead when a
// leading character's production can't be decided without peeking ahead
// (e.g. "." followed by a digit vs. an identifier).
type state struct {
	pos, line, col int
}

// Lexer tokenizes a single source string. It carries no state across
// calls to Lex beyond what New/Lex themselves set up.
type Lexer struct {
	src  string
	pos  int
	line int
	col  int
}

// New creates a Lexer ready to tokenize src.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Lex tokenizes the full source and returns the token sequence terminated
// by an EOF token, or the first SyntaxError encountered.
func Lex(src string) ([]token.Token, error) {
	l := New(src)
	var toks []token.Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) done() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) save() state {
	return state{l.pos, l.line, l.col}
}

func (l *Lexer) restore(s state) {
	l.pos, l.line, l.col = s.pos, s.line, s.col
}

// advance consumes and returns the current byte, updating line/col. The
// grammar's punctuation and keywords are all ASCII, so the lexer scans
// byte-by-byte rather than decoding runes; inside string literals
// non-ASCII content is passed through untouched (identifiers are ASCII
// only) — but position is still counted in characters, not bytes: a UTF-8
// continuation byte (10xxxxxx) advances pos without advancing col, so a
// multi-byte rune counts as one column the same as an ASCII byte does.
func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	isContinuation := c&0xC0 == 0x80
	switch {
	case c == '\n':
		l.line++
		l.col = 1
	case !isContinuation:
		l.col++
	}
	return c
}

func (l *Lexer) peek() byte {
	if l.done() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) skipSpace() {
	for !l.done() && isSpace[l.src[l.pos]] {
		l.advance()
	}
}

func (l *Lexer) next() (token.Token, error) {
	l.skipSpace()
	if l.done() {
		return token.Token{Kind: token.EOF, Line: l.line, Col: l.col}, nil
	}

	line, col := l.line, l.col
	mark := l.save()
	c := l.advance()

	if kind, ok := token.Syntax[c]; ok {
		return token.Token{Kind: kind, Text: string(c), Line: line, Col: col}, nil
	}

	switch {
	case isIdentStartByte(c):
		l.restore(mark)
		return l.lexIdentifier(), nil
	case c == '/':
		return l.lexSlash(line, col)
	case c == '.':
		return l.lexDot(line, col, mark)
	case c == '"':
		l.restore(mark)
		return l.lexString()
	case isDigitByte(c):
		l.restore(mark)
		return l.lexNumber(), nil
	default:
		return token.Token{}, &SyntaxError{line, col, fmt.Sprintf("unexpected character '%s'", firstRune(l.src, mark.pos))}
	}
}

func isIdentStartByte(c byte) bool { return int(c) < 128 && isIdentStart[c] }
func isDigitByte(c byte) bool      { return int(c) < 128 && isDigitTbl[c] }

func firstRune(s string, pos int) string {
	r, _ := utf8.DecodeRuneInString(s[pos:])
	return string(r)
}

func (l *Lexer) lexIdentifier() token.Token {
	line, col := l.line, l.col
	start := l.pos
	for !l.done() && isWordByte(l.src[l.pos]) {
		l.advance()
	}
	word := l.src[start:l.pos]

	if kind, ok := token.Keywords[word]; ok {
		return token.Token{Kind: kind, Text: word, Line: line, Col: col}
	}
	switch word {
	case "true", "false":
		return token.Token{Kind: token.BOOL_LIT, Text: word, Line: line, Col: col}
	case "null":
		return token.Token{Kind: token.NULL_LIT, Text: word, Line: line, Col: col}
	default:
		return token.Token{Kind: token.IDENTIFIER, Text: word, Line: line, Col: col}
	}
}

// lexSlash handles "/" followed by "*" (multiline comment), "//" (line
// comment), or a bare "/" (error). Comments produce no token; the caller's
// Lex loop re-enters next() to find the following real token.
func (l *Lexer) lexSlash(line, col int) (token.Token, error) {
	if l.done() {
		return token.Token{}, &SyntaxError{line, col, "unexpected character '/'"}
	}
	switch l.peek() {
	case '*':
		l.advance()
		if err := l.consumeMultilineComment(line, col); err != nil {
			return token.Token{}, err
		}
		return l.next()
	case '/':
		l.advance()
		for !l.done() && l.peek() != '\n' {
			l.advance()
		}
		return l.next()
	default:
		return token.Token{}, &SyntaxError{line, col, "unexpected character '/'"}
	}
}

func (l *Lexer) consumeMultilineComment(line, col int) error {
	for {
		if l.done() {
			return &SyntaxError{line, col, "unclosed multiline comment"}
		}
		c := l.advance()
		if c == '*' && !l.done() && l.peek() == '/' {
			l.advance()
			return nil
		}
	}
}

// lexDot handles a leading "." that starts an attribute-access token
// (".foo") when followed by an identifier character, or backs up into a
// numeric literal with a leading "." when followed by a digit.
func (l *Lexer) lexDot(line, col int, mark state) (token.Token, error) {
	if l.done() {
		return token.Token{}, &SyntaxError{line, col, "unexpected character '.'"}
	}
	if isIdentStartByte(l.peek()) {
		start := l.pos
		for !l.done() && isWordByte(l.src[l.pos]) {
			l.advance()
		}
		return token.Token{Kind: token.ATTR_ACCESS, Text: "." + l.src[start:l.pos], Line: line, Col: col}, nil
	}
	if isDigitByte(l.peek()) {
		l.restore(mark)
		return l.lexNumber(), nil
	}
	return token.Token{}, &SyntaxError{line, col, "unexpected character '.'"}
}

func (l *Lexer) lexNumber() token.Token {
	line, col := l.line, l.col
	start := l.pos
	for !l.done() && isDigitByte(l.src[l.pos]) {
		l.advance()
	}
	if !l.done() && l.peek() == '.' {
		l.advance()
		for !l.done() && isDigitByte(l.src[l.pos]) {
			l.advance()
		}
		return token.Token{Kind: token.FLOAT_LIT, Text: l.src[start:l.pos], Line: line, Col: col}
	}
	return token.Token{Kind: token.INT_LIT, Text: l.src[start:l.pos], Line: line, Col: col}
}

// lexString consumes a quoted string literal including the surrounding
// quotes, honouring "\" as a one-character escape that blindly consumes
// whatever follows it (validated and unescaped later by the parser). The
// token text is NFC-normalized so that source files with differently
// composed Unicode sequences (e.g. "e" + combining acute vs. precomposed
// "é") produce identical string values once the parser decodes them.
func (l *Lexer) lexString() (token.Token, error) {
	line, col := l.line, l.col
	start := l.pos
	l.advance() // opening quote

	closed := false
	for !l.done() {
		c := l.advance()
		if c == '\\' {
			if l.done() {
				return token.Token{}, &SyntaxError{line, col, "unexpected escape character at end of string literal"}
			}
			l.advance()
			continue
		}
		if c == '"' {
			closed = true
			break
		}
	}
	if !closed {
		return token.Token{}, &SyntaxError{line, col, "unclosed string literal"}
	}
	return token.Token{Kind: token.STR_LIT, Text: norm.NFC.String(l.src[start:l.pos]), Line: line, Col: col}, nil
}
