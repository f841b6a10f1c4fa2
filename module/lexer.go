package module

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenPunct
	tokenLiteral
)

type token struct {
	kind   tokenKind
	text   string
	line   int
	column int
}

func (t token) String() string {
	if t.kind == tokenEOF {
		return "end of file"
	}
	return fmt.Sprintf("%q", t.text)
}

// lexer tokenizes the small subset of Java that module-info.java uses.
// Annotation arguments only need to be skipped, so literals are kept as
// opaque tokens.
type lexer struct {
	input  []byte
	pos    int
	line   int
	column int
}

func newLexer(input []byte) *lexer {
	return &lexer{input: input, line: 1, column: 1}
}

func (l *lexer) peek(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}
	if l.input[l.pos] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
}

func (l *lexer) skipTrivia() error {
	for l.pos < len(l.input) {
		c := l.peek(0)
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f':
			l.advance()
		case c == '/' && l.peek(1) == '/':
			for l.pos < len(l.input) && l.peek(0) != '\n' {
				l.advance()
			}
		case c == '/' && l.peek(1) == '*':
			line, col := l.line, l.column
			l.advance()
			l.advance()
			for {
				if l.pos >= len(l.input) {
					return &SyntaxError{Line: line, Column: col, Msg: "unterminated comment"}
				}
				if l.peek(0) == '*' && l.peek(1) == '/' {
					l.advance()
					l.advance()
					break
				}
				l.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() (token, error) {
	if err := l.skipTrivia(); err != nil {
		return token{}, err
	}
	tok := token{line: l.line, column: l.column}
	if l.pos >= len(l.input) {
		return tok, nil
	}
	start := l.pos
	r, _ := utf8.DecodeRune(l.input[l.pos:])
	switch {
	case isIdentStart(r):
		for l.pos < len(l.input) {
			r, size := utf8.DecodeRune(l.input[l.pos:])
			if !isIdentPart(r) {
				break
			}
			for i := 0; i < size; i++ {
				l.advance()
			}
		}
		tok.kind = tokenIdent
	case r == '"' || r == '\'':
		quote := byte(r)
		l.advance()
		for {
			c := l.peek(0)
			if l.pos >= len(l.input) || c == '\n' {
				return token{}, &SyntaxError{Line: tok.line, Column: tok.column, Msg: "unterminated literal"}
			}
			l.advance()
			if c == '\\' {
				l.advance()
				continue
			}
			if c == quote {
				break
			}
		}
		tok.kind = tokenLiteral
	case r >= '0' && r <= '9':
		for l.pos < len(l.input) && (isIdentPart(rune(l.peek(0))) || l.peek(0) == '.') {
			l.advance()
		}
		tok.kind = tokenLiteral
	default:
		l.advance()
		tok.kind = tokenPunct
	}
	tok.text = string(l.input[start:l.pos])
	return tok, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
