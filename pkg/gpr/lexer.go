package gpr

import "strings"

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF

	IDENT // gene identifiers (b0001, PYK1, gene.2 ...)

	AND // "and", "&", "&&"
	OR  // "or", "|", "||"

	LPAREN // (
	RPAREN // )
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int
}

// Lexer tokenizes a gene-reaction rule string. Operator keywords are matched
// case-insensitively; gene identifiers keep their original casing.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := l.position

	switch l.ch {
	case 0:
		return Token{Type: EOF, Position: pos}
	case '(':
		l.readChar()
		return Token{Type: LPAREN, Literal: "(", Position: pos}
	case ')':
		l.readChar()
		return Token{Type: RPAREN, Literal: ")", Position: pos}
	case '&':
		l.readChar()
		if l.ch == '&' {
			l.readChar()
		}
		return Token{Type: AND, Literal: "&", Position: pos}
	case '|':
		l.readChar()
		if l.ch == '|' {
			l.readChar()
		}
		return Token{Type: OR, Literal: "|", Position: pos}
	}

	word := l.readWord()
	if word == "" {
		l.readChar()
		return Token{Type: ILLEGAL, Literal: string(l.input[pos]), Position: pos}
	}

	switch strings.ToLower(word) {
	case "and":
		return Token{Type: AND, Literal: word, Position: pos}
	case "or":
		return Token{Type: OR, Literal: word, Position: pos}
	}
	return Token{Type: IDENT, Literal: word, Position: pos}
}

// readWord consumes a run of characters up to whitespace, a parenthesis or an
// operator symbol. Model files use identifiers with dots, dashes and colons,
// so anything else is part of the gene id.
func (l *Lexer) readWord() string {
	start := l.position
	for l.ch != 0 && !isDelimiter(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func isDelimiter(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\r', '(', ')', '&', '|':
		return true
	}
	return false
}
