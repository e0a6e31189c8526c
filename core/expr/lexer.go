/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The GigaGrid Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package expr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var singleCharTokens = map[rune]TokenType{
	'+': TOKEN_PLUS, '-': TOKEN_MINUS, '*': TOKEN_STAR, '/': TOKEN_SLASH,
	'%': TOKEN_PERCENT, '(': TOKEN_LPAREN, ')': TOKEN_RPAREN,
	'[': TOKEN_LBRACKET, ']': TOKEN_RBRACKET, ',': TOKEN_COMMA,
}

// Lexer splits an expression into tokens. It works on runes so column tags
// and string literals may contain any Unicode letters.
type Lexer struct {
	input string
	pos   int // byte offset of ch
	ch    rune
	width int
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.decode()
	return l
}

func (l *Lexer) decode() {
	if l.pos >= len(l.input) {
		l.ch, l.width = 0, 0
		return
	}
	l.ch, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
}

func (l *Lexer) advance() {
	l.pos += l.width
	l.decode()
}

func (l *Lexer) peek() rune {
	next := l.pos + l.width
	if next >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[next:])
	return r
}

// Tokens lexes the whole input.
func (l *Lexer) Tokens() ([]Token, error) {
	var out []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Type == TOKEN_EOF {
			return out, nil
		}
	}
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() (Token, error) {
	for unicode.IsSpace(l.ch) {
		l.advance()
	}
	start := l.pos
	if l.width == 0 {
		return Token{Type: TOKEN_EOF, Pos: start}, nil
	}

	switch {
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peek())):
		return l.readNumber(start), nil
	case l.ch == '"' || l.ch == '\'':
		return l.readString(start)
	case l.ch == '`':
		return l.readQuotedIdent(start)
	case unicode.IsLetter(l.ch) || l.ch == '_':
		return l.readIdent(start), nil
	}

	ch := l.ch
	if typ, ok := singleCharTokens[ch]; ok {
		l.advance()
		return Token{Type: typ, Value: string(ch), Pos: start}, nil
	}

	l.advance()
	withEq := l.ch == '='
	if withEq {
		l.advance()
	}
	switch {
	case ch == '=' && withEq:
		return Token{Type: TOKEN_EQ, Value: "==", Pos: start}, nil
	case ch == '!' && withEq:
		return Token{Type: TOKEN_NE, Value: "!=", Pos: start}, nil
	case ch == '<' && withEq:
		return Token{Type: TOKEN_LE, Value: "<=", Pos: start}, nil
	case ch == '>' && withEq:
		return Token{Type: TOKEN_GE, Value: ">=", Pos: start}, nil
	case ch == '<':
		return Token{Type: TOKEN_LT, Value: "<", Pos: start}, nil
	case ch == '>':
		return Token{Type: TOKEN_GT, Value: ">", Pos: start}, nil
	case ch == '=':
		return Token{}, fmt.Errorf("unexpected '=' at position %d, did you mean '=='?", start)
	}
	return Token{}, fmt.Errorf("unexpected character %q at position %d", ch, start)
}

func (l *Lexer) readNumber(start int) Token {
	seenDot := false
	for isDigit(l.ch) || (l.ch == '.' && !seenDot) {
		if l.ch == '.' {
			seenDot = true
		}
		l.advance()
	}
	return Token{Type: TOKEN_NUMBER, Value: l.input[start:l.pos], Pos: start}
}

var escapes = map[rune]rune{'n': '\n', 't': '\t', 'r': '\r'}

func (l *Lexer) readString(start int) (Token, error) {
	quote := l.ch
	l.advance()
	var sb strings.Builder
	for l.width > 0 && l.ch != quote {
		if l.ch == '\\' {
			l.advance()
			if r, ok := escapes[l.ch]; ok {
				sb.WriteRune(r)
			} else {
				sb.WriteRune(l.ch)
			}
		} else {
			sb.WriteRune(l.ch)
		}
		l.advance()
	}
	if l.ch != quote {
		return Token{}, fmt.Errorf("unterminated string starting at position %d", start)
	}
	l.advance()
	return Token{Type: TOKEN_STRING, Value: sb.String(), Pos: start}, nil
}

// readQuotedIdent reads a `back quoted` column tag.
func (l *Lexer) readQuotedIdent(start int) (Token, error) {
	l.advance()
	from := l.pos
	for l.width > 0 && l.ch != '`' {
		l.advance()
	}
	if l.ch != '`' {
		return Token{}, fmt.Errorf("unterminated identifier starting at position %d", start)
	}
	name := l.input[from:l.pos]
	l.advance()
	return Token{Type: TOKEN_IDENT, Value: name, Pos: start}, nil
}

func (l *Lexer) readIdent(start int) Token {
	for unicode.IsLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.advance()
	}
	word := l.input[start:l.pos]
	if typ, ok := keywords[word]; ok {
		return Token{Type: typ, Value: word, Pos: start}
	}
	return Token{Type: TOKEN_IDENT, Value: word, Pos: start}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
