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
	"strconv"
)

// Parser builds an AST from tokens.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a new parser
func NewParser(input string) (*Parser, error) {
	tokens, err := NewLexer(input).Tokens()
	if err != nil {
		return nil, err
	}
	return &Parser{tokens: tokens}, nil
}

func (p *Parser) cur() Token { return p.tokens[p.pos] }

func (p *Parser) at(types ...TokenType) bool {
	for _, t := range types {
		if p.cur().Type == t {
			return true
		}
	}
	return false
}

func (p *Parser) next() Token {
	tok := p.cur()
	if tok.Type != TOKEN_EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(t TokenType) error {
	if !p.at(t) {
		return fmt.Errorf("expected %s at position %d, got %s", t, p.cur().Pos, p.cur().Type)
	}
	p.next()
	return nil
}

// Parse parses the input and returns the AST
func (p *Parser) Parse() (Node, error) {
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.at(TOKEN_EOF) {
		return nil, fmt.Errorf("unexpected %s at position %d", p.cur().Type, p.cur().Pos)
	}
	return n, nil
}

// Precedence (low to high):
// 1. or
// 2. and
// 3. not
// 4. ==, !=, <, >, <=, >=, in, not in
// 5. +, -
// 6. *, /, %
// 7. unary -
// 8. function calls

// binaryLevel parses a left-associative chain of ops over operands.
func (p *Parser) binaryLevel(operand func() (Node, error), ops ...TokenType) (Node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for p.at(ops...) {
		op := p.next().Type
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseOr() (Node, error) {
	return p.binaryLevel(p.parseAnd, TOKEN_OR)
}

func (p *Parser) parseAnd() (Node, error) {
	return p.binaryLevel(p.parseNot, TOKEN_AND)
}

func (p *Parser) parseNot() (Node, error) {
	if p.at(TOKEN_NOT) {
		p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: TOKEN_NOT, Expr: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Node, error) {
	left, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE, TOKEN_IN):
			op := p.next().Type
			right, err := p.parseAddSub()
			if err != nil {
				return nil, err
			}
			left = &BinaryOp{Op: op, Left: left, Right: right}
		case p.at(TOKEN_NOT) && p.tokens[p.pos+1].Type == TOKEN_IN:
			p.next()
			p.next()
			right, err := p.parseAddSub()
			if err != nil {
				return nil, err
			}
			left = &UnaryOp{Op: TOKEN_NOT, Expr: &BinaryOp{Op: TOKEN_IN, Left: left, Right: right}}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseAddSub() (Node, error) {
	return p.binaryLevel(p.parseMulDiv, TOKEN_PLUS, TOKEN_MINUS)
}

func (p *Parser) parseMulDiv() (Node, error) {
	return p.binaryLevel(p.parseUnary, TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT)
}

func (p *Parser) parseUnary() (Node, error) {
	if p.at(TOKEN_MINUS) {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: TOKEN_MINUS, Expr: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.Type {
	case TOKEN_NUMBER:
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", tok.Value, tok.Pos)
		}
		return &Literal{Value: Number(val)}, nil
	case TOKEN_STRING:
		return &Literal{Value: String(tok.Value)}, nil
	case TOKEN_TRUE, TOKEN_FALSE:
		return &Literal{Value: Bool(tok.Type == TOKEN_TRUE)}, nil
	case TOKEN_NULL:
		return &Literal{Value: Null}, nil
	case TOKEN_IDENT:
		if p.at(TOKEN_LPAREN) {
			args, err := p.parseList(TOKEN_LPAREN, TOKEN_RPAREN)
			if err != nil {
				return nil, err
			}
			return &CallExpr{Func: tok.Value, Args: args}, nil
		}
		return &Ident{Name: tok.Value}, nil
	case TOKEN_LBRACKET:
		p.pos--
		items, err := p.parseList(TOKEN_LBRACKET, TOKEN_RBRACKET)
		if err != nil {
			return nil, err
		}
		return &ListLit{Items: items}, nil
	case TOKEN_LPAREN:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TOKEN_RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case TOKEN_EOF:
		return nil, fmt.Errorf("unexpected end of expression")
	default:
		return nil, fmt.Errorf("unexpected %s at position %d", tok.Type, tok.Pos)
	}
}

// parseList parses opening item, item, ... closing.
func (p *Parser) parseList(opening, closing TokenType) ([]Node, error) {
	if err := p.expect(opening); err != nil {
		return nil, err
	}
	var items []Node
	for !p.at(closing) {
		item, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.at(TOKEN_COMMA) {
			break
		}
		p.next()
	}
	if err := p.expect(closing); err != nil {
		return nil, err
	}
	return items, nil
}
