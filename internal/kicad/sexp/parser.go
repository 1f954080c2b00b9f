package sexp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ErrNotList is returned by ParseList when the input is a bare atom.
var ErrNotList = errors.New("sexp: top-level expression is not a list")

// Parser parses S-expressions from a lexer.
type Parser struct {
	lexer   *Lexer
	current Token
}

// NewParser creates a new parser from an io.Reader.
func NewParser(r io.Reader) *Parser {
	return &Parser{lexer: NewLexer(r)}
}

// ParseAll parses all top-level S-expressions from the input.
func (p *Parser) ParseAll() ([]Node, error) {
	var result []Node

	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.current.Type != TokenEOF {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		result = append(result, expr)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ParseList parses exactly one top-level list, as found in every KiCad
// library and table file.
func ParseList(data []byte) (*List, error) {
	nodes, err := NewParser(bytes.NewReader(data)).ParseAll()
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("sexp: expected one top-level expression, got %d", len(nodes))
	}
	l, ok := nodes[0].(*List)
	if !ok {
		return nil, ErrNotList
	}
	return l, nil
}

func (p *Parser) advance() error {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *Parser) parseExpr() (Node, error) {
	switch p.current.Type {
	case TokenLeftParen:
		return p.parseList()
	case TokenSymbol:
		return Symbol(p.current.Value), nil
	case TokenString:
		return String(p.current.Value), nil
	case TokenRightParen:
		return nil, fmt.Errorf("line %d: unexpected ')'", p.current.Line)
	case TokenEOF:
		return nil, fmt.Errorf("line %d: unexpected EOF", p.current.Line)
	default:
		return nil, fmt.Errorf("line %d: unexpected token type: %v", p.current.Line, p.current.Type)
	}
}

func (p *Parser) parseList() (Node, error) {
	open := p.current.Line
	var elements []Node
	for {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.current.Type == TokenRightParen {
			break
		}
		if p.current.Type == TokenEOF {
			return nil, fmt.Errorf("line %d: unexpected EOF in list", open)
		}
		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elements = append(elements, elem)
	}
	return &List{Elements: elements}, nil
}
