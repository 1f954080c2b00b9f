package sexp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode"
)

// TokenType represents the type of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLeftParen
	TokenRightParen
	TokenSymbol
	TokenString
)

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value string
	Line  int
}

// Lexer tokenizes KiCad S-expressions from an io.Reader.
type Lexer struct {
	reader *bufio.Reader
	peeked *rune
	line   int
}

// NewLexer creates a new lexer.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(r),
		line:   1,
	}
}

// NextToken reads the next token from the input.
func (l *Lexer) NextToken() (Token, error) {
	for {
		ch, err := l.peek()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Token{Type: TokenEOF, Line: l.line}, nil
			}
			return Token{}, err
		}
		if !unicode.IsSpace(ch) {
			break
		}
		_, _ = l.read()
	}

	ch, _ := l.peek()
	switch ch {
	case '(':
		_, _ = l.read()
		return Token{Type: TokenLeftParen, Value: "(", Line: l.line}, nil
	case ')':
		_, _ = l.read()
		return Token{Type: TokenRightParen, Value: ")", Line: l.line}, nil
	case '"':
		return l.readString()
	default:
		return l.readSymbol()
	}
}

func (l *Lexer) peek() (rune, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	ch, _, err := l.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	l.peeked = &ch
	return ch, nil
}

func (l *Lexer) read() (rune, error) {
	var ch rune
	if l.peeked != nil {
		ch = *l.peeked
		l.peeked = nil
	} else {
		var err error
		ch, _, err = l.reader.ReadRune()
		if err != nil {
			return 0, err
		}
	}
	if ch == '\n' {
		l.line++
	}
	return ch, nil
}

func (l *Lexer) readString() (Token, error) {
	start := l.line
	_, _ = l.read() // opening quote

	var result []rune
	for {
		ch, err := l.read()
		if err != nil {
			return Token{}, fmt.Errorf("line %d: unterminated string", start)
		}
		if ch == '"' {
			break
		}
		if ch == '\\' {
			next, err := l.read()
			if err != nil {
				return Token{}, fmt.Errorf("line %d: unexpected EOF after backslash", start)
			}
			switch next {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			case 'r':
				result = append(result, '\r')
			default:
				result = append(result, next)
			}
			continue
		}
		result = append(result, ch)
	}

	return Token{Type: TokenString, Value: string(result), Line: start}, nil
}

func (l *Lexer) readSymbol() (Token, error) {
	var result []rune
	for {
		ch, err := l.peek()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Token{}, err
		}
		if unicode.IsSpace(ch) || ch == '(' || ch == ')' || ch == '"' {
			break
		}
		_, _ = l.read()
		result = append(result, ch)
	}

	if len(result) == 0 {
		return Token{}, fmt.Errorf("line %d: empty symbol", l.line)
	}
	return Token{Type: TokenSymbol, Value: string(result), Line: l.line}, nil
}
