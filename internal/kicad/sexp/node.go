package sexp

import (
	"math"
	"strconv"
	"strings"
)

// Node is a single S-expression: an atom or a list.
type Node interface {
	IsLeaf() bool
	String() string
}

// Symbol is an unquoted atom (keyword, number, yes/no).
type Symbol string

// IsLeaf implements Node.
func (Symbol) IsLeaf() bool { return true }

func (s Symbol) String() string { return string(s) }

// String is a quoted atom. It is kept distinct from Symbol so that a
// parsed file can be written back without changing its quoting.
type String string

// IsLeaf implements Node.
func (String) IsLeaf() bool { return true }

func (s String) String() string { return quote(string(s)) }

// List is a parenthesised sequence of nodes. By KiCad convention the
// first element is a Symbol naming the list.
type List struct {
	Elements []Node
}

// IsLeaf implements Node.
func (*List) IsLeaf() bool { return false }

func (l *List) String() string {
	var b strings.Builder
	writeInline(&b, l)
	return b.String()
}

// NewList creates a list headed by the given keyword. Nil children are skipped.
func NewList(head string, children ...Node) *List {
	elems := make([]Node, 0, len(children)+1)
	elems = append(elems, Symbol(head))
	for _, c := range children {
		if !isNil(c) {
			elems = append(elems, c)
		}
	}
	return &List{Elements: elems}
}

// Head returns the keyword of the list, or "" if it does not start with a Symbol.
func (l *List) Head() string {
	if l == nil || len(l.Elements) == 0 {
		return ""
	}
	if s, ok := l.Elements[0].(Symbol); ok {
		return string(s)
	}
	return ""
}

// Len returns the number of elements including the head.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Elements)
}

// Get returns the element at index i, or nil when out of range.
func (l *List) Get(i int) Node {
	if l == nil || i < 0 || i >= len(l.Elements) {
		return nil
	}
	return l.Elements[i]
}

// Append adds children to the end of the list.
func (l *List) Append(children ...Node) {
	for _, c := range children {
		if !isNil(c) {
			l.Elements = append(l.Elements, c)
		}
	}
}

// isNil also catches a nil *List stored in a Node.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	l, ok := n.(*List)
	return ok && l == nil
}

// Atom returns the text of the atom at index i.
func (l *List) Atom(i int) (string, bool) {
	switch n := l.Get(i).(type) {
	case Symbol:
		return string(n), true
	case String:
		return string(n), true
	default:
		return "", false
	}
}

// Float parses the atom at index i as a number.
func (l *List) Float(i int) (float64, bool) {
	s, ok := l.Atom(i)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Find returns the first direct child list with the given head.
func (l *List) Find(head string) *List {
	if l == nil {
		return nil
	}
	for _, e := range l.Elements {
		if sub, ok := e.(*List); ok && sub.Head() == head {
			return sub
		}
	}
	return nil
}

// FindAll returns every direct child list with the given head.
func (l *List) FindAll(head string) []*List {
	if l == nil {
		return nil
	}
	var out []*List
	for _, e := range l.Elements {
		if sub, ok := e.(*List); ok && sub.Head() == head {
			out = append(out, sub)
		}
	}
	return out
}

// Remove deletes every direct child for which drop returns true and
// reports how many were removed.
func (l *List) Remove(drop func(Node) bool) int {
	kept := l.Elements[:0]
	removed := 0
	for _, e := range l.Elements {
		if drop(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(l.Elements); i++ {
		l.Elements[i] = nil
	}
	l.Elements = kept
	return removed
}

// Property returns the value of a (property "key" "value" ...) child.
func (l *List) Property(key string) (string, bool) {
	for _, p := range l.FindAll("property") {
		if k, ok := p.Atom(1); ok && k == key {
			return p.Atom(2)
		}
	}
	return "", false
}

// Num formats a number as KiCad writes it: no exponent, no trailing
// zeros, and never "-0".
func Num(v float64) Symbol {
	if v == 0 || math.IsNaN(v) {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return Symbol(s)
}

// Int formats an integer atom.
func Int(v int) Symbol {
	return Symbol(strconv.Itoa(v))
}

// Bool formats a KiCad yes/no atom.
func Bool(v bool) Symbol {
	if v {
		return "yes"
	}
	return "no"
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
