package sexp

import (
	"strings"
)

// inlineHeads are lists KiCad always writes on a single line even though
// they contain nested lists.
var inlineHeads = map[string]bool{
	"at":      true,
	"effects": true,
	"font":    true,
	"fill":    true,
	"stroke":  true,
	"offset":  true,
	"scale":   true,
	"rotate":  true,
	"xyz":     true,
	"xy":      true,
	"size":    true,
	"drill":   true,
	"layers":  true,
	"lib":     true,
	"name":    true,
	"number":  true,
}

// Format renders a node in KiCad's layout: two-space indentation, one
// nested list per line, trailing newline.
func Format(n Node) []byte {
	var b strings.Builder
	writeNode(&b, n, 0)
	b.WriteByte('\n')
	return []byte(b.String())
}

func writeNode(b *strings.Builder, n Node, depth int) {
	l, ok := n.(*List)
	if !ok {
		b.WriteString(n.String())
		return
	}
	if isInline(l) {
		writeInline(b, l)
		return
	}

	b.WriteByte('(')
	broken := false
	for i, e := range l.Elements {
		if _, sub := e.(*List); sub || broken {
			broken = true
			b.WriteByte('\n')
			b.WriteString(strings.Repeat("  ", depth+1))
			writeNode(b, e, depth+1)
			continue
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.String())
	}
	if broken {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("  ", depth))
	}
	b.WriteByte(')')
}

func writeInline(b *strings.Builder, l *List) {
	b.WriteByte('(')
	for i, e := range l.Elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		if sub, ok := e.(*List); ok {
			writeInline(b, sub)
			continue
		}
		b.WriteString(e.String())
	}
	b.WriteByte(')')
}

func isInline(l *List) bool {
	if inlineHeads[l.Head()] {
		return true
	}
	if l.Head() == "pts" {
		return len(l.Elements) <= 5
	}
	for _, e := range l.Elements {
		if _, ok := e.(*List); ok {
			return false
		}
	}
	return true
}
