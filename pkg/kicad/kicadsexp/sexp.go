// Package kicadsexp provides a lightweight streaming S-expression parser
// for KiCad board files.
package kicadsexp

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Sexp is either a Symbol or a *List.
type Sexp interface {
	IsLeaf() bool
	String() string
}

// Symbol is an atom: a bare word, a number or the contents of a quoted
// string.
type Symbol string

func (s Symbol) IsLeaf() bool   { return true }
func (s Symbol) String() string { return string(s) }

// List is a parenthesised expression. By KiCad convention the first item is
// the node name, e.g. (at 10 20 90).
type List struct {
	items []Sexp
	// Line is the 1-based line of the opening parenthesis.
	Line int
}

func (l *List) IsLeaf() bool { return false }

func (l *List) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, it := range l.items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(it.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Len returns the number of items, including the name.
func (l *List) Len() int {
	return len(l.items)
}

// Get returns item i, or nil when out of range.
func (l *List) Get(i int) Sexp {
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// Items returns the items after the name.
func (l *List) Items() []Sexp {
	if len(l.items) <= 1 {
		return nil
	}
	return l.items[1:]
}

// Name returns the leading symbol, or "" when the list is empty or starts
// with a sub-list.
func (l *List) Name() string {
	if len(l.items) == 0 {
		return ""
	}
	if sym, ok := l.items[0].(Symbol); ok {
		return string(sym)
	}
	return ""
}

// Find returns the first child list named key.
func (l *List) Find(key string) (*List, bool) {
	for _, it := range l.items {
		if sub, ok := it.(*List); ok && sub.Name() == key {
			return sub, true
		}
	}
	return nil, false
}

// FindAll returns every child list named key, in file order.
func (l *List) FindAll(key string) []*List {
	var out []*List
	for _, it := range l.items {
		if sub, ok := it.(*List); ok && sub.Name() == key {
			out = append(out, sub)
		}
	}
	return out
}

// Has reports whether sym appears as a bare symbol among the items.
func (l *List) Has(sym string) bool {
	for _, it := range l.Items() {
		if s, ok := it.(Symbol); ok && string(s) == sym {
			return true
		}
	}
	return false
}

// Str returns item i as a string.
func (l *List) Str(i int) (string, error) {
	it := l.Get(i)
	if it == nil {
		return "", fmt.Errorf("line %d: (%s) has no item %d", l.Line, l.Name(), i)
	}
	sym, ok := it.(Symbol)
	if !ok {
		return "", fmt.Errorf("line %d: (%s) item %d is a list", l.Line, l.Name(), i)
	}
	return string(sym), nil
}

// Float returns item i parsed as a number.
func (l *List) Float(i int) (float64, error) {
	s, err := l.Str(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: (%s) item %d: %w", l.Line, l.Name(), i, err)
	}
	return v, nil
}

// Int returns item i parsed as an integer.
func (l *List) Int(i int) (int, error) {
	s, err := l.Str(i)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("line %d: (%s) item %d: %w", l.Line, l.Name(), i, err)
	}
	return v, nil
}

// Parse reads all top-level expressions from r.
func Parse(r io.Reader) ([]Sexp, error) {
	return NewParser(r).ParseAll()
}

// ParseString parses all top-level expressions in s.
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}
