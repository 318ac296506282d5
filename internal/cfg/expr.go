// Package cfg models conditional-compilation predicates: the boolean
// expressions attached to declarations via `#[cfg(...)]` attributes.
package cfg

import (
	"fmt"
	"strings"
)

// Kind is the closed set of predicate node kinds. Attribute dispatch is by
// explicit matching on this tag; there is no open-ended extension point.
type Kind uint8

const (
	// KindFlag is a bare leaf like `windows`.
	KindFlag Kind = iota
	// KindKeyValue is a valued leaf like `feature = "simd"`.
	KindKeyValue
	// KindAll is a conjunction.
	KindAll
	// KindAny is a disjunction.
	KindAny
	// KindNot is a negation of a single child.
	KindNot
)

// Expr is one predicate node.
type Expr struct {
	Kind     Kind
	Key      string
	Value    string
	Children []Expr
}

// All combines predicates conjunctively. A nil receiver acts as "always".
func All(a, b *Expr) *Expr {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return &Expr{Kind: KindAll, Children: []Expr{*a, *b}}
}

func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindFlag:
		return e.Key
	case KindKeyValue:
		return fmt.Sprintf("%s = %q", e.Key, e.Value)
	case KindNot:
		return "not(" + e.Children[0].String() + ")"
	case KindAll, KindAny:
		op := "all"
		if e.Kind == KindAny {
			op = "any"
		}
		parts := make([]string, len(e.Children))
		for i := range e.Children {
			parts[i] = e.Children[i].String()
		}
		return op + "(" + strings.Join(parts, ", ") + ")"
	}
	return ""
}

// Parse reads the textual form of a predicate, i.e. the inside of a
// `#[cfg(...)]` attribute.
func Parse(text string) (*Expr, error) {
	p := &exprParser{src: text}
	e, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("trailing input in cfg predicate at offset %d", p.pos)
	}
	return e, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) parse() (*Expr, error) {
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("expected cfg predicate at offset %d", p.pos)
	}

	switch name {
	case "all", "any", "not":
		if !p.consume('(') {
			return nil, fmt.Errorf("expected '(' after %q", name)
		}
		var children []Expr
		for {
			p.skipSpace()
			if p.consume(')') {
				break
			}
			child, err := p.parse()
			if err != nil {
				return nil, err
			}
			children = append(children, *child)
			p.skipSpace()
			if p.consume(')') {
				break
			}
			if !p.consume(',') {
				return nil, fmt.Errorf("expected ',' or ')' in %q", name)
			}
		}
		switch name {
		case "not":
			if len(children) != 1 {
				return nil, fmt.Errorf("not() takes exactly one predicate, got %d", len(children))
			}
			return &Expr{Kind: KindNot, Children: children}, nil
		case "all":
			return &Expr{Kind: KindAll, Children: children}, nil
		default:
			return &Expr{Kind: KindAny, Children: children}, nil
		}
	}

	p.skipSpace()
	if p.consume('=') {
		p.skipSpace()
		value, err := p.stringLit()
		if err != nil {
			return nil, err
		}
		return &Expr{Kind: KindKeyValue, Key: name, Value: value}, nil
	}
	return &Expr{Kind: KindFlag, Key: name}, nil
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *exprParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *exprParser) consume(c byte) bool {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) stringLit() (string, error) {
	if p.pos >= len(p.src) || p.src[p.pos] != '"' {
		// Bare values are tolerated for convenience in fixtures.
		v := p.ident()
		if v == "" {
			return "", fmt.Errorf("expected value after '=' at offset %d", p.pos)
		}
		return v, nil
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '"' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return "", fmt.Errorf("unterminated string in cfg predicate")
	}
	v := p.src[start:p.pos]
	p.pos++
	return v, nil
}
