package syntax

import (
	"fmt"
	"strings"

	"github.com/defermelowie/cbindgen/internal/source"
)

// Parse converts the textual declaration form into a slice of Decl nodes,
// in source order. The grammar is the compact interface-definition dialect
// used by fixtures and crate declaration files; a richer front-end can
// bypass this entirely by constructing Decl values itself.
func Parse(file source.FileID, content []byte) ([]Decl, error) {
	p := &parser{file: file, src: content}
	var decls []Decl
	for {
		p.skipSpace()
		if p.eof() {
			return decls, nil
		}
		d, err := p.parseDecl(len(decls))
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
}

type parser struct {
	file source.FileID
	src  []byte
	pos  int
}

func (p *parser) parseDecl(index int) (Decl, error) {
	doc := p.collectDoc()
	attrs, err := p.collectAttrs()
	if err != nil {
		return Decl{}, err
	}
	// Doc lines may also follow attributes.
	if more := p.collectDoc(); more != "" {
		if doc != "" {
			doc += "\n"
		}
		doc += more
	}

	start := p.pos
	kw := p.ident()
	if kw == "pub" {
		p.skipSpace()
		kw = p.ident()
	}

	d := Decl{Doc: doc, Attrs: attrs, Index: index}
	switch kw {
	case "struct", "union":
		if kw == "struct" {
			d.Kind = DeclStruct
		} else {
			d.Kind = DeclUnion
		}
		err = p.parseRecord(&d)
	case "enum":
		d.Kind = DeclEnum
		err = p.parseEnum(&d)
	case "opaque":
		d.Kind = DeclOpaque
		err = p.parseOpaque(&d)
	case "type":
		d.Kind = DeclAlias
		err = p.parseAlias(&d)
	case "extern", "fn":
		d.Kind = DeclFn
		if kw == "extern" {
			d.Extern = true
			p.skipSpace()
			if got := p.ident(); got != "fn" {
				return Decl{}, p.errf("expected 'fn' after 'extern', got %q", got)
			}
		}
		err = p.parseFn(&d)
	case "const":
		d.Kind = DeclConst
		err = p.parseConst(&d)
	case "static":
		d.Kind = DeclStatic
		err = p.parseStatic(&d)
	default:
		return Decl{}, p.errf("expected declaration keyword, got %q", kw)
	}
	if err != nil {
		return Decl{}, err
	}
	d.Span = source.Span{File: p.file, Start: uint32(start), End: uint32(p.pos)}
	return d, nil
}

func (p *parser) parseRecord(d *Decl) error {
	var err error
	if d.Name, d.GenericParams, err = p.parseHeader(); err != nil {
		return err
	}
	if !p.consume('{') {
		return p.errf("expected '{' in %s %s", d.Kind, d.Name)
	}
	for {
		p.skipSpace()
		if p.consume('}') {
			return nil
		}
		fieldDoc := p.collectDoc()
		name := p.ident()
		if name == "" {
			return p.errf("expected field name in %s", d.Name)
		}
		if !p.consume(':') {
			return p.errf("expected ':' after field %q", name)
		}
		ty, err := p.parseType()
		if err != nil {
			return err
		}
		d.Fields = append(d.Fields, Field{Name: name, Type: ty, Doc: fieldDoc})
		p.consume(',')
	}
}

func (p *parser) parseEnum(d *Decl) error {
	var err error
	if d.Name, d.GenericParams, err = p.parseHeader(); err != nil {
		return err
	}
	if !p.consume('{') {
		return p.errf("expected '{' in enum %s", d.Name)
	}
	for {
		p.skipSpace()
		if p.consume('}') {
			return nil
		}
		variantDoc := p.collectDoc()
		name := p.ident()
		if name == "" {
			return p.errf("expected variant name in enum %s", d.Name)
		}
		v := Variant{Name: name, Doc: variantDoc}
		if p.consume('(') {
			ty, err := p.parseType()
			if err != nil {
				return err
			}
			if !p.consume(')') {
				return p.errf("expected ')' after payload of %s::%s", d.Name, name)
			}
			v.Payload = &ty
		}
		if p.consume('=') {
			v.Discriminant = p.rawUntil(",}")
		}
		d.Variants = append(d.Variants, v)
		p.consume(',')
	}
}

func (p *parser) parseOpaque(d *Decl) error {
	var err error
	if d.Name, d.GenericParams, err = p.parseHeader(); err != nil {
		return err
	}
	p.consume(';')
	return nil
}

func (p *parser) parseAlias(d *Decl) error {
	var err error
	if d.Name, d.GenericParams, err = p.parseHeader(); err != nil {
		return err
	}
	if !p.consume('=') {
		return p.errf("expected '=' in type alias %s", d.Name)
	}
	ty, err := p.parseType()
	if err != nil {
		return err
	}
	d.Aliased = &ty
	p.consume(';')
	return nil
}

func (p *parser) parseFn(d *Decl) error {
	p.skipSpace()
	d.Name = p.ident()
	if d.Name == "" {
		return p.errf("expected function name")
	}
	if !p.consume('(') {
		return p.errf("expected '(' after fn %s", d.Name)
	}
	for {
		p.skipSpace()
		if p.consume(')') {
			break
		}
		if strings.HasPrefix(string(p.rest()), "...") {
			p.pos += 3
			d.Variadic = true
			p.skipSpace()
			if !p.consume(')') {
				return p.errf("'...' must be the last parameter of %s", d.Name)
			}
			break
		}
		name := p.ident()
		if name == "" {
			return p.errf("expected parameter name in fn %s", d.Name)
		}
		if !p.consume(':') {
			return p.errf("expected ':' after parameter %q", name)
		}
		ty, err := p.parseType()
		if err != nil {
			return err
		}
		d.Params = append(d.Params, Param{Name: name, Type: ty})
		p.consume(',')
	}
	if p.consumeArrow() {
		ty, err := p.parseType()
		if err != nil {
			return err
		}
		d.Ret = &ty
	}
	p.consume(';')
	return nil
}

func (p *parser) parseConst(d *Decl) error {
	p.skipSpace()
	d.Name = p.ident()
	if d.Name == "" {
		return p.errf("expected constant name")
	}
	if !p.consume(':') {
		return p.errf("expected ':' after const %s", d.Name)
	}
	ty, err := p.parseType()
	if err != nil {
		return err
	}
	d.Type = &ty
	if !p.consume('=') {
		return p.errf("expected '=' in const %s", d.Name)
	}
	d.Value = p.rawUntil(";")
	p.consume(';')
	return nil
}

func (p *parser) parseStatic(d *Decl) error {
	p.skipSpace()
	d.Name = p.ident()
	if d.Name == "" {
		return p.errf("expected static name")
	}
	if !p.consume(':') {
		return p.errf("expected ':' after static %s", d.Name)
	}
	ty, err := p.parseType()
	if err != nil {
		return err
	}
	d.Type = &ty
	p.consume(';')
	return nil
}

// parseHeader reads `Name` or `Name<T, U>`.
func (p *parser) parseHeader() (string, []string, error) {
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return "", nil, p.errf("expected declaration name")
	}
	var params []string
	if p.consume('<') {
		for {
			p.skipSpace()
			param := p.ident()
			if param == "" {
				return "", nil, p.errf("expected generic parameter in %s", name)
			}
			params = append(params, param)
			if p.consume('>') {
				break
			}
			if !p.consume(',') {
				return "", nil, p.errf("expected ',' or '>' in generics of %s", name)
			}
		}
	}
	return name, params, nil
}

func (p *parser) parseType() (TypeExpr, error) {
	p.skipSpace()
	switch {
	case p.consume('*'):
		p.skipSpace()
		isConst := false
		switch q := p.ident(); q {
		case "const":
			isConst = true
		case "mut":
		default:
			return TypeExpr{}, p.errf("expected 'const' or 'mut' after '*', got %q", q)
		}
		elem, err := p.parseType()
		if err != nil {
			return TypeExpr{}, err
		}
		return TypeExpr{Kind: TypePointer, Elem: &elem, Const: isConst}, nil

	case p.consume('['):
		elem, err := p.parseType()
		if err != nil {
			return TypeExpr{}, err
		}
		if !p.consume(';') {
			return TypeExpr{}, p.errf("expected ';' in array type")
		}
		length := strings.TrimSpace(p.rawUntil("]"))
		if !p.consume(']') {
			return TypeExpr{}, p.errf("expected ']' in array type")
		}
		return TypeExpr{Kind: TypeArray, Elem: &elem, Len: length}, nil
	}

	name := p.ident()
	if name == "" {
		return TypeExpr{}, p.errf("expected type")
	}
	if name == "fn" {
		return p.parseFnPtr()
	}
	te := TypeExpr{Kind: TypeName, Name: name}
	if p.consume('<') {
		for {
			arg, err := p.parseType()
			if err != nil {
				return TypeExpr{}, err
			}
			te.Args = append(te.Args, arg)
			if p.consume('>') {
				break
			}
			if !p.consume(',') {
				return TypeExpr{}, p.errf("expected ',' or '>' in type arguments of %s", name)
			}
		}
	}
	return te, nil
}

func (p *parser) parseFnPtr() (TypeExpr, error) {
	if !p.consume('(') {
		return TypeExpr{}, p.errf("expected '(' in fn pointer type")
	}
	te := TypeExpr{Kind: TypeFnPtr}
	for {
		p.skipSpace()
		if p.consume(')') {
			break
		}
		param, err := p.parseType()
		if err != nil {
			return TypeExpr{}, err
		}
		te.Params = append(te.Params, param)
		if p.consume(')') {
			break
		}
		if !p.consume(',') {
			return TypeExpr{}, p.errf("expected ',' or ')' in fn pointer type")
		}
	}
	if p.consumeArrow() {
		ret, err := p.parseType()
		if err != nil {
			return TypeExpr{}, err
		}
		te.Ret = &ret
	}
	return te, nil
}

// collectDoc gathers consecutive `///` lines into one doc blob.
func (p *parser) collectDoc() string {
	var lines []string
	for {
		p.skipSpace()
		if !strings.HasPrefix(string(p.rest()), "///") {
			break
		}
		p.pos += 3
		start := p.pos
		for !p.eof() && p.src[p.pos] != '\n' {
			p.pos++
		}
		lines = append(lines, strings.TrimPrefix(strings.TrimRight(string(p.src[start:p.pos]), "\r"), " "))
	}
	return strings.Join(lines, "\n")
}

// collectAttrs gathers consecutive `#[name]`, `#[name(value)]` and
// `#[name = "value"]` attributes.
func (p *parser) collectAttrs() ([]Attr, error) {
	var attrs []Attr
	for {
		p.skipSpace()
		if !strings.HasPrefix(string(p.rest()), "#[") {
			return attrs, nil
		}
		start := p.pos
		p.pos += 2
		p.skipSpace()
		name := p.ident()
		if name == "" {
			return nil, p.errf("expected attribute name")
		}
		a := Attr{Name: name}
		p.skipSpace()
		switch {
		case p.consume('('):
			depth := 1
			vstart := p.pos
			for !p.eof() && depth > 0 {
				switch p.src[p.pos] {
				case '(':
					depth++
				case ')':
					depth--
				}
				p.pos++
			}
			if depth != 0 {
				return nil, p.errf("unclosed attribute %q", name)
			}
			a.Value = strings.TrimSpace(string(p.src[vstart : p.pos-1]))
		case p.consume('='):
			p.skipSpace()
			a.Value = strings.Trim(strings.TrimSpace(p.rawUntil("]")), `"`)
		}
		p.skipSpace()
		if !p.consume(']') {
			return nil, p.errf("expected ']' to close attribute %q", name)
		}
		a.Span = source.Span{File: p.file, Start: uint32(start), End: uint32(p.pos)}
		attrs = append(attrs, a)
	}
}

func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.src[p.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			p.pos++
			continue
		}
		// Line comments, but not doc comments.
		if c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '/' {
			if p.pos+2 < len(p.src) && p.src[p.pos+2] == '/' {
				return // doc comment, handled by collectDoc
			}
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		return
	}
}

func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		// Path separator keeps external references like `libc::c_void` as one name.
		if c == ':' && p.pos+1 < len(p.src) && p.src[p.pos+1] == ':' {
			p.pos += 2
			continue
		}
		break
	}
	return string(p.src[start:p.pos])
}

// rawUntil returns the raw text before the first byte in stops, trimmed.
// The stop byte itself is not consumed.
func (p *parser) rawUntil(stops string) string {
	start := p.pos
	for !p.eof() && !strings.ContainsRune(stops, rune(p.src[p.pos])) {
		p.pos++
	}
	return strings.TrimSpace(string(p.src[start:p.pos]))
}

func (p *parser) consume(c byte) bool {
	p.skipSpace()
	if !p.eof() && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) consumeArrow() bool {
	p.skipSpace()
	if strings.HasPrefix(string(p.rest()), "->") {
		p.pos += 2
		return true
	}
	return false
}

func (p *parser) rest() []byte {
	return p.src[p.pos:]
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) errf(format string, args ...any) error {
	return fmt.Errorf("file %d, offset %d: %s", p.file, p.pos, fmt.Sprintf(format, args...))
}
