package ir

import (
	"strings"
)

// TypeRefKind tags one node of a TypeRef tree.
type TypeRefKind uint8

const (
	RefPrimitive TypeRefKind = iota
	RefPath
	RefPointer
	RefArray
	RefFuncPtr
)

// TypeRef is a structural, non-owning reference to a type from a field,
// parameter or return position. Path references resolve to entities by
// name lookup in the Library; the tree never holds entity pointers, which
// sidesteps ownership issues for self-referential pointer types.
type TypeRef struct {
	Kind TypeRefKind

	// RefPrimitive
	Prim PrimitiveKind

	// RefPath
	Name string
	Args []TypeRef

	// RefPointer, RefArray
	Elem  *TypeRef
	Const bool   // pointer points at const data
	Len   string // array length, raw text

	// RefFuncPtr
	Params []TypeRef
	Ret    *TypeRef // nil means void
}

// Primitive builds a primitive reference.
func Primitive(kind PrimitiveKind) TypeRef {
	return TypeRef{Kind: RefPrimitive, Prim: kind}
}

// Path builds a named reference with optional generic arguments.
func Path(name string, args ...TypeRef) TypeRef {
	return TypeRef{Kind: RefPath, Name: name, Args: args}
}

// PointerTo builds a pointer reference.
func PointerTo(elem TypeRef, isConst bool) TypeRef {
	return TypeRef{Kind: RefPointer, Elem: &elem, Const: isConst}
}

// ArrayOf builds an array reference with a raw length expression.
func ArrayOf(elem TypeRef, length string) TypeRef {
	return TypeRef{Kind: RefArray, Elem: &elem, Len: length}
}

// Key returns a stable structural key for the reference. Two references
// are structurally equal exactly when their keys are equal; instantiation
// dedup and mangling both rely on this.
func (t TypeRef) Key() string {
	var b strings.Builder
	t.writeKey(&b)
	return b.String()
}

func (t TypeRef) writeKey(b *strings.Builder) {
	switch t.Kind {
	case RefPrimitive:
		b.WriteString(t.Prim.String())
	case RefPath:
		b.WriteString(t.Name)
		if len(t.Args) > 0 {
			b.WriteByte('<')
			for i, a := range t.Args {
				if i > 0 {
					b.WriteByte(',')
				}
				a.writeKey(b)
			}
			b.WriteByte('>')
		}
	case RefPointer:
		if t.Const {
			b.WriteString("*const ")
		} else {
			b.WriteString("*mut ")
		}
		t.Elem.writeKey(b)
	case RefArray:
		b.WriteByte('[')
		t.Elem.writeKey(b)
		b.WriteByte(';')
		b.WriteString(t.Len)
		b.WriteByte(']')
	case RefFuncPtr:
		b.WriteString("fn(")
		for i, p := range t.Params {
			if i > 0 {
				b.WriteByte(',')
			}
			p.writeKey(b)
		}
		b.WriteByte(')')
		if t.Ret != nil {
			b.WriteString("->")
			t.Ret.writeKey(b)
		}
	}
}

func (t TypeRef) String() string {
	return t.Key()
}

// Clone returns a deep copy of the reference tree.
func (t TypeRef) Clone() TypeRef {
	out := t
	if len(t.Args) > 0 {
		out.Args = make([]TypeRef, len(t.Args))
		for i, a := range t.Args {
			out.Args[i] = a.Clone()
		}
	}
	if t.Elem != nil {
		elem := t.Elem.Clone()
		out.Elem = &elem
	}
	if len(t.Params) > 0 {
		out.Params = make([]TypeRef, len(t.Params))
		for i, p := range t.Params {
			out.Params[i] = p.Clone()
		}
	}
	if t.Ret != nil {
		ret := t.Ret.Clone()
		out.Ret = &ret
	}
	return out
}

// IsConcrete reports whether the tree contains no reference to any name in
// params (the generic parameters still pending substitution).
func (t TypeRef) IsConcrete(params map[string]bool) bool {
	concrete := true
	t.Walk(func(ref *TypeRef, _ RefContext) {
		if ref.Kind == RefPath && params[ref.Name] {
			concrete = false
		}
	})
	return concrete
}

// RefContext says how a walked reference is reached from the root:
// by value (direct containment, array elements) or behind a pointer.
type RefContext uint8

const (
	ByValue RefContext = iota
	ByPointer
)

// Walk visits every node of the tree in depth-first order, tracking
// whether the node is reachable by value from the root. Anything behind a
// pointer or inside a function-pointer signature is ByPointer.
func (t *TypeRef) Walk(visit func(ref *TypeRef, ctx RefContext)) {
	t.walk(visit, ByValue)
}

func (t *TypeRef) walk(visit func(ref *TypeRef, ctx RefContext), ctx RefContext) {
	visit(t, ctx)
	switch t.Kind {
	case RefPath:
		for i := range t.Args {
			t.Args[i].walk(visit, ctx)
		}
	case RefPointer:
		t.Elem.walk(visit, ByPointer)
	case RefArray:
		t.Elem.walk(visit, ctx)
	case RefFuncPtr:
		for i := range t.Params {
			t.Params[i].walk(visit, ByPointer)
		}
		if t.Ret != nil {
			t.Ret.walk(visit, ByPointer)
		}
	}
}
