// Package syntax defines the declaration nodes the IR builder consumes.
//
// The nodes are the seam between the core pipeline and whatever front-end
// produced them: a node exposes its kind, canonical identifier, raw
// attribute list, generic parameter identifiers and the type expressions of
// its fields, parameters and return position. Nodes are handed over in
// source declaration order; the emitter later relies on that order for
// functions and statics.
package syntax

import (
	"github.com/defermelowie/cbindgen/internal/source"
)

// DeclKind tags the kind of a declaration node.
type DeclKind uint8

const (
	DeclStruct DeclKind = iota
	DeclUnion
	DeclEnum
	DeclOpaque
	DeclAlias
	DeclFn
	DeclConst
	DeclStatic
)

func (k DeclKind) String() string {
	switch k {
	case DeclStruct:
		return "struct"
	case DeclUnion:
		return "union"
	case DeclEnum:
		return "enum"
	case DeclOpaque:
		return "opaque"
	case DeclAlias:
		return "type"
	case DeclFn:
		return "fn"
	case DeclConst:
		return "const"
	case DeclStatic:
		return "static"
	}
	return "unknown"
}

// Attr is one raw attribute as written at the declaration site, reduced to
// a name/value pair. `#[repr(C)]` becomes {Name: "repr", Value: "C"};
// `#[export_name = "x"]` becomes {Name: "export_name", Value: "x"}.
type Attr struct {
	Name  string
	Value string
	Span  source.Span
}

// TypeExprKind tags one node of a type expression tree.
type TypeExprKind uint8

const (
	// TypeName is a named type: a primitive spelling or a path with
	// optional generic arguments.
	TypeName TypeExprKind = iota
	// TypePointer is `*const T` / `*mut T`.
	TypePointer
	// TypeArray is `[T; N]`.
	TypeArray
	// TypeFnPtr is `fn(params) -> ret`.
	TypeFnPtr
)

// TypeExpr is an untyped type expression tree. Resolution to entities
// happens in the IR builder, not here.
type TypeExpr struct {
	Kind TypeExprKind

	// TypeName
	Name string
	Args []TypeExpr

	// TypePointer, TypeArray
	Elem  *TypeExpr
	Const bool   // pointer constness
	Len   string // array length, raw text

	// TypeFnPtr
	Params []TypeExpr
	Ret    *TypeExpr
}

// Field is one named member of a struct or union.
type Field struct {
	Name string
	Type TypeExpr
	Doc  string
}

// Variant is one enum variant, optionally carrying a payload type and an
// explicit discriminant.
type Variant struct {
	Name         string
	Payload      *TypeExpr
	Discriminant string
	Doc          string
}

// Param is one function parameter.
type Param struct {
	Name string
	Type TypeExpr
}

// Decl is one declaration node.
type Decl struct {
	Kind          DeclKind
	Name          string
	Doc           string
	Attrs         []Attr
	GenericParams []string

	Fields   []Field   // struct, union
	Variants []Variant // enum
	Aliased  *TypeExpr // type alias target
	Type     *TypeExpr // const/static type

	Params   []Param // fn
	Ret      *TypeExpr
	Variadic bool
	Extern   bool // fn body lives elsewhere; declaration only

	Value string // const value, raw text

	Span  source.Span
	Index int // position in source declaration order
}

// FindAttr returns the first attribute with the given name.
func (d *Decl) FindAttr(name string) (Attr, bool) {
	for _, a := range d.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}
