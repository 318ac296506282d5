package ir

import (
	"github.com/defermelowie/cbindgen/internal/cfg"
	"github.com/defermelowie/cbindgen/internal/source"
)

// EntityKind tags the kind of an IR entity.
type EntityKind uint8

const (
	KindStruct EntityKind = iota
	KindUnion
	KindEnum
	KindOpaque
	KindAlias
	KindFunction
	KindConstant
	KindStatic
)

func (k EntityKind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindOpaque:
		return "opaque"
	case KindAlias:
		return "type alias"
	case KindFunction:
		return "function"
	case KindConstant:
		return "constant"
	case KindStatic:
		return "static"
	}
	return "unknown"
}

// IsType reports whether entities of this kind define a type.
func (k EntityKind) IsType() bool {
	switch k {
	case KindStruct, KindUnion, KindEnum, KindOpaque, KindAlias:
		return true
	}
	return false
}

// Repr captures the representation attributes declared on an entity.
type Repr struct {
	C        bool          // #[repr(C)]
	Packed   bool          // #[repr(packed)]
	EnumSize PrimitiveKind // #[repr(u8)] and friends; PrimInvalid if unset
}

// Field is one member of a struct or union.
type Field struct {
	Name string
	Type TypeRef
	Doc  string
}

// Variant is one enum variant. A non-nil Payload makes the enum a tagged
// union in the emitted header.
type Variant struct {
	Name         string
	Payload      *TypeRef
	Discriminant string
	Doc          string
}

// Param is one function parameter.
type Param struct {
	Name string
	Type TypeRef
}

// Signature is a function's parameter and return contract.
type Signature struct {
	Params   []Param
	Ret      *TypeRef // nil means void
	Variadic bool
}

// Entity is the unit of IR: one exported declaration, fully owned by the
// Library. Entities are created once by the builder (or synthesized once by
// the specialization engine), mutated only during conditional pruning and
// export-name assignment, and immutable from the ordering stage onward.
type Entity struct {
	Kind       EntityKind
	Name       string // canonical source name, unique per Library
	ExportName string // possibly renamed/mangled emission name

	GenericParams []string
	Doc           string
	Cond          *cfg.Expr // conditional-compilation predicate, nil = always
	Repr          Repr

	Fields   []Field   // struct, union
	Variants []Variant // enum
	Aliased  *TypeRef  // type alias target
	Type     *TypeRef  // constant/static type
	Value    string    // constant value, raw text
	Sig      *Signature

	// OpaqueOnly forces the entity to only ever be forward-declared.
	OpaqueOnly bool
	// ExternDecl marks functions already declared elsewhere; the writer
	// skips them.
	ExternDecl bool
	// Synthesized marks entities produced by the specialization engine.
	Synthesized bool

	Span      source.Span
	DeclIndex int // source declaration order
}

// HasPayloads reports whether any enum variant carries a payload type,
// which switches emission to the tagged tag+union lowering.
func (e *Entity) HasPayloads() bool {
	for i := range e.Variants {
		if e.Variants[i].Payload != nil {
			return true
		}
	}
	return false
}

// IsGeneric reports whether the entity still has unsubstituted parameters.
func (e *Entity) IsGeneric() bool {
	return len(e.GenericParams) > 0
}

// TypeRefs visits every TypeRef stored in the entity.
func (e *Entity) TypeRefs(visit func(ref *TypeRef)) {
	switch e.Kind {
	case KindStruct, KindUnion:
		for i := range e.Fields {
			visit(&e.Fields[i].Type)
		}
	case KindEnum:
		for i := range e.Variants {
			if e.Variants[i].Payload != nil {
				visit(e.Variants[i].Payload)
			}
		}
	case KindAlias:
		if e.Aliased != nil {
			visit(e.Aliased)
		}
	case KindConstant, KindStatic:
		if e.Type != nil {
			visit(e.Type)
		}
	case KindFunction:
		if e.Sig != nil {
			for i := range e.Sig.Params {
				visit(&e.Sig.Params[i].Type)
			}
			if e.Sig.Ret != nil {
				visit(e.Sig.Ret)
			}
		}
	}
}

// Clone returns a deep copy with freshly owned reference trees.
func (e *Entity) Clone() *Entity {
	out := *e
	out.GenericParams = append([]string(nil), e.GenericParams...)
	if len(e.Fields) > 0 {
		out.Fields = make([]Field, len(e.Fields))
		for i, f := range e.Fields {
			out.Fields[i] = Field{Name: f.Name, Type: f.Type.Clone(), Doc: f.Doc}
		}
	}
	if len(e.Variants) > 0 {
		out.Variants = make([]Variant, len(e.Variants))
		for i, v := range e.Variants {
			nv := Variant{Name: v.Name, Discriminant: v.Discriminant, Doc: v.Doc}
			if v.Payload != nil {
				p := v.Payload.Clone()
				nv.Payload = &p
			}
			out.Variants[i] = nv
		}
	}
	if e.Aliased != nil {
		a := e.Aliased.Clone()
		out.Aliased = &a
	}
	if e.Type != nil {
		t := e.Type.Clone()
		out.Type = &t
	}
	if e.Sig != nil {
		sig := Signature{Variadic: e.Sig.Variadic}
		sig.Params = make([]Param, len(e.Sig.Params))
		for i, p := range e.Sig.Params {
			sig.Params[i] = Param{Name: p.Name, Type: p.Type.Clone()}
		}
		if e.Sig.Ret != nil {
			r := e.Sig.Ret.Clone()
			sig.Ret = &r
		}
		out.Sig = &sig
	}
	return &out
}
