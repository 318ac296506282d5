package ir

import (
	"strings"

	"github.com/defermelowie/cbindgen/internal/cfg"
	"github.com/defermelowie/cbindgen/internal/diag"
	"github.com/defermelowie/cbindgen/internal/syntax"
)

// attrKind is the closed set of attributes the builder understands.
// Anything else falls through to attrUnknown and is logged, never fatal.
type attrKind uint8

const (
	attrRepr attrKind = iota
	attrCfg
	attrExportName
	attrOpaque
	attrUnknown
)

func classifyAttr(name string) attrKind {
	switch name {
	case "repr":
		return attrRepr
	case "cfg":
		return attrCfg
	case "export_name":
		return attrExportName
	case "opaque":
		return attrOpaque
	}
	return attrUnknown
}

// Build converts declaration nodes into a populated Library. Each node
// becomes exactly one entity; a duplicate canonical name aborts the build.
func Build(decls []syntax.Decl, reporter diag.Reporter) (*Library, error) {
	lib := NewLibrary()
	for i := range decls {
		e, err := buildEntity(&decls[i], reporter)
		if err != nil {
			return nil, err
		}
		if err := lib.Add(e); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

func buildEntity(d *syntax.Decl, reporter diag.Reporter) (*Entity, error) {
	e := &Entity{
		Name:          d.Name,
		ExportName:    d.Name,
		GenericParams: append([]string(nil), d.GenericParams...),
		Doc:           d.Doc,
		Span:          d.Span,
		DeclIndex:     d.Index,
		ExternDecl:    d.Extern,
		Value:         d.Value,
	}

	switch d.Kind {
	case syntax.DeclStruct:
		e.Kind = KindStruct
		e.Fields = buildFields(d.Fields)
	case syntax.DeclUnion:
		e.Kind = KindUnion
		e.Fields = buildFields(d.Fields)
	case syntax.DeclEnum:
		e.Kind = KindEnum
		e.Variants = buildVariants(d.Variants)
	case syntax.DeclOpaque:
		e.Kind = KindOpaque
		e.OpaqueOnly = true
	case syntax.DeclAlias:
		e.Kind = KindAlias
		if d.Aliased != nil {
			t := buildTypeRef(*d.Aliased)
			e.Aliased = &t
		}
	case syntax.DeclFn:
		e.Kind = KindFunction
		e.Sig = buildSignature(d)
	case syntax.DeclConst:
		e.Kind = KindConstant
		if d.Type != nil {
			t := buildTypeRef(*d.Type)
			e.Type = &t
		}
	case syntax.DeclStatic:
		e.Kind = KindStatic
		if d.Type != nil {
			t := buildTypeRef(*d.Type)
			e.Type = &t
		}
	}

	for _, a := range d.Attrs {
		if err := applyAttr(e, a, reporter); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func applyAttr(e *Entity, a syntax.Attr, reporter diag.Reporter) error {
	switch classifyAttr(a.Name) {
	case attrRepr:
		return applyRepr(e, a, reporter)
	case attrCfg:
		pred, err := cfg.Parse(a.Value)
		if err != nil {
			return diag.Errorf(diag.StageBuild, diag.CfgBadPredicate, e.Name,
				"invalid cfg predicate %q: %v", a.Value, err)
		}
		// Predicates stack: all attribute occurrences must hold.
		e.Cond = cfg.All(e.Cond, pred)
	case attrExportName:
		if a.Value == "" {
			return diag.Errorf(diag.StageBuild, diag.BuildBadRenameAttribute, e.Name,
				"export_name requires a value")
		}
		e.ExportName = a.Value
	case attrOpaque:
		e.OpaqueOnly = true
	default:
		diag.ReportWarning(reporter, diag.BuildUnknownAttribute, a.Span,
			"ignoring unrecognized attribute #["+a.Name+"] on "+e.Name)
	}
	return nil
}

func applyRepr(e *Entity, a syntax.Attr, reporter diag.Reporter) error {
	for _, part := range strings.Split(a.Value, ",") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
		case "C":
			e.Repr.C = true
		case "packed":
			e.Repr.Packed = true
		case "transparent":
			// Treated like C layout for a single-field wrapper.
			e.Repr.C = true
		default:
			prim, ok := PrimitiveFromName(part)
			if !ok || !prim.IsInteger() {
				return diag.Errorf(diag.StageBuild, diag.BuildBadReprAttribute, e.Name,
					"unsupported repr %q", part)
			}
			if e.Kind != KindEnum {
				diag.ReportWarning(reporter, diag.BuildBadReprAttribute, a.Span,
					"repr("+part+") only applies to enums; ignored on "+e.Name)
				continue
			}
			e.Repr.EnumSize = prim
		}
	}
	return nil
}

func buildFields(fields []syntax.Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = Field{Name: f.Name, Type: buildTypeRef(f.Type), Doc: f.Doc}
	}
	return out
}

func buildVariants(variants []syntax.Variant) []Variant {
	out := make([]Variant, len(variants))
	for i, v := range variants {
		nv := Variant{Name: v.Name, Discriminant: v.Discriminant, Doc: v.Doc}
		if v.Payload != nil {
			t := buildTypeRef(*v.Payload)
			nv.Payload = &t
		}
		out[i] = nv
	}
	return out
}

func buildSignature(d *syntax.Decl) *Signature {
	sig := &Signature{Variadic: d.Variadic}
	sig.Params = make([]Param, len(d.Params))
	for i, p := range d.Params {
		sig.Params[i] = Param{Name: p.Name, Type: buildTypeRef(p.Type)}
	}
	if d.Ret != nil {
		t := buildTypeRef(*d.Ret)
		sig.Ret = &t
	}
	return sig
}

// buildTypeRef lowers a syntax type expression into a TypeRef tree.
// Unknown names with no arguments stay as Path references; whether they
// resolve is decided at emission, not here.
func buildTypeRef(te syntax.TypeExpr) TypeRef {
	switch te.Kind {
	case syntax.TypeName:
		if len(te.Args) == 0 {
			if prim, ok := PrimitiveFromName(te.Name); ok {
				return Primitive(prim)
			}
			return Path(te.Name)
		}
		args := make([]TypeRef, len(te.Args))
		for i, a := range te.Args {
			args[i] = buildTypeRef(a)
		}
		return Path(te.Name, args...)
	case syntax.TypePointer:
		return PointerTo(buildTypeRef(*te.Elem), te.Const)
	case syntax.TypeArray:
		return ArrayOf(buildTypeRef(*te.Elem), te.Len)
	case syntax.TypeFnPtr:
		out := TypeRef{Kind: RefFuncPtr}
		out.Params = make([]TypeRef, len(te.Params))
		for i, p := range te.Params {
			out.Params[i] = buildTypeRef(p)
		}
		if te.Ret != nil {
			r := buildTypeRef(*te.Ret)
			out.Ret = &r
		}
		return out
	}
	return TypeRef{}
}
