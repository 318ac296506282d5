package emit

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/defermelowie/cbindgen/internal/ir"
)

// WriterConfig is the text-level configuration of the C writer: everything
// here is presentation, never ordering or naming.
type WriterConfig struct {
	IncludeGuard string
	Header       string // verbatim text at the top, e.g. a license banner
	Trailer      string // verbatim text at the bottom
	SysIncludes  []string
	Includes     []string
	// EnumPrefix prefixes enumerator names with the enum's export name.
	EnumPrefix bool
}

// DefaultWriterConfig matches the stock C output profile.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		SysIncludes: []string{"stdarg.h", "stdbool.h", "stddef.h", "stdint.h"},
		EnumPrefix:  true,
	}
}

var primitiveCSpelling = map[ir.PrimitiveKind]string{
	ir.PrimVoid:   "void",
	ir.PrimBool:   "bool",
	ir.PrimChar:   "uint32_t", // source char is a unicode scalar
	ir.PrimU8:     "uint8_t",
	ir.PrimU16:    "uint16_t",
	ir.PrimU32:    "uint32_t",
	ir.PrimU64:    "uint64_t",
	ir.PrimUsize:  "uintptr_t",
	ir.PrimI8:     "int8_t",
	ir.PrimI16:    "int16_t",
	ir.PrimI32:    "int32_t",
	ir.PrimI64:    "int64_t",
	ir.PrimIsize:  "intptr_t",
	ir.PrimF32:    "float",
	ir.PrimF64:    "double",
	ir.PrimCChar:  "char",
	ir.PrimCInt:   "int",
	ir.PrimCUInt:  "unsigned int",
	ir.PrimVaList: "va_list",
}

// CWriter renders the event stream as a C header.
type CWriter struct {
	cfg WriterConfig
	buf bytes.Buffer
	// forwarded tracks which entities already have a forward declaration,
	// which switches the definition form from `typedef struct {...} X;`
	// to `struct X {...};`.
	forwarded map[string]bool
	// names maps canonical entity names to export names for references.
	names map[string]string
}

func NewCWriter(cfg WriterConfig) *CWriter {
	return &CWriter{
		cfg:       cfg,
		forwarded: make(map[string]bool),
		names:     make(map[string]string),
	}
}

// Render consumes the whole stream and returns the header text.
func (w *CWriter) Render(events []Event) []byte {
	for _, ev := range events {
		w.names[ev.Entity.Name] = ev.Entity.ExportName
	}
	w.prologue()
	for _, ev := range events {
		switch ev.Kind {
		case ForwardDeclare:
			w.forwardDeclare(ev.Entity)
		case DefineType:
			w.defineType(ev.Entity)
		case DeclareFunction:
			w.declareFunction(ev.Entity)
		case DeclareConstant:
			w.declareConstant(ev.Entity)
		case DeclareStatic:
			w.declareStatic(ev.Entity)
		}
	}
	w.epilogue()
	return w.buf.Bytes()
}

func (w *CWriter) prologue() {
	if w.cfg.Header != "" {
		fmt.Fprintf(&w.buf, "%s\n\n", strings.TrimRight(w.cfg.Header, "\n"))
	}
	if w.cfg.IncludeGuard != "" {
		fmt.Fprintf(&w.buf, "#ifndef %s\n#define %s\n\n", w.cfg.IncludeGuard, w.cfg.IncludeGuard)
	}
	for _, inc := range w.cfg.SysIncludes {
		fmt.Fprintf(&w.buf, "#include <%s>\n", inc)
	}
	for _, inc := range w.cfg.Includes {
		fmt.Fprintf(&w.buf, "#include %q\n", inc)
	}
	if len(w.cfg.SysIncludes)+len(w.cfg.Includes) > 0 {
		w.buf.WriteByte('\n')
	}
	w.buf.WriteString("#ifdef __cplusplus\nextern \"C\" {\n#endif\n\n")
}

func (w *CWriter) epilogue() {
	w.buf.WriteString("#ifdef __cplusplus\n} // extern \"C\"\n#endif\n")
	if w.cfg.IncludeGuard != "" {
		fmt.Fprintf(&w.buf, "\n#endif // %s\n", w.cfg.IncludeGuard)
	}
	if w.cfg.Trailer != "" {
		fmt.Fprintf(&w.buf, "\n%s\n", strings.TrimRight(w.cfg.Trailer, "\n"))
	}
}

func (w *CWriter) doc(text string, indent string) {
	if text == "" {
		return
	}
	w.buf.WriteString(indent + "/**\n")
	for _, line := range strings.Split(text, "\n") {
		w.buf.WriteString(strings.TrimRight(indent+" * "+line, " ") + "\n")
	}
	w.buf.WriteString(indent + " */\n")
}

func (w *CWriter) forwardDeclare(e *ir.Entity) {
	w.forwarded[e.Name] = true
	tag := "struct"
	switch e.Kind {
	case ir.KindUnion:
		tag = "union"
	case ir.KindEnum:
		tag = "enum"
	}
	if e.Kind == ir.KindOpaque {
		w.doc(e.Doc, "")
		tag = "struct"
	}
	fmt.Fprintf(&w.buf, "typedef %s %s %s;\n\n", tag, e.ExportName, e.ExportName)
}

func (w *CWriter) defineType(e *ir.Entity) {
	switch e.Kind {
	case ir.KindStruct:
		w.defineRecord(e, "struct")
	case ir.KindUnion:
		w.defineRecord(e, "union")
	case ir.KindEnum:
		if e.HasPayloads() {
			w.defineTaggedEnum(e)
		} else {
			w.definePlainEnum(e)
		}
	case ir.KindAlias:
		w.doc(e.Doc, "")
		fmt.Fprintf(&w.buf, "typedef %s;\n\n", cdecl(*e.Aliased, e.ExportName, false, w.exportName))
	}
}

func (w *CWriter) defineRecord(e *ir.Entity, tag string) {
	w.doc(e.Doc, "")
	if e.Repr.Packed {
		w.buf.WriteString("#pragma pack(push, 1)\n")
	}
	if w.forwarded[e.Name] {
		fmt.Fprintf(&w.buf, "%s %s {\n", tag, e.ExportName)
	} else {
		fmt.Fprintf(&w.buf, "typedef %s %s {\n", tag, e.ExportName)
	}
	for _, f := range e.Fields {
		w.doc(f.Doc, "  ")
		fmt.Fprintf(&w.buf, "  %s;\n", cdecl(f.Type, f.Name, false, w.exportName))
	}
	if w.forwarded[e.Name] {
		w.buf.WriteString("};\n")
	} else {
		fmt.Fprintf(&w.buf, "} %s;\n", e.ExportName)
	}
	if e.Repr.Packed {
		w.buf.WriteString("#pragma pack(pop)\n")
	}
	w.buf.WriteByte('\n')
}

func (w *CWriter) definePlainEnum(e *ir.Entity) {
	w.doc(e.Doc, "")
	sized := e.Repr.EnumSize != ir.PrimInvalid
	if sized {
		// Enumerator block plus a typedef of the storage type, so the
		// declared discriminant width is part of the ABI.
		fmt.Fprintf(&w.buf, "enum %s {\n", e.ExportName)
	} else {
		fmt.Fprintf(&w.buf, "typedef enum %s {\n", e.ExportName)
	}
	w.enumerators(e, e.ExportName)
	if sized {
		w.buf.WriteString("};\n")
		fmt.Fprintf(&w.buf, "typedef %s %s;\n\n", primitiveCSpelling[e.Repr.EnumSize], e.ExportName)
	} else {
		fmt.Fprintf(&w.buf, "} %s;\n\n", e.ExportName)
	}
}

// defineTaggedEnum lowers an enum with payload variants to a tag enum and
// a struct wrapping the tag with an anonymous payload union.
func (w *CWriter) defineTaggedEnum(e *ir.Entity) {
	tagName := e.ExportName + "_Tag"
	sized := e.Repr.EnumSize != ir.PrimInvalid
	if sized {
		fmt.Fprintf(&w.buf, "enum %s {\n", tagName)
	} else {
		fmt.Fprintf(&w.buf, "typedef enum %s {\n", tagName)
	}
	w.enumerators(e, tagName)
	if sized {
		w.buf.WriteString("};\n")
		fmt.Fprintf(&w.buf, "typedef %s %s;\n\n", primitiveCSpelling[e.Repr.EnumSize], tagName)
	} else {
		fmt.Fprintf(&w.buf, "} %s;\n\n", tagName)
	}

	w.doc(e.Doc, "")
	if w.forwarded[e.Name] {
		fmt.Fprintf(&w.buf, "struct %s {\n", e.ExportName)
	} else {
		fmt.Fprintf(&w.buf, "typedef struct %s {\n", e.ExportName)
	}
	fmt.Fprintf(&w.buf, "  %s tag;\n", tagName)
	w.buf.WriteString("  union {\n")
	for _, v := range e.Variants {
		if v.Payload == nil {
			continue
		}
		field := ir.RenameSnakeCase.Apply(v.Name)
		fmt.Fprintf(&w.buf, "    %s;\n", cdecl(*v.Payload, field, false, w.exportName))
	}
	w.buf.WriteString("  };\n")
	if w.forwarded[e.Name] {
		w.buf.WriteString("};\n\n")
	} else {
		fmt.Fprintf(&w.buf, "} %s;\n\n", e.ExportName)
	}
}

func (w *CWriter) enumerators(e *ir.Entity, prefix string) {
	for _, v := range e.Variants {
		w.doc(v.Doc, "  ")
		name := v.Name
		if w.cfg.EnumPrefix {
			name = prefix + "_" + v.Name
		}
		if v.Discriminant != "" {
			fmt.Fprintf(&w.buf, "  %s = %s,\n", name, v.Discriminant)
		} else {
			fmt.Fprintf(&w.buf, "  %s,\n", name)
		}
	}
}

func (w *CWriter) declareFunction(e *ir.Entity) {
	if e.ExternDecl {
		return
	}
	w.doc(e.Doc, "")
	params := make([]string, 0, len(e.Sig.Params)+1)
	for _, p := range e.Sig.Params {
		params = append(params, cdecl(p.Type, p.Name, false, w.exportName))
	}
	if e.Sig.Variadic {
		params = append(params, "...")
	}
	paramText := "void"
	if len(params) > 0 {
		paramText = strings.Join(params, ", ")
	}
	// The function name plus parameter list is itself a declarator, so a
	// pointer return type wraps it without a space: `Lookup *open(void);`.
	decl := e.ExportName + "(" + paramText + ")"
	if e.Sig.Ret != nil {
		fmt.Fprintf(&w.buf, "%s;\n\n", cdecl(*e.Sig.Ret, decl, false, w.exportName))
	} else {
		fmt.Fprintf(&w.buf, "void %s;\n\n", decl)
	}
}

func (w *CWriter) declareConstant(e *ir.Entity) {
	w.doc(e.Doc, "")
	fmt.Fprintf(&w.buf, "#define %s %s\n\n", e.ExportName, e.Value)
}

func (w *CWriter) declareStatic(e *ir.Entity) {
	w.doc(e.Doc, "")
	fmt.Fprintf(&w.buf, "extern %s;\n\n", cdecl(*e.Type, e.ExportName, false, w.exportName))
}

func (w *CWriter) exportName(canonical string) string {
	if export, ok := w.names[canonical]; ok {
		return export
	}
	return canonical
}

// cdecl renders `type declarator` for one named slot, building the
// declarator inside-out: pointers wrap the name, arrays and function
// signatures append to it, and parentheses disambiguate pointers to
// arrays and functions. With an empty name it renders an abstract
// declarator (for return types).
func cdecl(t ir.TypeRef, name string, isConst bool, export func(string) string) string {
	switch t.Kind {
	case ir.RefPrimitive:
		return joinBase(qualify(primitiveCSpelling[t.Prim], isConst), name)
	case ir.RefPath:
		return joinBase(qualify(export(t.Name), isConst), name)
	case ir.RefPointer:
		inner := "*" + name
		if isConst {
			inner = "*const " + name
		}
		if t.Elem.Kind == ir.RefArray || t.Elem.Kind == ir.RefFuncPtr {
			inner = "(" + inner + ")"
		}
		return cdecl(*t.Elem, inner, t.Const, export)
	case ir.RefArray:
		return cdecl(*t.Elem, name+"["+t.Len+"]", isConst, export)
	case ir.RefFuncPtr:
		params := make([]string, 0, len(t.Params))
		for _, p := range t.Params {
			params = append(params, cdecl(p, "", false, export))
		}
		paramText := "void"
		if len(params) > 0 {
			paramText = strings.Join(params, ", ")
		}
		inner := "(*" + name + ")(" + paramText + ")"
		ret := ir.Primitive(ir.PrimVoid)
		if t.Ret != nil {
			ret = *t.Ret
		}
		return cdecl(ret, inner, false, export)
	}
	return joinBase("void", name)
}

func qualify(base string, isConst bool) string {
	if isConst {
		return "const " + base
	}
	return base
}

func joinBase(base, name string) string {
	if name == "" {
		return base
	}
	return base + " " + name
}
