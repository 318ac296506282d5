package mono

import (
	"strings"

	"github.com/defermelowie/cbindgen/internal/ir"
)

// mangle derives the synthesized export name for an instantiation:
// the base export name and the argument spellings joined by underscores,
// order preserved. `Pair<i32>` becomes `Pair_i32`, `Pair<*const u8>`
// becomes `Pair_Ptr_u8`. The encoding keeps distinct tuples distinct;
// a residual collision is still checked by the engine and is fatal.
func mangle(base string, args []ir.TypeRef, export func(canonical string) string) string {
	if len(args) == 0 {
		return base
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, base)
	for _, arg := range args {
		parts = append(parts, mangleArg(arg, export))
	}
	return strings.Join(parts, "_")
}

func mangleArg(t ir.TypeRef, export func(canonical string) string) string {
	switch t.Kind {
	case ir.RefPrimitive:
		return t.Prim.String()
	case ir.RefPath:
		name := export(t.Name)
		if len(t.Args) == 0 {
			return name
		}
		parts := make([]string, 0, len(t.Args)+1)
		parts = append(parts, name)
		for _, a := range t.Args {
			parts = append(parts, mangleArg(a, export))
		}
		return strings.Join(parts, "_")
	case ir.RefPointer:
		if t.Const {
			return "PtrConst_" + mangleArg(*t.Elem, export)
		}
		return "Ptr_" + mangleArg(*t.Elem, export)
	case ir.RefArray:
		return "Arr" + sanitizeLen(t.Len) + "_" + mangleArg(*t.Elem, export)
	case ir.RefFuncPtr:
		parts := []string{"Fn"}
		for _, p := range t.Params {
			parts = append(parts, mangleArg(p, export))
		}
		if t.Ret != nil {
			parts = append(parts, "Ret", mangleArg(*t.Ret, export))
		}
		return strings.Join(parts, "_")
	}
	return "Invalid"
}

// sanitizeLen keeps only identifier-safe characters of a length expression.
func sanitizeLen(length string) string {
	var b strings.Builder
	for _, r := range length {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
