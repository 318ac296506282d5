package mono

import (
	"github.com/defermelowie/cbindgen/internal/ir"
)

// subst replaces generic parameter references with concrete argument trees
// throughout an entity body. Arguments are already fully concrete when a
// subst is built; recursion into freshly substituted references is the
// engine's job, not subst's.
type subst struct {
	byParam map[string]ir.TypeRef
}

func newSubst(params []string, args []ir.TypeRef) *subst {
	s := &subst{byParam: make(map[string]ir.TypeRef, len(params))}
	for i, p := range params {
		if i < len(args) {
			s.byParam[p] = args[i]
		}
	}
	return s
}

// applyEntity rewrites every TypeRef of e in place.
func (s *subst) applyEntity(e *ir.Entity) {
	e.TypeRefs(func(ref *ir.TypeRef) {
		*ref = s.applyRef(*ref)
	})
}

func (s *subst) applyRef(t ir.TypeRef) ir.TypeRef {
	switch t.Kind {
	case ir.RefPath:
		if arg, ok := s.byParam[t.Name]; ok && len(t.Args) == 0 {
			return arg.Clone()
		}
		for i := range t.Args {
			t.Args[i] = s.applyRef(t.Args[i])
		}
		return t
	case ir.RefPointer, ir.RefArray:
		elem := s.applyRef(*t.Elem)
		t.Elem = &elem
		return t
	case ir.RefFuncPtr:
		for i := range t.Params {
			t.Params[i] = s.applyRef(t.Params[i])
		}
		if t.Ret != nil {
			ret := s.applyRef(*t.Ret)
			t.Ret = &ret
		}
		return t
	}
	return t
}
