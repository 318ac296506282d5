package ir

import (
	"github.com/defermelowie/cbindgen/internal/cfg"
	"github.com/defermelowie/cbindgen/internal/diag"
)

// Prune removes every entity whose predicate evaluates false against env.
//
// Removal is transitive for containment only, never for reference: a
// surviving entity that points at a removed one keeps the reference and the
// target degrades to a forward-declared opaque type at emission. A
// surviving by-value reference to a removed entity is left in place too and
// surfaces as an unresolved-type failure at emission, where resolution is
// actually required.
func Prune(lib *Library, env *cfg.Env, reporter diag.Reporter) {
	removed := make(map[string]bool)
	for _, e := range lib.Entities() {
		keep, unknown := e.Cond.Eval(env)
		for _, leaf := range unknown {
			diag.ReportWarning(reporter, diag.CfgUnknownFlag, e.Span,
				"unknown cfg flag "+leaf+" in predicate of "+e.Name+"; treated as disabled")
		}
		if !keep {
			removed[e.Name] = true
		}
	}
	if len(removed) == 0 {
		return
	}
	for name := range removed {
		lib.Remove(name)
	}

	for _, e := range lib.Entities() {
		e.TypeRefs(func(root *TypeRef) {
			root.Walk(func(ref *TypeRef, ctx RefContext) {
				if ref.Kind != RefPath || !removed[ref.Name] {
					return
				}
				if ctx == ByPointer {
					diag.ReportWarning(reporter, diag.CfgRemovedTarget, e.Span,
						e.Name+" references conditionally removed type "+ref.Name+
							" by pointer; an opaque forward declaration will be emitted")
				}
			})
		})
	}
}
