package ir

import (
	"github.com/defermelowie/cbindgen/internal/diag"
	"github.com/defermelowie/cbindgen/internal/source"
)

// FilterExports applies the export include and exclude lists from the
// configuration. Excluded entities are removed with the same degradation
// rules as conditional pruning. A non-empty include list restricts the
// surface to the named entities plus everything they reference,
// transitively, so an included struct never loses its field types.
func FilterExports(lib *Library, include, exclude []string, reporter diag.Reporter) {
	removed := make(map[string]bool)
	for _, name := range exclude {
		if _, ok := lib.Lookup(name); !ok {
			diag.ReportWarning(reporter, diag.ExportUnknownItem, source.Span{},
				"exclude list names unknown item "+name)
			continue
		}
		removed[name] = true
	}

	if len(include) > 0 {
		keep := make(map[string]bool)
		var visit func(name string)
		visit = func(name string) {
			if keep[name] || removed[name] {
				return
			}
			e, ok := lib.Lookup(name)
			if !ok {
				return
			}
			keep[name] = true
			e.TypeRefs(func(root *TypeRef) {
				root.Walk(func(ref *TypeRef, _ RefContext) {
					if ref.Kind == RefPath {
						visit(ref.Name)
					}
				})
			})
		}
		for _, name := range include {
			if _, ok := lib.Lookup(name); !ok {
				diag.ReportWarning(reporter, diag.ExportUnknownItem, source.Span{},
					"include list names unknown item "+name)
				continue
			}
			visit(name)
		}
		for _, e := range lib.Entities() {
			if !keep[e.Name] {
				removed[e.Name] = true
			}
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
					diag.ReportWarning(reporter, diag.ExportExcludedTarget, e.Span,
						e.Name+" references excluded item "+ref.Name+
							" by pointer; an opaque forward declaration will be emitted")
				}
			})
		})
	}
}
