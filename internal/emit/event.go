// Package emit turns the ordered entity sequence into the declaration
// event stream and renders it as a C header. The stream is the
// target-agnostic contract: every event's entity has no outstanding
// by-value dependency at its position, and export names are unique across
// the whole stream.
package emit

import (
	"github.com/defermelowie/cbindgen/internal/dag"
	"github.com/defermelowie/cbindgen/internal/diag"
	"github.com/defermelowie/cbindgen/internal/ir"
)

// EventKind tags one emission event.
type EventKind uint8

const (
	ForwardDeclare EventKind = iota
	DefineType
	DeclareFunction
	DeclareConstant
	DeclareStatic
)

func (k EventKind) String() string {
	switch k {
	case ForwardDeclare:
		return "ForwardDeclare"
	case DefineType:
		return "DefineType"
	case DeclareFunction:
		return "DeclareFunction"
	case DeclareConstant:
		return "DeclareConstant"
	case DeclareStatic:
		return "DeclareStatic"
	}
	return "Unknown"
}

// Event is one "emit this declaration" instruction for a writer.
type Event struct {
	Kind   EventKind
	Entity *ir.Entity
}

// BuildStream validates the ordered library and produces the event
// sequence. External names referenced only behind pointers become
// synthesized opaque forward declarations; an external name needed by
// value is a fatal unresolved-type error, as is any reference that still
// carries generic arguments after specialization.
func BuildStream(lib *ir.Library, order *dag.Order) ([]Event, error) {
	if err := checkResolved(lib); err != nil {
		return nil, err
	}

	externals, err := collectExternals(lib, order)
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, e := range externals {
		events = append(events, Event{Kind: ForwardDeclare, Entity: e})
	}
	for _, e := range order.Forwards {
		events = append(events, Event{Kind: ForwardDeclare, Entity: e})
	}
	for _, e := range order.Types {
		events = append(events, Event{Kind: DefineType, Entity: e})
	}
	for _, e := range order.Constants {
		events = append(events, Event{Kind: DeclareConstant, Entity: e})
	}
	for _, e := range order.Functions {
		kind := DeclareFunction
		if e.Kind == ir.KindStatic {
			kind = DeclareStatic
		}
		events = append(events, Event{Kind: kind, Entity: e})
	}

	if err := checkUniqueNames(events); err != nil {
		return nil, err
	}
	return events, nil
}

// checkResolved rejects leftover generic references and by-value
// references to names outside the library.
func checkResolved(lib *ir.Library) error {
	var firstErr error
	for _, e := range lib.Entities() {
		if firstErr != nil {
			break
		}
		owner := e
		e.TypeRefs(func(root *ir.TypeRef) {
			root.Walk(func(ref *ir.TypeRef, ctx ir.RefContext) {
				if firstErr != nil || ref.Kind != ir.RefPath {
					return
				}
				if len(ref.Args) > 0 {
					firstErr = diag.Errorf(diag.StageEmit, diag.EmitUnresolvedType, owner.Name,
						"reference to %s cannot be resolved to a concrete type", ref.Key())
					return
				}
				if _, ok := lib.Lookup(ref.Name); ok {
					return
				}
				if ctx == ir.ByValue {
					firstErr = diag.Errorf(diag.StageEmit, diag.EmitUnresolvedType, owner.Name,
						"%s contains unknown type %s by value", owner.Name, ref.Name)
				}
			})
		})
	}
	return firstErr
}

// collectExternals synthesizes opaque entities for names outside the
// library that are referenced behind pointers, in first-reference order
// over the emission sequence.
func collectExternals(lib *ir.Library, order *dag.Order) ([]*ir.Entity, error) {
	seen := make(map[string]bool)
	var out []*ir.Entity
	visit := func(e *ir.Entity) {
		e.TypeRefs(func(root *ir.TypeRef) {
			root.Walk(func(ref *ir.TypeRef, ctx ir.RefContext) {
				if ref.Kind != ir.RefPath || ctx != ir.ByPointer || seen[ref.Name] {
					return
				}
				if _, ok := lib.Lookup(ref.Name); ok {
					return
				}
				seen[ref.Name] = true
				out = append(out, &ir.Entity{
					Kind:        ir.KindOpaque,
					Name:        ref.Name,
					ExportName:  ref.Name,
					OpaqueOnly:  true,
					Synthesized: true,
				})
			})
		})
	}
	for _, e := range order.Types {
		visit(e)
	}
	for _, e := range order.Constants {
		visit(e)
	}
	for _, e := range order.Functions {
		visit(e)
	}
	return out, nil
}

// checkUniqueNames enforces pairwise-distinct export names across the
// whole stream. Forward declarations of entities defined later share the
// entity and do not count as duplicates.
func checkUniqueNames(events []Event) error {
	owners := make(map[string]*ir.Entity)
	for _, ev := range events {
		e := ev.Entity
		if prev, ok := owners[e.ExportName]; ok {
			if prev == e {
				continue
			}
			return diag.Errorf(diag.StageEmit, diag.EmitDuplicateName, e.Name,
				"export name %q used by both %s and %s", e.ExportName, prev.Name, e.Name)
		}
		owners[e.ExportName] = e
	}
	return nil
}
