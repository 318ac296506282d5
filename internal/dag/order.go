package dag

import (
	"sort"
	"strings"

	"github.com/defermelowie/cbindgen/internal/diag"
	"github.com/defermelowie/cbindgen/internal/ir"
)

// Order is the linear emission sequence. Forward declarations come first,
// then type definitions in dependency order, then constants, then
// functions and statics in source declaration order.
type Order struct {
	Forwards  []*ir.Entity
	Types     []*ir.Entity
	Constants []*ir.Entity
	Functions []*ir.Entity
}

// Compute orders the library for emission.
//
// Forward-declaration rule: every type that is referenced by pointer from
// an entity positioned before the type's own definition gets a forward
// declaration at the head of the stream, in definition order. An
// opaque-only type is always forward-declared and never defined. The rule
// is a pure function of the deterministic topological order, so the choice
// of forward-declared members in a pointer-broken cycle is itself
// deterministic.
func Compute(lib *ir.Library) (*Order, error) {
	g := Build(lib)
	topo, leftover := g.toposort()
	if len(leftover) > 0 {
		cycle := g.findValueCycle(leftover)
		names := make([]string, len(cycle))
		for i, id := range cycle {
			names[i] = g.Nodes[id].Name
		}
		return nil, diag.Errorf(diag.StageOrder, diag.OrderUnrepresentableCycle, names[0],
			"types form a by-value layout cycle: %s", strings.Join(names, " -> "))
	}

	out := &Order{}
	pos := make(map[NodeID]int, len(topo))
	for i, id := range topo {
		pos[id] = i
		if !g.Nodes[id].OpaqueOnly {
			out.Types = append(out.Types, g.Nodes[id])
		}
	}

	// Collect forward-declaration targets: pointer references that reach
	// forward in the sequence, plus every opaque-only type in use.
	needForward := make(map[NodeID]bool)
	for _, id := range topo {
		if g.Nodes[id].OpaqueOnly {
			// Opaque-only types have no definition; the forward
			// declaration is the whole exported surface.
			needForward[id] = true
		}
	}
	for _, fromID := range topo {
		for _, to := range g.pointerDeps[int(fromID)] {
			if pos[to] >= pos[fromID] {
				needForward[to] = true
			}
		}
	}
	forwardIDs := make([]NodeID, 0, len(needForward))
	for id := range needForward {
		forwardIDs = append(forwardIDs, id)
	}
	sort.Slice(forwardIDs, func(i, j int) bool {
		return pos[forwardIDs[i]] < pos[forwardIDs[j]]
	})
	for _, id := range forwardIDs {
		out.Forwards = append(out.Forwards, g.Nodes[id])
	}

	for _, e := range lib.Entities() {
		switch e.Kind {
		case ir.KindConstant:
			out.Constants = append(out.Constants, e)
		case ir.KindFunction, ir.KindStatic:
			out.Functions = append(out.Functions, e)
		}
	}
	sortByDecl(out.Constants)
	sortByDecl(out.Functions)
	return out, nil
}

func sortByDecl(entities []*ir.Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].DeclIndex < entities[j].DeclIndex
	})
}
