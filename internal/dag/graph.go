// Package dag builds the reference graph among concrete entities and
// produces the linear emission order, inserting forward declarations where
// pointer references break what would otherwise be layout cycles.
package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"github.com/defermelowie/cbindgen/internal/ir"
)

// NodeID indexes a type entity inside one Graph.
type NodeID uint32

// EdgeKind classifies one dependency edge.
type EdgeKind uint8

const (
	// ByValue edges require the target's full definition first.
	ByValue EdgeKind = iota
	// ByPointer edges only require a forward declaration.
	ByPointer
)

// Graph holds the by-value and by-pointer dependencies among the type
// entities of a library. Node IDs follow library order, which makes every
// derived ordering deterministic.
type Graph struct {
	Nodes []*ir.Entity

	ids map[string]NodeID

	// valueDeps[from] lists the nodes from depends on by value.
	valueDeps [][]NodeID
	// valueDependents is the reverse adjacency used by Kahn's algorithm.
	valueDependents [][]NodeID
	// pointerDeps[from] lists the nodes from depends on by pointer only.
	pointerDeps [][]NodeID
}

// Build constructs the graph over every type entity in the library.
// References to entities outside the library are not edges; the emission
// stage decides whether they are acceptable (behind pointers) or fatal.
func Build(lib *ir.Library) *Graph {
	g := &Graph{ids: make(map[string]NodeID)}
	for _, e := range lib.Entities() {
		if !e.Kind.IsType() {
			continue
		}
		id, err := safecast.Conv[NodeID](len(g.Nodes))
		if err != nil {
			panic(fmt.Errorf("node id overflow: %w", err))
		}
		g.ids[e.Name] = id
		g.Nodes = append(g.Nodes, e)
	}

	n := len(g.Nodes)
	g.valueDeps = make([][]NodeID, n)
	g.valueDependents = make([][]NodeID, n)
	g.pointerDeps = make([][]NodeID, n)

	type edgeSet map[NodeID]EdgeKind
	for from, e := range g.Nodes {
		edges := make(edgeSet)
		e.TypeRefs(func(root *ir.TypeRef) {
			root.Walk(func(ref *ir.TypeRef, ctx ir.RefContext) {
				if ref.Kind != ir.RefPath {
					return
				}
				to, ok := g.ids[ref.Name]
				if !ok {
					return
				}
				kind := ByValue
				// A target that only ever forward-declares can never be
				// contained by value; its edges are pointer-grade.
				if ctx == ir.ByPointer || g.Nodes[to].OpaqueOnly {
					kind = ByPointer
				}
				// A by-value occurrence dominates a by-pointer one.
				if prev, seen := edges[to]; !seen || (prev == ByPointer && kind == ByValue) {
					edges[to] = kind
				}
			})
		})
		fromID := NodeID(from)
		for to, kind := range edges {
			if to == fromID && kind == ByPointer {
				// Self-reference through a pointer needs no edge, only a
				// forward declaration, which ordering always inserts.
				g.pointerDeps[fromID] = append(g.pointerDeps[fromID], to)
				continue
			}
			switch kind {
			case ByValue:
				g.valueDeps[fromID] = append(g.valueDeps[fromID], to)
				g.valueDependents[to] = append(g.valueDependents[to], fromID)
			case ByPointer:
				g.pointerDeps[fromID] = append(g.pointerDeps[fromID], to)
			}
		}
	}

	// Map iteration above is unordered; sorted adjacency keeps every
	// derived ordering reproducible.
	for i := range g.Nodes {
		slices.Sort(g.valueDeps[i])
		slices.Sort(g.valueDependents[i])
		slices.Sort(g.pointerDeps[i])
	}
	return g
}

// Lookup resolves a canonical entity name to its node.
func (g *Graph) Lookup(name string) (NodeID, bool) {
	id, ok := g.ids[name]
	return id, ok
}
