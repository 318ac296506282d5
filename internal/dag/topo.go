package dag

import (
	"slices"
)

// toposort computes a topological order over by-value edges with Kahn's
// algorithm. Dependencies precede dependents; ties are broken by NodeID
// (library order), so the result is deterministic for a fixed graph.
// Nodes left with a positive in-degree sit on or behind a by-value cycle.
func (g *Graph) toposort() (order []NodeID, leftover []NodeID) {
	n := len(g.Nodes)
	indeg := make([]int, n)
	for from := range g.Nodes {
		indeg[from] = len(g.valueDeps[from])
	}

	current := make([]NodeID, 0, n)
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			current = append(current, NodeID(i))
		}
	}
	slices.Sort(current)

	order = make([]NodeID, 0, n)
	for len(current) > 0 {
		next := make([]NodeID, 0)
		for _, id := range current {
			order = append(order, id)
			for _, dependent := range g.valueDependents[int(id)] {
				indeg[int(dependent)]--
				if indeg[int(dependent)] == 0 {
					next = append(next, dependent)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if len(order) != n {
		for i := 0; i < n; i++ {
			if indeg[i] > 0 {
				leftover = append(leftover, NodeID(i))
			}
		}
	}
	return order, leftover
}

// findValueCycle extracts one concrete by-value cycle from the leftover
// set, for error reporting.
func (g *Graph) findValueCycle(leftover []NodeID) []NodeID {
	inLeftover := make(map[NodeID]bool, len(leftover))
	for _, id := range leftover {
		inLeftover[id] = true
	}

	state := make(map[NodeID]uint8) // 0 unvisited, 1 on stack, 2 done
	var stack []NodeID
	var cycle []NodeID

	var visit func(NodeID) bool
	visit = func(id NodeID) bool {
		state[id] = 1
		stack = append(stack, id)
		for _, dep := range g.valueDeps[int(id)] {
			if !inLeftover[dep] {
				continue
			}
			switch state[dep] {
			case 1:
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append(cycle, stack[i])
					if stack[i] == dep {
						break
					}
				}
				slices.Reverse(cycle)
				return true
			case 0:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = 2
		return false
	}

	for _, id := range leftover {
		if state[id] == 0 && visit(id) {
			return cycle
		}
	}
	return leftover // unreachable in practice; report the whole set
}
