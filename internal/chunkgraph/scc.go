package chunkgraph

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Component is one strongly connected component of the chunk graph. A
// trivial component has a single member and no self edge.
type Component struct {
	Members []ChunkID
}

// Condensation holds the SCC decomposition. Components are ordered so
// that for any edge A -> B, B's component appears no later than A's:
// dependencies before dependents. Lazy hashing walks this order.
type Condensation struct {
	Components []Component
	CompOf     []int // dense chunk id -> index into Components, -1 if absent
}

// Trivial reports whether the chunk sits alone in its component without
// a self cycle.
func (c *Condensation) Trivial(g *Graph, id ChunkID) bool {
	comp := c.CompOf[int(id)]
	if comp < 0 || len(c.Components[comp].Members) > 1 {
		return false
	}
	return !slices.Contains(g.Edges[int(id)], id)
}

// SameComponent reports whether two chunks are mutually reachable.
func (c *Condensation) SameComponent(a, b ChunkID) bool {
	return c.CompOf[int(a)] >= 0 && c.CompOf[int(a)] == c.CompOf[int(b)]
}

// Decompose runs Tarjan's algorithm over the graph: one depth-first
// pass, low-link indices, an explicit stack of in-progress nodes. A node
// whose low-link equals its own discovery index closes a component.
// Tarjan emits components in reverse topological order of the
// condensation, which is exactly the dependencies-first order the
// patcher needs, so no extra sort pass is required.
func Decompose(g *Graph) *Condensation {
	nodeCount := len(g.Edges)
	const unvisited = -1

	index := make([]int, nodeCount)
	lowlink := make([]int, nodeCount)
	onStack := make([]bool, nodeCount)
	for i := range index {
		index[i] = unvisited
	}

	cond := &Condensation{
		CompOf: make([]int, nodeCount),
	}
	for i := range cond.CompOf {
		cond.CompOf[i] = -1
	}

	stack := make([]ChunkID, 0, nodeCount)
	next := 0

	var visit func(v ChunkID)
	visit = func(v ChunkID) {
		vi := int(v)
		index[vi] = next
		lowlink[vi] = next
		next++
		stack = append(stack, v)
		onStack[vi] = true

		for _, w := range g.Edges[vi] {
			wi := int(w)
			if !g.Present[wi] {
				continue
			}
			if index[wi] == unvisited {
				visit(w)
				lowlink[vi] = min(lowlink[vi], lowlink[wi])
			} else if onStack[wi] {
				lowlink[vi] = min(lowlink[vi], index[wi])
			}
		}

		if lowlink[vi] == index[vi] {
			var members []ChunkID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[int(w)] = false
				members = append(members, w)
				cond.CompOf[int(w)] = len(cond.Components)
				if w == v {
					break
				}
			}
			slices.Sort(members)
			cond.Components = append(cond.Components, Component{Members: members})
		}
	}

	for i := 0; i < nodeCount; i++ {
		if !g.Present[i] || index[i] != unvisited {
			continue
		}
		id, err := safecast.Conv[ChunkID](i)
		if err != nil {
			panic(fmt.Errorf("chunk id overflow: %w", err))
		}
		visit(id)
	}

	return cond
}
