// SPDX-License-Identifier: MPL-2.0

// Package dag provides a small directed graph with Kahn-style ordering.
// Callers choose what an edge means; the graph only guarantees that for an
// edge from -> to, "from" is emitted before "to".
package dag

import (
	"fmt"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing a complete ordering.
	CycleError[K comparable] struct {
		// Cycle lists the nodes left unresolved by Kahn's algorithm, in insertion
		// order. It includes nodes downstream of a cycle, not only its members.
		Cycle []K
	}

	// Graph is a directed graph over comparable node keys.
	// Output order is deterministic: ties are broken by insertion order.
	Graph[K comparable] struct {
		adjacency map[K][]K
		nodes     []K
		nodeSet   map[K]bool
	}
)

func (e *CycleError[K]) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, n := range e.Cycle {
		parts[i] = fmt.Sprint(n)
	}
	return "dependency cycle detected: " + strings.Join(parts, " -> ")
}

// New creates an empty Graph.
func New[K comparable]() *Graph[K] {
	return &Graph[K]{
		adjacency: make(map[K][]K),
		nodeSet:   make(map[K]bool),
	}
}

// AddNode adds a node to the graph. Adding an existing node is a no-op.
func (g *Graph[K]) AddNode(n K) {
	if g.nodeSet[n] {
		return
	}
	g.nodeSet[n] = true
	g.nodes = append(g.nodes, n)
}

// AddEdge adds a directed edge from -> to. Both nodes are added if missing.
// Duplicate edges are kept and count once each toward the in-degree of "to".
func (g *Graph[K]) AddEdge(from, to K) {
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// TopologicalSort returns a complete ordering or a *CycleError.
func (g *Graph[K]) TopologicalSort() ([]K, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}
	sorted, remainder := g.kahn()
	if len(remainder) > 0 {
		return nil, &CycleError[K]{Cycle: remainder}
	}
	return sorted, nil
}

// PartialSort never fails. It returns the prefix Kahn's algorithm could
// order and, separately, the unresolved nodes in insertion order. remainder
// is empty exactly when the graph is acyclic.
func (g *Graph[K]) PartialSort() (sorted, remainder []K) {
	return g.kahn()
}

func (g *Graph[K]) kahn() (sorted, remainder []K) {
	inDegree := make(map[K]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	queue := make([]K, 0, len(g.nodes))
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	sorted = make([]K, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		sorted = append(sorted, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(sorted) == len(g.nodes) {
		return sorted, nil
	}
	for _, node := range g.nodes {
		if inDegree[node] > 0 {
			remainder = append(remainder, node)
		}
	}
	return sorted, remainder
}
