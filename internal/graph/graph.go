// Package graph provides the directed dependency graph over indexed elements
// and its traversal queries.
package graph

import (
	"coderef/internal/element"
	"coderef/internal/errors"
)

// EdgeKind classifies a dependency edge
type EdgeKind string

const (
	// EdgeImports marks a source importing a target
	EdgeImports EdgeKind = "imports"
	// EdgeCalls marks a source calling a target
	EdgeCalls EdgeKind = "calls"
	// EdgeExports marks a source exporting a target
	EdgeExports EdgeKind = "exports"
)

// IsKnown reports whether k is one of the three edge kinds
func (k EdgeKind) IsKnown() bool {
	return k == EdgeImports || k == EdgeCalls || k == EdgeExports
}

// EdgeFact is one raw dependency assertion from the external scanner:
// source and target are element identity keys.
type EdgeFact struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// Edge is a directed edge between two graph nodes. The dangling flag marks
// edges whose endpoint is absent from the index; they are retained but
// excluded from traversal.
type Edge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Kind     EdgeKind `json:"kind"`
	dangling bool
}

// Warning is a non-fatal condition attached to a graph build result
type Warning struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Source  string           `json:"source,omitempty"`
	Target  string           `json:"target,omitempty"`
}

// Graph is an immutable directed dependency graph built over one index
// snapshot. Both adjacency directions are maintained for O(1) amortized
// lookups on node identity.
type Graph struct {
	edgesBySource map[string][]*Edge
	edgesByTarget map[string][]*Edge
	edges         []*Edge
	warnings      []Warning
}

// Build constructs a Graph from an element index and raw edge facts. Edges
// whose source or target identity is not present in the index are kept but
// flagged dangling and reported via a dangling_edge warning.
func Build(idx *element.Index, facts []EdgeFact) *Graph {
	g := &Graph{
		edgesBySource: make(map[string][]*Edge),
		edgesByTarget: make(map[string][]*Edge),
	}

	for _, f := range facts {
		edge := &Edge{Source: f.Source, Target: f.Target, Kind: f.Kind}
		if !idx.Has(f.Source) || !idx.Has(f.Target) {
			edge.dangling = true
			g.warnings = append(g.warnings, Warning{
				Code:    errors.DanglingEdge,
				Message: "edge endpoint not present in index",
				Source:  f.Source,
				Target:  f.Target,
			})
		}
		g.edges = append(g.edges, edge)
		g.edgesBySource[f.Source] = append(g.edgesBySource[f.Source], edge)
		g.edgesByTarget[f.Target] = append(g.edgesByTarget[f.Target], edge)
	}

	return g
}

// Warnings returns the non-fatal conditions collected during Build
func (g *Graph) Warnings() []Warning {
	out := make([]Warning, len(g.warnings))
	copy(out, g.warnings)
	return out
}

// NumEdges returns the total edge count, dangling edges included
func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// Edges returns all edges in insertion order
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	for i, e := range g.edges {
		out[i] = *e
	}
	return out
}

// HasAdjacency reports whether a node participates in any non-dangling edge.
// This is the O(1)-per-node existence check used for relationship annotation.
func (g *Graph) HasAdjacency(node string) bool {
	for _, e := range g.edgesBySource[node] {
		if !e.dangling {
			return true
		}
	}
	for _, e := range g.edgesByTarget[node] {
		if !e.dangling {
			return true
		}
	}
	return false
}

// ConsumersOf returns nodes with direct calls/imports edges into node,
// in edge insertion order with duplicates removed.
func (g *Graph) ConsumersOf(node string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range g.edgesByTarget[node] {
		if e.dangling || (e.Kind != EdgeCalls && e.Kind != EdgeImports) {
			continue
		}
		if !seen[e.Source] {
			seen[e.Source] = true
			out = append(out, e.Source)
		}
	}
	return out
}

// DependenciesOf returns nodes this node has direct calls/imports edges to,
// in edge insertion order with duplicates removed.
func (g *Graph) DependenciesOf(node string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range g.edgesBySource[node] {
		if e.dangling || (e.Kind != EdgeCalls && e.Kind != EdgeImports) {
			continue
		}
		if !seen[e.Target] {
			seen[e.Target] = true
			out = append(out, e.Target)
		}
	}
	return out
}

// DefaultMaxDepth bounds transitive impact traversal when no depth is given
const DefaultMaxDepth = 3

// ImpactedNode is a node reached by transitive impact traversal, with the
// BFS distance from the origin.
type ImpactedNode struct {
	Node     string `json:"node"`
	Distance int    `json:"distance"`
}

// TransitiveImpact walks incoming edges breadth-first from node up to
// maxDepth (DefaultMaxDepth when <= 0). A visited set guarantees termination
// on cycles and single emission per node. Order is deterministic: within one
// depth level, nodes appear in parent emission order, then edge insertion
// order, then lexicographic node identity.
func (g *Graph) TransitiveImpact(node string, maxDepth int) []ImpactedNode {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	visited := map[string]bool{node: true}
	var out []ImpactedNode

	frontier := []string{node}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, cur := range frontier {
			consumers := g.ConsumersOf(cur)
			for _, c := range consumers {
				if visited[c] {
					continue
				}
				visited[c] = true
				out = append(out, ImpactedNode{Node: c, Distance: depth})
				next = append(next, c)
			}
		}
		frontier = next
	}

	return out
}
