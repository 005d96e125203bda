// Package graph rebuilds a queryable article graph from crawl snapshots and
// answers shortest-path questions over it.
package graph

import (
	"cmp"
	"slices"

	"github.com/ebonicra/WikiGraphExplorer/internal/snapshot"
)

// Edge is a link from one article title to another.
type Edge struct {
	From string
	To   string
}

// Graph is a vertex/edge projection of a list of node records. It is
// immutable once built and safe for concurrent readers.
type Graph struct {
	directed bool
	vertices map[string]struct{}
	edges    map[Edge]struct{}
}

// Build creates a graph from records. Every title and every reference
// becomes a vertex; each (title, reference) pair becomes an edge, plus the
// reverse edge when directed is false.
func Build(records []snapshot.Record, directed bool) *Graph {
	g := &Graph{
		directed: directed,
		vertices: make(map[string]struct{}),
		edges:    make(map[Edge]struct{}),
	}
	for _, r := range records {
		g.vertices[r.Title] = struct{}{}
		for _, ref := range r.References {
			g.vertices[ref] = struct{}{}
			g.edges[Edge{From: r.Title, To: ref}] = struct{}{}
			if !directed {
				g.edges[Edge{From: ref, To: r.Title}] = struct{}{}
			}
		}
	}
	return g
}

// Directed reports whether links are one-way.
func (g *Graph) Directed() bool {
	return g.directed
}

// HasVertex reports whether title appears anywhere in the graph.
func (g *Graph) HasVertex(title string) bool {
	_, ok := g.vertices[title]
	return ok
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int {
	return len(g.vertices)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Vertices returns all vertices in sorted order.
func (g *Graph) Vertices() []string {
	out := make([]string, 0, len(g.vertices))
	for v := range g.vertices {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Edges returns all edges sorted by source, then target.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for e := range g.edges {
		out = append(out, e)
	}
	slices.SortFunc(out, compareEdges)
	return out
}

// Neighbors returns the targets of all edges leaving title, sorted. It scans
// the whole edge set; crawl snapshots are small enough for that to be fine.
func (g *Graph) Neighbors(title string) []string {
	var out []string
	for e := range g.edges {
		if e.From == title {
			out = append(out, e.To)
		}
	}
	slices.Sort(out)
	return out
}

func compareEdges(a, b Edge) int {
	if c := cmp.Compare(a.From, b.From); c != 0 {
		return c
	}
	return cmp.Compare(a.To, b.To)
}
