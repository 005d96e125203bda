package graph

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

// ErrTitleNotFound is returned when a query endpoint is not a vertex.
var ErrTitleNotFound = errors.New("title not found in database")

// NotFoundMessage is the rendered result for unreachable targets.
const NotFoundMessage = "Path not found"

const (
	directedSeparator   = " -> "
	undirectedSeparator = " -- "
)

// HopCount returns the number of links on a shortest path from start to
// end. The search walks the graph one level at a time with two queues and
// marks vertices visited when they are dequeued, so a vertex may be queued
// more than once; levels are still drained in order, which keeps the first
// hit minimal.
func (g *Graph) HopCount(start, end string) (int, bool) {
	if !g.HasVertex(start) || !g.HasVertex(end) {
		return 0, false
	}

	current := []string{start}
	var next []string
	visited := make(map[string]struct{})
	level := 0

	for len(current) > 0 {
		v := current[0]
		current = current[1:]
		if v == end {
			return level, true
		}
		if _, seen := visited[v]; !seen {
			visited[v] = struct{}{}
			next = append(next, g.Neighbors(v)...)
		}
		if len(current) == 0 {
			current, next = next, nil
			level++
		}
	}
	return 0, false
}

type pathItem struct {
	vertex string
	path   []string
}

// Path returns a shortest path from start to end, both included. Vertices
// are marked visited on dequeue; FIFO order keeps queued paths in
// non-decreasing length, so the first path that reaches end is minimal.
func (g *Graph) Path(start, end string) ([]string, bool) {
	if !g.HasVertex(start) || !g.HasVertex(end) {
		return nil, false
	}

	queue := []pathItem{{vertex: start, path: []string{start}}}
	visited := make(map[string]struct{})

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.vertex == end {
			return item.path, true
		}
		visited[item.vertex] = struct{}{}
		for _, n := range g.Neighbors(item.vertex) {
			if _, seen := visited[n]; seen {
				continue
			}
			p := append(slices.Clip(item.path), n)
			queue = append(queue, pathItem{vertex: n, path: p})
		}
	}
	return nil, false
}

// ShortestPath answers a path query as text: the hop count, or with
// showPath the titles joined by "->" ("--" for undirected graphs) followed
// by the hop count on its own line. An unreachable target yields
// NotFoundMessage; a missing endpoint yields ErrTitleNotFound.
func (g *Graph) ShortestPath(start, end string, showPath bool) (string, error) {
	if !g.HasVertex(start) || !g.HasVertex(end) {
		return "", ErrTitleNotFound
	}

	if showPath {
		path, ok := g.Path(start, end)
		if !ok {
			return NotFoundMessage, nil
		}
		return FormatPath(path, g.directed), nil
	}

	hops, ok := g.HopCount(start, end)
	if !ok {
		return NotFoundMessage, nil
	}
	return strconv.Itoa(hops), nil
}

// FormatPath renders path with the separator for the given directedness,
// followed by a newline and the hop count.
func FormatPath(path []string, directed bool) string {
	if len(path) == 0 {
		return NotFoundMessage
	}
	sep := undirectedSeparator
	if directed {
		sep = directedSeparator
	}
	return strings.Join(path, sep) + "\n" + strconv.Itoa(len(path)-1)
}
