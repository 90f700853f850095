// Package pathfind answers shortest-path queries over a loaded graph.
package pathfind

import (
	"fmt"
	"slices"
	"strings"

	"github.com/latebit/wikigraph/internal/store"
)

// Result is the outcome of a path query.
type Result struct {
	Path  []string // start to end inclusive; nil when not found
	Found bool
}

// Hops returns the number of edges on the path, or -1 when no path exists.
func (r Result) Hops() int {
	if !r.Found {
		return -1
	}
	return len(r.Path) - 1
}

// Format renders the result for the terminal: the hop count, preceded by
// the path itself when verbose is set.
func (r Result) Format(verbose bool) string {
	if !r.Found {
		return "path not found\n"
	}
	var b strings.Builder
	if verbose {
		b.WriteString(strings.Join(r.Path, " -> "))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d\n", r.Hops())
	return b.String()
}

// Symmetric returns a copy of adj in which every link a -> b is also
// traversable as b -> a. Reverse links are appended after a node's own
// links, and only when not already present. adj is not modified.
func Symmetric(adj *store.Adjacency) *store.Adjacency {
	closed := adj.Clone()
	for _, source := range adj.Nodes {
		for _, target := range adj.Out[source] {
			if !slices.Contains(closed.Out[target], source) {
				closed.Out[target] = append(closed.Out[target], source)
			}
		}
	}
	return closed
}

// ShortestPath finds a minimum-edge path from start to end. When undirected
// is set the search runs over the symmetric closure of adj. Unknown start or
// end titles are reported as not found.
func ShortestPath(adj *store.Adjacency, start, end string, undirected bool) Result {
	if !adj.Has(start) || !adj.Has(end) {
		return Result{}
	}
	if undirected {
		adj = Symmetric(adj)
	}
	return bfs(adj, start, end)
}

// bfs searches breadth first. The first node to reach a title becomes its
// predecessor, so ties go to the earlier entry of the adjacency lists.
func bfs(adj *store.Adjacency, start, end string) Result {
	previous := map[string]string{}
	visited := map[string]bool{start: true}
	queue := []string{start}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		if node == end {
			return Result{Path: walkBack(previous, start, end), Found: true}
		}

		for _, next := range adj.Out[node] {
			if visited[next] {
				continue
			}
			visited[next] = true
			previous[next] = node
			queue = append(queue, next)
		}
	}
	return Result{}
}

func walkBack(previous map[string]string, start, end string) []string {
	path := []string{end}
	for node := end; node != start; {
		node = previous[node]
		path = append(path, node)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
