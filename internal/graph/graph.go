// Package graph provides a bounded article graph and the crawler that
// discovers link relationships between articles.
package graph

import "sync"

// DefaultMaxNodes is the node cap applied when New is given a non-positive cap.
const DefaultMaxNodes = 1000

// Edge represents a directed link from one article to another.
type Edge struct {
	From string
	To   string
}

// Admission reports what Admit did with a (from, to) pair.
type Admission int

const (
	// Capped means the graph was already full and nothing was added.
	Capped Admission = iota
	// AddedNode means the target was new: the node and the edge were added.
	AddedNode
	// AddedEdge means the target already existed and only the edge was recorded.
	AddedEdge
)

// Graph is a concurrency-safe directed graph of article titles with a fixed
// node cap. Nodes and edges keep their insertion order.
type Graph struct {
	root    string
	cap     int
	nodes   []string
	nodeSet map[string]struct{}
	edges   []Edge
	edgeSet map[Edge]struct{}
	mu      sync.RWMutex
}

// New creates a graph holding only root. A non-positive maxNodes selects
// DefaultMaxNodes.
func New(root string, maxNodes int) *Graph {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	g := &Graph{
		root:    root,
		cap:     maxNodes,
		nodeSet: make(map[string]struct{}),
		edgeSet: make(map[Edge]struct{}),
	}
	g.nodes = append(g.nodes, root)
	g.nodeSet[root] = struct{}{}
	return g
}

// Root returns the title the graph was created with.
func (g *Graph) Root() string {
	return g.root
}

// Cap returns the maximum number of nodes the graph admits.
func (g *Graph) Cap() int {
	return g.cap
}

// Admit records the link from -> to in one atomic step. If the graph is
// already at its cap nothing is added, not even an edge between existing
// nodes. Duplicate edges are ignored.
func (g *Graph) Admit(from, to string) Admission {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.nodes) >= g.cap {
		return Capped
	}
	result := AddedEdge
	if _, exists := g.nodeSet[to]; !exists {
		g.nodeSet[to] = struct{}{}
		g.nodes = append(g.nodes, to)
		result = AddedNode
	}
	e := Edge{From: from, To: to}
	if _, exists := g.edgeSet[e]; !exists {
		g.edgeSet[e] = struct{}{}
		g.edges = append(g.edges, e)
	}
	return result
}

// Full reports whether the node count has reached the cap.
func (g *Graph) Full() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes) >= g.cap
}

// HasNode reports whether title is a node of the graph.
func (g *Graph) HasNode(title string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodeSet[title]
	return ok
}

// Neighbors returns the titles that the given title links to, in the order
// the edges were added.
func (g *Graph) Neighbors(title string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var result []string
	for _, e := range g.edges {
		if e.From == title {
			result = append(result, e.To)
		}
	}
	return result
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Nodes returns a copy of the node titles in insertion order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	nodes := make([]string, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// Edges returns a copy of the edge list in insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}
