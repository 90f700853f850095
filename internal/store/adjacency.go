package store

// Adjacency is the query-side view of a persisted graph: every node maps to
// the targets of its outgoing links, in the order the links were stored.
type Adjacency struct {
	Nodes []string
	Out   map[string][]string
}

// NewAdjacency creates an empty adjacency list.
func NewAdjacency() *Adjacency {
	return &Adjacency{Out: make(map[string][]string)}
}

// FromDocument builds the adjacency list of doc. Links are kept as stored,
// duplicates included. Link endpoints missing from the node list are added
// as nodes.
func FromDocument(doc Document) *Adjacency {
	a := NewAdjacency()
	for _, n := range doc.Nodes {
		a.AddNode(n.ID)
	}
	for _, l := range doc.Links {
		a.AddNode(l.Source)
		a.AddNode(l.Target)
		a.Out[l.Source] = append(a.Out[l.Source], l.Target)
	}
	return a
}

// AddNode adds id with no outgoing links if it is not present yet.
func (a *Adjacency) AddNode(id string) {
	if _, ok := a.Out[id]; ok {
		return
	}
	a.Nodes = append(a.Nodes, id)
	a.Out[id] = []string{}
}

// Has reports whether id is a node.
func (a *Adjacency) Has(id string) bool {
	_, ok := a.Out[id]
	return ok
}

// Clone returns a deep copy that can be modified freely.
func (a *Adjacency) Clone() *Adjacency {
	c := &Adjacency{
		Nodes: append([]string(nil), a.Nodes...),
		Out:   make(map[string][]string, len(a.Out)),
	}
	for id, targets := range a.Out {
		c.Out[id] = append(make([]string, 0, len(targets)), targets...)
	}
	return c
}

// Stats summarizes an adjacency list.
type Stats struct {
	Nodes        int
	Edges        int
	MaxOutDegree int
	MaxOutNode   string
	Sinks        int // nodes without outgoing links
}

// Stats computes summary counts. Ties for the largest out-degree go to the
// node listed first.
func (a *Adjacency) Stats() Stats {
	st := Stats{Nodes: len(a.Nodes)}
	for _, id := range a.Nodes {
		deg := len(a.Out[id])
		st.Edges += deg
		if deg == 0 {
			st.Sinks++
		}
		if deg > st.MaxOutDegree {
			st.MaxOutDegree = deg
			st.MaxOutNode = id
		}
	}
	return st
}
