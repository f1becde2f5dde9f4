package graph

// Graph is the definition graph for a single constraint struct. Nodes are
// stored in an arena indexed by small integer ids; labels are unique within
// one graph. Graphs are never shared across structs.
type Graph struct {
	Nodes []Node
	Edges []Edge

	byLabel map[string]int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{byLabel: make(map[string]int)}
}

// Constants live in a separate dedup namespace: a literal seed "config" and
// an account named config are distinct nodes.
func dedupKey(label string, kind NodeKind) string {
	if kind == KindConstant {
		return "c\x00" + label
	}
	return "n\x00" + label
}

// Ensure returns the id of the node with the given label, allocating it with
// the given kind if it does not exist yet. The kind of an existing node is
// never changed: the first sighting decides.
func (g *Graph) Ensure(label string, kind NodeKind) int {
	key := dedupKey(label, kind)
	if id, ok := g.byLabel[key]; ok {
		return id
	}
	id := len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{ID: id, Label: label, Kind: kind})
	g.byLabel[key] = id
	return id
}

// Lookup returns the id of the named (non-constant) node with the given
// label, if present.
func (g *Graph) Lookup(label string) (int, bool) {
	id, ok := g.byLabel[dedupKey(label, KindAccount)]
	return id, ok
}

// Node returns a pointer into the arena. The pointer is invalidated by the
// next Ensure call.
func (g *Graph) Node(id int) *Node {
	return &g.Nodes[id]
}

// AddEdge appends a directed edge. Insertion is append-only; duplicates are
// kept.
func (g *Graph) AddEdge(from, to int, relation string, review bool) {
	g.Edges = append(g.Edges, Edge{From: from, To: to, Relation: relation, Review: review})
}

// Incoming returns all edges pointing at the given node, in insertion order.
func (g *Graph) Incoming(id int) []Edge {
	var in []Edge
	for _, e := range g.Edges {
		if e.To == id {
			in = append(in, e)
		}
	}
	return in
}
