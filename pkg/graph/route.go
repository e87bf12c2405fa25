package graph

// Route is a planned sequence of nodes consumed front to back by a single
// agent. Next is destructive; a consumed route cannot be rewound.
type Route struct {
	nodes []NodeID
	next  int
}

// NewRoute copies the nodes of p into a fresh route
func NewRoute(p Path) *Route {
	nodes := make([]NodeID, len(p.Nodes))
	copy(nodes, p.Nodes)
	return &Route{nodes: nodes}
}

// Next dequeues the next node, or reports false when the route is exhausted
func (r *Route) Next() (NodeID, bool) {
	if r.next >= len(r.nodes) {
		return NoNode, false
	}
	id := r.nodes[r.next]
	r.next++
	return id, true
}

// Remaining returns how many nodes have not been dequeued yet
func (r *Route) Remaining() int {
	return len(r.nodes) - r.next
}

// Goal returns the final node of the route, or NoNode for an empty route
func (r *Route) Goal() NodeID {
	if len(r.nodes) == 0 {
		return NoNode
	}
	return r.nodes[len(r.nodes)-1]
}
