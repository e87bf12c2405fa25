package graph

import (
	"container/heap"
)

// searchNode is the per-search scratch record of one visited node.
// It never outlives the AStar call that created it.
type searchNode struct {
	id     NodeID
	g      float64 // Cost from start to this node
	h      float64 // Straight-line estimate to the goal, fixed at first visit
	f      float64 // g + h
	parent NodeID  // Back-pointer into the same scratch map
	index  int     // Index in the heap, -1 once popped
}

// openSet implements heap.Interface for the A* frontier.
// Equal fCost is broken by the lower NodeID so results are reproducible.
type openSet []*searchNode

func (pq openSet) Len() int { return len(pq) }

func (pq openSet) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].id < pq[j].id
}

func (pq openSet) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *openSet) Push(x interface{}) {
	n := len(*pq)
	node := x.(*searchNode)
	node.index = n
	*pq = append(*pq, node)
}

func (pq *openSet) Pop() interface{} {
	old := *pq
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*pq = old[0 : n-1]
	return node
}

// Path is the result of a successful search
type Path struct {
	Nodes    []NodeID `json:"nodes"`
	Cost     float64  `json:"cost"`
	Expanded int      `json:"expanded"` // Nodes moved to the closed set
}

// Len returns the number of nodes on the path
func (p Path) Len() int { return len(p.Nodes) }

// AStar computes the cheapest path from start to goal.
//
// The second result is false when goal is unreachable; that is a normal
// outcome and the returned Path is empty. All search state is private to the
// call, so concurrent searches over the same graph are safe.
func (g *Graph) AStar(start, goal NodeID) (Path, bool) {
	g.mustValid(start)
	g.mustValid(goal)

	goalPoint := g.nodes[goal].Position
	h := g.nodes[start].Position.Distance(goalPoint)

	scratch := make(map[NodeID]*searchNode)
	closedSet := make(map[NodeID]bool)
	open := &openSet{}
	heap.Init(open)

	startNode := &searchNode{
		id:     start,
		h:      h,
		f:      h,
		parent: NoNode,
	}
	scratch[start] = startNode
	heap.Push(open, startNode)

	expanded := 0
	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)

		if current.id == goal {
			path := reconstruct(scratch, current)
			path.Expanded = expanded
			return path, true
		}

		closedSet[current.id] = true
		expanded++

		for _, edge := range g.edges[current.id] {
			if closedSet[edge.To] {
				continue
			}

			tentativeG := current.g + edge.Weight

			neighbor, seen := scratch[edge.To]
			if !seen {
				neighbor = &searchNode{
					id:     edge.To,
					g:      tentativeG,
					h:      g.nodes[edge.To].Position.Distance(goalPoint),
					parent: current.id,
				}
				neighbor.f = neighbor.g + neighbor.h
				scratch[edge.To] = neighbor
				heap.Push(open, neighbor)
			} else if tentativeG < neighbor.g {
				// Found a better path to this neighbor
				neighbor.g = tentativeG
				neighbor.f = neighbor.g + neighbor.h
				neighbor.parent = current.id
				if neighbor.index >= 0 {
					heap.Fix(open, neighbor.index)
				} else {
					heap.Push(open, neighbor)
				}
			}
		}
	}

	return Path{}, false
}

// reconstruct follows parent handles from the goal back to the start
func reconstruct(scratch map[NodeID]*searchNode, goal *searchNode) Path {
	nodes := []NodeID{}
	for id := goal.id; id != NoNode; id = scratch[id].parent {
		nodes = append(nodes, id)
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return Path{Nodes: nodes, Cost: goal.g}
}
