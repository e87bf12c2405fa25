// Package graph is the immutable road graph consumed by routing and agents,
// together with its A* shortest-path search.
//
// Nodes live in an arena owned by Graph and are referenced by NodeID handles.
// A Graph is built once and then only read; reads are safe from many
// goroutines, mutation is not.
package graph

import (
	"fmt"
	"math"

	"roadnet-sim/pkg/geom"
)

// NodeID is a handle to a node in a Graph
type NodeID int

// NoNode marks the absence of a node
const NoNode NodeID = -1

// Node is a road junction or point
type Node struct {
	ID       NodeID    `json:"id"`
	Position geom.Vec3 `json:"position"`
}

// Edge represents a directed connection between two nodes with a cost
type Edge struct {
	From   NodeID  `json:"from"`
	To     NodeID  `json:"to"`
	Weight float64 `json:"weight"`
}

// Graph represents a road graph for pathfinding
type Graph struct {
	nodes     []Node
	edges     [][]Edge
	edgeCount int
}

// New returns an empty graph
func New() *Graph {
	return &Graph{}
}

// AddNode allocates a node at pos and returns its handle
func (g *Graph) AddNode(pos geom.Vec3) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Position: pos})
	g.edges = append(g.edges, nil)
	return id
}

// AddEdge appends a directed edge from -> to. The caller adds the reverse
// edge when the road is two-way.
func (g *Graph) AddEdge(from, to NodeID, weight float64) {
	g.mustValid(from)
	g.mustValid(to)
	if weight < 0 || math.IsNaN(weight) {
		panic(fmt.Sprintf("graph: invalid edge weight %v for %d->%d", weight, from, to))
	}
	g.edges[from] = append(g.edges[from], Edge{From: from, To: to, Weight: weight})
	g.edgeCount++
}

// Connect adds a two-way road between a and b weighted by their distance
func (g *Graph) Connect(a, b NodeID) float64 {
	w := g.Position(a).Distance(g.Position(b))
	g.AddEdge(a, b, w)
	g.AddEdge(b, a, w)
	return w
}

// Neighbors returns the outgoing edges of id in insertion order.
// The returned slice must not be modified.
func (g *Graph) Neighbors(id NodeID) []Edge {
	g.mustValid(id)
	e := g.edges[id]
	return e[:len(e):len(e)]
}

// Degree returns the number of outgoing edges of id
func (g *Graph) Degree(id NodeID) int {
	g.mustValid(id)
	return len(g.edges[id])
}

// Node returns the node behind a handle
func (g *Graph) Node(id NodeID) Node {
	g.mustValid(id)
	return g.nodes[id]
}

// Position returns the position of a node
func (g *Graph) Position(id NodeID) geom.Vec3 {
	g.mustValid(id)
	return g.nodes[id].Position
}

// Valid reports whether id refers to a node of g
func (g *Graph) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Len returns the number of nodes
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of directed edges
func (g *Graph) EdgeCount() int { return g.edgeCount }

// Edges returns every directed edge, grouped by source node in handle order
func (g *Graph) Edges() []Edge {
	all := make([]Edge, 0, g.edgeCount)
	for _, out := range g.edges {
		all = append(all, out...)
	}
	return all
}

// Nearest finds the closest node to a given point
func (g *Graph) Nearest(p geom.Vec3) (NodeID, float64) {
	if len(g.nodes) == 0 {
		return NoNode, math.MaxFloat64
	}

	nearest := NodeID(0)
	minDist := p.Distance(g.nodes[0].Position)
	for i := 1; i < len(g.nodes); i++ {
		if d := p.Distance(g.nodes[i].Position); d < minDist {
			minDist = d
			nearest = NodeID(i)
		}
	}
	return nearest, minDist
}

func (g *Graph) mustValid(id NodeID) {
	if !g.Valid(id) {
		panic(fmt.Sprintf("graph: invalid node handle %d (graph has %d nodes)", id, len(g.nodes)))
	}
}
