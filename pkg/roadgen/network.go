package roadgen

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/paulmach/orb"

	"roadnet-sim/pkg/geom"
	"roadnet-sim/pkg/graph"
)

// Waypoint is a generation-time road point with its mutable connection list
type Waypoint struct {
	ID          int       `json:"id"`
	Position    geom.Vec3 `json:"position"`
	Connections []int     `json:"connections"`
}

// ConnectedTo reports whether the waypoint links to id
func (w *Waypoint) ConnectedTo(id int) bool {
	for _, c := range w.Connections {
		if c == id {
			return true
		}
	}
	return false
}

// Stats counts what the generator did
type Stats struct {
	Seed               int64 `json:"seed"`
	MainChain          int   `json:"mainChain"`          // Waypoints added by the main chain
	CrossBranches      int   `json:"crossBranches"`      // Waypoints added by both cross branches
	Expansions         int   `json:"expansions"`         // Waypoints added by random expansion
	Merges             int   `json:"merges"`             // Links made to an existing nearby waypoint
	Rejected           int   `json:"rejected"`           // Candidate roads dropped for intersecting
	DuplicateLinks     int   `json:"duplicateLinks"`     // Merges skipped because the link existed
	FallbackDirections int   `json:"fallbackDirections"` // Free-direction searches that gave up
}

// Asymmetry is a one-way connection found by Validate
type Asymmetry struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Network is the mutable road skeleton produced by the generator. It is
// translated once into an immutable graph.Graph by Graph.
type Network struct {
	cfg       Config
	rng       *rand.Rand
	waypoints []*Waypoint
	index     *SpatialIndex
	stats     Stats
}

// NewNetwork creates an empty network. Generate is the usual entry point;
// NewNetwork is for building skeletons step by step.
func NewNetwork(cfg Config, rng *rand.Rand) *Network {
	return &Network{
		cfg:   cfg,
		rng:   rng,
		index: NewSpatialIndex(cfg.IntersectThreshold),
		stats: Stats{Seed: cfg.Seed},
	}
}

// Len returns the number of waypoints
func (n *Network) Len() int { return len(n.waypoints) }

// Waypoints returns all waypoints in creation order
func (n *Network) Waypoints() []*Waypoint { return n.waypoints }

// Waypoint returns the waypoint with the given ID
func (n *Network) Waypoint(id int) *Waypoint {
	if id < 0 || id >= len(n.waypoints) {
		panic(fmt.Sprintf("roadgen: waypoint %d was never registered (network has %d)", id, len(n.waypoints)))
	}
	return n.waypoints[id]
}

// Stats returns the generation counters
func (n *Network) Stats() Stats { return n.stats }

// Config returns the configuration the network was built with
func (n *Network) Config() Config { return n.cfg }

// RoadCount returns the number of distinct two-way roads
func (n *Network) RoadCount() int {
	_, segments := n.index.Len()
	return segments
}

// AddWaypoint registers a new waypoint at pos
func (n *Network) AddWaypoint(pos geom.Vec3) *Waypoint {
	wp := &Waypoint{ID: len(n.waypoints), Position: pos, Connections: []int{}}
	n.waypoints = append(n.waypoints, wp)
	n.index.InsertWaypoint(wp)
	return wp
}

// Connect links a and b in both directions. It reports false, and changes
// nothing, when the link already exists or a and b are the same waypoint.
func (n *Network) Connect(a, b *Waypoint) bool {
	if a.ID == b.ID || a.ConnectedTo(b.ID) {
		return false
	}
	a.Connections = append(a.Connections, b.ID)
	if !b.ConnectedTo(a.ID) {
		b.Connections = append(b.Connections, a.ID)
	}
	n.index.InsertSegment(a, b)
	return true
}

// IntersectsExisting checks whether a road from start to end would cross, or
// nearly cross, any existing road. Roads with an endpoint within
// OriginTolerance of start are skipped: a branch always touches its origin.
func (n *Network) IntersectsExisting(start, end geom.Vec3) bool {
	candidate := geom.LineSegment{P1: start, P2: end}
	for _, road := range n.index.QuerySegments(candidate) {
		if road.P1.Distance(start) < n.cfg.OriginTolerance ||
			road.P2.Distance(start) < n.cfg.OriginTolerance {
			continue
		}
		if geom.SegmentsIntersect(candidate, road, n.cfg.IntersectThreshold, n.cfg.ParallelEpsilon) {
			return true
		}
	}
	return false
}

// FindNearbyWaypoint returns the lowest-ID waypoint within radius of pos, or nil
func (n *Network) FindNearbyWaypoint(pos geom.Vec3, radius float64) *Waypoint {
	var found *Waypoint
	for _, wp := range n.index.QueryWaypoints(pos, radius) {
		if wp.Position.Distance(pos) > radius {
			continue
		}
		if found == nil || wp.ID < found.ID {
			found = wp
		}
	}
	return found
}

// Validate scans every connection and reports one-way pairs. It is advisory:
// each finding is logged and nothing is repaired.
func (n *Network) Validate() []Asymmetry {
	var found []Asymmetry
	for _, wp := range n.waypoints {
		for _, c := range wp.Connections {
			if !n.waypoints[c].ConnectedTo(wp.ID) {
				log.Printf("⚠️  Found one-way connection between waypoints %d -> %d\n", wp.ID, c)
				found = append(found, Asymmetry{From: wp.ID, To: c})
			}
		}
	}
	return found
}

// Graph converts the network into the immutable graph used for routing.
// Node handles equal waypoint IDs. Every connected pair gets exactly one edge
// in each direction, weighted by distance, even if the connection was
// recorded on one side only.
func (n *Network) Graph() (*graph.Graph, error) {
	if len(n.waypoints) == 0 {
		return nil, ErrEmptyNetwork
	}

	g := graph.New()
	for _, wp := range n.waypoints {
		g.AddNode(wp.Position)
	}

	seen := make(map[[2]int]bool)
	for _, wp := range n.waypoints {
		for _, c := range wp.Connections {
			key := pairKey(wp.ID, c)
			if seen[key] {
				continue
			}
			seen[key] = true
			g.Connect(graph.NodeID(wp.ID), graph.NodeID(c))
		}
	}

	return g, nil
}

// Bounds returns the planar bounding box of all waypoints
func (n *Network) Bounds() orb.Bound {
	points := make(orb.MultiPoint, 0, len(n.waypoints))
	for _, wp := range n.waypoints {
		points = append(points, wp.Position.Planar())
	}
	return points.Bound()
}

func pairKey(a, b int) [2]int {
	if a < b {
		return [2]int{a, b}
	}
	return [2]int{b, a}
}
