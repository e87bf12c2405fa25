// Package agent implements the per-vehicle navigation state machine: follow a
// planned route (or wander when there is none), and modulate speed from a
// forward collision probe.
//
// An Agent only mutates itself. Other agents are observed through the Probe
// passed to Update.
package agent

import (
	"errors"
	"fmt"
	"math/rand"

	"roadnet-sim/pkg/geom"
	"roadnet-sim/pkg/graph"
)

var (
	// ErrNoRoute is returned when the pathfinder finds no route to the goal.
	// Callers retarget or fall back to a roaming agent.
	ErrNoRoute = errors.New("agent: no route to goal")

	// ErrNoConnections is returned when the spawn node has no outgoing road
	ErrNoConnections = errors.New("agent: spawn node has no connections")
)

// State is the navigation state of an agent
type State int

const (
	// Following moves toward the current target
	Following State = iota
	// Blocked has its speed forced down by a close obstruction
	Blocked
	// Stopped has no next node: route exhausted or dead end
	Stopped
)

func (s State) String() string {
	switch s {
	case Following:
		return "following"
	case Blocked:
		return "blocked"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Planner computes a path between two nodes of g
type Planner func(g *graph.Graph, from, to graph.NodeID) (graph.Path, bool)

// AStar is the default Planner
func AStar(g *graph.Graph, from, to graph.NodeID) (graph.Path, bool) {
	return g.AStar(from, to)
}

// Option customises agent construction
type Option func(*Agent)

// WithPosition places the agent at p instead of on its spawn node
func WithPosition(p geom.Vec3) Option {
	return func(a *Agent) {
		a.position = p
		a.placed = true
	}
}

// WithPlanner replaces the pathfinder used at spawn
func WithPlanner(p Planner) Option {
	return func(a *Agent) {
		a.planner = p
	}
}

// Agent is one simulated vehicle
type Agent struct {
	id      int
	g       *graph.Graph
	cfg     Config
	rng     *rand.Rand
	planner Planner

	position  geom.Vec3
	placed    bool
	direction geom.Vec3
	speed     float64
	baseSpeed float64
	state     State

	current  graph.NodeID
	previous graph.NodeID
	goal     graph.NodeID
	route    *graph.Route // nil when roaming

	traveled float64
	arrivals int
}

// Snapshot is a read-only copy of an agent's observable state
type Snapshot struct {
	ID        int          `json:"id"`
	Position  geom.Vec3    `json:"position"`
	Direction geom.Vec3    `json:"direction"`
	Speed     float64      `json:"speed"`
	BaseSpeed float64      `json:"baseSpeed"`
	State     State        `json:"state"`
	Target    graph.NodeID `json:"target"`
	Previous  graph.NodeID `json:"previous"`
	Goal      graph.NodeID `json:"goal"`
	Remaining int          `json:"remaining"`
	Roaming   bool         `json:"roaming"`
	Traveled  float64      `json:"traveled"`
	Arrivals  int          `json:"arrivals"`
}

func newAgent(id int, g *graph.Graph, cfg Config, rng *rand.Rand, opts []Option) *Agent {
	a := &Agent{
		id:       id,
		g:        g,
		cfg:      cfg,
		rng:      rng,
		planner:  AStar,
		current:  graph.NoNode,
		previous: graph.NoNode,
		goal:     graph.NoNode,
	}
	a.baseSpeed = cfg.BaseSpeed + (rng.Float64()*2-1)*cfg.SpeedJitter
	if a.baseSpeed < cfg.MinBaseSpeed {
		a.baseSpeed = cfg.MinBaseSpeed
	}
	a.speed = a.baseSpeed
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// placeAt puts the agent on node unless WithPosition already placed it
func (a *Agent) placeAt(node graph.NodeID) {
	if !a.placed {
		a.position = a.g.Position(node)
		a.placed = true
	}
}

// firstHop picks a random road out of spawn; the spawn node itself becomes
// the previous node
func (a *Agent) firstHop(spawn graph.NodeID) (graph.NodeID, error) {
	out := a.g.Neighbors(spawn)
	if len(out) == 0 {
		return graph.NoNode, fmt.Errorf("%w: node %d", ErrNoConnections, spawn)
	}
	a.previous = spawn
	return out[a.rng.Intn(len(out))].To, nil
}

// New creates an agent at spawn heading for goal. The agent starts one hop
// away from spawn and plans its route from there.
func New(id int, g *graph.Graph, spawn, goal graph.NodeID, cfg Config, rng *rand.Rand, opts ...Option) (*Agent, error) {
	a := newAgent(id, g, cfg, rng, opts)
	a.placeAt(spawn)

	start, err := a.firstHop(spawn)
	if err != nil {
		return nil, err
	}

	path, ok := a.planner(g, start, goal)
	if !ok || len(path.Nodes) == 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrNoRoute, start, goal)
	}

	a.goal = goal
	a.route = graph.NewRoute(path)
	a.current, _ = a.route.Next()
	a.faceTarget()
	return a, nil
}

// NewOnRoute creates an agent standing on the first node of route and
// heading for the second
func NewOnRoute(id int, g *graph.Graph, route *graph.Route, cfg Config, rng *rand.Rand, opts ...Option) (*Agent, error) {
	first, ok := route.Next()
	if !ok {
		return nil, ErrNoRoute
	}

	a := newAgent(id, g, cfg, rng, opts)
	a.placeAt(first)
	a.goal = route.Goal()
	a.route = route
	a.current = first
	if !a.advance() {
		a.stop()
	}
	a.faceTarget()
	return a, nil
}

// NewRoaming creates an agent without a planned route. It starts one hop
// away from spawn and picks a random road at every node.
func NewRoaming(id int, g *graph.Graph, spawn graph.NodeID, cfg Config, rng *rand.Rand, opts ...Option) (*Agent, error) {
	a := newAgent(id, g, cfg, rng, opts)
	a.placeAt(spawn)

	start, err := a.firstHop(spawn)
	if err != nil {
		return nil, err
	}
	a.current = start
	a.faceTarget()
	return a, nil
}

// Update advances the agent by dt seconds. probe may be nil when there is
// nothing to avoid.
func (a *Agent) Update(dt float64, probe Probe) {
	if a.state == Stopped {
		return
	}

	target := a.g.Position(a.current)
	a.faceTarget()

	next := geom.MoveTowards(a.position, target, a.speed*dt)
	a.traveled += next.Distance(a.position)
	a.position = next

	if a.position.Distance(target) < a.cfg.ArrivalThreshold {
		a.arrivals++
		if !a.advance() {
			a.stop()
			return
		}
	}

	a.adjustSpeed(dt, probe)
}

// advance moves the target to the next node. It reports false when there is
// none.
func (a *Agent) advance() bool {
	if a.route != nil {
		next, ok := a.route.Next()
		if !ok {
			return false
		}
		a.previous, a.current = a.current, next
		return true
	}
	return a.wander()
}

// wander picks a random road out of the current node other than the one it
// came from. It backtracks only when that is the sole road.
func (a *Agent) wander() bool {
	out := a.g.Neighbors(a.current)
	if len(out) == 0 {
		return false
	}

	options := make([]graph.NodeID, 0, len(out))
	for _, e := range out {
		if e.To != a.previous {
			options = append(options, e.To)
		}
	}
	if len(options) == 0 {
		options = append(options, a.previous)
	}

	a.previous, a.current = a.current, options[a.rng.Intn(len(options))]
	return true
}

// adjustSpeed applies the collision-avoidance policy for this tick
func (a *Agent) adjustSpeed(dt float64, probe Probe) {
	if probe == nil || a.direction.IsZero() {
		a.relax(dt)
		return
	}

	hit, ok := probe.Cast(a.id, a.position, a.direction, a.cfg.DetectionDistance)
	if !ok {
		a.relax(dt)
		return
	}

	// Head-on traffic is on the other side of the road.
	if !hit.Direction.IsZero() && geom.AngleBetween(a.direction, hit.Direction.Scale(-1)) < a.cfg.OncomingAngle {
		a.speed = a.baseSpeed
		a.state = Following
		return
	}

	for _, band := range a.cfg.Bands {
		if hit.Distance < band.Below {
			a.speed = band.Speed
			a.state = Blocked
			return
		}
	}
	a.relax(dt)
}

// relax moves the speed back toward base speed at RecoveryRate
func (a *Agent) relax(dt float64) {
	a.speed = geom.Approach(a.speed, a.baseSpeed, a.cfg.RecoveryRate*dt)
	a.state = Following
}

func (a *Agent) stop() {
	a.speed = 0
	a.state = Stopped
}

func (a *Agent) faceTarget() {
	if a.current == graph.NoNode {
		return
	}
	if dir := a.g.Position(a.current).Sub(a.position).Normalize(); !dir.IsZero() {
		a.direction = dir
	}
}

// ID returns the agent identifier
func (a *Agent) ID() int { return a.id }

// Position returns the current position
func (a *Agent) Position() geom.Vec3 { return a.position }

// Direction returns the unit travel direction
func (a *Agent) Direction() geom.Vec3 { return a.direction }

// Speed returns the current speed
func (a *Agent) Speed() float64 { return a.speed }

// BaseSpeed returns the cruising speed drawn at spawn
func (a *Agent) BaseSpeed() float64 { return a.baseSpeed }

// State returns the navigation state
func (a *Agent) State() State { return a.state }

// Target returns the node being approached
func (a *Agent) Target() graph.NodeID { return a.current }

// Previous returns the node last departed
func (a *Agent) Previous() graph.NodeID { return a.previous }

// Goal returns the route goal, or graph.NoNode for a roaming agent
func (a *Agent) Goal() graph.NodeID { return a.goal }

// Roaming reports whether the agent has no planned route
func (a *Agent) Roaming() bool { return a.route == nil }

// Snapshot copies the observable state
func (a *Agent) Snapshot() Snapshot {
	s := Snapshot{
		ID:        a.id,
		Position:  a.position,
		Direction: a.direction,
		Speed:     a.speed,
		BaseSpeed: a.baseSpeed,
		State:     a.state,
		Target:    a.current,
		Previous:  a.previous,
		Goal:      a.goal,
		Roaming:   a.route == nil,
		Traveled:  a.traveled,
		Arrivals:  a.arrivals,
	}
	if a.route != nil {
		s.Remaining = a.route.Remaining()
	}
	return s
}
