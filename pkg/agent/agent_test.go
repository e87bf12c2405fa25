package agent_test

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnet-sim/pkg/agent"
	"roadnet-sim/pkg/geom"
	"roadnet-sim/pkg/graph"
)

// buildLine creates n nodes spaced 10 apart along +X, linked in a chain
func buildLine(n int) *graph.Graph {
	g := graph.New()
	for i := 0; i < n; i++ {
		g.AddNode(geom.Vec3{X: float64(i) * 10})
	}
	for i := 1; i < n; i++ {
		g.Connect(graph.NodeID(i-1), graph.NodeID(i))
	}
	return g
}

func rng(seed int64) *rand.Rand { return rand.New(rand.NewSource(seed)) }

// hitAt returns a probe reporting an agent at distance d moving in dir
func hitAt(d float64, dir geom.Vec3) agent.Probe {
	return agent.ProbeFunc(func(int, geom.Vec3, geom.Vec3, float64) (agent.Hit, bool) {
		return agent.Hit{AgentID: 99, Distance: d, Direction: dir}, true
	})
}

var noHit = agent.ProbeFunc(func(int, geom.Vec3, geom.Vec3, float64) (agent.Hit, bool) {
	return agent.Hit{}, false
})

func newOnLine(t *testing.T) *agent.Agent {
	t.Helper()
	g := buildLine(10)
	route := graph.NewRoute(graph.Path{Nodes: []graph.NodeID{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}})
	a, err := agent.NewOnRoute(1, g, route, agent.DefaultConfig(), rng(1))
	require.NoError(t, err)
	return a
}

func TestAgent_ArrivesThroughRouteThenStops(t *testing.T) {
	g := buildLine(3)
	route := graph.NewRoute(graph.Path{Nodes: []graph.NodeID{0, 1, 2}})

	a, err := agent.NewOnRoute(7, g, route, agent.DefaultConfig(), rng(3))
	require.NoError(t, err)
	assert.Equal(t, graph.NodeID(1), a.Target())
	assert.Equal(t, graph.NodeID(2), a.Goal())

	visited := []graph.NodeID{a.Target()}
	for i := 0; i < 200 && a.State() != agent.Stopped; i++ {
		a.Update(0.1, nil)
		if a.State() != agent.Stopped && a.Target() != visited[len(visited)-1] {
			visited = append(visited, a.Target())
		}
	}

	assert.Equal(t, []graph.NodeID{1, 2}, visited)
	assert.Equal(t, agent.Stopped, a.State())
	assert.Zero(t, a.Speed())
	assert.InDelta(t, 20, a.Position().X, 0.2)
	assert.Equal(t, 2, a.Snapshot().Arrivals)
	assert.Zero(t, a.Snapshot().Remaining)

	// Stopped agents stay put.
	before := a.Position()
	a.Update(1, nil)
	assert.Equal(t, before, a.Position())
}

func TestAgent_MovementIsClampedAtTarget(t *testing.T) {
	g := buildLine(3)
	route := graph.NewRoute(graph.Path{Nodes: []graph.NodeID{0, 1, 2}})
	a, err := agent.NewOnRoute(1, g, route, agent.DefaultConfig(), rng(1))
	require.NoError(t, err)

	// One huge tick reaches node 1 but never overshoots it.
	a.Update(100, nil)
	assert.Equal(t, g.Position(1), a.Position())
	assert.Equal(t, graph.NodeID(2), a.Target())
	assert.Equal(t, geom.Vec3{X: 1}, a.Direction())
}

func TestAgent_SpeedGraduation(t *testing.T) {
	sideways := geom.Vec3{Z: 1}
	tests := []struct {
		name     string
		distance float64
		speed    func(a *agent.Agent) float64
		state    agent.State
	}{
		{"FullStop", 1, func(*agent.Agent) float64 { return 0 }, agent.Blocked},
		{"Crawl", 3, func(*agent.Agent) float64 { return 1 }, agent.Blocked},
		{"Slow", 5, func(*agent.Agent) float64 { return 2 }, agent.Blocked},
		{"Clear", 10, func(a *agent.Agent) float64 { return a.BaseSpeed() }, agent.Following},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newOnLine(t)
			a.Update(0.1, hitAt(tt.distance, sideways))
			assert.InDelta(t, tt.speed(a), a.Speed(), 1e-9)
			assert.Equal(t, tt.state, a.State())
		})
	}
}

func TestAgent_SpeedRelaxesAtRecoveryRate(t *testing.T) {
	a := newOnLine(t)
	sideways := geom.Vec3{Z: 1}

	a.Update(0.1, hitAt(1, sideways))
	require.Zero(t, a.Speed())

	a.Update(0.5, hitAt(10, sideways))
	assert.InDelta(t, 0.5, a.Speed(), 1e-9)
	assert.Equal(t, agent.Following, a.State())

	a.Update(0.5, noHit)
	assert.InDelta(t, 1.0, a.Speed(), 1e-9)

	for i := 0; i < 20; i++ {
		a.Update(0.5, noHit)
	}
	assert.InDelta(t, a.BaseSpeed(), a.Speed(), 1e-9, "never overshoots base speed")
}

func TestAgent_OncomingTrafficIsNotAHazard(t *testing.T) {
	a := newOnLine(t)

	a.Update(0.1, hitAt(1, geom.Vec3{Z: 1}))
	require.Zero(t, a.Speed())

	// The other agent drives straight at us: resume base speed at once.
	a.Update(0.1, hitAt(1, geom.Vec3{X: -1}))
	assert.Equal(t, a.BaseSpeed(), a.Speed())
	assert.Equal(t, agent.Following, a.State())

	// 15 degrees off head-on still counts.
	a.Update(0.1, hitAt(1, geom.Vec3{X: -1}.RotateY(15)))
	assert.Equal(t, a.BaseSpeed(), a.Speed())
}

func TestAgent_BrakesForTrafficAhead(t *testing.T) {
	a := newOnLine(t)

	a.Update(0.1, hitAt(3, geom.Vec3{X: 1}))
	assert.Equal(t, 1.0, a.Speed())
	assert.Equal(t, agent.Blocked, a.State())

	// A hit without a travel direction is treated as a hazard.
	a.Update(0.1, hitAt(1, geom.Vec3{}))
	assert.Zero(t, a.Speed())
}

func TestAgent_ProbeArguments(t *testing.T) {
	a := newOnLine(t)

	var gotSelf int
	var gotDir geom.Vec3
	var gotMax float64
	a.Update(0.1, agent.ProbeFunc(func(self int, _ geom.Vec3, dir geom.Vec3, maxDist float64) (agent.Hit, bool) {
		gotSelf, gotDir, gotMax = self, dir, maxDist
		return agent.Hit{}, false
	}))

	assert.Equal(t, a.ID(), gotSelf)
	assert.Equal(t, geom.Vec3{X: 1}, gotDir)
	assert.Equal(t, 20.0, gotMax)
}

// buildStar creates P - C with two more roads out of C: C - X and C - Y
func buildStar() (*graph.Graph, [4]graph.NodeID) {
	g := graph.New()
	p := g.AddNode(geom.Vec3{X: -10})
	c := g.AddNode(geom.Vec3{})
	x := g.AddNode(geom.Vec3{X: 10})
	y := g.AddNode(geom.Vec3{Z: 10})
	g.Connect(p, c)
	g.Connect(c, x)
	g.Connect(c, y)
	return g, [4]graph.NodeID{p, c, x, y}
}

func TestRoaming_NeverBacktracksWithAlternatives(t *testing.T) {
	g, n := buildStar()
	p, c, x, y := n[0], n[1], n[2], n[3]

	seen := map[graph.NodeID]bool{}
	for seed := int64(1); seed <= 30; seed++ {
		a, err := agent.NewRoaming(1, g, p, agent.DefaultConfig(), rng(seed))
		require.NoError(t, err)
		require.Equal(t, c, a.Target())
		require.Equal(t, p, a.Previous())
		assert.True(t, a.Roaming())

		for i := 0; i < 100 && a.Target() == c; i++ {
			a.Update(0.1, nil)
		}
		assert.Contains(t, []graph.NodeID{x, y}, a.Target())
		assert.Equal(t, c, a.Previous())
		seen[a.Target()] = true
	}
	assert.True(t, seen[x] && seen[y], "both exits are chosen across seeds")
}

func TestRoaming_BacktracksFromDeadEnd(t *testing.T) {
	g := buildLine(2)

	a, err := agent.NewRoaming(1, g, 0, agent.DefaultConfig(), rng(1))
	require.NoError(t, err)
	require.Equal(t, graph.NodeID(1), a.Target())

	for i := 0; i < 100 && a.Target() == 1; i++ {
		a.Update(0.1, nil)
	}
	assert.Equal(t, graph.NodeID(0), a.Target())
	assert.Equal(t, agent.Following, a.State())
}

func TestRoaming_StopsWithoutConnections(t *testing.T) {
	g := graph.New()
	a0 := g.AddNode(geom.Vec3{})
	b := g.AddNode(geom.Vec3{X: 5})
	g.AddEdge(a0, b, 5)

	a, err := agent.NewRoaming(1, g, a0, agent.DefaultConfig(), rng(1))
	require.NoError(t, err)

	for i := 0; i < 100 && a.State() != agent.Stopped; i++ {
		a.Update(0.1, nil)
	}
	assert.Equal(t, agent.Stopped, a.State())
	assert.Equal(t, b, a.Target())
	assert.Zero(t, a.Speed())
}

func TestNew_StartsOneHopFromSpawn(t *testing.T) {
	g := buildLine(3)

	a, err := agent.New(4, g, 0, 2, agent.DefaultConfig(), rng(1))
	require.NoError(t, err)

	assert.Equal(t, graph.NodeID(1), a.Target())
	assert.Equal(t, graph.NodeID(0), a.Previous())
	assert.Equal(t, graph.NodeID(2), a.Goal())
	assert.Equal(t, g.Position(0), a.Position())
	assert.False(t, a.Roaming())
	assert.Equal(t, 1, a.Snapshot().Remaining)
}

func TestNew_WithPositionAndPlanner(t *testing.T) {
	g := buildLine(3)
	calls := 0
	planner := func(g *graph.Graph, from, to graph.NodeID) (graph.Path, bool) {
		calls++
		return g.AStar(from, to)
	}

	spot := geom.Vec3{X: 0.3, Z: -0.2}
	a, err := agent.New(1, g, 0, 2, agent.DefaultConfig(), rng(1),
		agent.WithPosition(spot), agent.WithPlanner(planner))
	require.NoError(t, err)
	assert.Equal(t, spot, a.Position())
	assert.Equal(t, 1, calls)
}

func TestNew_Errors(t *testing.T) {
	g := graph.New()
	a0 := g.AddNode(geom.Vec3{})
	b := g.AddNode(geom.Vec3{X: 5})
	c := g.AddNode(geom.Vec3{X: 50})
	d := g.AddNode(geom.Vec3{X: 55})
	lonely := g.AddNode(geom.Vec3{X: 100})
	g.Connect(a0, b)
	g.Connect(c, d)

	_, err := agent.New(1, g, a0, c, agent.DefaultConfig(), rng(1))
	assert.ErrorIs(t, err, agent.ErrNoRoute)

	_, err = agent.New(1, g, lonely, a0, agent.DefaultConfig(), rng(1))
	assert.ErrorIs(t, err, agent.ErrNoConnections)

	_, err = agent.NewRoaming(1, g, lonely, agent.DefaultConfig(), rng(1))
	assert.ErrorIs(t, err, agent.ErrNoConnections)

	_, err = agent.NewOnRoute(1, g, graph.NewRoute(graph.Path{}), agent.DefaultConfig(), rng(1))
	assert.ErrorIs(t, err, agent.ErrNoRoute)
}

func TestBaseSpeed(t *testing.T) {
	g := buildLine(2)

	for seed := int64(1); seed <= 20; seed++ {
		a, err := agent.NewRoaming(1, g, 0, agent.DefaultConfig(), rng(seed))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, a.BaseSpeed(), 7.2)
		assert.LessOrEqual(t, a.BaseSpeed(), 8.8)
		assert.Equal(t, a.BaseSpeed(), a.Speed())
	}

	slow := agent.DefaultConfig()
	slow.BaseSpeed = 5
	for seed := int64(1); seed <= 20; seed++ {
		a, err := agent.NewRoaming(1, g, 0, slow, rng(seed))
		require.NoError(t, err)
		assert.Equal(t, 6.0, a.BaseSpeed(), "floored at the minimum cruising speed")
	}
}

func TestSnapshotJSON(t *testing.T) {
	a := newOnLine(t)

	raw, err := json.Marshal(a.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"state":"following"`)
	assert.Contains(t, string(raw), `"target":1`)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, agent.DefaultConfig().Validate())

	unsorted := agent.DefaultConfig()
	unsorted.Bands = []agent.SpeedBand{{Below: 6, Speed: 2}, {Below: 2, Speed: 0}}
	assert.ErrorIs(t, unsorted.Validate(), agent.ErrInvalidConfig)

	noDetection := agent.DefaultConfig()
	noDetection.DetectionDistance = 0
	assert.ErrorIs(t, noDetection.Validate(), agent.ErrInvalidConfig)
}
