package simulation

import (
	"github.com/prometheus/client_golang/prometheus"

	"roadnet-sim/pkg/agent"
	"roadnet-sim/pkg/graph"
)

var (
	// PathSearchTotal counts A* searches by outcome
	PathSearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadsim_path_search_total",
			Help: "Total number of path searches",
		},
		[]string{"result"},
	)

	// PathSearchExpanded tracks how many nodes a search closed
	PathSearchExpanded = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roadsim_path_search_expanded_nodes",
			Help:    "Nodes expanded per path search",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// SpawnTotal counts spawned agents by kind (routed, roaming)
	SpawnTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadsim_spawn_total",
			Help: "Total number of spawned agents",
		},
		[]string{"kind"},
	)

	// TicksTotal counts simulation ticks
	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "roadsim_ticks_total",
			Help: "Total number of simulation ticks",
		},
	)

	// AgentsByState tracks the current number of agents per navigation state
	AgentsByState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roadsim_agents",
			Help: "Current number of agents by state",
		},
		[]string{"state"},
	)

	// NetworkSize tracks the size of the current road graph
	NetworkSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roadsim_network_size",
			Help: "Size of the current road graph",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(PathSearchTotal)
	prometheus.MustRegister(PathSearchExpanded)
	prometheus.MustRegister(SpawnTotal)
	prometheus.MustRegister(TicksTotal)
	prometheus.MustRegister(AgentsByState)
	prometheus.MustRegister(NetworkSize)
}

// RecordNetwork publishes the size of g
func RecordNetwork(g *graph.Graph) {
	NetworkSize.WithLabelValues("nodes").Set(float64(g.Len()))
	NetworkSize.WithLabelValues("edges").Set(float64(g.EdgeCount()))
}

// FindRoute runs A* on g and records the outcome
func FindRoute(g *graph.Graph, from, to graph.NodeID) (graph.Path, bool) {
	path, ok := g.AStar(from, to)
	if ok {
		PathSearchTotal.WithLabelValues("found").Inc()
		PathSearchExpanded.Observe(float64(path.Expanded))
	} else {
		PathSearchTotal.WithLabelValues("none").Inc()
	}
	return path, ok
}

func recordStates(counts map[agent.State]int) {
	for _, s := range []agent.State{agent.Following, agent.Blocked, agent.Stopped} {
		AgentsByState.WithLabelValues(s.String()).Set(float64(counts[s]))
	}
}
