// Package simulation owns the agents on a finished road graph and advances
// them on a fixed-rate tick.
//
// Every tick freezes a snapshot of all agents into an R-tree; each agent then
// probes that snapshot and updates only itself, so the updates can be spread
// over a worker pool without changing the outcome.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"roadnet-sim/pkg/agent"
	"roadnet-sim/pkg/geom"
	"roadnet-sim/pkg/graph"
)

// World is a running simulation over one road graph
type World struct {
	mu sync.RWMutex

	g         *graph.Graph
	cfg       Config
	rng       *rand.Rand
	runID     uuid.UUID
	spawnable []graph.NodeID // nodes with at least one outgoing road

	agents  []*agent.Agent
	ticks   int64
	elapsed float64
}

// NewWorld creates an empty world on g. The graph must not be mutated
// afterwards.
func NewWorld(g *graph.Graph, cfg Config) (*World, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if g.Len() == 0 {
		return nil, ErrEmptyGraph
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	w := &World{
		g:     g,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		runID: uuid.New(),
	}
	for i := 0; i < g.Len(); i++ {
		if g.Degree(graph.NodeID(i)) > 0 {
			w.spawnable = append(w.spawnable, graph.NodeID(i))
		}
	}

	RecordNetwork(g)
	return w, nil
}

// Spawn places n new agents on random nodes with random goals. A spawn whose
// goal is unreachable retargets up to MaxRouteAttempts times, then falls
// back to a roaming agent. It returns how many agents were added.
func (w *World) Spawn(n int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.spawnable) == 0 {
		return 0, ErrNoRoads
	}

	routed, roaming := 0, 0
	for i := 0; i < n; i++ {
		a, err := w.spawnOne()
		if err != nil {
			return routed + roaming, err
		}
		w.agents = append(w.agents, a)
		if a.Roaming() {
			roaming++
			SpawnTotal.WithLabelValues("roaming").Inc()
		} else {
			routed++
			SpawnTotal.WithLabelValues("routed").Inc()
		}
	}

	log.Printf("🚗 Spawned %d agents (%d routed, %d roaming), %d total\n", n, routed, roaming, len(w.agents))
	w.recordStates()
	return n, nil
}

// Place adds an agent built by the caller on this world's graph. Its ID
// should be NextID.
func (w *World) Place(a *agent.Agent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.agents = append(w.agents, a)
	w.recordStates()
}

// NextID returns the ID the next agent will get
func (w *World) NextID() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.agents)
}

func (w *World) spawnOne() (*agent.Agent, error) {
	id := len(w.agents)
	spawn := w.spawnable[w.rng.Intn(len(w.spawnable))]
	pos := w.g.Position(spawn).Add(geom.Vec3{
		X: (w.rng.Float64()*2 - 1) * w.cfg.SpawnJitter,
		Z: (w.rng.Float64()*2 - 1) * w.cfg.SpawnJitter,
	})
	rng := rand.New(rand.NewSource(w.cfg.Seed + int64(id) + 1))
	opts := []agent.Option{agent.WithPosition(pos), agent.WithPlanner(FindRoute)}

	for attempt := 0; attempt < w.cfg.MaxRouteAttempts; attempt++ {
		goal := graph.NodeID(w.rng.Intn(w.g.Len()))
		a, err := agent.New(id, w.g, spawn, goal, w.cfg.Agent, rng, opts...)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, agent.ErrNoRoute) {
			return nil, err
		}
	}

	a, err := agent.NewRoaming(id, w.g, spawn, w.cfg.Agent, rng, opts...)
	if err != nil {
		return nil, fmt.Errorf("spawn agent %d: %w", id, err)
	}
	return a, nil
}

// Step advances every agent by dt seconds
func (w *World) Step(dt float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step(dt)
}

func (w *World) step(dt float64) {
	snaps := make([]agent.Snapshot, len(w.agents))
	for i, a := range w.agents {
		snaps[i] = a.Snapshot()
	}
	probe := NewSnapshotProbe(snaps, w.cfg.AgentRadius)

	workers := w.cfg.Workers
	if workers > len(w.agents) {
		workers = len(w.agents)
	}
	if workers <= 1 {
		for _, a := range w.agents {
			a.Update(dt, probe)
		}
	} else {
		var wg sync.WaitGroup
		chunk := (len(w.agents) + workers - 1) / workers
		for start := 0; start < len(w.agents); start += chunk {
			end := start + chunk
			if end > len(w.agents) {
				end = len(w.agents)
			}
			wg.Add(1)
			go func(batch []*agent.Agent) {
				defer wg.Done()
				for _, a := range batch {
					a.Update(dt, probe)
				}
			}(w.agents[start:end])
		}
		wg.Wait()
	}

	w.ticks++
	w.elapsed += dt
	TicksTotal.Inc()
	w.recordStates()
}

// RunTicks advances the world n ticks of TickInterval each
func (w *World) RunTicks(n int) {
	dt := w.cfg.TickInterval.Seconds()
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := 0; i < n; i++ {
		w.step(dt)
	}
}

// Run ticks the world at TickInterval until ctx is done
func (w *World) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.TickInterval)
	defer ticker.Stop()

	dt := w.cfg.TickInterval.Seconds()
	log.Printf("▶️  Simulation %s running at %v per tick\n", w.runID, w.cfg.TickInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("⏹️  Simulation %s stopped after %d ticks\n", w.runID, w.Ticks())
			return ctx.Err()
		case <-ticker.C:
			w.Step(dt)
		}
	}
}

// Agents returns a snapshot of every agent in spawn order
func (w *World) Agents() []agent.Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snaps := make([]agent.Snapshot, len(w.agents))
	for i, a := range w.agents {
		snaps[i] = a.Snapshot()
	}
	return snaps
}

// Len returns the number of agents
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.agents)
}

// Ticks returns the number of completed ticks
func (w *World) Ticks() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ticks
}

// Graph returns the road graph the world runs on
func (w *World) Graph() *graph.Graph { return w.g }

// RunID identifies this world in logs and reports
func (w *World) RunID() string { return w.runID.String() }

// Seed returns the resolved random seed
func (w *World) Seed() int64 { return w.cfg.Seed }

// recordStates publishes the state gauge. Callers hold mu.
func (w *World) recordStates() {
	recordStates(w.countStates())
}

func (w *World) countStates() map[agent.State]int {
	counts := make(map[agent.State]int, 3)
	for _, a := range w.agents {
		counts[a.State()]++
	}
	return counts
}
