package simulation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"roadnet-sim/pkg/agent"
)

// Report summarises a world
type Report struct {
	RunID            string         `json:"runId"`
	Seed             int64          `json:"seed"`
	Nodes            int            `json:"nodes"`
	Edges            int            `json:"edges"`
	Ticks            int64          `json:"ticks"`
	SimulatedSeconds float64        `json:"simulatedSeconds"`
	Agents           int            `json:"agents"`
	Roaming          int            `json:"roaming"`
	ByState          map[string]int `json:"byState"`
	Arrivals         int            `json:"arrivals"`
	TotalDistance    float64        `json:"totalDistance"`
	MeanSpeed        float64        `json:"meanSpeed"`
}

// Summary builds a report of the current state
func (w *World) Summary() Report {
	w.mu.RLock()
	defer w.mu.RUnlock()

	r := Report{
		RunID:            w.runID.String(),
		Seed:             w.cfg.Seed,
		Nodes:            w.g.Len(),
		Edges:            w.g.EdgeCount(),
		Ticks:            w.ticks,
		SimulatedSeconds: w.elapsed,
		Agents:           len(w.agents),
		ByState:          make(map[string]int),
	}
	for _, s := range []agent.State{agent.Following, agent.Blocked, agent.Stopped} {
		r.ByState[s.String()] = 0
	}

	speed := 0.0
	for _, a := range w.agents {
		s := a.Snapshot()
		r.ByState[s.State.String()]++
		if s.Roaming {
			r.Roaming++
		}
		r.Arrivals += s.Arrivals
		r.TotalDistance += s.Traveled
		speed += s.Speed
	}
	if len(w.agents) > 0 {
		r.MeanSpeed = speed / float64(len(w.agents))
	}
	return r
}

// Render formats the report as indented JSON or as plain text
func (r Report) Render(asJSON bool) ([]byte, error) {
	if asJSON {
		return json.MarshalIndent(r, "", "  ")
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("\n--- Simulation Report: %s ---\n", r.RunID))
	buf.WriteString(fmt.Sprintf("Seed: %d\n", r.Seed))
	buf.WriteString(fmt.Sprintf("Network: %d nodes | %d edges\n", r.Nodes, r.Edges))
	buf.WriteString(fmt.Sprintf("Ticks: %d | Simulated: %.2fs\n", r.Ticks, r.SimulatedSeconds))
	buf.WriteString(fmt.Sprintf("Agents: %d | Roaming: %d | Arrivals: %d\n", r.Agents, r.Roaming, r.Arrivals))
	buf.WriteString(fmt.Sprintf("Distance: %.1f | Mean speed: %.2f\n", r.TotalDistance, r.MeanSpeed))

	states := make([]string, 0, len(r.ByState))
	for s := range r.ByState {
		states = append(states, s)
	}
	sort.Strings(states)
	buf.WriteString("\nStates:\n")
	for _, s := range states {
		buf.WriteString(fmt.Sprintf("  %-10s %d\n", s, r.ByState[s]))
	}
	return buf.Bytes(), nil
}
