package agent

import "roadnet-sim/pkg/geom"

// Hit is what a collision probe reports about the nearest agent on the ray
type Hit struct {
	AgentID   int       `json:"agentId"`
	Distance  float64   `json:"distance"`
	Direction geom.Vec3 `json:"direction"` // travel direction of the agent that was hit
}

// Probe casts a forward sensing ray on behalf of agent self and reports the
// nearest other agent within maxDist
type Probe interface {
	Cast(self int, origin, dir geom.Vec3, maxDist float64) (Hit, bool)
}

// ProbeFunc adapts a function to the Probe interface
type ProbeFunc func(self int, origin, dir geom.Vec3, maxDist float64) (Hit, bool)

// Cast calls f
func (f ProbeFunc) Cast(self int, origin, dir geom.Vec3, maxDist float64) (Hit, bool) {
	return f(self, origin, dir, maxDist)
}
