package simulation

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"roadnet-sim/pkg/agent"
	"roadnet-sim/pkg/geom"
)

// agentEntry wraps an agent snapshot for R-tree storage
type agentEntry struct {
	snap agent.Snapshot
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *agentEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// SnapshotProbe answers collision probes against a frozen view of every
// agent. Agents are circles of a fixed radius in the road plane. It is built
// once per tick and only read afterwards, so any number of agents can cast
// through it concurrently.
type SnapshotProbe struct {
	tree   *rtreego.Rtree
	radius float64
}

// NewSnapshotProbe indexes the given snapshots
func NewSnapshotProbe(snaps []agent.Snapshot, radius float64) *SnapshotProbe {
	p := &SnapshotProbe{
		tree:   rtreego.NewTree(2, 25, 50),
		radius: radius,
	}
	for _, s := range snaps {
		pos := s.Position.Planar()
		bbox, err := geom.BoundRect(orb.Bound{Min: pos, Max: pos}.Pad(radius))
		if err != nil {
			continue
		}
		p.tree.Insert(&agentEntry{snap: s, bbox: bbox})
	}
	return p
}

// Cast reports the nearest agent other than self whose circle the ray from
// origin along dir enters within maxDist. Ties go to the lower agent ID.
func (p *SnapshotProbe) Cast(self int, origin, dir geom.Vec3, maxDist float64) (agent.Hit, bool) {
	dir = dir.Normalize()
	if dir.IsZero() || maxDist <= 0 {
		return agent.Hit{}, false
	}

	ray := geom.LineSegment{P1: origin, P2: origin.Add(dir.Scale(maxDist))}
	bbox, err := geom.BoundRect(ray.Bound().Pad(p.radius))
	if err != nil {
		return agent.Hit{}, false
	}

	var best agent.Hit
	found := false
	for _, item := range p.tree.SearchIntersect(bbox) {
		e := item.(*agentEntry)
		if e.snap.ID == self {
			continue
		}
		d, ok := geom.RayCircle(origin, dir, e.snap.Position, p.radius)
		if !ok || d > maxDist {
			continue
		}
		if !found || d < best.Distance || (d == best.Distance && e.snap.ID < best.AgentID) {
			best = agent.Hit{AgentID: e.snap.ID, Distance: d, Direction: e.snap.Direction}
			found = true
		}
	}
	return best, found
}
