// Package roadgen grows a procedural road skeleton: a main chain, two cross
// branches at its midpoint and a long random expansion phase that either
// spawns new waypoints or merges into nearby ones. Roads that would cross or
// nearly cross an existing road are rejected.
package roadgen

import (
	"log"
	"math/rand"
	"time"

	"roadnet-sim/pkg/geom"
)

// Generate builds a road network with the given configuration
func Generate(cfg Config) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	startTime := time.Now()
	log.Printf("🗺️  Generating road network (seed %d)...\n", cfg.Seed)

	n := NewNetwork(cfg, rand.New(rand.NewSource(cfg.Seed)))

	// Step 1: main chain from the origin
	origin := n.AddWaypoint(geom.Vec3{})
	n.stats.MainChain = 1 + n.GrowBranch(origin, geom.Forward, cfg.MainChainLength)

	// Step 2: cross branches at the middle of the chain
	if len(n.waypoints) >= 2 {
		mid := n.waypoints[len(n.waypoints)/2]
		forward := n.chainDirection(mid.ID)
		n.stats.CrossBranches += n.GrowBranch(mid, forward.RotateY(90), cfg.BranchLength)
		n.stats.CrossBranches += n.GrowBranch(mid, forward.RotateY(-90), cfg.BranchLength)
	}

	// Step 3: random expansion
	for i := 0; i < cfg.ExpansionIterations; i++ {
		n.Expand()
	}

	asymmetric := n.Validate()

	s := n.stats
	log.Printf("   ✅ Road network built: %d waypoints, %d roads\n", n.Len(), n.RoadCount())
	log.Printf("   ℹ️  chain %d, branches %d, expansions %d, merges %d, rejected %d\n",
		s.MainChain, s.CrossBranches, s.Expansions, s.Merges, s.Rejected)
	if s.FallbackDirections > 0 {
		log.Printf("   ℹ️  %d free-direction searches fell back to a random heading\n", s.FallbackDirections)
	}
	if len(asymmetric) > 0 {
		log.Printf("   ⚠️  %d one-way connections found\n", len(asymmetric))
	}
	log.Printf("   ⏱️  Build time: %.2f seconds\n", time.Since(startTime).Seconds())

	return n, nil
}

// GrowBranch extends a road from start for up to count steps. Each step turns
// the heading by a random offset within MaxAngleOffset and advances
// StepDistance. The branch stops at the first step that would intersect an
// existing road. It returns the number of waypoints added.
func (n *Network) GrowBranch(start *Waypoint, direction geom.Vec3, count int) int {
	current := start
	heading := direction.Normalize()
	added := 0

	for i := 0; i < count; i++ {
		offset := (n.rng.Float64()*2 - 1) * n.cfg.MaxAngleOffset
		heading = heading.RotateY(offset)

		next := current.Position.Add(heading.Scale(n.cfg.StepDistance))
		if n.IntersectsExisting(current.Position, next) {
			n.stats.Rejected++
			break
		}

		wp := n.AddWaypoint(next)
		n.Connect(current, wp)
		current = wp
		added++
	}

	return added
}

// Expand runs one random expansion iteration: pick a waypoint, pick a free
// direction, then either link to a waypoint already near the candidate point
// or create a new one there. Intersecting candidates are dropped silently.
func (n *Network) Expand() {
	if len(n.waypoints) == 0 {
		return
	}

	from := n.waypoints[n.rng.Intn(len(n.waypoints))]
	dir, _ := n.FreeDirection(from)
	candidate := from.Position.Add(dir.Scale(n.cfg.SpawnDistance))

	if nearby := n.FindNearbyWaypoint(candidate, n.cfg.SpawnDistance*0.5); nearby != nil {
		if n.IntersectsExisting(from.Position, nearby.Position) {
			n.stats.Rejected++
			return
		}
		if n.Connect(from, nearby) {
			n.stats.Merges++
		} else {
			n.stats.DuplicateLinks++
		}
		return
	}

	if n.IntersectsExisting(from.Position, candidate) {
		n.stats.Rejected++
		return
	}
	wp := n.AddWaypoint(candidate)
	n.Connect(from, wp)
	n.stats.Expansions++
}

// FreeDirection looks for an outward heading from wp that keeps at least
// MinConnectionAngle to every existing connection. It tries
// FreeDirectionAttempts random headings; when none qualifies it returns an
// unconstrained random heading and false.
func (n *Network) FreeDirection(wp *Waypoint) (geom.Vec3, bool) {
	used := make([]float64, 0, len(wp.Connections))
	for _, c := range wp.Connections {
		used = append(used, n.waypoints[c].Position.Sub(wp.Position).Heading())
	}

	for i := 0; i < n.cfg.FreeDirectionAttempts; i++ {
		angle := n.rng.Float64() * 360
		if isFree(angle, used, n.cfg.MinConnectionAngle) {
			return geom.FromHeading(angle), true
		}
	}

	n.stats.FallbackDirections++
	return geom.FromHeading(n.rng.Float64() * 360), false
}

func isFree(angle float64, used []float64, minSeparation float64) bool {
	for _, u := range used {
		d := geom.DeltaAngle(angle, u)
		if d < 0 {
			d = -d
		}
		if d < minSeparation {
			return false
		}
	}
	return true
}

// chainDirection is the local forward direction of the chain at id: toward
// the next waypoint, or from the previous one at the end of the chain.
func (n *Network) chainDirection(id int) geom.Vec3 {
	if id+1 < len(n.waypoints) {
		return n.waypoints[id+1].Position.Sub(n.waypoints[id].Position).Normalize()
	}
	return n.waypoints[id].Position.Sub(n.waypoints[id-1].Position).Normalize()
}
