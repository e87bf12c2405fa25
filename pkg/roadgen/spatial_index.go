package roadgen

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"roadnet-sim/pkg/geom"
)

// waypointEntry wraps a waypoint for R-tree storage
type waypointEntry struct {
	wp   *Waypoint
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *waypointEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// segmentEntry wraps one road between two waypoints. The box covers the
// segment extended by the intersection threshold on both sides.
type segmentEntry struct {
	a, b *Waypoint
	bbox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *segmentEntry) Bounds() rtreego.Rect {
	return e.bbox
}

// SpatialIndex manages waypoint and road lookups during generation
type SpatialIndex struct {
	points    *rtreego.Rtree
	segments  *rtreego.Rtree
	threshold float64
}

// NewSpatialIndex creates a new spatial index. threshold is the tolerance
// band of the intersection test, used to size segment boxes.
func NewSpatialIndex(threshold float64) *SpatialIndex {
	return &SpatialIndex{
		points:    rtreego.NewTree(2, 25, 50), // 2D, min 25, max 50 entries per node
		segments:  rtreego.NewTree(2, 25, 50),
		threshold: threshold,
	}
}

// InsertWaypoint indexes a waypoint by its position
func (si *SpatialIndex) InsertWaypoint(wp *Waypoint) {
	bbox, err := geom.BoundRect(orb.Bound{Min: wp.Position.Planar(), Max: wp.Position.Planar()})
	if err == nil {
		si.points.Insert(&waypointEntry{wp: wp, bbox: bbox})
	}
}

// InsertSegment indexes the road between a and b
func (si *SpatialIndex) InsertSegment(a, b *Waypoint) {
	seg := geom.LineSegment{P1: a.Position, P2: b.Position}
	bbox, err := geom.BoundRect(seg.Extended(si.threshold).Bound())
	if err == nil {
		si.segments.Insert(&segmentEntry{a: a, b: b, bbox: bbox})
	}
}

// QueryWaypoints returns waypoints whose position falls in the square of the
// given radius around center. Callers filter by exact distance.
func (si *SpatialIndex) QueryWaypoints(center geom.Vec3, radius float64) []*Waypoint {
	p := center.Planar()
	bound := orb.Bound{
		Min: orb.Point{p[0] - radius, p[1] - radius},
		Max: orb.Point{p[0] + radius, p[1] + radius},
	}
	bbox, err := geom.BoundRect(bound)
	if err != nil {
		return nil
	}

	results := si.points.SearchIntersect(bbox)
	waypoints := make([]*Waypoint, 0, len(results))
	for _, item := range results {
		waypoints = append(waypoints, item.(*waypointEntry).wp)
	}
	return waypoints
}

// QuerySegments returns roads whose tolerance box overlaps the tolerance box
// of seg. Every road that SegmentsIntersect could accept is included.
func (si *SpatialIndex) QuerySegments(seg geom.LineSegment) []geom.LineSegment {
	bbox, err := geom.BoundRect(seg.Extended(si.threshold).Bound())
	if err != nil {
		return nil
	}

	results := si.segments.SearchIntersect(bbox)
	segments := make([]geom.LineSegment, 0, len(results))
	for _, item := range results {
		entry := item.(*segmentEntry)
		segments = append(segments, geom.LineSegment{P1: entry.a.Position, P2: entry.b.Position})
	}
	return segments
}

// Len returns the number of indexed waypoints and roads
func (si *SpatialIndex) Len() (waypoints, segments int) {
	return si.points.Size(), si.segments.Size()
}
