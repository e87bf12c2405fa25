package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// LineSegment represents a line segment between two points
type LineSegment struct {
	P1, P2 Vec3
}

// Length returns the length of the segment
func (s LineSegment) Length() float64 {
	return s.P1.Distance(s.P2)
}

// LineString converts the segment to an orb line string in the road plane
func (s LineSegment) LineString() orb.LineString {
	return orb.LineString{s.P1.Planar(), s.P2.Planar()}
}

// Extended returns the segment stretched by threshold times its length past
// both endpoints. Any crossing accepted by SegmentsIntersect lies on it.
func (s LineSegment) Extended(threshold float64) LineSegment {
	d := s.P2.Sub(s.P1)
	return LineSegment{
		P1: s.P1.Sub(d.Scale(threshold)),
		P2: s.P2.Add(d.Scale(threshold)),
	}
}

// Bound returns the planar bounding box of the segment
func (s LineSegment) Bound() orb.Bound {
	return s.LineString().Bound()
}

// SegmentsIntersect checks if two segments cross in the horizontal plane.
//
// The lines are solved parametrically; near-parallel pairs (|cross| < epsilon)
// never intersect. Both parameters are accepted within [-threshold, 1+threshold],
// so near misses count as crossings too.
func SegmentsIntersect(a, b LineSegment, threshold, epsilon float64) bool {
	l1x, l1z := a.P2.X-a.P1.X, a.P2.Z-a.P1.Z
	l2x, l2z := b.P2.X-b.P1.X, b.P2.Z-b.P1.Z

	cross := l1x*l2z - l1z*l2x
	if math.Abs(cross) < epsilon {
		return false
	}

	dx, dz := b.P1.X-a.P1.X, b.P1.Z-a.P1.Z
	t1 := (dx*l2z - dz*l2x) / cross
	t2 := (dx*l1z - dz*l1x) / cross

	return t1 >= -threshold && t1 <= 1+threshold &&
		t2 >= -threshold && t2 <= 1+threshold
}

// RayCircle returns the distance along a ray from origin in direction dir to
// the first point of a circle of the given radius around center, measured in
// the road plane. Circles that contain the origin are not reported.
func RayCircle(origin, dir, center Vec3, radius float64) (float64, bool) {
	dx, dz := dir.X, dir.Z
	l := math.Hypot(dx, dz)
	if l < 1e-9 {
		return 0, false
	}
	dx, dz = dx/l, dz/l

	ox, oz := center.X-origin.X, center.Z-origin.Z
	if ox*ox+oz*oz <= radius*radius {
		return 0, false
	}

	t := ox*dx + oz*dz
	perp2 := ox*ox + oz*oz - t*t
	if perp2 > radius*radius {
		return 0, false
	}
	t0 := t - math.Sqrt(radius*radius-perp2)
	if t0 < 0 {
		return 0, false
	}
	return t0, true
}
