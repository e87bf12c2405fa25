// Package geom holds the vector and segment math shared by the road generator,
// the graph and the agents. Roads lie in the XZ plane; Y is up.
package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Vec3 is a position or direction in world space
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Forward is the +Z direction, the heading of the main road chain
var Forward = Vec3{Z: 1}

// Add returns v + o
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v * s
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of v and o
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Len returns the Euclidean length of v
func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// IsZero reports whether v has no usable length
func (v Vec3) IsZero() bool {
	return v.Len() < 1e-9
}

// Normalize returns v scaled to unit length, or the zero vector if v has no length
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-9 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Distance calculates Euclidean distance between two points
func (v Vec3) Distance(other Vec3) float64 {
	return v.Sub(other).Len()
}

// Planar projects v onto the horizontal plane as an orb point (x, z)
func (v Vec3) Planar() orb.Point {
	return orb.Point{v.X, v.Z}
}

// FromPlanar lifts a horizontal-plane point back to world space at Y = 0
func FromPlanar(p orb.Point) Vec3 {
	return Vec3{X: p[0], Z: p[1]}
}

// HorizontalDistance ignores height and measures in the road plane
func (v Vec3) HorizontalDistance(other Vec3) float64 {
	return planar.Distance(v.Planar(), other.Planar())
}

// RotateY rotates v about the vertical axis by deg degrees, clockwise when
// viewed from above: Forward rotated by 90 becomes +X.
func (v Vec3) RotateY(deg float64) Vec3 {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Vec3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// Heading returns the angle of v in the road plane in degrees, atan2(z, x)
func (v Vec3) Heading() float64 {
	return math.Atan2(v.Z, v.X) * 180 / math.Pi
}

// FromHeading is the inverse of Heading: a unit vector whose Heading is deg
func FromHeading(deg float64) Vec3 {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Vec3{X: cos, Z: sin}
}

// DeltaAngle returns the shortest signed difference b - a in degrees, in (-180, 180]
func DeltaAngle(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// AngleBetween returns the unsigned angle between a and b in degrees.
// Zero-length inputs yield 0.
func AngleBetween(a, b Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la < 1e-9 || lb < 1e-9 {
		return 0
	}
	cos := a.Dot(b) / (la * lb)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// MoveTowards moves current toward target by at most maxDelta without overshooting
func MoveTowards(current, target Vec3, maxDelta float64) Vec3 {
	diff := target.Sub(current)
	dist := diff.Len()
	if dist <= maxDelta || dist < 1e-9 {
		return target
	}
	return current.Add(diff.Scale(maxDelta / dist))
}

// Approach moves a scalar toward target by at most maxDelta
func Approach(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}
