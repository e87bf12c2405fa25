package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentsIntersect(t *testing.T) {
	base := LineSegment{P1: Vec3{X: 0}, P2: Vec3{X: 10}}

	cases := []struct {
		name      string
		other     LineSegment
		threshold float64
		want      bool
	}{
		{"Crossing", LineSegment{P1: Vec3{X: 5, Z: -5}, P2: Vec3{X: 5, Z: 5}}, 0, true},
		{"Parallel", LineSegment{P1: Vec3{Z: 1}, P2: Vec3{X: 10, Z: 1}}, 0.5, false},
		{"Collinear", LineSegment{P1: Vec3{X: 2}, P2: Vec3{X: 8}}, 0.5, false},
		{"NearMissInsideBand", LineSegment{P1: Vec3{X: 12, Z: -5}, P2: Vec3{X: 12, Z: 5}}, 0.5, true},
		{"NearMissExactOnly", LineSegment{P1: Vec3{X: 12, Z: -5}, P2: Vec3{X: 12, Z: 5}}, 0, false},
		{"FarAway", LineSegment{P1: Vec3{X: 20, Z: -5}, P2: Vec3{X: 20, Z: 5}}, 0.5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SegmentsIntersect(base, tc.other, tc.threshold, 1e-4))
			assert.Equal(t, tc.want, SegmentsIntersect(tc.other, base, tc.threshold, 1e-4))
		})
	}
}

func TestExtendedContainsToleratedCrossings(t *testing.T) {
	s := LineSegment{P1: Vec3{X: 0}, P2: Vec3{X: 10}}
	ext := s.Extended(0.5)
	assert.InDelta(t, -5, ext.P1.X, 1e-9)
	assert.InDelta(t, 15, ext.P2.X, 1e-9)

	b := ext.Bound()
	assert.InDelta(t, -5, b.Min[0], 1e-9)
	assert.InDelta(t, 15, b.Max[0], 1e-9)
}

func TestRotateAndHeading(t *testing.T) {
	right := Forward.RotateY(90)
	assert.InDelta(t, 1, right.X, 1e-9)
	assert.InDelta(t, 0, right.Z, 1e-9)

	left := Forward.RotateY(-90)
	assert.InDelta(t, -1, left.X, 1e-9)

	for _, deg := range []float64{0, 45, 90, 135, -170} {
		assert.InDelta(t, deg, FromHeading(deg).Heading(), 1e-9)
	}
}

func TestDeltaAngle(t *testing.T) {
	assert.InDelta(t, 20, DeltaAngle(350, 10), 1e-9)
	assert.InDelta(t, -20, DeltaAngle(10, 350), 1e-9)
	assert.InDelta(t, 180, math.Abs(DeltaAngle(0, 180)), 1e-9)
	assert.InDelta(t, 0, DeltaAngle(720, 0), 1e-9)
}

func TestAngleBetween(t *testing.T) {
	assert.InDelta(t, 90, AngleBetween(Forward, Vec3{X: 1}), 1e-9)
	assert.InDelta(t, 180, AngleBetween(Forward, Forward.Scale(-1)), 1e-9)
	assert.Zero(t, AngleBetween(Forward, Vec3{}))
}

func TestMoveTowards(t *testing.T) {
	got := MoveTowards(Vec3{}, Vec3{X: 10}, 4)
	assert.InDelta(t, 4, got.X, 1e-9)

	// never overshoots
	got = MoveTowards(Vec3{}, Vec3{X: 10}, 40)
	assert.Equal(t, Vec3{X: 10}, got)

	assert.InDelta(t, 3, Approach(2, 8, 1), 1e-9)
	assert.InDelta(t, 8, Approach(7.5, 8, 1), 1e-9)
	assert.InDelta(t, 1, Approach(2, 0, 1), 1e-9)
}

func TestRayCircle(t *testing.T) {
	d, ok := RayCircle(Vec3{}, Forward, Vec3{Z: 10}, 1)
	assert.True(t, ok)
	assert.InDelta(t, 9, d, 1e-9)

	_, ok = RayCircle(Vec3{}, Forward, Vec3{X: 3, Z: 10}, 1)
	assert.False(t, ok, "passes beside")

	_, ok = RayCircle(Vec3{}, Forward, Vec3{Z: -10}, 1)
	assert.False(t, ok, "behind the origin")

	_, ok = RayCircle(Vec3{}, Forward, Vec3{Z: 0.5}, 1)
	assert.False(t, ok, "origin inside circle")
}

func TestHorizontalDistanceIgnoresHeight(t *testing.T) {
	a := Vec3{X: 0, Y: 5, Z: 0}
	b := Vec3{X: 3, Y: -2, Z: 4}
	assert.InDelta(t, 5, a.HorizontalDistance(b), 1e-9)
	assert.Equal(t, b.X, FromPlanar(b.Planar()).X)
}
