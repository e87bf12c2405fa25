package geom

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// rectPadding keeps degenerate boxes (points, axis-aligned segments) valid
// for rtreego, which rejects zero-length sides.
const rectPadding = 1e-6

// BoundRect converts a planar bound to a padded R-tree rectangle
func BoundRect(b orb.Bound) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min[0] - rectPadding, b.Min[1] - rectPadding},
		[]float64{b.Max[0] - b.Min[0] + 2*rectPadding, b.Max[1] - b.Min[1] + 2*rectPadding},
	)
}
