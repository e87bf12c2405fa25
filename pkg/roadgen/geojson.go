package roadgen

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// FeatureCollection exports the network as GeoJSON in the road plane
// (x, z). Every two-way road becomes one LineString feature with its length
// and heading; waypoints are exported as Point features when withWaypoints
// is set.
func (n *Network) FeatureCollection(withWaypoints bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, wp := range n.waypoints {
		for _, c := range wp.Connections {
			if c < wp.ID && n.waypoints[c].ConnectedTo(wp.ID) {
				continue // exported from the other side
			}
			other := n.waypoints[c]
			line := orb.LineString{wp.Position.Planar(), other.Position.Planar()}

			f := geojson.NewFeature(line)
			f.Properties["from"] = wp.ID
			f.Properties["to"] = other.ID
			f.Properties["length"] = planar.Length(line)
			f.Properties["heading"] = other.Position.Sub(wp.Position).Heading()
			fc.Append(f)
		}
	}

	if withWaypoints {
		for _, wp := range n.waypoints {
			f := geojson.NewFeature(wp.Position.Planar())
			f.Properties["id"] = wp.ID
			f.Properties["degree"] = len(wp.Connections)
			fc.Append(f)
		}
	}

	return fc
}
