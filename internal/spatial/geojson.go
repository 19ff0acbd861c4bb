package spatial

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/wifi-coverage-go/internal/models"
)

// FeatureCollection renders estimates and anchors as GeoJSON points.
// Access points carry their great-circle distance and, when off the origin,
// compass bearing from the site origin.
func (g GeoReference) FeatureCollection(estimates []models.AccessPointEstimate, anchors models.AnchorAssignment) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, e := range estimates {
		lat, lon := g.Locate(models.Position{X: e.X, Y: e.Y})
		f := geojson.NewFeature(orb.Point{lon, lat})
		f.Properties["kind"] = "access_point"
		f.Properties["access_point_id"] = e.AccessPointID
		f.Properties["display_name"] = e.DisplayName
		f.Properties["band"] = string(e.Band)
		f.Properties["average_signal_strength"] = e.AverageSignalStrength
		f.Properties["distance_from_center"] = e.DistanceFromCenter
		f.Properties["distance_from_origin_m"] = HaversineDistance(g.OriginLat, g.OriginLon, lat, lon)
		if lat != g.OriginLat || lon != g.OriginLon {
			f.Properties["bearing_from_origin"] = Bearing(g.OriginLat, g.OriginLon, lat, lon)
		}
		fc.Append(f)
	}

	sorted := append(models.AnchorAssignment(nil), anchors...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].NodeID < sorted[j].NodeID })
	for _, a := range sorted {
		lat, lon := g.Locate(a.Position)
		f := geojson.NewFeature(orb.Point{lon, lat})
		f.Properties["kind"] = "anchor"
		f.Properties["node_id"] = a.NodeID
		f.Properties["fixed"] = a.Fixed
		fc.Append(f)
	}

	if len(fc.Features) > 0 {
		fc.BBox = geojson.NewBBox(boundOf(fc))
	}
	return fc
}

func boundOf(fc *geojson.FeatureCollection) orb.Bound {
	b := fc.Features[0].Geometry.Bound()
	for _, f := range fc.Features[1:] {
		b = b.Union(f.Geometry.Bound())
	}
	return b
}
