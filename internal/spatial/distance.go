package spatial

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/jengzang/wifi-coverage-go/internal/models"
)

// EarthRadiusMeters is the Earth's mean radius
const EarthRadiusMeters = 6371000.0

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Bearing calculates the initial compass bearing from point 1 to point 2 in degrees (0-360)
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lonDiff := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(lonDiff) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(lonDiff)

	return math.Mod(math.Atan2(y, x)*180/math.Pi+360, 360)
}

// DestinationPoint calculates the point reached from (lat, lon) after travelling
// distance meters on the given compass bearing
func DestinationPoint(lat, lon, bearing, distance float64) (float64, float64) {
	p := s2.LatLngFromDegrees(lat, lon)
	bearingRad := bearing * math.Pi / 180
	angular := distance / EarthRadiusMeters

	latRad := p.Lat.Radians()
	lonRad := p.Lng.Radians()

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(angular) +
		math.Cos(latRad)*math.Sin(angular)*math.Cos(bearingRad))
	lon2 := lonRad + math.Atan2(
		math.Sin(bearingRad)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(lat2))

	ll := s2.LatLng{Lat: s1.Angle(lat2), Lng: s1.Angle(lon2)}.Normalized()
	return ll.Lat.Degrees(), ll.Lng.Degrees()
}

// GeoReference pins the grid centre to a latitude/longitude, with +y pointing north
type GeoReference struct {
	Grid      Grid
	OriginLat float64
	OriginLon float64
}

// Locate converts a grid position to latitude/longitude
func (g GeoReference) Locate(p models.Position) (float64, float64) {
	center := g.Grid.Center()
	d := Distance(center, p)
	if d == 0 {
		return g.OriginLat, g.OriginLon
	}
	return DestinationPoint(g.OriginLat, g.OriginLon, CompassBearing(PlanarBearing(center, p)), d)
}

// Annotate fills in latitude/longitude on each estimate
func (g GeoReference) Annotate(estimates []models.AccessPointEstimate) {
	for i := range estimates {
		lat, lon := g.Locate(models.Position{X: estimates[i].X, Y: estimates[i].Y})
		estimates[i].Latitude = &lat
		estimates[i].Longitude = &lon
	}
}
