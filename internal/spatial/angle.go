package spatial

import (
	"math"

	"github.com/jengzang/wifi-coverage-go/internal/models"
)

// PlanarBearing returns the angle from one position to another in degrees,
// measured counter-clockwise from the +x axis and normalised to [0, 360)
func PlanarBearing(from, to models.Position) float64 {
	deg := math.Atan2(to.Y-from.Y, to.X-from.X) * 180 / math.Pi
	b := math.Mod(deg+360, 360)
	if b >= 360 {
		b = 0
	}
	return b
}

// CompassBearing converts a planar bearing (counter-clockwise from east) to a
// compass bearing (clockwise from north), assuming +y points north
func CompassBearing(planar float64) float64 {
	b := math.Mod(90-planar+360, 360)
	if b < 0 {
		b += 360
	}
	return b
}
