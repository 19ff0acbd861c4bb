// Package rssi converts received signal strength into distance estimates
// using the log-distance path-loss model.
package rssi

import (
	"math"
	"strings"
)

// Band identifies the radio band a reading was taken on
type Band string

const (
	Band24GHz   Band = "2.4GHz"
	Band5GHz    Band = "5GHz"
	BandUnknown Band = "unknown"
)

// MaxDistance is the upper bound of band-aware distance estimates in meters
const MaxDistance = 200.0

// PathLoss holds the reference power at 1 m and the path-loss exponent
type PathLoss struct {
	RefDbm   float64
	Exponent float64
}

// Distance returns 10^((ref - rssi) / (10 n)) without clamping
func (p PathLoss) Distance(rssi float64) float64 {
	return math.Pow(10, (p.RefDbm-rssi)/(10*p.Exponent))
}

// RSSI is the inverse of Distance. Non-positive distances return RefDbm.
func (p PathLoss) RSSI(distance float64) float64 {
	if distance <= 0 {
		return p.RefDbm
	}
	return p.RefDbm - 10*p.Exponent*math.Log10(distance)
}

var bandModels = map[Band]PathLoss{
	Band24GHz:   {RefDbm: -40, Exponent: 2.2},
	Band5GHz:    {RefDbm: -47, Exponent: 2.7},
	BandUnknown: {RefDbm: -43, Exponent: 2.4},
}

// Positioning is the band-independent model used for multilateration
var Positioning = PathLoss{RefDbm: -30, Exponent: 2.2}

// ModelFor returns the path-loss parameters for a band
func ModelFor(band Band) PathLoss {
	if m, ok := bandModels[band]; ok {
		return m
	}
	return bandModels[BandUnknown]
}

// BandDistance estimates distance in meters for a reading on the given band.
// The result is clamped to [0, MaxDistance]; non-finite input yields 0.
func BandDistance(rssi float64, band Band) float64 {
	if math.IsNaN(rssi) || math.IsInf(rssi, 0) {
		return 0
	}
	d := ModelFor(band).Distance(rssi)
	if math.IsNaN(d) {
		return 0
	}
	return math.Max(0, math.Min(MaxDistance, d))
}

// PositioningDistance estimates distance with the global positioning model.
// It is not clamped; non-finite input or output yields MaxDistance.
func PositioningDistance(rssi float64) float64 {
	if math.IsNaN(rssi) || math.IsInf(rssi, 0) {
		return MaxDistance
	}
	d := Positioning.Distance(rssi)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return MaxDistance
	}
	return d
}

// ParseBand maps scanner band labels such as "2.4 GHz" or "5GHz" to a Band
func ParseBand(s string) Band {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	norm = strings.TrimSuffix(norm, "ghz")
	switch norm {
	case "2.4", "2,4":
		return Band24GHz
	case "5":
		return Band5GHz
	default:
		return BandUnknown
	}
}

// SignalPercent maps dBm to a 0-100 quality figure, 2*(rssi+100) clamped
func SignalPercent(rssi float64) int {
	if math.IsNaN(rssi) {
		return 0
	}
	p := 2 * (rssi + 100)
	return int(math.Max(0, math.Min(100, p)))
}
