package models

import (
	"math"

	"github.com/jengzang/wifi-coverage-go/internal/rssi"
)

// Position is a point in the surveyed area, in meters from the grid origin
type Position struct {
	X float64 `json:"x" db:"x"`
	Y float64 `json:"y" db:"y"`
}

// SensorReading is one observation of an access point by a node
type SensorReading struct {
	AccessPointID     string    `json:"access_point_id" db:"access_point_id"`
	SignalStrengthDbm *float64  `json:"signal_strength_dbm,omitempty" db:"signal_strength_dbm"` // nil when absent or unusable
	Band              rssi.Band `json:"band" db:"band"`
	DisplayName       string    `json:"display_name,omitempty" db:"display_name"`
}

// Signal returns the reading's strength and whether it is usable
func (r SensorReading) Signal() (float64, bool) {
	if r.SignalStrengthDbm == nil {
		return 0, false
	}
	v := *r.SignalStrengthDbm
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NodeSubmission replaces everything previously reported by a node
type NodeSubmission struct {
	NodeID   string          `json:"node_id"`
	Readings []SensorReading `json:"readings"`
	Position *Position       `json:"position,omitempty"`
}

// Dbm returns a pointer to v, for building readings
func Dbm(v float64) *float64 {
	return &v
}
