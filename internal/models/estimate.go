package models

import "github.com/jengzang/wifi-coverage-go/internal/rssi"

// AccessPointEstimate is the derived location of one access point
type AccessPointEstimate struct {
	AccessPointID         string    `json:"access_point_id"`
	DisplayName           string    `json:"display_name"`
	Band                  rssi.Band `json:"band"`
	X                     float64   `json:"x"`
	Y                     float64   `json:"y"`
	DistanceFromCenter    float64   `json:"distance_from_center"`
	BearingFromCenter     float64   `json:"bearing_from_center_degrees"` // 0 = +x axis, counter-clockwise
	AverageSignalStrength float64   `json:"average_signal_strength"`
	ResidualRMSE          float64   `json:"residual_rmse"` // fit error against the anchor distances, meters
	Latitude              *float64  `json:"latitude,omitempty"`
	Longitude             *float64  `json:"longitude,omitempty"`
}

// DistanceStrengthPoint pairs a reading with its band-aware distance
type DistanceStrengthPoint struct {
	Distance          float64   `json:"distance"`
	SignalStrengthDbm float64   `json:"signal_strength_dbm"`
	Band              rssi.Band `json:"band"`
	DisplayName       string    `json:"display_name"`
	AccessPointID     string    `json:"access_point_id"`
	NodeID            string    `json:"node_id"`
}

// NetworkEntry is the strongest sighting of an access point across active nodes
type NetworkEntry struct {
	AccessPointID     string    `json:"access_point_id"`
	DisplayName       string    `json:"display_name"`
	Band              rssi.Band `json:"band"`
	SignalStrengthDbm float64   `json:"signal_strength_dbm"`
	SignalPercent     int       `json:"signal_percent"`
	SourceNodeID      string    `json:"source_node_id"`
}
