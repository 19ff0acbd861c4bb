package models

import "github.com/jengzang/wifi-coverage-go/internal/stats"

// Cell addresses one grid cell
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// CoverageGrid holds signal intensity per cell, indexed [row][col]
type CoverageGrid struct {
	Cols      int         `json:"cols"`
	Rows      int         `json:"rows"`
	CellSize  float64     `json:"cell_size_meters"`
	Intensity [][]float64 `json:"intensity"`
}

// DeadzoneMask flags cells whose intensity is at or below the deadzone threshold
type DeadzoneMask [][]bool

// GridInfo describes the surveyed area
type GridInfo struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	CellSize float64 `json:"cell_size"`
	Cols     int     `json:"cols"`
	Rows     int     `json:"rows"`
}

// CoverageMeta carries the inputs a coverage map was computed from
type CoverageMeta struct {
	ActiveNodeIDs    []string            `json:"active_node_ids"`
	AnchorAssignment map[string]Position `json:"anchor_assignment"`
	EnoughAnchors    bool                `json:"enough_anchors"`
	DeadzoneRatio    float64             `json:"deadzone_ratio"`
	Intensity        stats.Summary       `json:"intensity_summary"`
}

// CoverageResponse is the heatmap query result
type CoverageResponse struct {
	Heatmap   [][]float64           `json:"heatmap"`
	Deadzones DeadzoneMask          `json:"deadzones"`
	Nodes     map[string]Cell       `json:"nodes"`
	Estimates []AccessPointEstimate `json:"estimates"`
	Meta      CoverageMeta          `json:"meta"`
	Grid      GridInfo              `json:"grid"`
}

// APListResponse is the access point position query result
type APListResponse struct {
	EnoughAnchors    bool                  `json:"enough_anchors"`
	Estimates        []AccessPointEstimate `json:"estimates"`
	AnchorAssignment map[string]Position   `json:"anchor_assignment"`
	ActiveNodeIDs    []string              `json:"active_node_ids"`
	Grid             GridInfo              `json:"grid"`
}
