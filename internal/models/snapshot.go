package models

import "time"

// Snapshot is a saved copy of an access point position result
type Snapshot struct {
	ID        string         `json:"id" db:"id"`
	Label     string         `json:"label" db:"label"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	Result    APListResponse `json:"result"`
}

// SnapshotSummary is the listing form of a snapshot
type SnapshotSummary struct {
	ID            string    `json:"id" db:"id"`
	Label         string    `json:"label" db:"label"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	EstimateCount int       `json:"estimate_count" db:"estimate_count"`
}

// CreateSnapshotRequest is the body of a snapshot save
type CreateSnapshotRequest struct {
	Label string `json:"label" binding:"max=200"`
}
