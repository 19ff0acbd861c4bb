package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/wifi-coverage-go/internal/database"
	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/rssi"
)

// ScanRepository persists the latest submission of every node
type ScanRepository struct {
	db *database.DB
}

// NewScanRepository creates a new scan repository
func NewScanRepository(db *database.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Save replaces the stored state of one node unless a newer one is already stored
func (r *ScanRepository) Save(ctx context.Context, state models.NodeState) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		var x, y sql.NullFloat64
		if state.FixedPosition != nil {
			x = sql.NullFloat64{Float64: state.FixedPosition.X, Valid: true}
			y = sql.NullFloat64{Float64: state.FixedPosition.Y, Valid: true}
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO node_scans (node_id, last_seen_ms, position_x, position_y, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(node_id) DO UPDATE SET
				last_seen_ms = excluded.last_seen_ms,
				position_x = excluded.position_x,
				position_y = excluded.position_y,
				updated_at = CURRENT_TIMESTAMP
			WHERE excluded.last_seen_ms >= node_scans.last_seen_ms`,
			state.NodeID, state.LastSeen.UnixMilli(), x, y)
		if err != nil {
			return fmt.Errorf("failed to upsert node scan: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check node scan upsert: %w", err)
		}
		if n == 0 {
			// a newer submission is already stored
			return nil
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM node_readings WHERE node_id = ?", state.NodeID); err != nil {
			return fmt.Errorf("failed to clear node readings: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO node_readings
			(node_id, seq, access_point_id, signal_strength_dbm, band, display_name)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare reading insert: %w", err)
		}
		defer stmt.Close()

		for i, rd := range state.Readings {
			var dbm sql.NullFloat64
			if v, ok := rd.Signal(); ok {
				dbm = sql.NullFloat64{Float64: v, Valid: true}
			}
			band := rd.Band
			if band == "" {
				band = rssi.BandUnknown
			}
			if _, err := stmt.ExecContext(ctx, state.NodeID, i, rd.AccessPointID, dbm, string(band), rd.DisplayName); err != nil {
				return fmt.Errorf("failed to insert reading: %w", err)
			}
		}
		return nil
	})
}

// LoadAll returns every stored node with its readings in submission order
func (r *ScanRepository) LoadAll(ctx context.Context) ([]models.NodeState, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT node_id, last_seen_ms, position_x, position_y
		FROM node_scans ORDER BY node_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query node scans: %w", err)
	}
	defer rows.Close()

	var nodes []models.NodeState
	index := make(map[string]int)
	for rows.Next() {
		var (
			n      models.NodeState
			seenMs int64
			x, y   sql.NullFloat64
		)
		if err := rows.Scan(&n.NodeID, &seenMs, &x, &y); err != nil {
			return nil, fmt.Errorf("failed to scan node scan: %w", err)
		}
		n.LastSeen = time.UnixMilli(seenMs).UTC()
		if x.Valid && y.Valid {
			n.FixedPosition = &models.Position{X: x.Float64, Y: y.Float64}
		}
		index[n.NodeID] = len(nodes)
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate node scans: %w", err)
	}

	readings, err := r.db.QueryContext(ctx, `SELECT node_id, access_point_id, signal_strength_dbm, band, display_name
		FROM node_readings ORDER BY node_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query node readings: %w", err)
	}
	defer readings.Close()

	for readings.Next() {
		var (
			nodeID string
			rd     models.SensorReading
			dbm    sql.NullFloat64
			band   string
		)
		if err := readings.Scan(&nodeID, &rd.AccessPointID, &dbm, &band, &rd.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan node reading: %w", err)
		}
		if dbm.Valid {
			rd.SignalStrengthDbm = models.Dbm(dbm.Float64)
		}
		rd.Band = rssi.Band(band)
		if i, ok := index[nodeID]; ok {
			nodes[i].Readings = append(nodes[i].Readings, rd)
		}
	}
	if err := readings.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate node readings: %w", err)
	}
	return nodes, nil
}
