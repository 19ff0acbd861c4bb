package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/wifi-coverage-go/internal/database"
	"github.com/jengzang/wifi-coverage-go/internal/models"
)

// ErrSnapshotNotFound is returned when no snapshot has the requested id
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotRepository stores saved access point results
type SnapshotRepository struct {
	db *database.DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *database.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create stores a snapshot
func (r *SnapshotRepository) Create(ctx context.Context, s models.Snapshot) error {
	body, err := json.Marshal(s.Result)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO coverage_snapshots (id, label, created_at_ms, estimate_count, result_json)
		VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Label, s.CreatedAt.UnixMilli(), len(s.Result.Estimates), string(body))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// List returns the newest snapshots first
func (r *SnapshotRepository) List(ctx context.Context, limit int) ([]models.SnapshotSummary, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, label, created_at_ms, estimate_count
		FROM coverage_snapshots ORDER BY created_at_ms DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	out := []models.SnapshotSummary{}
	for rows.Next() {
		var (
			s  models.SnapshotSummary
			ms int64
		)
		if err := rows.Scan(&s.ID, &s.Label, &ms, &s.EstimateCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return out, nil
}

// Get returns one snapshot by id
func (r *SnapshotRepository) Get(ctx context.Context, id string) (*models.Snapshot, error) {
	var (
		s    models.Snapshot
		ms   int64
		body string
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, label, created_at_ms, result_json
		FROM coverage_snapshots WHERE id = ?`, id).Scan(&s.ID, &s.Label, &ms, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	s.CreatedAt = time.UnixMilli(ms).UTC()
	if err := json.Unmarshal([]byte(body), &s.Result); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}
