package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jengzang/wifi-coverage-go/internal/models"
)

// SnapshotStore persists saved results
type SnapshotStore interface {
	Create(ctx context.Context, s models.Snapshot) error
	List(ctx context.Context, limit int) ([]models.SnapshotSummary, error)
	Get(ctx context.Context, id string) (*models.Snapshot, error)
}

// SnapshotService saves copies of the current access point result
type SnapshotService struct {
	coverage *CoverageService
	store    SnapshotStore
	logger   *slog.Logger
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(coverage *CoverageService, store SnapshotStore) *SnapshotService {
	return &SnapshotService{
		coverage: coverage,
		store:    store,
		logger:   coverage.logger.With(slog.String("component", "snapshots")),
	}
}

// Create saves the current access point result under label
func (s *SnapshotService) Create(ctx context.Context, label string) (*models.Snapshot, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = "snapshot"
	}
	snap := models.Snapshot{
		ID:        uuid.NewString(),
		Label:     label,
		CreatedAt: s.coverage.now().UTC(),
		Result:    s.coverage.AccessPoints(),
	}
	if err := s.store.Create(ctx, snap); err != nil {
		if s.coverage.metrics != nil {
			s.coverage.metrics.StorageError("create_snapshot")
		}
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	s.logger.Info("snapshot saved", slog.String("id", snap.ID), slog.Int("estimates", len(snap.Result.Estimates)))
	return &snap, nil
}

// List returns saved snapshots, newest first
func (s *SnapshotService) List(ctx context.Context, limit int) ([]models.SnapshotSummary, error) {
	return s.store.List(ctx, limit)
}

// Get returns one saved snapshot
func (s *SnapshotService) Get(ctx context.Context, id string) (*models.Snapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSnapshotID, id)
	}
	return s.store.Get(ctx, id)
}
