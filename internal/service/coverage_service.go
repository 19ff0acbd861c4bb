package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/jengzang/wifi-coverage-go/internal/analysis"
	"github.com/jengzang/wifi-coverage-go/internal/metrics"
	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/publish"
	"github.com/jengzang/wifi-coverage-go/internal/registry"
	"github.com/jengzang/wifi-coverage-go/internal/rssi"
	"github.com/jengzang/wifi-coverage-go/internal/spatial"
	"github.com/jengzang/wifi-coverage-go/internal/stats"
)

var (
	// ErrInvalidSubmission is returned for submissions without a node id
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrNotGeoReferenced is returned when no site origin is configured
	ErrNotGeoReferenced = errors.New("site origin not configured")
	// ErrInvalidSnapshotID is returned for ids that are not UUIDs
	ErrInvalidSnapshotID = errors.New("invalid snapshot id")
)

// ScanStore persists node submissions
type ScanStore interface {
	Save(ctx context.Context, state models.NodeState) error
	LoadAll(ctx context.Context) ([]models.NodeState, error)
}

// CoverageService owns the node registry and answers coverage queries
type CoverageService struct {
	reg       *registry.Registry
	grid      spatial.Grid
	geo       *spatial.GeoReference
	scans     ScanStore
	publisher publish.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a CoverageService
type Option func(*CoverageService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *CoverageService) { s.now = now }
}

// WithScanStore persists every accepted submission
func WithScanStore(store ScanStore) Option {
	return func(s *CoverageService) { s.scans = store }
}

// WithPublisher emits an event for every accepted submission
func WithPublisher(p publish.Publisher) Option {
	return func(s *CoverageService) { s.publisher = p }
}

// WithMetrics records query and submission metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *CoverageService) { s.metrics = m }
}

// WithLogger sets the service logger
func WithLogger(l *slog.Logger) Option {
	return func(s *CoverageService) { s.logger = l }
}

// WithGeoReference pins the grid centre to a latitude/longitude
func WithGeoReference(lat, lon float64) Option {
	return func(s *CoverageService) {
		s.geo = &spatial.GeoReference{Grid: s.grid, OriginLat: lat, OriginLon: lon}
	}
}

// NewCoverageService creates a service over reg for the given grid
func NewCoverageService(reg *registry.Registry, grid spatial.Grid, opts ...Option) *CoverageService {
	s := &CoverageService{
		reg:       reg,
		grid:      grid,
		publisher: publish.Nop{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "coverage"))
	return s
}

// Grid returns the surveyed area
func (s *CoverageService) Grid() spatial.Grid { return s.grid }

// Restore loads persisted node state into the registry
func (s *CoverageService) Restore(ctx context.Context) (int, error) {
	if s.scans == nil {
		return 0, nil
	}
	nodes, err := s.scans.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to restore nodes: %w", err)
	}
	for _, n := range nodes {
		s.reg.Restore(n)
	}
	s.logger.Info("restored node state", slog.Int("nodes", len(nodes)))
	return len(nodes), nil
}

// Submit records a node submission. Persistence and publication failures
// are logged and do not fail the submission.
func (s *CoverageService) Submit(ctx context.Context, sub models.NodeSubmission) (models.NodeState, error) {
	if sub.NodeID == "" {
		s.countRejected()
		return models.NodeState{}, fmt.Errorf("%w: missing node id", ErrInvalidSubmission)
	}

	now := s.now()
	state := s.reg.Submit(sub, now)
	if s.metrics != nil {
		s.metrics.SubmissionAccepted()
	}
	s.logger.Debug("submission accepted",
		slog.String("node_id", sub.NodeID),
		slog.Int("readings", len(sub.Readings)),
		slog.Bool("fixed_position", state.FixedPosition != nil))

	if s.scans != nil {
		if err := s.scans.Save(ctx, state); err != nil {
			s.logger.Error("failed to persist submission", slog.String("node_id", sub.NodeID), slog.Any("error", err))
			if s.metrics != nil {
				s.metrics.StorageError("save_scan")
			}
		}
	}

	ev := publish.SubmissionEvent{NodeID: sub.NodeID, ReceivedAt: now, Position: state.FixedPosition, Readings: state.Readings}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish submission", slog.String("node_id", sub.NodeID), slog.Any("error", err))
		if s.metrics != nil {
			s.metrics.PublishError()
		}
	}
	return state, nil
}

func (s *CoverageService) countRejected() {
	if s.metrics != nil {
		s.metrics.SubmissionRejected()
	}
}

// RejectSubmission counts a submission refused before reaching the service
func (s *CoverageService) RejectSubmission() { s.countRejected() }

// snapshot is one consistent pass over the registry
type snapshot struct {
	active    []string
	anchors   models.AnchorAssignment
	estimates []models.AccessPointEstimate
}

func (s *CoverageService) compute() snapshot {
	now := s.now()
	anchors := analysis.ResolveAnchors(s.reg, s.grid, now)
	estimates := analysis.EngineFor(s.reg, s.grid, anchors).EstimateAll()
	if s.geo != nil {
		s.geo.Annotate(estimates)
	}
	snap := snapshot{
		active:    s.reg.ActiveNodes(now),
		anchors:   anchors,
		estimates: estimates,
	}
	if s.metrics != nil {
		s.metrics.ObserveQuery(len(snap.active), len(estimates))
	}
	return snap
}

// AccessPoints returns estimated access point positions
func (s *CoverageService) AccessPoints() models.APListResponse {
	snap := s.compute()
	return models.APListResponse{
		EnoughAnchors:    len(snap.anchors) == analysis.MaxAnchors,
		Estimates:        snap.estimates,
		AnchorAssignment: snap.anchors.Positions(),
		ActiveNodeIDs:    snap.active,
		Grid:             s.grid.Info(),
	}
}

// Coverage returns the heatmap, deadzones and the data behind them
func (s *CoverageService) Coverage() models.CoverageResponse {
	snap := s.compute()
	cov, mask := analysis.Aggregate(s.grid, snap.estimates)
	ratio := analysis.DeadzoneRatio(mask)
	if s.metrics != nil {
		s.metrics.ObserveDeadzones(ratio)
	}

	nodes := make(map[string]models.Cell, len(snap.anchors))
	for _, a := range snap.anchors {
		nodes[a.NodeID] = s.grid.CellOf(a.Position)
	}

	return models.CoverageResponse{
		Heatmap:   cov.Intensity,
		Deadzones: mask,
		Nodes:     nodes,
		Estimates: snap.estimates,
		Meta: models.CoverageMeta{
			ActiveNodeIDs:    snap.active,
			AnchorAssignment: snap.anchors.Positions(),
			EnoughAnchors:    len(snap.anchors) == analysis.MaxAnchors,
			DeadzoneRatio:    ratio,
			Intensity:        stats.SummarizeGrid(cov.Intensity),
		},
		Grid: s.grid.Info(),
	}
}

// CoverageGrid returns the aggregated grid and mask with the inputs used,
// for rendering
func (s *CoverageService) CoverageGrid() (models.CoverageGrid, models.DeadzoneMask, []models.AccessPointEstimate, models.AnchorAssignment) {
	snap := s.compute()
	cov, mask := analysis.Aggregate(s.grid, snap.estimates)
	return cov, mask, snap.estimates, snap.anchors
}

// DistanceStrength pairs every usable reading of every known node, active or
// not, with its band-aware distance, nearest first
func (s *CoverageService) DistanceStrength() []models.DistanceStrengthPoint {
	out := []models.DistanceStrengthPoint{}
	for _, n := range s.reg.Nodes() {
		for _, r := range n.Readings {
			dbm, ok := r.Signal()
			if !ok {
				continue
			}
			out = append(out, models.DistanceStrengthPoint{
				Distance:          rssi.BandDistance(dbm, r.Band),
				SignalStrengthDbm: dbm,
				Band:              r.Band,
				DisplayName:       r.DisplayName,
				AccessPointID:     r.AccessPointID,
				NodeID:            n.NodeID,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

// Networks lists each access point seen by an active node once, with its
// strongest reading, strongest first
func (s *CoverageService) Networks() []models.NetworkEntry {
	now := s.now()
	best := make(map[string]models.NetworkEntry)
	for _, id := range s.reg.ActiveNodes(now) {
		n, ok := s.reg.Node(id)
		if !ok {
			continue
		}
		for _, r := range n.Readings {
			dbm, ok := r.Signal()
			if !ok || r.AccessPointID == "" {
				continue
			}
			if cur, seen := best[r.AccessPointID]; seen && cur.SignalStrengthDbm >= dbm {
				continue
			}
			best[r.AccessPointID] = models.NetworkEntry{
				AccessPointID:     r.AccessPointID,
				DisplayName:       r.DisplayName,
				Band:              r.Band,
				SignalStrengthDbm: dbm,
				SignalPercent:     rssi.SignalPercent(dbm),
				SourceNodeID:      id,
			}
		}
	}

	out := make([]models.NetworkEntry, 0, len(best))
	for _, e := range best {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SignalStrengthDbm != out[j].SignalStrengthDbm {
			return out[i].SignalStrengthDbm > out[j].SignalStrengthDbm
		}
		return out[i].AccessPointID < out[j].AccessPointID
	})
	return out
}

// Nodes lists every known node
func (s *CoverageService) Nodes() []models.NodeSummary {
	return s.reg.Summaries(s.now())
}

// GeoJSON exports estimates and anchors with geographic coordinates
func (s *CoverageService) GeoJSON() (*geojson.FeatureCollection, error) {
	if s.geo == nil {
		return nil, ErrNotGeoReferenced
	}
	snap := s.compute()
	return s.geo.FeatureCollection(snap.estimates, snap.anchors), nil
}
