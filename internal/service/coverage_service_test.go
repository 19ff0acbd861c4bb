package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/wifi-coverage-go/internal/metrics"
	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/publish"
	"github.com/jengzang/wifi-coverage-go/internal/registry"
	"github.com/jengzang/wifi-coverage-go/internal/rssi"
	"github.com/jengzang/wifi-coverage-go/internal/spatial"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type memScanStore struct {
	saved   []models.NodeState
	loadErr error
	saveErr error
}

func (m *memScanStore) Save(_ context.Context, s models.NodeState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, s)
	return nil
}

func (m *memScanStore) LoadAll(context.Context) ([]models.NodeState, error) {
	return m.saved, m.loadErr
}

type recordingPublisher struct {
	events []publish.SubmissionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev publish.SubmissionEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var (
	start  = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	quiet  = slog.New(slog.NewTextHandler(io.Discard, nil))
	anchor = map[string]models.Position{
		"node-a": {X: 5, Y: 5},
		"node-b": {X: 25, Y: 5},
		"node-c": {X: 15, Y: 25},
	}
)

func newTestService(t *testing.T, opts ...Option) (*CoverageService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: start}
	grid := spatial.MustGrid(30, 30, 1)
	opts = append([]Option{WithClock(clock.Now), WithLogger(quiet)}, opts...)
	return NewCoverageService(registry.New(grid), grid, opts...), clock
}

// submitSurvey reports ideal readings for the given APs from the three fixed nodes
func submitSurvey(t *testing.T, s *CoverageService, aps map[string]models.Position) {
	t.Helper()
	for id, p := range anchor {
		var readings []models.SensorReading
		for ap, truth := range aps {
			readings = append(readings, models.SensorReading{
				AccessPointID:     ap,
				SignalStrengthDbm: models.Dbm(rssi.Positioning.RSSI(spatial.Distance(p, truth))),
				Band:              rssi.Band24GHz,
				DisplayName:       "net-" + ap,
			})
		}
		pos := p
		_, err := s.Submit(context.Background(), models.NodeSubmission{NodeID: id, Readings: readings, Position: &pos})
		require.NoError(t, err)
	}
}

func TestSubmitRejectsMissingNodeID(t *testing.T) {
	m := metrics.New()
	s, _ := newTestService(t, WithMetrics(m))
	_, err := s.Submit(context.Background(), models.NodeSubmission{})
	assert.ErrorIs(t, err, ErrInvalidSubmission)
}

func TestAccessPointsLocatesAPs(t *testing.T) {
	s, _ := newTestService(t)
	submitSurvey(t, s, map[string]models.Position{
		"ap-1": {X: 12, Y: 14},
		"ap-2": {X: 20, Y: 8},
	})

	res := s.AccessPoints()
	assert.True(t, res.EnoughAnchors)
	assert.Equal(t, []string{"node-a", "node-b", "node-c"}, res.ActiveNodeIDs)
	assert.Equal(t, anchor, res.AnchorAssignment)
	assert.Equal(t, 30.0, res.Grid.Width)

	require.Len(t, res.Estimates, 2)
	// ap-1 is nearer the centre
	assert.Equal(t, "ap-1", res.Estimates[0].AccessPointID)
	assert.InDelta(t, 12, res.Estimates[0].X, 1e-6)
	assert.InDelta(t, 14, res.Estimates[0].Y, 1e-6)
	assert.Equal(t, "net-ap-1", res.Estimates[0].DisplayName)
	assert.Nil(t, res.Estimates[0].Latitude)
}

func TestCoverageWithOneNode(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Submit(context.Background(), models.NodeSubmission{
		NodeID:   "solo",
		Readings: []models.SensorReading{{AccessPointID: "ap", SignalStrengthDbm: models.Dbm(-50)}},
	})
	require.NoError(t, err)

	res := s.Coverage()
	assert.False(t, res.Meta.EnoughAnchors)
	assert.Len(t, res.Meta.AnchorAssignment, 1)
	assert.Empty(t, res.Estimates)
	require.Len(t, res.Heatmap, 30)
	for r := range res.Heatmap {
		for c := range res.Heatmap[r] {
			assert.Zero(t, res.Heatmap[r][c])
			assert.True(t, res.Deadzones[r][c])
		}
	}
	require.Contains(t, res.Nodes, "solo")
}

func TestCoverageWithSurvey(t *testing.T) {
	s, _ := newTestService(t)
	submitSurvey(t, s, map[string]models.Position{"ap": {X: 15.5, Y: 15.5}})

	res := s.Coverage()
	assert.True(t, res.Meta.EnoughAnchors)
	require.Len(t, res.Estimates, 1)
	assert.InDelta(t, 1.0, res.Heatmap[15][15], 1e-6)
	assert.False(t, res.Deadzones[15][15])
	assert.True(t, res.Deadzones[0][0])
	assert.Equal(t, models.Cell{Col: 5, Row: 5}, res.Nodes["node-a"])
	assert.Equal(t, models.Cell{Col: 15, Row: 25}, res.Nodes["node-c"])

	assert.Greater(t, res.Meta.DeadzoneRatio, 0.0)
	assert.Less(t, res.Meta.DeadzoneRatio, 1.0)
	assert.Equal(t, 900, res.Meta.Intensity.Count)
	assert.InDelta(t, 1.0, res.Meta.Intensity.Max, 1e-6)
	assert.Equal(t, 0.0, res.Meta.Intensity.Min)
}

func TestNodesExpire(t *testing.T) {
	s, clock := newTestService(t)
	submitSurvey(t, s, map[string]models.Position{"ap": {X: 10, Y: 10}})

	clock.Advance(10 * time.Second)
	assert.Len(t, s.AccessPoints().Estimates, 1)

	clock.Advance(time.Millisecond)
	res := s.AccessPoints()
	assert.False(t, res.EnoughAnchors)
	assert.Empty(t, res.ActiveNodeIDs)
	assert.Empty(t, res.Estimates)

	// inactive nodes still feed the distance/strength view
	assert.Len(t, s.DistanceStrength(), 3)
	for _, n := range s.Nodes() {
		assert.False(t, n.Active)
	}
}

func TestDistanceStrengthSorted(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Submit(context.Background(), models.NodeSubmission{
		NodeID: "n1",
		Readings: []models.SensorReading{
			{AccessPointID: "weak", SignalStrengthDbm: models.Dbm(-80), Band: rssi.Band5GHz},
			{AccessPointID: "none"},
			{AccessPointID: "strong", SignalStrengthDbm: models.Dbm(-40), Band: rssi.Band24GHz},
		},
	})
	require.NoError(t, err)

	pts := s.DistanceStrength()
	require.Len(t, pts, 2)
	assert.Equal(t, "strong", pts[0].AccessPointID)
	assert.InDelta(t, 1.0, pts[0].Distance, 1e-9)
	assert.InDelta(t, rssi.BandDistance(-80, rssi.Band5GHz), pts[1].Distance, 1e-9)
	assert.Equal(t, "n1", pts[1].NodeID)
}

func TestNetworksKeepsStrongest(t *testing.T) {
	s, clock := newTestService(t)
	ctx := context.Background()
	_, err := s.Submit(ctx, models.NodeSubmission{NodeID: "n1", Readings: []models.SensorReading{
		{AccessPointID: "ap-x", SignalStrengthDbm: models.Dbm(-70), DisplayName: "x"},
		{AccessPointID: "ap-y", SignalStrengthDbm: models.Dbm(-50), DisplayName: "y"},
	}})
	require.NoError(t, err)
	_, err = s.Submit(ctx, models.NodeSubmission{NodeID: "n2", Readings: []models.SensorReading{
		{AccessPointID: "ap-x", SignalStrengthDbm: models.Dbm(-45), DisplayName: "x"},
	}})
	require.NoError(t, err)

	got := s.Networks()
	require.Len(t, got, 2)
	assert.Equal(t, "ap-x", got[0].AccessPointID)
	assert.Equal(t, "n2", got[0].SourceNodeID)
	assert.Equal(t, 100, got[0].SignalPercent)
	assert.Equal(t, "n1", got[1].SourceNodeID)

	clock.Advance(time.Minute)
	assert.Empty(t, s.Networks())
}

func TestSubmitPersistsAndPublishes(t *testing.T) {
	store := &memScanStore{}
	pub := &recordingPublisher{}
	s, _ := newTestService(t, WithScanStore(store), WithPublisher(pub))

	_, err := s.Submit(context.Background(), models.NodeSubmission{NodeID: "n1", Position: &models.Position{X: 50, Y: 1}})
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.Equal(t, models.Position{X: 30, Y: 1}, *store.saved[0].FixedPosition)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "n1", pub.events[0].NodeID)
	assert.Equal(t, start, pub.events[0].ReceivedAt)
}

func TestSubmitSurvivesStorageAndPublishFailures(t *testing.T) {
	m := metrics.New()
	store := &memScanStore{saveErr: errors.New("disk full")}
	pub := &recordingPublisher{err: errors.New("broker down")}
	s, _ := newTestService(t, WithScanStore(store), WithPublisher(pub), WithMetrics(m))

	_, err := s.Submit(context.Background(), models.NodeSubmission{NodeID: "n1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, s.AccessPoints().ActiveNodeIDs)
}

func TestRestore(t *testing.T) {
	store := &memScanStore{saved: []models.NodeState{
		{NodeID: "old", LastSeen: start.Add(-time.Hour)},
		{NodeID: "recent", LastSeen: start.Add(-5 * time.Second), FixedPosition: &models.Position{X: 1, Y: 1}},
	}}
	s, _ := newTestService(t, WithScanStore(store))

	n, err := s.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, s.Nodes(), 2)
	assert.Equal(t, []string{"recent"}, s.AccessPoints().ActiveNodeIDs)

	failing, _ := newTestService(t, WithScanStore(&memScanStore{loadErr: errors.New("corrupt")}))
	_, err = failing.Restore(context.Background())
	assert.Error(t, err)
}

func TestGeoJSON(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.GeoJSON()
	assert.ErrorIs(t, err, ErrNotGeoReferenced)

	geo, _ := newTestService(t, WithGeoReference(52.52, 13.405))
	submitSurvey(t, geo, map[string]models.Position{"ap": {X: 18, Y: 12}})

	aps := geo.AccessPoints()
	require.Len(t, aps.Estimates, 1)
	require.NotNil(t, aps.Estimates[0].Latitude)

	fc, err := geo.GeoJSON()
	require.NoError(t, err)
	assert.Len(t, fc.Features, 4)
}

func TestQueriesSurviveExtremeReadings(t *testing.T) {
	s, _ := newTestService(t)
	okAP := models.Position{X: 12, Y: 14}
	for id, p := range anchor {
		pos := p
		_, err := s.Submit(context.Background(), models.NodeSubmission{
			NodeID:   id,
			Position: &pos,
			Readings: []models.SensorReading{
				{AccessPointID: "ap", SignalStrengthDbm: models.Dbm(-4000), Band: rssi.Band24GHz},
				{AccessPointID: "ok", SignalStrengthDbm: models.Dbm(rssi.Positioning.RSSI(spatial.Distance(p, okAP))), Band: rssi.Band24GHz},
			},
		})
		require.NoError(t, err)
	}

	aps := s.AccessPoints()
	require.Len(t, aps.Estimates, 1)
	assert.Equal(t, "ok", aps.Estimates[0].AccessPointID)
	_, err := json.Marshal(aps)
	require.NoError(t, err)

	_, err = json.Marshal(s.Coverage())
	require.NoError(t, err)
	_, err = json.Marshal(s.DistanceStrength())
	require.NoError(t, err)
}
