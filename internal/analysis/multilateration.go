package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/rssi"
	"github.com/jengzang/wifi-coverage-go/internal/spatial"
	"github.com/jengzang/wifi-coverage-go/internal/stats"
)

// degenerateDet is the determinant below which three anchors are treated as collinear
const degenerateDet = 1e-6

// Engine estimates access point positions from one anchor assignment and the
// anchors' latest readings. It is built per query and holds no state between queries.
type Engine struct {
	grid    spatial.Grid
	anchors models.AnchorAssignment
	best    []map[string]models.SensorReading // per anchor: strongest usable reading per AP
}

// NewEngine indexes the anchors' readings. nodes must contain the state of
// every anchor; missing anchors contribute nothing.
func NewEngine(grid spatial.Grid, anchors models.AnchorAssignment, nodes map[string]models.NodeState) *Engine {
	e := &Engine{grid: grid, anchors: anchors, best: make([]map[string]models.SensorReading, len(anchors))}
	for i, a := range anchors {
		e.best[i] = strongestByAP(nodes[a.NodeID].Readings)
	}
	return e
}

// EngineFor snapshots the anchors' readings from src
func EngineFor(src NodeSource, grid spatial.Grid, anchors models.AnchorAssignment) *Engine {
	nodes := make(map[string]models.NodeState, len(anchors))
	for _, a := range anchors {
		if n, ok := src.Node(a.NodeID); ok {
			nodes[a.NodeID] = n
		}
	}
	return NewEngine(grid, anchors, nodes)
}

// Ready reports whether a full set of anchors is available
func (e *Engine) Ready() bool { return len(e.anchors) == MaxAnchors }

// Estimate locates one access point. It returns false unless every anchor
// has a usable reading for it and the anchors are not collinear.
func (e *Engine) Estimate(apID string) (models.AccessPointEstimate, bool) {
	if !e.Ready() {
		return models.AccessPointEstimate{}, false
	}

	var (
		points    [MaxAnchors]models.Position
		distances [MaxAnchors]float64
		signals   = make([]float64, 0, MaxAnchors)
		name      string
		band      = rssi.BandUnknown
	)
	for i, a := range e.anchors {
		r, ok := e.best[i][apID]
		if !ok {
			return models.AccessPointEstimate{}, false
		}
		dbm, _ := r.Signal()
		points[i] = a.Position
		distances[i] = rssi.PositioningDistance(dbm)
		signals = append(signals, dbm)
		if name == "" {
			name = r.DisplayName
		}
		if band == rssi.BandUnknown && r.Band != "" {
			band = r.Band
		}
	}

	pos, ok := Trilaterate(points, distances)
	if !ok {
		return models.AccessPointEstimate{}, false
	}
	pos = e.grid.Clamp(pos)
	center := e.grid.Center()

	fitted := make([]float64, MaxAnchors)
	for i, p := range points {
		fitted[i] = spatial.Distance(p, pos)
	}
	residual := stats.RMSE(distances[:], fitted)
	if !isFinite(residual) {
		residual = rssi.MaxDistance
	}

	return models.AccessPointEstimate{
		AccessPointID:         apID,
		DisplayName:           name,
		Band:                  band,
		X:                     pos.X,
		Y:                     pos.Y,
		DistanceFromCenter:    spatial.Distance(center, pos),
		BearingFromCenter:     spatial.PlanarBearing(center, pos),
		AverageSignalStrength: stat.Mean(signals, nil),
		ResidualRMSE:          residual,
	}, true
}

// EstimateAll locates every access point seen by any anchor, ordered by
// ascending distance from the grid centre
func (e *Engine) EstimateAll() []models.AccessPointEstimate {
	if !e.Ready() {
		return []models.AccessPointEstimate{}
	}

	seen := make(map[string]struct{})
	for _, m := range e.best {
		for id := range m {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.AccessPointEstimate, 0, len(ids))
	for _, id := range ids {
		if est, ok := e.Estimate(id); ok {
			out = append(out, est)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceFromCenter < out[j].DistanceFromCenter })
	return out
}

// Trilaterate solves for the point at the given distances from three points
// by linearising the circle equations and applying Cramer's rule. It returns
// false when the points are (nearly) collinear or the distances are too
// large to square without overflow.
func Trilaterate(p [MaxAnchors]models.Position, d [MaxAnchors]float64) (models.Position, bool) {
	x1, y1 := p[0].X, p[0].Y
	x2, y2 := p[1].X, p[1].Y
	x3, y3 := p[2].X, p[2].Y

	a := 2 * (x2 - x1)
	b := 2 * (y2 - y1)
	c := d[0]*d[0] - d[1]*d[1] - x1*x1 + x2*x2 - y1*y1 + y2*y2
	dd := 2 * (x3 - x1)
	ee := 2 * (y3 - y1)
	f := d[0]*d[0] - d[2]*d[2] - x1*x1 + x3*x3 - y1*y1 + y3*y3

	det := a*ee - b*dd
	if math.Abs(det) < degenerateDet || math.IsNaN(det) {
		return models.Position{}, false
	}
	pos := models.Position{
		X: (c*ee - b*f) / det,
		Y: (a*f - c*dd) / det,
	}
	if !isFinite(pos.X) || !isFinite(pos.Y) {
		return models.Position{}, false
	}
	return pos, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func strongestByAP(readings []models.SensorReading) map[string]models.SensorReading {
	out := make(map[string]models.SensorReading)
	for _, r := range readings {
		if r.AccessPointID == "" {
			continue
		}
		v, ok := r.Signal()
		if !ok {
			continue
		}
		if cur, exists := out[r.AccessPointID]; exists {
			if cv, _ := cur.Signal(); cv >= v {
				continue
			}
		}
		out[r.AccessPointID] = r
	}
	return out
}
