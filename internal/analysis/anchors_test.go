package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/registry"
	"github.com/jengzang/wifi-coverage-go/internal/spatial"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func pos(x, y float64) *models.Position { return &models.Position{X: x, Y: y} }

func TestDefaultAnchorPositions(t *testing.T) {
	grid := spatial.MustGrid(30, 20, 1)
	defs := DefaultAnchorPositions(grid)
	require.Len(t, defs, 3)
	for _, p := range defs {
		assert.InDelta(t, 6, spatial.Distance(grid.Center(), p), 1e-9)
	}
	assert.InDelta(t, 21, defs[0].X, 1e-9)
	assert.InDelta(t, 10, defs[0].Y, 1e-9)
}

func TestAssignAnchorsPrefersFixed(t *testing.T) {
	grid := spatial.MustGrid(30, 30, 1)
	nodes := []models.NodeState{
		{NodeID: "e"},
		{NodeID: "d", FixedPosition: pos(2, 2)},
		{NodeID: "c"},
		{NodeID: "b", FixedPosition: pos(28, 2)},
		{NodeID: "a"},
	}
	got := AssignAnchors(nodes, grid)
	require.Len(t, got, 3)

	assert.Equal(t, "b", got[0].NodeID)
	assert.True(t, got[0].Fixed)
	assert.Equal(t, "d", got[1].NodeID)
	assert.True(t, got[1].Fixed)

	// the first node without a position takes the default at slot 2
	assert.Equal(t, "a", got[2].NodeID)
	assert.False(t, got[2].Fixed)
	defs := DefaultAnchorPositions(grid)
	assert.InDelta(t, defs[2].X, got[2].Position.X, 1e-9)
	assert.InDelta(t, defs[2].Y, got[2].Position.Y, 1e-9)
}

func TestAssignAnchorsAllDefaults(t *testing.T) {
	grid := spatial.MustGrid(30, 30, 1)
	got := AssignAnchors([]models.NodeState{{NodeID: "z"}, {NodeID: "m"}, {NodeID: "k"}, {NodeID: "q"}}, grid)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"k", "m", "q"}, []string{got[0].NodeID, got[1].NodeID, got[2].NodeID})

	defs := DefaultAnchorPositions(grid)
	for i := range got {
		assert.InDelta(t, defs[i].X, got[i].Position.X, 1e-9)
		assert.InDelta(t, defs[i].Y, got[i].Position.Y, 1e-9)
	}
}

func TestAssignAnchorsCapsFixed(t *testing.T) {
	grid := spatial.MustGrid(30, 30, 1)
	nodes := []models.NodeState{
		{NodeID: "a", FixedPosition: pos(1, 1)},
		{NodeID: "b", FixedPosition: pos(2, 2)},
		{NodeID: "c", FixedPosition: pos(3, 3)},
		{NodeID: "d", FixedPosition: pos(4, 4)},
	}
	got := AssignAnchors(nodes, grid)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[2].NodeID)
}

func TestResolveAnchorsUsesActiveNodesOnly(t *testing.T) {
	grid := spatial.MustGrid(30, 30, 1)
	reg := registry.New(grid)
	reg.Submit(models.NodeSubmission{NodeID: "stale", Position: pos(1, 1)}, t0)
	reg.Submit(models.NodeSubmission{NodeID: "live"}, t0.Add(30*time.Second))

	got := ResolveAnchors(reg, grid, t0.Add(31*time.Second))
	require.Len(t, got, 1)
	assert.Equal(t, "live", got[0].NodeID)
	assert.Len(t, got.Positions(), 1)

	assert.Empty(t, ResolveAnchors(reg, grid, t0.Add(time.Hour)))
}
