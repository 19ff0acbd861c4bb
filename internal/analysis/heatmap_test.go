package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/spatial"
)

func TestInfluenceRadius(t *testing.T) {
	tests := []struct {
		dist, cell float64
		want       int
	}{
		{0, 1, 2},
		{10, 1, 6},
		{10, 4, 2}, // 6 m / 4 m rounds up
		{0, 5, 1},  // never below one cell
		{25, 1, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InfluenceRadius(tt.dist, tt.cell), "dist=%v cell=%v", tt.dist, tt.cell)
	}
}

func TestAggregateEmpty(t *testing.T) {
	grid := spatial.MustGrid(30, 20, 1)
	cov, mask := Aggregate(grid, nil)

	assert.Equal(t, 30, cov.Cols)
	assert.Equal(t, 20, cov.Rows)
	require.Len(t, cov.Intensity, 20)
	require.Len(t, mask, 20)
	for r := range cov.Intensity {
		require.Len(t, cov.Intensity[r], 30)
		for c := range cov.Intensity[r] {
			assert.Zero(t, cov.Intensity[r][c])
			assert.True(t, mask[r][c])
		}
	}
	assert.Equal(t, 1.0, DeadzoneRatio(mask))
}

func TestAggregateSingleEstimate(t *testing.T) {
	grid := spatial.MustGrid(30, 30, 1)
	est := []models.AccessPointEstimate{{AccessPointID: "ap", X: 15.5, Y: 15.5, DistanceFromCenter: 0.7}}
	cov, mask := Aggregate(grid, est)

	// radius 2: the centre gets 1, orthogonal neighbours 0.5, the ring at 2 gets nothing
	assert.InDelta(t, 1.0, cov.Intensity[15][15], 1e-9)
	assert.InDelta(t, 0.5, cov.Intensity[15][16], 1e-9)
	assert.InDelta(t, 0.5, cov.Intensity[14][15], 1e-9)
	assert.Zero(t, cov.Intensity[15][17])
	assert.Zero(t, cov.Intensity[0][0])

	covered := 0
	for r := range mask {
		for c := range mask[r] {
			if !mask[r][c] {
				covered++
			}
		}
	}
	// centre, four at distance 1, four diagonals at sqrt(2)
	assert.Equal(t, 9, covered)
}

func TestAggregateSumsOverlaps(t *testing.T) {
	grid := spatial.MustGrid(30, 30, 1)
	est := []models.AccessPointEstimate{
		{AccessPointID: "a", X: 15, Y: 15},
		{AccessPointID: "b", X: 15, Y: 15},
	}
	cov, _ := Aggregate(grid, est)
	assert.InDelta(t, 2.0, cov.Intensity[15][15], 1e-9)
}

func TestAggregateEdgeEstimate(t *testing.T) {
	grid := spatial.MustGrid(10, 10, 1)
	est := []models.AccessPointEstimate{{AccessPointID: "corner", X: 10, Y: 10, DistanceFromCenter: 7.07}}
	cov, mask := Aggregate(grid, est)

	// radius round(4.24) = 4 from cell (9,9)
	assert.InDelta(t, 1.0, cov.Intensity[9][9], 1e-9)
	assert.InDelta(t, 0.75, cov.Intensity[9][8], 1e-9)
	assert.Zero(t, cov.Intensity[5][9])
	assert.True(t, mask[0][0])
	assert.False(t, mask[9][9])
}
