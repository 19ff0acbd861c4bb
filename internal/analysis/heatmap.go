package analysis

import (
	"math"

	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/spatial"
)

const (
	// DeadzoneThreshold is the intensity at or below which a cell is a deadzone
	DeadzoneThreshold = 0.1

	minInfluenceMeters = 2.0
	influencePerMeter  = 0.6
)

// InfluenceRadius is the number of cells an access point's signal spreads
// over; farther access points from the centre spread wider
func InfluenceRadius(distanceFromCenter, cellSize float64) int {
	meters := math.Max(minInfluenceMeters, influencePerMeter*distanceFromCenter)
	return max(1, int(math.Round(meters/cellSize)))
}

// Aggregate spreads each estimate's influence over the grid and flags deadzones.
// With no estimates every cell is zero and every cell is a deadzone.
func Aggregate(grid spatial.Grid, estimates []models.AccessPointEstimate) (models.CoverageGrid, models.DeadzoneMask) {
	cols, rows := grid.Cols(), grid.Rows()
	cov := models.CoverageGrid{
		Cols:      cols,
		Rows:      rows,
		CellSize:  grid.CellSize(),
		Intensity: make([][]float64, rows),
	}
	for r := range cov.Intensity {
		cov.Intensity[r] = make([]float64, cols)
	}

	for _, e := range estimates {
		cell := grid.CellOf(models.Position{X: e.X, Y: e.Y})
		radius := InfluenceRadius(e.DistanceFromCenter, grid.CellSize())
		rf := float64(radius)

		for r := max(0, cell.Row-radius); r <= min(rows-1, cell.Row+radius); r++ {
			for c := max(0, cell.Col-radius); c <= min(cols-1, cell.Col+radius); c++ {
				d := math.Hypot(float64(c-cell.Col), float64(r-cell.Row))
				if d > rf {
					continue
				}
				cov.Intensity[r][c] += math.Max(0, 1-d/rf)
			}
		}
	}

	mask := make(models.DeadzoneMask, rows)
	for r := range mask {
		mask[r] = make([]bool, cols)
		for c := range mask[r] {
			mask[r][c] = cov.Intensity[r][c] <= DeadzoneThreshold
		}
	}
	return cov, mask
}

// DeadzoneRatio is the share of cells flagged as deadzones
func DeadzoneRatio(mask models.DeadzoneMask) float64 {
	var total, dead int
	for _, row := range mask {
		for _, v := range row {
			total++
			if v {
				dead++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(dead) / float64(total)
}
