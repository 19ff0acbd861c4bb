package spatial

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"

	"github.com/jengzang/wifi-coverage-go/internal/models"
)

// ErrInvalidGrid is returned for grids with non-positive or non-finite
// dimensions, or more than MaxCells cells
var ErrInvalidGrid = errors.New("spatial: invalid grid dimensions")

// MaxCells bounds cols*rows so every query allocates a small grid
const MaxCells = 250_000

// Grid is the bounded survey area with its origin at (0,0)
type Grid struct {
	bounds   r2.Rect
	cellSize float64
}

// NewGrid creates a width x height grid divided into square cells
func NewGrid(width, height, cellSize float64) (Grid, error) {
	if !ValidDimensions(width, height, cellSize) {
		return Grid{}, ErrInvalidGrid
	}
	return Grid{
		bounds:   r2.RectFromPoints(r2.Point{X: 0, Y: 0}, r2.Point{X: width, Y: height}),
		cellSize: cellSize,
	}, nil
}

// ValidDimensions reports whether a grid of these dimensions is finite,
// holds at least one cell and at most MaxCells
func ValidDimensions(width, height, cellSize float64) bool {
	for _, v := range []float64{width, height, cellSize} {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	if cellSize > width || cellSize > height {
		return false
	}
	return math.Floor(width/cellSize)*math.Floor(height/cellSize) <= MaxCells
}

// MustGrid is NewGrid for static configuration; it panics on invalid input
func MustGrid(width, height, cellSize float64) Grid {
	g, err := NewGrid(width, height, cellSize)
	if err != nil {
		panic(err)
	}
	return g
}

func (g Grid) Width() float64    { return g.bounds.X.Length() }
func (g Grid) Height() float64   { return g.bounds.Y.Length() }
func (g Grid) CellSize() float64 { return g.cellSize }

// Cols is the number of whole cells across the width
func (g Grid) Cols() int { return int(g.Width() / g.cellSize) }

// Rows is the number of whole cells across the height
func (g Grid) Rows() int { return int(g.Height() / g.cellSize) }

// Center returns the centre of the area
func (g Grid) Center() models.Position {
	return fromR2(g.bounds.Center())
}

// Clamp moves a position onto the nearest point inside the area.
// NaN coordinates are treated as 0.
func (g Grid) Clamp(p models.Position) models.Position {
	if math.IsNaN(p.X) {
		p.X = 0
	}
	if math.IsNaN(p.Y) {
		p.Y = 0
	}
	return fromR2(g.bounds.ClampPoint(toR2(p)))
}

// Contains reports whether p lies inside the area, edges included
func (g Grid) Contains(p models.Position) bool {
	return g.bounds.ContainsPoint(toR2(p))
}

// CellOf returns the cell containing p after clamping it into the grid
func (g Grid) CellOf(p models.Position) models.Cell {
	p = g.Clamp(p)
	return models.Cell{
		Col: clampIndex(int(math.Floor(p.X/g.cellSize)), g.Cols()),
		Row: clampIndex(int(math.Floor(p.Y/g.cellSize)), g.Rows()),
	}
}

// Info returns the JSON description of the grid
func (g Grid) Info() models.GridInfo {
	return models.GridInfo{
		Width:    g.Width(),
		Height:   g.Height(),
		CellSize: g.cellSize,
		Cols:     g.Cols(),
		Rows:     g.Rows(),
	}
}

// Ring returns n points evenly spaced on a circle, starting on the +x axis
func Ring(center models.Position, radius float64, n int) []models.Position {
	out := make([]models.Position, n)
	for i := range out {
		angle := 2 * math.Pi * float64(i) / float64(n)
		out[i] = models.Position{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
		}
	}
	return out
}

// Distance is the planar distance between two positions
func Distance(a, b models.Position) float64 {
	return toR2(b).Sub(toR2(a)).Norm()
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

func toR2(p models.Position) r2.Point   { return r2.Point{X: p.X, Y: p.Y} }
func fromR2(p r2.Point) models.Position { return models.Position{X: p.X, Y: p.Y} }
