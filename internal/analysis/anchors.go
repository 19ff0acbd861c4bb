// Package analysis turns node readings into access point positions and a
// coverage map.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/spatial"
)

// MaxAnchors is the number of reference nodes multilateration uses
const MaxAnchors = 3

// defaultRingFactor scales min(width, height) into the default anchor radius
const defaultRingFactor = 0.3

// NodeSource is the read side of the node registry
type NodeSource interface {
	ActiveNodes(now time.Time) []string
	Node(id string) (models.NodeState, bool)
}

// DefaultAnchorPositions returns the three positions given to nodes that
// never reported one, evenly spaced around the grid centre
func DefaultAnchorPositions(grid spatial.Grid) []models.Position {
	radius := defaultRingFactor * math.Min(grid.Width(), grid.Height())
	return spatial.Ring(grid.Center(), radius, MaxAnchors)
}

// ResolveAnchors picks up to three active nodes as references
func ResolveAnchors(src NodeSource, grid spatial.Grid, now time.Time) models.AnchorAssignment {
	ids := src.ActiveNodes(now)
	nodes := make([]models.NodeState, 0, len(ids))
	for _, id := range ids {
		if n, ok := src.Node(id); ok {
			nodes = append(nodes, n)
		}
	}
	return AssignAnchors(nodes, grid)
}

// AssignAnchors orders nodes by id, takes those with a fixed position first,
// then fills the remaining slots with default positions. The default used is
// the one at the slot's index, so a node's default depends on how many fixed
// nodes came before it.
func AssignAnchors(nodes []models.NodeState, grid spatial.Grid) models.AnchorAssignment {
	sorted := append([]models.NodeState(nil), nodes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].NodeID < sorted[j].NodeID })

	out := make(models.AnchorAssignment, 0, MaxAnchors)
	for _, n := range sorted {
		if len(out) == MaxAnchors {
			return out
		}
		if n.FixedPosition != nil {
			out = append(out, models.Anchor{NodeID: n.NodeID, Position: grid.Clamp(*n.FixedPosition), Fixed: true})
		}
	}

	defaults := DefaultAnchorPositions(grid)
	for _, n := range sorted {
		if len(out) == MaxAnchors {
			break
		}
		if n.FixedPosition == nil {
			out = append(out, models.Anchor{NodeID: n.NodeID, Position: grid.Clamp(defaults[len(out)])})
		}
	}
	return out
}
