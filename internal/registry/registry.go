// Package registry keeps the latest submission of every sensor node.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/spatial"
)

// DefaultLivenessWindow is how long a node stays active after its last submission
const DefaultLivenessWindow = 10 * time.Second

// Registry holds one NodeState per node id. Each submission replaces a
// node's record atomically; records are never removed.
type Registry struct {
	mu       sync.RWMutex
	nodes    map[string]models.NodeState
	grid     spatial.Grid
	liveness time.Duration
}

// Option configures a Registry
type Option func(*Registry)

// WithLivenessWindow overrides DefaultLivenessWindow
func WithLivenessWindow(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.liveness = d
		}
	}
}

// New creates an empty registry whose fixed positions are clamped into grid
func New(grid spatial.Grid, opts ...Option) *Registry {
	r := &Registry{
		nodes:    make(map[string]models.NodeState),
		grid:     grid,
		liveness: DefaultLivenessWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LivenessWindow returns the configured activity window
func (r *Registry) LivenessWindow() time.Duration { return r.liveness }

// Submit records a node's readings as of now and returns the stored state.
// A supplied position becomes the node's fixed position; without one the
// previous fixed position is kept. lastSeen never moves backwards.
func (r *Registry) Submit(sub models.NodeSubmission, now time.Time) models.NodeState {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.nodes[sub.NodeID]
	state := models.NodeState{
		NodeID:        sub.NodeID,
		LastSeen:      now,
		Readings:      sub.Readings,
		FixedPosition: prev.FixedPosition,
	}
	if exists && prev.LastSeen.After(now) {
		state.LastSeen = prev.LastSeen
	}
	if sub.Position != nil {
		p := r.grid.Clamp(*sub.Position)
		state.FixedPosition = &p
	}
	state = state.Clone()
	r.nodes[sub.NodeID] = state
	return state.Clone()
}

// Restore seeds a node from persisted state, keeping whichever record is newer
func (r *Registry) Restore(state models.NodeState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.nodes[state.NodeID]; ok && !state.LastSeen.After(cur.LastSeen) {
		return
	}
	if state.FixedPosition != nil {
		p := r.grid.Clamp(*state.FixedPosition)
		state.FixedPosition = &p
	}
	r.nodes[state.NodeID] = state.Clone()
}

// ActiveNodes returns the sorted ids of nodes seen within the liveness
// window of now, boundary included
func (r *Registry) ActiveNodes(now time.Time) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.nodes))
	for id, n := range r.nodes {
		if r.isActive(n, now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Node returns a copy of one node's state
func (r *Registry) Node(id string) (models.NodeState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.nodes[id]
	if !ok {
		return models.NodeState{}, false
	}
	return n.Clone(), true
}

// Nodes returns copies of every node, sorted by id
func (r *Registry) Nodes() []models.NodeState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.NodeState, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// Summaries lists every node with its activity as of now
func (r *Registry) Summaries(now time.Time) []models.NodeSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.NodeSummary, 0, len(r.nodes))
	for _, n := range r.nodes {
		s := models.NodeSummary{
			NodeID:       n.NodeID,
			LastSeen:     n.LastSeen,
			Active:       r.isActive(n, now),
			ReadingCount: len(n.Readings),
		}
		if n.FixedPosition != nil {
			p := *n.FixedPosition
			s.FixedPosition = &p
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

func (r *Registry) isActive(n models.NodeState, now time.Time) bool {
	return now.Sub(n.LastSeen) <= r.liveness
}
