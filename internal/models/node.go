package models

import "time"

// NodeState is the registry's latest snapshot of one sensor node
type NodeState struct {
	NodeID        string          `json:"node_id" db:"node_id"`
	LastSeen      time.Time       `json:"last_seen" db:"last_seen"`
	Readings      []SensorReading `json:"readings"`
	FixedPosition *Position       `json:"fixed_position,omitempty"`
}

// Clone returns a deep copy so callers never share the registry's slices
func (n NodeState) Clone() NodeState {
	out := n
	out.Readings = append([]SensorReading(nil), n.Readings...)
	for i, r := range out.Readings {
		if r.SignalStrengthDbm != nil {
			out.Readings[i].SignalStrengthDbm = Dbm(*r.SignalStrengthDbm)
		}
	}
	if n.FixedPosition != nil {
		p := *n.FixedPosition
		out.FixedPosition = &p
	}
	return out
}

// NodeSummary is the listing form of a node
type NodeSummary struct {
	NodeID        string    `json:"node_id"`
	LastSeen      time.Time `json:"last_seen"`
	Active        bool      `json:"active"`
	ReadingCount  int       `json:"reading_count"`
	FixedPosition *Position `json:"fixed_position,omitempty"`
}

// Anchor is a node acting as a multilateration reference
type Anchor struct {
	NodeID   string   `json:"node_id"`
	Position Position `json:"position"`
	Fixed    bool     `json:"fixed"` // false when a default position was assigned
}

// AnchorAssignment holds at most three anchors in resolution order
type AnchorAssignment []Anchor

// Positions returns the assignment as node id -> position
func (a AnchorAssignment) Positions() map[string]Position {
	out := make(map[string]Position, len(a))
	for _, anc := range a {
		out[anc.NodeID] = anc.Position
	}
	return out
}
