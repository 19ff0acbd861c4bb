package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/rssi"
	"github.com/jengzang/wifi-coverage-go/internal/spatial"
)

// virtualAP is a simulated access point at a fixed location
type virtualAP struct {
	ID       string
	SSID     string
	Band     rssi.Band
	Position models.Position
}

// virtualNode is a simulated sensor node
type virtualNode struct {
	ID       string
	Position models.Position
}

// scenario places nodes on the anchor ring and access points at random
type scenario struct {
	Nodes []virtualNode
	APs   []virtualAP
	Noise float64
	rng   *rand.Rand
}

func newScenario(grid spatial.Grid, nodes, aps int, noise float64, seed uint64) *scenario {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	s := &scenario{Noise: noise, rng: rng}

	ring := spatial.Ring(grid.Center(), 0.3*min(grid.Width(), grid.Height()), max(nodes, 1))
	for i := 0; i < nodes; i++ {
		s.Nodes = append(s.Nodes, virtualNode{
			ID:       fmt.Sprintf("sim-node-%d", i+1),
			Position: grid.Clamp(ring[i]),
		})
	}

	for i := 0; i < aps; i++ {
		band := rssi.Band24GHz
		if i%2 == 1 {
			band = rssi.Band5GHz
		}
		s.APs = append(s.APs, virtualAP{
			ID:   fmt.Sprintf("02:00:00:00:%02x:%02x", i/256, i%256),
			SSID: fmt.Sprintf("sim-ap-%d", i+1),
			Band: band,
			Position: models.Position{
				X: rng.Float64() * grid.Width(),
				Y: rng.Float64() * grid.Height(),
			},
		})
	}
	return s
}

// scanRequest is the JSON body posted to the submission endpoint
type scanRequest struct {
	NodeID   string           `json:"node_id"`
	Readings []scanReading    `json:"readings"`
	Position *models.Position `json:"position,omitempty"`
}

type scanReading struct {
	AccessPointID     string  `json:"access_point_id"`
	SignalStrengthDbm float64 `json:"signal_strength_dbm"`
	Band              string  `json:"band"`
	DisplayName       string  `json:"display_name"`
	SignalPercent     int     `json:"signal_percent"`
}

// scan produces one submission for node, with gaussian noise on each reading
func (s *scenario) scan(node virtualNode, withPosition bool) scanRequest {
	req := scanRequest{NodeID: node.ID, Readings: make([]scanReading, 0, len(s.APs))}
	for _, ap := range s.APs {
		d := spatial.Distance(node.Position, ap.Position)
		r := rssi.Positioning.RSSI(d) + s.rng.NormFloat64()*s.Noise
		req.Readings = append(req.Readings, scanReading{
			AccessPointID:     ap.ID,
			SignalStrengthDbm: r,
			Band:              string(ap.Band),
			DisplayName:       ap.SSID,
			SignalPercent:     rssi.SignalPercent(r),
		})
	}
	if withPosition {
		p := node.Position
		req.Position = &p
	}
	return req
}
