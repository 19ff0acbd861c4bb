package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/wifi-coverage-go/internal/middleware"
	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/rssi"
	"github.com/jengzang/wifi-coverage-go/internal/service"
	"github.com/jengzang/wifi-coverage-go/pkg/response"
)

// NodeHandler handles sensor node submissions and node listings
type NodeHandler struct {
	service *service.CoverageService
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(service *service.CoverageService) *NodeHandler {
	return &NodeHandler{service: service}
}

// submitRequest accepts both current field names and the scanner's legacy ones
type submitRequest struct {
	NodeID   string           `json:"node_id"`
	LaptopID string           `json:"laptop_id"`
	Readings *[]readingInput  `json:"readings"`
	Networks *[]readingInput  `json:"networks"`
	Position *positionRequest `json:"position"`
}

type readingInput struct {
	AccessPointID string `json:"access_point_id"`
	BSSID         string `json:"bssid"`
	Signal        any    `json:"signal_strength_dbm"`
	RSSI          any    `json:"rssi"`
	Band          any    `json:"band"`
	DisplayName   string `json:"display_name"`
	SSID          string `json:"ssid"`
}

type positionRequest struct {
	X any `json:"x"`
	Y any `json:"y"`
}

var errMalformed = errors.New("malformed submission")

// toSubmission validates the request and converts it to a core submission
func (r submitRequest) toSubmission() (models.NodeSubmission, error) {
	id := strings.TrimSpace(firstNonEmpty(r.NodeID, r.LaptopID))
	if id == "" {
		return models.NodeSubmission{}, fmt.Errorf("%w: node_id is required", errMalformed)
	}
	list := r.Readings
	if list == nil {
		list = r.Networks
	}
	if list == nil {
		return models.NodeSubmission{}, fmt.Errorf("%w: readings array is required", errMalformed)
	}

	sub := models.NodeSubmission{NodeID: id, Readings: make([]models.SensorReading, 0, len(*list))}
	for i, in := range *list {
		ap := strings.TrimSpace(firstNonEmpty(in.AccessPointID, in.BSSID))
		if ap == "" {
			return models.NodeSubmission{}, fmt.Errorf("%w: reading %d has no access point id", errMalformed, i)
		}
		sig := in.Signal
		if sig == nil {
			sig = in.RSSI
		}
		reading := models.SensorReading{
			AccessPointID: ap,
			Band:          rssi.ParseBand(toString(in.Band)),
			DisplayName:   firstNonEmpty(in.DisplayName, in.SSID),
		}
		if v, ok := toFloat(sig); ok {
			reading.SignalStrengthDbm = models.Dbm(v)
		}
		sub.Readings = append(sub.Readings, reading)
	}

	if r.Position != nil {
		x, okX := toFloat(r.Position.X)
		y, okY := toFloat(r.Position.Y)
		if okX && okY {
			sub.Position = &models.Position{X: x, Y: y}
		}
	}
	return sub, nil
}

// SubmitScan handles POST /api/v1/nodes/scans
func (h *NodeHandler) SubmitScan(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.service.RejectSubmission()
		response.BadRequest(c, "Invalid request body", err)
		return
	}
	sub, err := req.toSubmission()
	if err != nil {
		h.service.RejectSubmission()
		response.BadRequest(c, err.Error(), err)
		return
	}
	if authID, ok := c.Get(middleware.NodeIDKey); ok && authID != sub.NodeID {
		h.service.RejectSubmission()
		response.Error(c, http.StatusForbidden, "token does not match node_id", nil)
		return
	}

	state, err := h.service.Submit(c.Request.Context(), sub)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSubmission) {
			response.BadRequest(c, err.Error(), err)
			return
		}
		response.InternalError(c, "Failed to record submission", err)
		return
	}

	response.Success(c, gin.H{
		"status":         "ok",
		"node_id":        state.NodeID,
		"reading_count":  len(state.Readings),
		"fixed_position": state.FixedPosition,
	})
}

// GetNodes handles GET /api/v1/nodes
func (h *NodeHandler) GetNodes(c *gin.Context) {
	nodes := h.service.Nodes()
	response.Success(c, gin.H{
		"data":  nodes,
		"count": len(nodes),
	})
}

// GetNetworks handles GET /api/v1/networks
func (h *NodeHandler) GetNetworks(c *gin.Context) {
	networks := h.service.Networks()
	response.Success(c, gin.H{
		"data":  networks,
		"count": len(networks),
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// toFloat accepts JSON numbers and numeric strings; anything else is absent
func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
