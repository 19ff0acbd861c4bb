package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/wifi-coverage-go/internal/service"
	"github.com/jengzang/wifi-coverage-go/pkg/response"
)

// CoverageHandler handles coverage and access point queries
type CoverageHandler struct {
	service *service.CoverageService
}

// NewCoverageHandler creates a new coverage handler
func NewCoverageHandler(service *service.CoverageService) *CoverageHandler {
	return &CoverageHandler{service: service}
}

// GetCoverage handles GET /api/v1/coverage
func (h *CoverageHandler) GetCoverage(c *gin.Context) {
	response.Success(c, h.service.Coverage())
}

// GetAccessPoints handles GET /api/v1/aps
func (h *CoverageHandler) GetAccessPoints(c *gin.Context) {
	response.Success(c, h.service.AccessPoints())
}

// GetDistanceStrength handles GET /api/v1/distance-strength
func (h *CoverageHandler) GetDistanceStrength(c *gin.Context) {
	points := h.service.DistanceStrength()
	response.Success(c, gin.H{
		"points": points,
		"count":  len(points),
	})
}
