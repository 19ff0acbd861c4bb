package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/wifi-coverage-go/internal/models"
	"github.com/jengzang/wifi-coverage-go/internal/repository"
	"github.com/jengzang/wifi-coverage-go/internal/service"
	"github.com/jengzang/wifi-coverage-go/pkg/response"
)

// SnapshotHandler handles saved access point results
type SnapshotHandler struct {
	service *service.SnapshotService
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(service *service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{service: service}
}

// SnapshotListQuery bounds the listing
type SnapshotListQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// CreateSnapshot handles POST /api/v1/snapshots
func (h *SnapshotHandler) CreateSnapshot(c *gin.Context) {
	var req models.CreateSnapshotRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body", err)
			return
		}
	}
	snap, err := h.service.Create(c.Request.Context(), req.Label)
	if err != nil {
		response.InternalError(c, "Failed to save snapshot", err)
		return
	}
	response.Created(c, snap)
}

// ListSnapshots handles GET /api/v1/snapshots
func (h *SnapshotHandler) ListSnapshots(c *gin.Context) {
	var q SnapshotListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}
	list, err := h.service.List(c.Request.Context(), q.Limit)
	if err != nil {
		response.InternalError(c, "Failed to list snapshots", err)
		return
	}
	response.Success(c, gin.H{
		"data":  list,
		"count": len(list),
	})
}

// GetSnapshot handles GET /api/v1/snapshots/:id
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	snap, err := h.service.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, service.ErrInvalidSnapshotID):
		response.BadRequest(c, "Invalid snapshot id", err)
	case errors.Is(err, repository.ErrSnapshotNotFound):
		response.NotFound(c, "Snapshot not found")
	case err != nil:
		response.InternalError(c, "Failed to get snapshot", err)
	default:
		response.Success(c, snap)
	}
}
