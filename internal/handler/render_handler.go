package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gonum.org/v1/plot/vg"

	"github.com/jengzang/wifi-coverage-go/internal/render"
	"github.com/jengzang/wifi-coverage-go/internal/service"
	"github.com/jengzang/wifi-coverage-go/pkg/response"
)

// RenderHandler serves images and GeoJSON exports
type RenderHandler struct {
	service  *service.CoverageService
	renderer *render.HeatmapRenderer
}

// NewRenderHandler creates a new render handler
func NewRenderHandler(service *service.CoverageService, renderer *render.HeatmapRenderer) *RenderHandler {
	return &RenderHandler{service: service, renderer: renderer}
}

// HeatmapQuery selects the colour theme
type HeatmapQuery struct {
	Theme string `form:"theme"`
}

// GetHeatmapPNG handles GET /api/v1/coverage/heatmap.png
func (h *RenderHandler) GetHeatmapPNG(c *gin.Context) {
	var q HeatmapQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters", err)
		return
	}
	theme, err := render.ParseTheme(q.Theme)
	if err != nil {
		response.BadRequest(c, err.Error(), err)
		return
	}

	cov, mask, estimates, anchors := h.service.CoverageGrid()
	var buf bytes.Buffer
	err = h.renderer.WritePNG(&buf, render.HeatmapInput{
		Grid:      h.service.Grid().Info(),
		Coverage:  cov,
		Deadzones: mask,
		Estimates: estimates,
		Anchors:   anchors.Positions(),
		Theme:     theme,
	})
	if err != nil {
		response.InternalError(c, "Failed to render heatmap", err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// GetDistanceStrengthPNG handles GET /api/v1/distance-strength.png
func (h *RenderHandler) GetDistanceStrengthPNG(c *gin.Context) {
	var buf bytes.Buffer
	if err := render.WriteDistanceStrengthPNG(&buf, h.service.DistanceStrength(), 8*vg.Inch, 5*vg.Inch); err != nil {
		response.InternalError(c, "Failed to render chart", err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// GetGeoJSON handles GET /api/v1/aps/geojson
func (h *RenderHandler) GetGeoJSON(c *gin.Context) {
	fc, err := h.service.GeoJSON()
	if errors.Is(err, service.ErrNotGeoReferenced) {
		response.NotFound(c, "Site origin is not configured")
		return
	}
	if err != nil {
		response.InternalError(c, "Failed to export GeoJSON", err)
		return
	}
	body, err := fc.MarshalJSON()
	if err != nil {
		response.InternalError(c, "Failed to encode GeoJSON", err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}
