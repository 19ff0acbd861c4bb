package api

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/wifi-coverage-go/internal/config"
	"github.com/jengzang/wifi-coverage-go/internal/handler"
	"github.com/jengzang/wifi-coverage-go/internal/metrics"
	"github.com/jengzang/wifi-coverage-go/internal/middleware"
	"github.com/jengzang/wifi-coverage-go/internal/render"
	"github.com/jengzang/wifi-coverage-go/internal/service"
)

// Deps 路由依赖
type Deps struct {
	Coverage    *service.CoverageService
	Snapshots   *service.SnapshotService // nil 时不注册快照接口
	Renderer    *render.HeatmapRenderer
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if deps.Logger != nil {
		r.Use(middleware.Logger(deps.Logger))
	}
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Wi-Fi coverage API is running",
		})
	})

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	nodeHandler := handler.NewNodeHandler(deps.Coverage)
	coverageHandler := handler.NewCoverageHandler(deps.Coverage)
	submit := []gin.HandlerFunc{
		middleware.RateLimit(deps.RateLimiter),
		middleware.NodeAuth(cfg.JWTSecret),
		nodeHandler.SubmitScan,
	}

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 节点上报
		nodes := api.Group("/nodes")
		{
			nodes.GET("", nodeHandler.GetNodes)
			nodes.POST("/scans", submit...)
		}

		api.GET("/networks", nodeHandler.GetNetworks)

		// 覆盖与热力图
		api.GET("/coverage", coverageHandler.GetCoverage)
		api.GET("/aps", coverageHandler.GetAccessPoints)
		api.GET("/distance-strength", coverageHandler.GetDistanceStrength)

		if deps.Renderer != nil {
			renderHandler := handler.NewRenderHandler(deps.Coverage, deps.Renderer)
			api.GET("/coverage/heatmap.png", renderHandler.GetHeatmapPNG)
			api.GET("/distance-strength.png", renderHandler.GetDistanceStrengthPNG)
			api.GET("/aps/geojson", renderHandler.GetGeoJSON)
		}

		// 快照
		if deps.Snapshots != nil {
			snapshotHandler := handler.NewSnapshotHandler(deps.Snapshots)
			snapshots := api.Group("/snapshots")
			{
				snapshots.POST("", snapshotHandler.CreateSnapshot)
				snapshots.GET("", snapshotHandler.ListSnapshots)
				snapshots.GET("/:id", snapshotHandler.GetSnapshot)
			}
		}
	}

	// 兼容旧版扫描客户端
	r.POST("/api/submit_scan", submit...)
	r.GET("/api/coverage", coverageHandler.GetCoverage)
	r.GET("/api/ap_positions", coverageHandler.GetAccessPoints)
	r.GET("/api/all_distance_strength", coverageHandler.GetDistanceStrength)
	r.GET("/api/wifi", nodeHandler.GetNetworks)

	// 静态前端
	if cfg.WebDir != "" {
		if info, err := os.Stat(cfg.WebDir); err == nil && info.IsDir() {
			r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.WebDir))))
		} else if deps.Logger != nil {
			deps.Logger.Warn("web directory not found, static files disabled", slog.String("dir", cfg.WebDir))
		}
	}

	return r
}
