package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/wifi-coverage-go/internal/api"
	"github.com/jengzang/wifi-coverage-go/internal/config"
	"github.com/jengzang/wifi-coverage-go/internal/database"
	"github.com/jengzang/wifi-coverage-go/internal/logging"
	"github.com/jengzang/wifi-coverage-go/internal/metrics"
	"github.com/jengzang/wifi-coverage-go/internal/middleware"
	"github.com/jengzang/wifi-coverage-go/internal/publish"
	"github.com/jengzang/wifi-coverage-go/internal/registry"
	"github.com/jengzang/wifi-coverage-go/internal/render"
	"github.com/jengzang/wifi-coverage-go/internal/repository"
	"github.com/jengzang/wifi-coverage-go/internal/service"
	"github.com/jengzang/wifi-coverage-go/internal/spatial"
)

func main() {
	configPath := flag.String("c", "", "path to YAML config file")
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.Init(cfg.LogLevel)
	if logging.ParseLevel(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.Open(database.Config{Path: cfg.DBPath}, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.MigrateUp(); err != nil {
		return err
	}

	grid, err := spatial.NewGrid(cfg.Grid.Width, cfg.Grid.Height, cfg.Grid.CellSize)
	if err != nil {
		return err
	}

	var publisher publish.Publisher = publish.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = publish.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info("publishing submissions to kafka",
			slog.Any("brokers", cfg.Kafka.Brokers),
			slog.String("topic", cfg.Kafka.Topic))
	}
	defer publisher.Close()

	m := metrics.New()
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(m),
		service.WithScanStore(repository.NewScanRepository(db)),
		service.WithPublisher(publisher),
	}
	if cfg.Site.GeoReferenced() {
		opts = append(opts, service.WithGeoReference(*cfg.Site.OriginLat, *cfg.Site.OriginLon))
	}
	reg := registry.New(grid, registry.WithLivenessWindow(cfg.Grid.LivenessWindow))
	coverage := service.NewCoverageService(reg, grid, opts...)
	if _, err := coverage.Restore(ctx); err != nil {
		logger.Warn("could not restore node state", slog.Any("error", err))
	}

	renderer, err := render.NewHeatmapRenderer()
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	go limiter.Run(ctx)

	// 初始化路由
	router := api.SetupRouter(cfg, api.Deps{
		Coverage:    coverage,
		Snapshots:   service.NewSnapshotService(coverage, repository.NewSnapshotRepository(db)),
		Renderer:    renderer,
		Metrics:     m,
		RateLimiter: limiter,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Port),
			slog.Float64("grid_width", cfg.Grid.Width),
			slog.Float64("grid_height", cfg.Grid.Height),
			slog.Duration("liveness_window", reg.LivenessWindow()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
