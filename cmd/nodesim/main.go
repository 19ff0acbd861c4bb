// Command nodesim drives a coverage server with simulated sensor nodes.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jengzang/wifi-coverage-go/internal/logging"
	"github.com/jengzang/wifi-coverage-go/internal/middleware"
	"github.com/jengzang/wifi-coverage-go/internal/spatial"
)

func main() {
	var (
		server   = flag.String("server", "http://localhost:8000", "coverage server base URL")
		nodes    = flag.Int("nodes", 3, "number of simulated nodes")
		aps      = flag.Int("aps", 4, "number of simulated access points")
		width    = flag.Float64("width", 30, "grid width in meters")
		height   = flag.Float64("height", 30, "grid height in meters")
		interval = flag.Duration("interval", 4500*time.Millisecond, "delay between scan rounds")
		noise    = flag.Float64("noise", 2, "standard deviation of RSSI noise in dB")
		seed     = flag.Uint64("seed", 1, "random seed for access point placement")
		fixed    = flag.Bool("fixed", true, "report node positions with each scan")
		secret   = flag.String("secret", os.Getenv("NODE_JWT_SECRET"), "token signing secret")
		level    = flag.String("log-level", "info", "log level")
	)
	flag.Parse()
	logger := logging.Init(*level)

	grid, err := spatial.NewGrid(*width, *height, 1)
	if err != nil {
		logger.Error("invalid grid", slog.Any("error", err))
		os.Exit(1)
	}
	sc := newScenario(grid, *nodes, *aps, *noise, *seed)
	for _, ap := range sc.APs {
		logger.Info("virtual access point",
			slog.String("id", ap.ID),
			slog.String("band", string(ap.Band)),
			slog.Float64("x", ap.Position.X),
			slog.Float64("y", ap.Position.Y))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 5 * time.Second}
	url := *server + "/api/v1/nodes/scans"
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		for _, node := range sc.Nodes {
			if err := submit(ctx, client, url, *secret, sc.scan(node, *fixed)); err != nil {
				logger.Warn("submission failed", slog.String("node_id", node.ID), slog.Any("error", err))
				continue
			}
			logger.Debug("submitted scan", slog.String("node_id", node.ID))
		}
		select {
		case <-ctx.Done():
			logger.Info("simulation stopped")
			return
		case <-ticker.C:
		}
	}
}

func submit(ctx context.Context, client *http.Client, url, secret string, req scanRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if secret != "" {
		token, err := middleware.IssueNodeToken(secret, req.NodeID, time.Hour, time.Now())
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
