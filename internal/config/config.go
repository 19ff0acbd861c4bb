package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jengzang/wifi-coverage-go/internal/spatial"
)

// ErrInvalidGrid 网格尺寸无效
var ErrInvalidGrid = errors.New("config: grid must be finite with between one and spatial.MaxCells cells")

// Config 应用配置
type Config struct {
	Port      string `yaml:"port"`
	DBPath    string `yaml:"dbPath"`
	JWTSecret string `yaml:"jwtSecret"` // 为空时不校验节点令牌
	LogLevel  string `yaml:"logLevel"`
	WebDir    string `yaml:"webDir"`

	Grid      GridConfig      `yaml:"grid"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Site      SiteConfig      `yaml:"site"`
}

// GridConfig 测量区域
type GridConfig struct {
	Width          float64       `yaml:"width"`
	Height         float64       `yaml:"height"`
	CellSize       float64       `yaml:"cellSize"`
	LivenessWindow time.Duration `yaml:"livenessWindow"`
}

// RateLimitConfig limits submissions per client address
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// KafkaConfig enables the submission event stream when Brokers is non-empty
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// SiteConfig geo-references the grid centre
type SiteConfig struct {
	OriginLat *float64 `yaml:"originLat"`
	OriginLon *float64 `yaml:"originLon"`
}

// GeoReferenced reports whether both origin coordinates are set
func (s SiteConfig) GeoReferenced() bool {
	return s.OriginLat != nil && s.OriginLon != nil
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Port:     ":8000",
		DBPath:   "./data/coverage.db",
		LogLevel: "info",
		Grid: GridConfig{
			Width:          30,
			Height:         30,
			CellSize:       1,
			LivenessWindow: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Requests: 120,
			Window:   time.Minute,
		},
		Kafka: KafkaConfig{
			Topic: "coverage.submissions",
		},
	}
}

// LoadFile 加载配置: 默认值, YAML 文件 (path 为空时跳过), 然后环境变量
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the grid and limits
func (c *Config) Validate() error {
	g := c.Grid
	if !spatial.ValidDimensions(g.Width, g.Height, g.CellSize) {
		return fmt.Errorf("%w: width=%v height=%v cell=%v", ErrInvalidGrid, g.Width, g.Height, g.CellSize)
	}
	if g.LivenessWindow <= 0 {
		return fmt.Errorf("config: liveness window must be positive, got %s", g.LivenessWindow)
	}
	if s := c.Site; s.GeoReferenced() {
		if !(math.Abs(*s.OriginLat) <= 90) || !(math.Abs(*s.OriginLon) <= 180) {
			return fmt.Errorf("config: site origin out of range: %v, %v", *s.OriginLat, *s.OriginLon)
		}
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("config: rate limit must not be negative, got %d", c.RateLimit.Requests)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if !strings.Contains(v, ":") {
			v = ":" + v
		}
		c.Port = v
	}
	setString(&c.DBPath, "DB_PATH")
	setString(&c.JWTSecret, "NODE_JWT_SECRET")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.WebDir, "WEB_DIR")
	setString(&c.Kafka.Topic, "KAFKA_TOPIC")

	setFloat(&c.Grid.Width, "GRID_WIDTH")
	setFloat(&c.Grid.Height, "GRID_HEIGHT")
	setFloat(&c.Grid.CellSize, "CELL_SIZE")
	setDuration(&c.Grid.LivenessWindow, "LIVENESS_WINDOW")
	setInt(&c.RateLimit.Requests, "RATE_LIMIT")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}
	if v, ok := lookupFloat("SITE_ORIGIN_LAT"); ok {
		c.Site.OriginLat = &v
	}
	if v, ok := lookupFloat("SITE_ORIGIN_LON"); ok {
		c.Site.OriginLon = &v
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := lookupFloat(key); ok {
		*dst = v
	}
}

func lookupFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// setDuration accepts Go durations ("15s") or plain seconds ("15")
func setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
	}
}
