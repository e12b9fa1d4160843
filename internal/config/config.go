// 包 config：集中读取运行配置；值来自环境变量，可由 .env 与 data/env/.env 预加载
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 数据源选择
const (
	SourcePostgres = "postgres"
	SourceRemote   = "remote"
	SourceNone     = "none"
)

type Config struct {
	Addr    string
	APIBase string
	UIDir   string

	ScenePath       string
	FeatureSelector string

	DataSource   string
	RemoteURL    string
	RemoteKey    string
	FetchTimeout time.Duration
	RefreshEvery time.Duration
	CacheTTL     time.Duration
	ContentCache int

	IP2RegionPath string
	GeoIPPath     string
	AMapKey       string
	// BoundariesPath：省级边界 GeoJSON；为空时不支持按坐标定位
	BoundariesPath string
	BoundaryKm     int

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string

	RateLimitEnabled bool
	RateLimitQPS     int
	EventRatePerIP   int

	ViewIdleTimeout time.Duration
	AdminToken      string
}

// LoadDotenv：按顺序尝试加载 .env 文件；文件缺失不是错误
func LoadDotenv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env", filepath.Join("data", "env", ".env")}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// FromEnv：读取环境变量并填充默认值
func FromEnv() Config {
	c := Config{
		Addr:             str("ADDR", ":8080"),
		APIBase:          "/" + strings.Trim(str("API_BASE", "/api"), "/"),
		UIDir:            str("UI_DIST", filepath.Join("ui", "dist")),
		ScenePath:        str("SCENE_PATH", filepath.Join("data", "map", "china.svg")),
		FeatureSelector:  os.Getenv("SCENE_FEATURE_SELECTOR"),
		DataSource:       strings.ToLower(str("DATA_SOURCE", SourceNone)),
		RemoteURL:        os.Getenv("REMOTE_URL"),
		RemoteKey:        os.Getenv("REMOTE_KEY"),
		FetchTimeout:     dur("FETCH_TIMEOUT", 5*time.Second),
		RefreshEvery:     dur("DATA_REFRESH_INTERVAL", 5*time.Minute),
		CacheTTL:         dur("PAYLOAD_CACHE_TTL", time.Minute),
		ContentCache:     num("CONTENT_CACHE_SIZE", 1024),
		IP2RegionPath:    os.Getenv("IP2REGION_V4_PATH"),
		GeoIPPath:        os.Getenv("GEOIP_PATH"),
		AMapKey:          os.Getenv("AMAP_SERVER_KEY"),
		BoundariesPath:   os.Getenv("BOUNDARIES_PATH"),
		BoundaryKm:       num("BOUNDARY_RADIUS_KM", 300),
		TLSEnable:        os.Getenv("TLS_ENABLE") == "true",
		TLSCertPath:      str("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:       str("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
		RateLimitEnabled: os.Getenv("RATE_LIMIT_ENABLED") == "true",
		RateLimitQPS:     num("RATE_LIMIT_QPS", 200),
		EventRatePerIP:   num("EVENT_RATE_PER_IP", 120),
		ViewIdleTimeout:  dur("VIEW_IDLE_TIMEOUT", 30*time.Minute),
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
	}
	switch c.DataSource {
	case SourcePostgres, SourceRemote, SourceNone:
	default:
		c.DataSource = SourceNone
	}
	if c.DataSource == SourceRemote && c.RemoteURL == "" {
		c.DataSource = SourceNone
	}
	return c
}

func str(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func num(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// dur 同时接受 Go 时长字符串与整数毫秒
func dur(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Millisecond
	}
	return def
}
