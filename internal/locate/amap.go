package locate

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"resty.dev/v3"

	"recipe-map/internal/logger"
	"recipe-map/internal/metrics"
)

const amapBaseURL = "https://restapi.amap.com"

// 文档注释：高德 IP 定位响应结构
// 约束：未知 IP 时 province 返回空数组而非字符串，因此先按原始 JSON 接收
type amapResponse struct {
	Status   string          `json:"status"`
	Info     string          `json:"info"`
	Infocode string          `json:"infocode"`
	Province json.RawMessage `json:"province"`
	Adcode   json.RawMessage `json:"adcode"`
}

// AMap：高德 Web 服务 IP 定位，仅支持国内 IPv4
// 背景：离线库缺失时的在线补充；结果（含未命中）按 IP 写入 Redis，避免重复计费调用
type AMap struct {
	client  *resty.Client
	key     string
	rc      *redis.Client
	ttl     time.Duration
	timeout time.Duration
}

func NewAMap(key string, rc *redis.Client, timeout time.Duration) *AMap {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	c := resty.New().SetBaseURL(amapBaseURL).SetTimeout(timeout).SetRetryCount(1)
	return &AMap{client: c, key: key, rc: rc, ttl: 24 * time.Hour, timeout: timeout}
}

func (a *AMap) Name() string { return "amap" }

func (a *AMap) Lookup(ip string) (string, bool) {
	if a == nil || a.key == "" || ip == "" {
		return "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	ck := "recipemap:amap:" + ip
	if a.rc != nil {
		if s, err := a.rc.Get(ctx, ck).Result(); err == nil {
			metrics.RedisHitsTotal.Inc()
			return s, s != ""
		}
		metrics.RedisMissesTotal.Inc()
	}
	p, err := a.query(ctx, ip)
	if err != nil {
		logger.L().Debug("amap_error", "ip", ip, "err", err)
		return "", false
	}
	if a.rc != nil {
		_ = a.rc.Set(ctx, ck, p, a.ttl).Err()
	}
	return p, p != ""
}

func (a *AMap) query(ctx context.Context, ip string) (string, error) {
	var r amapResponse
	t0 := time.Now()
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("key", a.key).
		SetQueryParam("ip", ip).
		SetResult(&r).
		Get("/v3/ip")
	metrics.LocateDurationMs.WithLabelValues("amap").Observe(float64(time.Since(t0).Milliseconds()))
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("amap: http status %d", resp.StatusCode())
	}
	if r.Status != "1" {
		return "", fmt.Errorf("amap: %s (%s)", r.Info, r.Infocode)
	}
	var province string
	if err := json.Unmarshal(r.Province, &province); err != nil {
		return "", nil
	}
	return province, nil
}

func (a *AMap) Close() error { return a.client.Close() }
