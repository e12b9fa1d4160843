package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipemap_http_requests_total",
		Help: "Total HTTP requests by route and status class",
	}, []string{"route", "class"})
	HTTPDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recipemap_http_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	ViewsMounted = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recipemap_views_mounted",
		Help: "Currently mounted region map views",
	})
	FeaturesBoundTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipemap_features_bound_total",
		Help: "Scene features bound by the interaction controller",
	}, []string{"resolved"})
	SceneBindTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipemap_scene_bind_total",
		Help: "Scene bind attempts by outcome (ok, degraded)",
	}, []string{"outcome"})
	PointerListenersActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recipemap_pointer_listeners_active",
		Help: "Pointer-move listeners currently held for hover tooltips",
	})
	SelectionTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipemap_selection_transitions_total",
		Help: "Selection state transitions by resulting state kind",
	}, []string{"kind"})
	ContentCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recipemap_content_cache_hits_total",
		Help: "Recipe count cache hits",
	})
	ContentCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recipemap_content_cache_misses_total",
		Help: "Recipe count cache misses",
	})
	ContentFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipemap_content_fallback_total",
		Help: "Recipe count resolutions by source (fetched, static, estimate)",
	}, []string{"source"})
	FetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipemap_datahook_fetch_total",
		Help: "Data hook fetches by source and outcome",
	}, []string{"source", "outcome"})
	FetchDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recipemap_datahook_fetch_duration_ms",
		Help:    "Data hook fetch duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 3000},
	}, []string{"source"})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recipemap_redis_hits_total",
		Help: "Total redis payload cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recipemap_redis_misses_total",
		Help: "Total redis payload cache misses",
	})
	LocateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipemap_locate_total",
		Help: "Visitor region lookups by locator and outcome",
	}, []string{"locator", "outcome"})
	LocateDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recipemap_locate_duration_ms",
		Help:    "Online visitor locator request duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 3000},
	}, []string{"locator"})
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPDurationMs)
	prometheus.MustRegister(ViewsMounted)
	prometheus.MustRegister(FeaturesBoundTotal)
	prometheus.MustRegister(SceneBindTotal)
	prometheus.MustRegister(PointerListenersActive)
	prometheus.MustRegister(SelectionTransitionsTotal)
	prometheus.MustRegister(ContentCacheHitsTotal)
	prometheus.MustRegister(ContentCacheMissesTotal)
	prometheus.MustRegister(ContentFallbackTotal)
	prometheus.MustRegister(FetchTotal)
	prometheus.MustRegister(FetchDurationMs)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(LocateTotal)
	prometheus.MustRegister(LocateDurationMs)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }

// StatusClass：把状态码归并为 2xx/3xx/4xx/5xx，控制标签基数
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
