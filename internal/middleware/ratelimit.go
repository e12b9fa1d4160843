package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/httprate"

	"recipe-map/internal/logger"
)

// 文档注释：令牌桶限流中间件（每秒）
// 背景：视图事件随指针移动高频回传，峰值时对入口限速，避免视图锁与数据源被压垮；按配置开关与速率。
// 约束：简化实现，不做队列排队，仅丢弃并返回 429。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	now      func() time.Time
	mu       sync.Mutex
}

func NewTokenBucket(qps int) *TokenBucket {
	if qps <= 0 {
		qps = 200
	}
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Wrap：按配置包裹限流；未启用时原样返回
func Wrap(next http.Handler, enabled bool, qps int) http.Handler {
	if !enabled {
		return next
	}
	tb := NewTokenBucket(qps)
	logger.L().Info("rate_limit_enabled", "qps", tb.capacity)
	return tb.Middleware(next)
}

func (tb *TokenBucket) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.allow() {
			logger.L().Debug("rate_limited", "path", r.URL.Path)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PerVisitor：按访问者真实 IP 限速（窗口内最多 n 次），n<=0 时不限
// 约束：与全局令牌桶叠加使用；全局桶保护进程，本限速防止单个页面的指针事件占满全局配额
func PerVisitor(n int, window time.Duration) func(http.Handler) http.Handler {
	if n <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(n, window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.L().Debug("visitor_rate_limited", "path", r.URL.Path)
			w.WriteHeader(http.StatusTooManyRequests)
		}),
	)
}
