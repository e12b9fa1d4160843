// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"recipe-map/internal/api"
	"recipe-map/internal/config"
	"recipe-map/internal/content"
	"recipe-map/internal/datahook"
	"recipe-map/internal/locate"
	"recipe-map/internal/logger"
	"recipe-map/internal/metrics"
	"recipe-map/internal/middleware"
	"recipe-map/internal/migrate"
	"recipe-map/internal/scene"
	"recipe-map/internal/store"
	"recipe-map/internal/taxonomy"
	"recipe-map/internal/utils"
	"recipe-map/internal/version"
)

func main() {
	config.LoadDotenv()
	// 日志初始化
	l := logger.Setup()
	cfg := config.FromEnv()
	l.Debug("config_loaded", "api_base", cfg.APIBase, "data_source", cfg.DataSource, "scene", cfg.ScenePath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tax := taxonomy.Default()
	res := content.NewResolver(tax, content.WithCache(cfg.ContentCache, time.Hour))

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
			rc = nil
		} else {
			l.Info("redis_ping_ok")
		}
	}

	src, closeSrc, invalidate, err := buildSource(ctx, cfg, rc)
	if err != nil {
		l.Warn("datahook_source_none", "err", err)
	}
	defer closeSrc()
	hook := datahook.New(src,
		datahook.WithTimeout(cfg.FetchTimeout),
		datahook.WithOnPayload(func(p *datahook.Payload) { res.SetFetched(p.Counts()) }),
	)
	hook.Fetch(ctx)
	go hook.RunPeriodic(ctx, cfg.RefreshEvery)

	loc, closeLoc := buildLocator(cfg, tax, rc)
	defer closeLoc()

	sceneBytes, sceneErr := os.ReadFile(cfg.ScenePath)
	if sceneErr != nil {
		l.Warn("scene_read_error", "path", cfg.ScenePath, "err", sceneErr)
	}
	loader := func() (*scene.Document, error) {
		if sceneErr != nil {
			return nil, sceneErr
		}
		return scene.LoadBytes(sceneBytes, cfg.FeatureSelector)
	}

	srv := api.NewServer(tax, res, hook, loc, loader)
	srv.Coords = loadBoundaries(cfg, tax)
	srv.AdminToken = cfg.AdminToken
	srv.EventLimit = cfg.EventRatePerIP
	srv.Invalidate = invalidate
	go srv.Views.RunJanitor(ctx, cfg.ViewIdleTimeout)

	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, srv.BuildRoutes()))
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", http.FileServer(http.Dir(cfg.UIDir)))
	// NOTE: 向前端暴露 API 基础路径，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "'\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'\n"))
	})

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler, cfg.RateLimitEnabled, cfg.RateLimitQPS)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Views.Close()
		_ = s.Shutdown(shutdownCtx)
	}()

	if cfg.TLSEnable {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "recipe-map.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		err = s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		l.Error("server_error", "err", err)
	}
	hook.Wait()
}

// buildSource：按 DATA_SOURCE 选择数据源，并在 Redis 可用时包一层读穿缓存
// 返回：未配置或连接失败时返回 datahook.ErrNoSource 包装的错误与 nil 数据源（钩子退化为空数据，内容走静态兜底）
func buildSource(ctx context.Context, cfg config.Config, rc *redis.Client) (datahook.Source, func(), func(context.Context) error, error) {
	noop := func() {}
	var src datahook.Source
	closer := noop
	switch cfg.DataSource {
	case config.SourcePostgres:
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			return nil, noop, nil, wrapNoSource(err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, noop, nil, wrapNoSource(err)
		}
		if err := migrate.EnsureSchema(db); err != nil {
			db.Close()
			return nil, noop, nil, wrapNoSource(err)
		}
		st := store.AttachDB(db)
		src, closer = st, func() { _ = st.Close() }
		logger.L().Info("db_open_ok")
	case config.SourceRemote:
		r := datahook.NewRemote(cfg.RemoteURL, cfg.RemoteKey, cfg.FetchTimeout)
		src, closer = r, func() { _ = r.Close() }
	default:
		return nil, noop, nil, datahook.ErrNoSource
	}
	if rc == nil {
		return src, closer, nil, nil
	}
	cached := datahook.NewCached(src, rc, os.Getenv("PAYLOAD_CACHE_KEY"), cfg.CacheTTL)
	return cached, closer, cached.Invalidate, nil
}

func wrapNoSource(err error) error {
	return fmt.Errorf("%w: %w", datahook.ErrNoSource, err)
}

// loadBoundaries：按坐标定位所需的省级边界；文件缺失或无效时关闭该能力
func loadBoundaries(cfg config.Config, tax *taxonomy.Taxonomy) *locate.Boundaries {
	if cfg.BoundariesPath == "" {
		return nil
	}
	b, err := locate.LoadBoundaries(cfg.BoundariesPath, tax)
	if err != nil {
		logger.L().Error("boundaries_load_error", "path", cfg.BoundariesPath, "err", err)
		return nil
	}
	b.SetMaxRadius(float64(cfg.BoundaryKm))
	return b
}

// buildLocator：可选的访客定位；顺序为 GeoIP、ip2region 离线库，最后是高德在线查询；均未配置时返回空链
func buildLocator(cfg config.Config, tax *taxonomy.Taxonomy, rc *redis.Client) (*locate.Chain, func()) {
	l := logger.L()
	var ls []locate.Locator
	var closers []func()
	if cfg.GeoIPPath != "" {
		if g, err := locate.OpenGeoIP(cfg.GeoIPPath); err == nil {
			ls = append(ls, g)
			closers = append(closers, func() { _ = g.Close() })
			l.Info("geoip_ready", "path", filepath.Base(cfg.GeoIPPath))
		} else {
			l.Error("geoip_open_error", "err", err)
		}
	}
	if cfg.IP2RegionPath != "" {
		if x, err := locate.OpenIP2Region(cfg.IP2RegionPath); err == nil {
			ls = append(ls, x)
			closers = append(closers, x.Close)
			l.Info("ip2region_ready", "path", filepath.Base(cfg.IP2RegionPath))
		} else {
			l.Error("ip2region_open_error", "err", err)
		}
	}
	if cfg.AMapKey != "" {
		a := locate.NewAMap(cfg.AMapKey, rc, cfg.FetchTimeout)
		ls = append(ls, a)
		closers = append(closers, func() { _ = a.Close() })
		l.Info("amap_locator_ready")
	}
	return locate.NewChain(tax, ls...), func() {
		for _, c := range closers {
			c()
		}
	}
}
