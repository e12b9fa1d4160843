// 包 api：集中注册 HTTP API 路由以解耦主入口；每个浏览器会话挂载一个地图视图，事件回传、快照下发
package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"recipe-map/internal/content"
	"recipe-map/internal/datahook"
	"recipe-map/internal/locate"
	"recipe-map/internal/logger"
	"recipe-map/internal/metrics"
	"recipe-map/internal/middleware"
	"recipe-map/internal/scene"
	"recipe-map/internal/taxonomy"
	"recipe-map/internal/view"
)

// SceneLoader：为新视图加载独立的场景文档（每个视图的着色互不影响）
type SceneLoader func() (*scene.Document, error)

// Server：HTTP 层依赖
type Server struct {
	Tax     *taxonomy.Taxonomy
	Content *content.Resolver
	Hook    *datahook.Hook
	Locator *locate.Chain
	Coords  *locate.Boundaries
	Scene   SceneLoader
	Views   *Registry

	// EventLimit：单个访问者每秒可提交的视图事件数，<=0 不限
	EventLimit int
	// AdminToken：为空时关闭管理接口
	AdminToken string
	// Invalidate：刷新前清理数据缓存（可为空）
	Invalidate func(ctx context.Context) error

	log *slog.Logger
}

func NewServer(tax *taxonomy.Taxonomy, res *content.Resolver, hook *datahook.Hook, loc *locate.Chain, sl SceneLoader) *Server {
	return &Server{Tax: tax, Content: res, Hook: hook, Locator: loc, Scene: sl, Views: NewRegistry(), log: logger.L()}
}

// BuildRoutes：构建 API 路由；返回的 Handler 挂载在 API_BASE 之下
func (s *Server) BuildRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/regions", s.handleRegions)
	r.Post("/views", s.handleMount)
	r.Route("/views/{id}", func(r chi.Router) {
		r.Get("/", s.handleSnapshot)
		r.Delete("/", s.handleUnmount)
		r.With(middleware.PerVisitor(s.EventLimit, time.Second)).Post("/events", s.handleEvent)
		r.Get("/scene.svg", s.handleScene)
		r.Get("/ws", s.handleWS)
	})
	r.Post("/admin/refresh", s.handleAdminRefresh)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	st := s.Hook.State()
	writeJSON(w, http.StatusOK, regionsResponse{
		Tiles:     view.Tiles(s.Tax, s.Content, st.Regions, ""),
		IsLoading: st.IsLoading,
		Error:     st.Error,
	})
}

func (s *Server) handleMount(w http.ResponseWriter, r *http.Request) {
	var req mountRequest
	if r.ContentLength != 0 {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
	}
	active := req.ActiveRegion
	if active == "" && req.Lat != nil && req.Lon != nil {
		active, _ = s.Coords.RegionAt(*req.Lat, *req.Lon, req.CoordSys)
	}
	for _, h := range edgeRegionHints(r) {
		if active != "" {
			break
		}
		active = s.Locator.RegionOfValue(h)
	}
	if active == "" {
		active = s.Locator.RegionFor(getVisitorIP(r))
	}
	v := view.Mount(view.Deps{Tax: s.Tax, Content: s.Content, Hook: s.Hook}, view.Props{
		ActiveRegion: active,
		OnRegionSelect: func(id string) {
			s.log.Debug("view_region_select", "region", id)
		},
	})
	var doc *scene.Document
	var err error
	if s.Scene != nil {
		doc, err = s.Scene()
	} else {
		err = scene.ErrNoFeatures
	}
	_ = v.SceneLoaded(doc, err)
	id := s.Views.Add(v)
	s.log.Debug("view_mounted", "id", id, "active_region", active, "views", s.Views.Len())
	writeJSON(w, http.StatusCreated, mountResponse{ID: id, Snapshot: v.Snapshot()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v.Snapshot())
}

func (s *Server) handleUnmount(w http.ResponseWriter, r *http.Request) {
	if err := s.Views.Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var ev eventRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snap, status, err := s.apply(r, v, ev)
	if err != nil {
		writeError(w, status, err)
		return
	}
	writeJSON(w, status, snap)
}

var errUnknownEvent = errors.New("api: unknown event type")

// apply：把一次事件作用到视图上，返回最新快照与状态码
func (s *Server) apply(r *http.Request, v *view.View, ev eventRequest) (view.Snapshot, int, error) {
	var snap view.Snapshot
	var err error
	switch ev.Type {
	case "enter":
		snap, err = v.Dispatch(scene.Event{Type: scene.Enter, FeatureID: ev.Feature, X: ev.X, Y: ev.Y})
	case "leave":
		snap, err = v.Dispatch(scene.Event{Type: scene.Leave, FeatureID: ev.Feature, X: ev.X, Y: ev.Y})
	case "move":
		snap, err = v.Dispatch(scene.Event{Type: scene.Move, X: ev.X, Y: ev.Y})
	case "click":
		snap, err = v.Dispatch(scene.Event{Type: scene.Click, FeatureID: ev.Feature, X: ev.X, Y: ev.Y})
	case "tile":
		snap, err = v.SelectTile(ev.Region)
	case "clear":
		snap, err = v.Clear()
	case "retry":
		// 请求返回后上下文即被取消，后台拉取不能继承它
		if err = v.Retry(context.WithoutCancel(r.Context())); err == nil {
			return v.Snapshot(), http.StatusAccepted, nil
		}
	default:
		return snap, http.StatusBadRequest, errUnknownEvent
	}
	switch {
	case err == nil:
		return snap, http.StatusOK, nil
	case errors.Is(err, view.ErrUnknownRegion):
		return snap, http.StatusBadRequest, err
	case errors.Is(err, view.ErrUnmounted):
		return snap, http.StatusGone, err
	}
	return snap, http.StatusInternalServerError, err
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := v.RenderScene(&buf); err != nil {
		if errors.Is(err, scene.ErrNoFeatures) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("content-type", "image/svg+xml")
	w.Header().Set("cache-control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// handleAdminRefresh：后台改数后立即生效；清理缓存并同步重新拉取
func (s *Server) handleAdminRefresh(w http.ResponseWriter, r *http.Request) {
	t := r.Header.Get("x-admin-token")
	if s.AdminToken == "" || t != s.AdminToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if s.Invalidate != nil {
		if err := s.Invalidate(r.Context()); err != nil {
			s.log.Error("datahook_cache_invalidate_error", "err", err)
		}
	}
	if err := s.Hook.FetchSync(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.log.Info("admin_refresh_ok")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*view.View, bool) {
	v, err := s.Views.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// metricsMiddleware：按路由模板统计请求数与耗时，避免以原始路径（含视图 id）作标签
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, metrics.StatusClass(status)).Inc()
		metrics.HTTPDurationMs.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	})
}
