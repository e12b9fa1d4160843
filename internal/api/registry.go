package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"recipe-map/internal/logger"
	"recipe-map/internal/view"
)

var ErrViewNotFound = errors.New("api: view not found")

type session struct {
	view     *view.View
	lastSeen time.Time
	done     chan struct{}
}

// Registry：每个浏览器会话一个视图，按 uuid 索引
// 约束：长时间无访问的视图由 Sweep 卸载，避免会话未正常 DELETE 时视图与场景订阅常驻
type Registry struct {
	mu    sync.Mutex
	views map[string]*session
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{views: make(map[string]*session), now: time.Now}
}

func (g *Registry) Add(v *view.View) string {
	id := uuid.NewString()
	g.mu.Lock()
	g.views[id] = &session{view: v, lastSeen: g.now(), done: make(chan struct{})}
	g.mu.Unlock()
	return id
}

// Get：查询视图并刷新最近访问时间
func (g *Registry) Get(id string) (*view.View, error) {
	s, err := g.session(id)
	if err != nil {
		return nil, err
	}
	return s.view, nil
}

func (g *Registry) session(id string) (*session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	s.lastSeen = g.now()
	return s, nil
}

// Remove：卸载并移除视图；同时结束该视图的推送连接
func (g *Registry) Remove(id string) error {
	g.mu.Lock()
	s, ok := g.views[id]
	delete(g.views, id)
	g.mu.Unlock()
	if !ok {
		return ErrViewNotFound
	}
	close(s.done)
	s.view.Unmount()
	return nil
}

func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.views)
}

// Sweep：卸载空闲超过 idle 的视图，返回卸载数量
func (g *Registry) Sweep(idle time.Duration) int {
	cutoff := g.now().Add(-idle)
	var stale []string
	g.mu.Lock()
	for id, s := range g.views {
		if s.lastSeen.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	g.mu.Unlock()
	n := 0
	for _, id := range stale {
		if g.Remove(id) == nil {
			n++
		}
	}
	if n > 0 {
		logger.L().Info("view_sweep", "removed", n, "remaining", g.Len())
	}
	return n
}

// RunJanitor：周期性清理空闲视图，直到 ctx 结束
func (g *Registry) RunJanitor(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	t := time.NewTicker(idle / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			g.Sweep(idle)
		}
	}
}

// Close：卸载全部视图（进程退出）
func (g *Registry) Close() {
	g.mu.Lock()
	ids := make([]string, 0, len(g.views))
	for id := range g.views {
		ids = append(ids, id)
	}
	g.mu.Unlock()
	for _, id := range ids {
		_ = g.Remove(id)
	}
}
