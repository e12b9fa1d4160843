// 包 datahook：外部数据钩子
// 背景：大区/城市菜谱统计与菜系列表来自后端（Postgres 或 BaaS REST），拉取是异步的；钩子对外暴露 {数据, 加载中, 错误} 三元状态并支持重试
// 约束：钩子为进程级共享；视图通过 Subscribe 订阅，卸载后取消订阅，之后完成的拉取结果对其不可见
package datahook

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"recipe-map/internal/logger"
	"recipe-map/internal/metrics"
)

// RegionEntry：后端的大区/城市统计条目
type RegionEntry struct {
	Count       int      `json:"count"`
	Specialties []string `json:"specialties,omitempty"`
	ColorClass  string   `json:"color_class,omitempty"`
}

// Cuisine：菜系条目
type Cuisine struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Region      string `json:"region"`
	RecipeCount int    `json:"recipe_count"`
}

// Payload：一次成功拉取的数据
type Payload struct {
	Regions  map[string]RegionEntry `json:"regions"`
	Cuisines []Cuisine              `json:"cuisines"`
}

// Counts：名称 → 菜谱数，供内容解析层使用
func (p *Payload) Counts() map[string]int {
	if p == nil {
		return nil
	}
	out := make(map[string]int, len(p.Regions))
	for k, v := range p.Regions {
		out[k] = v.Count
	}
	return out
}

// Source：数据来源
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Payload, error)
}

var ErrNoSource = errors.New("datahook: no data source configured")

// State：钩子对外状态
// 约束：Error 为空表示无错误；出错时保留上一次成功的数据；首次拉取结束前 IsLoading 恒为 true
type State struct {
	Regions   map[string]RegionEntry `json:"regions"`
	Cuisines  []Cuisine              `json:"cuisines"`
	IsLoading bool                   `json:"isLoading"`
	Error     string                 `json:"error,omitempty"`
}

// Hook：数据钩子
type Hook struct {
	src       Source
	timeout   time.Duration
	onPayload func(*Payload)
	log       *slog.Logger

	mu      sync.Mutex
	state   State
	seq     uint64
	subs    map[int]func(State)
	nextSub int
	wg      sync.WaitGroup
}

// Option：钩子可选项
type Option func(*Hook)

// WithTimeout：单次拉取超时
func WithTimeout(d time.Duration) Option { return func(h *Hook) { h.timeout = d } }

// WithOnPayload：成功拉取后的回调（在通知订阅者之前调用）
func WithOnPayload(fn func(*Payload)) Option { return func(h *Hook) { h.onPayload = fn } }

// New：构建钩子；src 为空时使用空数据源（始终成功返回空字典，由调用方走静态兜底）
func New(src Source, opts ...Option) *Hook {
	if src == nil {
		src = Empty{}
	}
	h := &Hook{src: src, timeout: 5 * time.Second, log: logger.L(), subs: make(map[int]func(State)), state: State{IsLoading: true}}
	for _, o := range opts {
		o(h)
	}
	return h
}

// State：当前状态快照
func (h *Hook) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Subscribe：订阅状态变化，返回取消函数
func (h *Hook) Subscribe(fn func(State)) (cancel func()) {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Fetch：在后台协程发起拉取并立即返回
// 约束：进行中的拉取被新的拉取取代时，旧结果被丢弃
func (h *Hook) Fetch(ctx context.Context) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		_ = h.FetchSync(ctx)
	}()
}

// Refetch：重试入口（错误提示中的重试动作）
// 约束：拉取在后台进行，不随发起方（如 HTTP 请求）的取消而中断；超时仍由 WithTimeout 控制
func (h *Hook) Refetch(ctx context.Context) { h.Fetch(context.WithoutCancel(ctx)) }

// Wait：等待所有后台拉取结束（退出与测试使用）
func (h *Hook) Wait() { h.wg.Wait() }

// FetchSync：同步拉取并更新状态
func (h *Hook) FetchSync(ctx context.Context) error {
	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.state.IsLoading = true
	h.mu.Unlock()
	h.notify()

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	t0 := time.Now()
	p, err := h.src.Fetch(ctx)
	metrics.FetchDurationMs.WithLabelValues(h.src.Name()).Observe(float64(time.Since(t0).Milliseconds()))

	h.mu.Lock()
	if seq != h.seq {
		h.mu.Unlock()
		h.log.Debug("datahook_fetch_superseded", "source", h.src.Name(), "seq", seq)
		return err
	}
	h.state.IsLoading = false
	if err != nil {
		h.state.Error = err.Error()
		h.mu.Unlock()
		metrics.FetchTotal.WithLabelValues(h.src.Name(), "error").Inc()
		h.log.Error("datahook_fetch_error", "source", h.src.Name(), "err", err)
		h.notify()
		return err
	}
	if p == nil {
		p = &Payload{}
	}
	h.state.Error = ""
	h.state.Regions = p.Regions
	h.state.Cuisines = p.Cuisines
	h.mu.Unlock()
	metrics.FetchTotal.WithLabelValues(h.src.Name(), "ok").Inc()
	h.log.Info("datahook_fetch_ok", "source", h.src.Name(), "regions", len(p.Regions), "cuisines", len(p.Cuisines))
	if h.onPayload != nil {
		h.onPayload(p)
	}
	h.notify()
	return nil
}

func (h *Hook) notify() {
	h.mu.Lock()
	st := h.state
	fns := make([]func(State), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// Empty：空数据源
type Empty struct{}

func (Empty) Name() string { return "empty" }

func (Empty) Fetch(ctx context.Context) (*Payload, error) {
	return &Payload{Regions: map[string]RegionEntry{}}, nil
}
